package sandbox

import (
	"time"

	"github.com/wudi/formscript/form"
)

// Host is the viewer side of a session. Calls are fire-and-forget except
// Prompt, which blocks until the user answers.
type Host interface {
	form.Sender

	Alert(msg string)

	// Prompt asks question with a default answer. ok is false when the
	// user dismissed the dialog.
	Prompt(question, defaultValue string) (answer string, ok bool)

	// SetTimer arms a timer that later calls back TimeoutCallback with id.
	SetTimer(id int, d time.Duration, interval bool)

	ClearTimer(id int, interval bool)
}
