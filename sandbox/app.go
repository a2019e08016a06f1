package sandbox

import (
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/text/language"

	"github.com/wudi/formscript/form"
)

// App is the script-facing `app` object: viewer information, dialogs and
// timers. Timer callbacks are evaluated by the owning Sandbox.
type App struct {
	host Host
	doc  *form.Doc

	language string
	platform string

	focusRect        bool
	openInPlace      bool
	runtimeHighlight bool

	timers map[int]*Timer
	nextID int
	obj    *form.Object
}

func newApp(info AppInfo, doc *form.Doc, host Host) *App {
	a := &App{
		host:      host,
		doc:       doc,
		language:  languageCode(info.Language),
		platform:  platformCode(info.Platform),
		focusRect: true,
		timers:    make(map[int]*Timer),
	}
	a.obj = form.NewObject(a, nil)
	return a
}

func (a *App) Object() *form.Object { return a.obj }

// Language returns the three letter viewer language code.
func (a *App) Language() string { return a.language }

func (a *App) Platform() string { return a.platform }

// languageCode maps a BCP 47 tag to the viewer language codes scripts
// expect. Unknown languages fall back to ENU.
func languageCode(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		return "ENU"
	}
	base, _ := t.Base()
	region, conf := t.Region()
	exact := conf == language.Exact
	switch base.String() {
	case "zh":
		if exact && (region.String() == "CN" || region.String() == "SG") {
			return "CHS"
		}
		return "CHT"
	case "da":
		return "DAN"
	case "de":
		return "DEU"
	case "es":
		return "ESP"
	case "fr":
		return "FRA"
	case "it":
		return "ITA"
	case "ko":
		return "KOR"
	case "ja":
		return "JPN"
	case "nl":
		return "NLD"
	case "no", "nb", "nn":
		return "NOR"
	case "pt":
		if exact && region.String() == "BR" {
			return "PTB"
		}
		return "ENU"
	case "fi":
		return "SUO"
	case "sv":
		return "SVE"
	}
	return "ENU"
}

func platformCode(platform string) string {
	p := strings.ToLower(platform)
	switch {
	case strings.Contains(p, "win"):
		return "WIN"
	case strings.Contains(p, "mac"):
		return "MAC"
	}
	return "UNIX"
}

// ObjectID implements form.Backing. App properties are not mirrored.
func (a *App) ObjectID() string { return "" }

func (a *App) Property(name string) (form.Property, bool) {
	switch name {
	case "calculate":
		return form.Property{
			Get: func() any { return a.doc.Calculate() },
			Set: func(v any) error { a.doc.SetCalculate(form.Truthy(v)); return nil },
		}, true
	case "language":
		return form.Property{Get: func() any { return a.language }}, true
	case "platform":
		return form.Property{Get: func() any { return a.platform }}, true
	case "activeDocs":
		return form.Property{Get: func() any { return []any{a.doc.Object()} }}, true
	case "focusRect":
		return flag(&a.focusRect), true
	case "openInPlace":
		return flag(&a.openInPlace), true
	case "runtimeHighlight":
		return flag(&a.runtimeHighlight), true
	}
	return form.Property{}, false
}

var appProperties = []string{
	"calculate", "language", "platform", "activeDocs",
	"focusRect", "openInPlace", "runtimeHighlight",
}

func (a *App) PropertyNames() []string { return append([]string(nil), appProperties...) }

func flag(p *bool) form.Property {
	return form.Property{
		Get: func() any { return *p },
		Set: func(v any) error { *p = form.Truthy(v); return nil },
	}
}

func (a *App) Method(name string) (form.Method, bool) {
	switch name {
	case "alert":
		return func(c form.Call) (any, error) {
			a.host.Alert(form.ToString(c.Arg(0)))
			return nil, nil
		}, true
	case "response":
		return func(c form.Call) (any, error) {
			answer, ok := a.host.Prompt(form.ToString(c.Arg(0)), form.ToString(c.Arg(2)))
			if !ok {
				return nil, nil
			}
			return answer, nil
		}, true
	case "beep":
		return func(form.Call) (any, error) { return nil, nil }, true
	case "setTimeOut":
		return a.schedule("setTimeOut", false), true
	case "setInterval":
		return a.schedule("setInterval", true), true
	case "clearTimeOut", "clearInterval":
		return func(c form.Call) (any, error) {
			if obj, ok := c.Arg(0).(*form.Object); ok {
				if t, ok := obj.Backing().(*Timer); ok {
					t.Cancel()
				}
			}
			return nil, nil
		}, true
	}
	return nil, false
}

func (a *App) schedule(method string, interval bool) form.Method {
	return func(c form.Call) (any, error) {
		expr, ok := c.Arg(0).(string)
		if !ok {
			return nil, errors.Wrapf(form.ErrInvalidArgument, "first argument of app.%s must be a string", method)
		}
		ms, err := c.Int(1, "second argument of app."+method)
		if err != nil {
			return nil, err
		}
		t := a.newTimer(expr, interval)
		a.host.SetTimer(t.id, time.Duration(ms)*time.Millisecond, interval)
		return t.obj, nil
	}
}

// Timer is the handle returned by app.setTimeOut and app.setInterval. It
// owns its cancellation: Cancel unregisters the callback and tells the
// host to disarm. Dropping a handle does not cancel it.
type Timer struct {
	app      *App
	id       int
	interval bool
	expr     string
	done     bool
	obj      *form.Object
}

func (a *App) newTimer(expr string, interval bool) *Timer {
	t := &Timer{app: a, id: a.nextID, interval: interval, expr: expr}
	a.nextID++
	t.obj = form.NewObject(t, nil)
	a.timers[t.id] = t
	return t
}

func (t *Timer) ID() int { return t.id }

// Cancel is idempotent.
func (t *Timer) Cancel() {
	if t.done {
		return
	}
	t.done = true
	delete(t.app.timers, t.id)
	t.app.host.ClearTimer(t.id, t.interval)
}

// fire returns the expression to evaluate for a host callback. One-shot
// timers are unregistered without notifying the host, which already
// dropped them.
func (a *App) fire(id int, interval bool) (string, bool) {
	t, ok := a.timers[id]
	if !ok {
		return "", false
	}
	if !interval {
		t.done = true
		delete(a.timers, id)
	}
	return t.expr, true
}

// cancelAll cancels every outstanding timer in creation order.
func (a *App) cancelAll() {
	ids := make([]int, 0, len(a.timers))
	for id := range a.timers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		a.timers[id].Cancel()
	}
}

// ObjectID implements form.Backing. Timer handles are opaque to scripts.
func (t *Timer) ObjectID() string                      { return "" }
func (t *Timer) Property(string) (form.Property, bool) { return form.Property{}, false }
func (t *Timer) PropertyNames() []string               { return nil }
