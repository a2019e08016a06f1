package form

// Message is a structured, fire-and-forget notification for the host.
// Property updates carry "id" plus the property name; commands carry
// "command" and "value".
type Message map[string]any

// Sender delivers messages to the host. No acknowledgement is awaited.
type Sender interface {
	Send(msg Message)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(msg Message)

func (f SenderFunc) Send(msg Message) { f(msg) }

func send(s Sender, msg Message) {
	if s != nil {
		s.Send(msg)
	}
}
