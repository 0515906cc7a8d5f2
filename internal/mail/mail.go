// Package mail is the notification-dispatch boundary: a Dispatcher that
// delivers a Message, and a bounded worker pool that decouples sweep
// throughput from SMTP latency. Delivery is best-effort; no receipt flows
// back to callers.
package mail

// Template keys understood by the dispatcher.
const (
	TemplateUnlockedMemory = "unlocked_memory"
)

// Message is one outbound notification.
type Message struct {
	To          string
	TemplateKey string
	Subject     string
	Context     map[string]string
	// Attachments are absolute paths readable at send time.
	Attachments []string
}

// Dispatcher delivers a message. Implementations must be safe for
// concurrent use by pool workers.
type Dispatcher interface {
	Dispatch(msg Message) error
}
