package launcher

// EventServerStarted is emitted once a freshly spawned server answers healthy.
const EventServerStarted = "server-started"

// Event is a lifecycle notification delivered to the host shell.
// Fire-and-forget: no acknowledgement is expected.
type Event struct {
	Name      string `json:"name"`
	URL       string `json:"url,omitempty"`
	AttemptID string `json:"attempt_id,omitempty"`
}

// EventPublisher receives events from the launcher. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
