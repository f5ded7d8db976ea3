package events

import "time"

// Event is anything pushed to console subscribers.
type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

// Console event codes.
const (
	JobUpdated         = "JOB_UPDATED"
	ConsoleUpdated     = "CONSOLE_UPDATED"
	SelectionPreview   = "SELECTION_PREVIEW"
	MeasurementUpdated = "MEASUREMENT_UPDATED"
)

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

// New stamps an event with the current time.
func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}

func (e BaseEvent) EventType() string { return e.Type }

func (e BaseEvent) Payload() map[string]interface{} { return e.Data }

func (e BaseEvent) Timestamp() time.Time { return e.OccurredAt }
