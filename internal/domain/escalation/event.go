package escalation

import "time"

// RequestType classifies what kind of emergency produced an event or record.
type RequestType string

const (
	// RequestTypePanicAlert marks events from the human panic trigger.
	RequestTypePanicAlert RequestType = "panic_alert"
	// RequestTypeSensorAlert marks events from unattended sensor telemetry.
	RequestTypeSensorAlert RequestType = "sensor_alert"
	// RequestTypeGeneral marks requests not tied to an emergency trigger.
	RequestTypeGeneral RequestType = "general"
)

// Priority orders notifications by urgency. The router maps it, together
// with the request type, onto exactly one delivery channel.
type Priority string

const (
	// PriorityUrgent demands immediate attention with the alarm sound profile.
	PriorityUrgent Priority = "urgent"
	// PriorityHigh is treated as urgent by the channel mapping.
	PriorityHigh Priority = "high"
	// PriorityMedium gets its own channel with the default sound.
	PriorityMedium Priority = "medium"
	// PriorityNormal is the default for everything else.
	PriorityNormal Priority = "normal"
)

// InputEvent is a single low-level input observation (a button press).
// It is ephemeral: produced by the input source, consumed by the detector,
// never persisted.
type InputEvent struct {
	// Timestamp is when the press was observed by the input source.
	Timestamp time.Time
}

// CandidateEvent is an unconfirmed emergency trigger awaiting its
// cancellation window. It is owned exclusively by the confirmation window
// until that window resolves.
type CandidateEvent struct {
	// OriginID identifies the input source that produced the burst.
	OriginID string
	// Subject is the resident context captured at trigger time.
	Subject SubjectContext
	// FirstSeenAt is when the qualifying press was observed.
	FirstSeenAt time.Time
}

// CommittedEvent is a trigger that passed its confirmation stage (or
// required none). It is immutable once created and must produce exactly one
// AlertRecord.
type CommittedEvent struct {
	// ID uniquely identifies the committed event.
	ID string
	// Kind tells whether a human trigger or a sensor produced the event.
	Kind RequestType
	// Subject is the resident/unit identity the event concerns.
	Subject SubjectContext
	// Priority is fixed at commit time.
	Priority Priority
	// TriggeredBy names the concrete trigger mechanism for the audit trail.
	TriggeredBy string
	// CreatedAt is when the event was committed.
	CreatedAt time.Time
}

// Clone returns a copy of the event to avoid leaking internal references.
func (e *CommittedEvent) Clone() *CommittedEvent {
	if e == nil {
		return nil
	}

	cloned := *e

	return &cloned
}

// IsUrgent reports whether the event demands the urgent delivery channel.
func (e *CommittedEvent) IsUrgent() bool {
	return e.Kind == RequestTypePanicAlert || e.Priority == PriorityUrgent || e.Priority == PriorityHigh
}
