package escalation

import "time"

// RecordStatus is the lifecycle state persisted on an alert record.
// The pipeline only ever produces pending records; later states belong to
// the staff workflow outside this core.
type RecordStatus string

// StatusPending is the status of every record created by the pipeline.
const StatusPending RecordStatus = "pending"

// AlertRecord is the persisted alert produced for exactly one committed
// event. The core never mutates a record after creation; the store is
// append-only from its perspective.
type AlertRecord struct {
	// ID uniquely identifies the record.
	ID string
	// RequestType mirrors the committed event kind.
	RequestType RequestType
	// Status is always StatusPending when written by the pipeline.
	Status RecordStatus
	// Priority mirrors the committed event priority.
	Priority Priority
	// Subject is the normalized subject context, placeholders included.
	Subject SubjectContext
	// TriggeredBy names the trigger mechanism for the audit trail.
	TriggeredBy string
	// CreatedAt is when the record was created.
	CreatedAt time.Time
}

// NewAlertRecord derives the single alert record for a committed event.
// The subject is normalized so every field is present in the stored form.
func NewAlertRecord(event *CommittedEvent) *AlertRecord {
	return &AlertRecord{
		ID:          event.ID,
		RequestType: event.Kind,
		Status:      StatusPending,
		Priority:    event.Priority,
		Subject:     event.Subject.Normalize(),
		TriggeredBy: event.TriggeredBy,
		CreatedAt:   event.CreatedAt,
	}
}

// Clone returns a copy of the record to avoid leaking internal references.
func (r *AlertRecord) Clone() *AlertRecord {
	if r == nil {
		return nil
	}

	cloned := *r

	return &cloned
}

// IsUrgent reports whether the record demands the urgent delivery channel.
func (r *AlertRecord) IsUrgent() bool {
	return r.RequestType == RequestTypePanicAlert || r.Priority == PriorityUrgent || r.Priority == PriorityHigh
}
