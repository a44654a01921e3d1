// Package escalation contains core domain types for the emergency pipeline.
//
// It defines the event chain (InputEvent -> CandidateEvent -> CommittedEvent
// -> AlertRecord), the subject context with its placeholder discipline, and
// Clone helpers to avoid leaking internal references.
package escalation
