package detector

import (
	"context"
	"sync"
	"time"

	"github.com/safenetai/escalation/internal/config"
	"github.com/safenetai/escalation/internal/domain/escalation"
	"github.com/safenetai/escalation/internal/logger"
)

// EmitFunc receives the candidate event recognized from a qualifying burst.
// It is called synchronously from the press-handling path and must not block.
type EmitFunc func(ctx context.Context, candidate escalation.CandidateEvent)

// Detector classifies a burst of input presses as a candidate emergency
// event. One instance owns the state for one physical input source; all
// mutation happens through HandlePress and the window-resolution callbacks.
type Detector struct {
	// originID identifies the input source this detector observes.
	originID string
	// requiredPresses is the burst size that triggers a candidate.
	requiredPresses int
	// threshold is the maximum gap between consecutive presses.
	threshold time.Duration
	// cooldown keeps the detector dormant after a commit.
	cooldown time.Duration
	// emit delivers recognized candidates downstream.
	emit EmitFunc
	// now is the clock, swappable in tests.
	now func() time.Time

	// mu guards the mutable burst state below.
	mu sync.Mutex
	// count is the current consecutive-press count.
	count int
	// lastPress is the timestamp of the most recent counted press.
	lastPress time.Time
	// windowOpen is true while an emitted candidate awaits resolution.
	windowOpen bool
	// cooldownUntil is the instant dormancy ends after a commit.
	cooldownUntil time.Time
}

// New creates a detector for one input source.
func New(originID string, cfg config.DetectorConfig, emit EmitFunc) *Detector {
	return &Detector{
		originID:        originID,
		requiredPresses: cfg.RequiredPresses,
		threshold:       cfg.PressThreshold,
		cooldown:        cfg.Cooldown,
		emit:            emit,
		now:             time.Now,
	}
}

// HandlePress feeds one input event into the state machine.
//
// The returned flag tells the input source whether the press was consumed
// for detection purposes: true while the detector is armed, false while it
// is dormant so default handling of the input resumes upstream. The flag is
// independent of whether a candidate was emitted.
func (d *Detector) HandlePress(ctx context.Context, event escalation.InputEvent) bool {
	timestamp := event.Timestamp
	if timestamp.IsZero() {
		timestamp = d.now()
	}

	consumed, candidate := d.countPress(ctx, timestamp)

	// Emitted with the mutex released: the receiver may resolve the window
	// synchronously, which re-enters the detector through WindowResolved.
	if candidate != nil {
		d.emit(ctx, *candidate)
	}

	return consumed
}

// countPress advances the burst state machine by one press and returns the
// candidate to emit, if the press completed a qualifying burst.
func (d *Detector) countPress(ctx context.Context, timestamp time.Time) (bool, *escalation.CandidateEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Out-of-order input is an anomaly: ignored, logged, not counted.
	if timestamp.Before(d.lastPress) {
		logger.WarnKV(ctx, "Ignoring out-of-order press",
			"origin_id", d.originID, "timestamp", timestamp, "last_press", d.lastPress)

		return d.armed(timestamp), nil
	}

	if !d.armed(timestamp) {
		return false, nil
	}

	// A gap beyond the threshold restarts the window at this press, so the
	// count resets to 1 rather than 0.
	if d.count == 0 || timestamp.Sub(d.lastPress) > d.threshold {
		d.count = 1
	} else {
		d.count++
	}

	d.lastPress = timestamp

	if d.count < d.requiredPresses {
		return true, nil
	}

	d.count = 0
	d.windowOpen = true

	logger.InfoKV(ctx, "Press burst recognized",
		"origin_id", d.originID, "first_seen_at", timestamp)

	return true, &escalation.CandidateEvent{
		OriginID:    d.originID,
		FirstSeenAt: timestamp,
	}
}

// WindowResolved reports the outcome of the outstanding confirmation window.
// A committed window starts the cooldown; a cancelled one re-arms the
// detector immediately.
func (d *Detector) WindowResolved(committed bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.windowOpen = false
	d.count = 0

	if committed {
		d.cooldownUntil = d.now().Add(d.cooldown)
	}
}

// armed reports whether presses at the given instant count toward a burst.
// Callers must hold d.mu.
func (d *Detector) armed(at time.Time) bool {
	if d.windowOpen {
		return false
	}

	return !at.Before(d.cooldownUntil)
}
