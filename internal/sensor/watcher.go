package sensor

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/safenetai/escalation/internal/domain/escalation"
	"github.com/safenetai/escalation/internal/logger"
)

// Snapshot is one telemetry document for a device.
type Snapshot struct {
	// DeviceID identifies the reporting sensor.
	DeviceID string
	// AlertTriggered is the alarm flag the watcher edge-triggers on.
	AlertTriggered bool
	// Readings carries raw sensor values (smoke ppm, gas ppm, battery).
	// Changes here never fire the watcher.
	Readings map[string]float64
	// ObservedAt is when the snapshot was written.
	ObservedAt time.Time
}

// OccupantResolver finds the subject owning a device. A miss is reported
// with ok=false and is not an error; errors mean the directory itself was
// unreachable.
type OccupantResolver interface {
	// ResolveByDevice looks up the explicit device association.
	ResolveByDevice(ctx context.Context, deviceID string) (subject escalation.SubjectContext, ok bool, err error)
	// ResolveByUnit looks up a resident by unit/flat identifier.
	ResolveByUnit(ctx context.Context, unit string) (subject escalation.SubjectContext, ok bool, err error)
}

// Committer persists a sensor-committed event: exactly one alert record per
// call, routing included.
type Committer interface {
	CommitCommitted(ctx context.Context, event *escalation.CommittedEvent) error
}

// unitSuffixPattern extracts the trailing digits of a device id, which by
// installation convention match the unit number (device "room101" serves
// unit "101").
var unitSuffixPattern = regexp.MustCompile(`[0-9]+$`)

// Watcher turns false->true edges of the telemetry alert flag into committed
// events. Sensor alerts have no human party at the device, so they skip the
// confirmation window and commit immediately.
type Watcher struct {
	// resolver maps devices to their owning occupants.
	resolver OccupantResolver
	// committer persists committed events.
	committer Committer
	// now is the clock, swappable in tests.
	now func() time.Time

	// mu guards lastAlerted.
	mu sync.Mutex
	// lastAlerted remembers the last seen flag per device so duplicate
	// delivery of the same transition cannot re-fire.
	lastAlerted map[string]bool
}

// NewWatcher creates a telemetry watcher.
func NewWatcher(resolver OccupantResolver, committer Committer) *Watcher {
	return &Watcher{
		resolver:    resolver,
		committer:   committer,
		now:         time.Now,
		lastAlerted: make(map[string]bool),
	}
}

// HandleChange processes one (before, after) snapshot pair. A nil before
// means the device was not seen previously. Only a false->true edge of the
// alert flag fires; a steady-state true or any other field change is a
// no-op. Delivery is assumed at-least-once, so the watcher also consults its
// own last-seen state before firing.
func (w *Watcher) HandleChange(ctx context.Context, before *Snapshot, after Snapshot) error {
	if after.DeviceID == "" {
		logger.Warn(ctx, "Ignoring telemetry snapshot without device id")

		return nil
	}

	fire := w.markEdge(before, after)
	if !fire {
		return nil
	}

	logger.InfoKV(ctx, "Sensor alert edge detected", "device_id", after.DeviceID)

	subject, err := w.resolveOccupant(ctx, after.DeviceID)
	if err != nil {
		// Directory unreachable is fatal for this event; the flag stays
		// raised in lastAlerted so the same edge cannot half-commit twice.
		return fmt.Errorf("resolve occupant for %s: %w", after.DeviceID, err)
	}

	event := &escalation.CommittedEvent{
		ID:          uuid.NewString(),
		Kind:        escalation.RequestTypeSensorAlert,
		Subject:     subject,
		Priority:    escalation.PriorityUrgent,
		TriggeredBy: "sensor:" + after.DeviceID,
		CreatedAt:   w.now(),
	}

	if err := w.committer.CommitCommitted(ctx, event); err != nil {
		return fmt.Errorf("commit sensor alert for %s: %w", after.DeviceID, err)
	}

	return nil
}

// HandleSnapshot processes a single snapshot, deriving the before state from
// the watcher's last-seen memory for the device.
func (w *Watcher) HandleSnapshot(ctx context.Context, after Snapshot) error {
	return w.HandleChange(ctx, nil, after)
}

// markEdge decides whether the pair is a qualifying edge and records the new
// flag state. The remembered state wins over the delivered before snapshot,
// which makes duplicate deliveries of one transition idempotent.
func (w *Watcher) markEdge(before *Snapshot, after Snapshot) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	previous, seen := w.lastAlerted[after.DeviceID]
	if !seen && before != nil {
		previous = before.AlertTriggered
	}

	w.lastAlerted[after.DeviceID] = after.AlertTriggered

	return after.AlertTriggered && !previous
}

// resolveOccupant finds the owning subject: explicit device association
// first, then the numeric-suffix unit fallback. A full miss yields the
// unknown-resident placeholder rather than failing the pipeline.
func (w *Watcher) resolveOccupant(ctx context.Context, deviceID string) (escalation.SubjectContext, error) {
	subject, ok, err := w.resolver.ResolveByDevice(ctx, deviceID)
	if err != nil {
		return escalation.SubjectContext{}, err
	}

	if ok {
		return subject, nil
	}

	if unit := unitSuffixPattern.FindString(deviceID); unit != "" {
		subject, ok, err = w.resolver.ResolveByUnit(ctx, unit)
		if err != nil {
			return escalation.SubjectContext{}, err
		}

		if ok {
			return subject, nil
		}
	}

	logger.WarnKV(ctx, "No occupant resolved for device, using placeholders", "device_id", deviceID)

	return escalation.SubjectContext{}, nil
}
