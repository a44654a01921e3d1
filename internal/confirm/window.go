package confirm

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/safenetai/escalation/internal/config"
	"github.com/safenetai/escalation/internal/domain/escalation"
	"github.com/safenetai/escalation/internal/logger"
)

// Observer receives user-facing countdown feedback. Implementations belong
// to the external collaborator responsible for UI awareness; the pipeline
// only guarantees the delivery contract: one tick per interval, then exactly
// one of cancelled or committed.
type Observer interface {
	// CountdownTick reports the remaining whole seconds once per tick.
	CountdownTick(ctx context.Context, remainingSeconds int)
	// Cancelled acknowledges a cancellation before expiry.
	Cancelled(ctx context.Context, candidate escalation.CandidateEvent)
	// Committed announces the committed event after expiry.
	Committed(ctx context.Context, event *escalation.CommittedEvent)
	// CommitFailed reports that the window expired but no record was
	// created. The candidate is dropped.
	CommitFailed(ctx context.Context, candidate escalation.CandidateEvent)
}

// Committer turns an expired candidate into a committed event and creates
// its alert record. The window invokes it at most once per candidate.
type Committer interface {
	Commit(ctx context.Context, candidate escalation.CandidateEvent) (*escalation.CommittedEvent, error)
}

// ResolvedFunc is notified once per window with the candidate it carried and
// the final outcome (true when the window expired into a commit). The
// candidate identifies which detector's cooldown to drive.
type ResolvedFunc func(candidate escalation.CandidateEvent, committed bool)

// ErrWindowActive is returned when a second window is opened while one is
// still counting down. The detector's dormancy should prevent this; the
// manager enforces it regardless.
var ErrWindowActive = errors.New("confirmation window already active")

// outcome is the single-assignment resolution of a window.
type outcome int

const (
	outcomeNone outcome = iota
	outcomeCancelled
	outcomeCommitted
	outcomeAbandoned
)

// Manager opens confirmation windows and enforces the one-at-a-time rule.
type Manager struct {
	// lifetime bounds every countdown goroutine. Cancelling it abandons the
	// active window without committing.
	lifetime context.Context
	// duration is the total countdown length.
	duration time.Duration
	// tick is the interval between observer reports.
	tick time.Duration
	// committer handles expiry.
	committer Committer
	// observer receives countdown feedback.
	observer Observer
	// onResolved is called once per window with the final outcome.
	onResolved ResolvedFunc

	// mu guards active.
	mu sync.Mutex
	// active is the currently counting window, if any.
	active *Window
}

// nopObserver stands in when the caller has no countdown surface.
type nopObserver struct{}

func (nopObserver) CountdownTick(context.Context, int)                      {}
func (nopObserver) Cancelled(context.Context, escalation.CandidateEvent)    {}
func (nopObserver) Committed(context.Context, *escalation.CommittedEvent)   {}
func (nopObserver) CommitFailed(context.Context, escalation.CandidateEvent) {}

// NewManager creates a window manager whose countdowns live on the given
// lifetime context, not on the context of the request that opened them.
// A nil observer is allowed and means nobody watches the countdown.
func NewManager(lifetime context.Context, cfg config.WindowConfig, committer Committer, observer Observer, onResolved ResolvedFunc) *Manager {
	if lifetime == nil {
		lifetime = context.Background()
	}

	if observer == nil {
		observer = nopObserver{}
	}

	return &Manager{
		lifetime:   lifetime,
		duration:   cfg.Duration,
		tick:       cfg.Tick,
		committer:  committer,
		observer:   observer,
		onResolved: onResolved,
	}
}

// Open starts the countdown for a candidate and returns its handle.
// A second Open while a window is counting down is rejected with
// ErrWindowActive and creates nothing.
func (m *Manager) Open(ctx context.Context, candidate escalation.CandidateEvent) (*Window, error) {
	m.mu.Lock()

	if m.active != nil {
		m.mu.Unlock()
		logger.WarnKV(ctx, "Rejected concurrent confirmation window", "origin_id", candidate.OriginID)

		return nil, ErrWindowActive
	}

	w := &Window{
		manager:   m,
		candidate: candidate,
		cancelCh:  make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	m.active = w
	m.mu.Unlock()

	logger.InfoKV(ctx, "Confirmation window opened",
		"origin_id", candidate.OriginID, "duration", m.duration)

	// The countdown must outlive the request that opened it: run it on the
	// manager's lifetime context, keeping the request's scoped logger.
	runCtx := logger.ToContext(m.lifetime, logger.FromContext(ctx))

	go w.run(runCtx)

	return w, nil
}

// CancelActive cancels the currently counting window, if any.
// Reports whether a window was there to cancel.
func (m *Manager) CancelActive() bool {
	m.mu.Lock()
	w := m.active
	m.mu.Unlock()

	if w == nil {
		return false
	}

	w.Cancel()

	return true
}

// release clears the active slot and reports the outcome.
func (m *Manager) release(w *Window, committed bool) {
	m.mu.Lock()
	if m.active == w {
		m.active = nil
	}
	m.mu.Unlock()

	if m.onResolved != nil {
		m.onResolved(w.candidate, committed)
	}
}

// Window is one cancellable countdown owned by the manager.
type Window struct {
	// manager is the owning manager, notified on resolution.
	manager *Manager
	// candidate is the event awaiting confirmation.
	candidate escalation.CandidateEvent

	// resolveOnce makes the resolution single-assignment: exactly one of
	// cancel, expiry or shutdown claims the window.
	resolveOnce sync.Once
	// resolution is the claimed outcome, written once under resolveOnce.
	resolution outcome

	// cancelCh is closed when a cancel claim wins.
	cancelCh chan struct{}
	// doneCh is closed when the countdown goroutine finishes.
	doneCh chan struct{}
}

// Cancel resolves the window as cancelled. Idempotent: cancelling twice, or
// after expiry, is a no-op.
func (w *Window) Cancel() {
	if w.claim(outcomeCancelled) {
		close(w.cancelCh)
	}
}

// Done is closed once the window has fully resolved and torn down.
func (w *Window) Done() <-chan struct{} {
	return w.doneCh
}

// claim attempts the single-assignment resolution. True when this caller won.
func (w *Window) claim(o outcome) bool {
	won := false

	w.resolveOnce.Do(func() {
		w.resolution = o
		won = true
	})

	return won
}

// run drives the countdown as a cancellable timer rather than a sleep, so a
// cancel is observed within one select iteration.
func (w *Window) run(ctx context.Context) {
	defer close(w.doneCh)

	deadline := time.Now().Add(w.manager.duration)
	expiry := time.NewTimer(w.manager.duration)
	ticker := time.NewTicker(w.manager.tick)

	defer expiry.Stop()
	defer ticker.Stop()

	w.manager.observer.CountdownTick(ctx, remainingSeconds(deadline, time.Now()))

	for {
		select {
		case <-ctx.Done():
			// Pipeline shutdown: tear down without committing.
			w.claim(outcomeAbandoned)
			w.manager.release(w, false)

			return
		case <-w.cancelCh:
			logger.InfoKV(ctx, "Confirmation window cancelled", "origin_id", w.candidate.OriginID)
			w.manager.observer.Cancelled(ctx, w.candidate)
			w.manager.release(w, false)

			return
		case now := <-ticker.C:
			w.manager.observer.CountdownTick(ctx, remainingSeconds(deadline, now))
		case <-expiry.C:
			if !w.claim(outcomeCommitted) {
				// A concurrent cancel won the claim; honor it.
				w.manager.observer.Cancelled(ctx, w.candidate)
				w.manager.release(w, false)

				return
			}

			w.commit(ctx)

			return
		}
	}
}

// commit runs the expiry path: create the record exactly once, then fire the
// broadcast hook exactly once. A store failure drops the event (no blind
// retry, to avoid duplicate-commit risk) and is surfaced in the log.
func (w *Window) commit(ctx context.Context) {
	event, err := w.manager.committer.Commit(ctx, w.candidate)
	if err != nil {
		logger.ErrorKV(ctx, "Commit failed, event dropped",
			"origin_id", w.candidate.OriginID, "error", err)
		w.manager.observer.CommitFailed(ctx, w.candidate)
		// No record exists, so no cooldown either: resolve as uncommitted.
		w.manager.release(w, false)

		return
	}

	w.manager.observer.Committed(ctx, event)
	w.manager.release(w, true)
}

// remainingSeconds reports the whole seconds left before the deadline,
// rounding up so the first report shows the full countdown.
func remainingSeconds(deadline, now time.Time) int {
	left := deadline.Sub(now)
	if left <= 0 {
		return 0
	}

	return int(math.Ceil(left.Seconds()))
}
