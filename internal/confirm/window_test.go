package confirm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/safenetai/escalation/internal/config"
	"github.com/safenetai/escalation/internal/domain/escalation"
)

var errStoreDown = errors.New("store unavailable")

// recordingCommitter counts commits and can simulate a failing store.
type recordingCommitter struct {
	mu      sync.Mutex
	commits int
	fail    bool
}

func (c *recordingCommitter) Commit(_ context.Context, candidate escalation.CandidateEvent) (*escalation.CommittedEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fail {
		return nil, errStoreDown
	}

	c.commits++

	return &escalation.CommittedEvent{
		ID:        "evt-1",
		Kind:      escalation.RequestTypePanicAlert,
		Subject:   candidate.Subject,
		Priority:  escalation.PriorityUrgent,
		CreatedAt: time.Now(),
	}, nil
}

func (c *recordingCommitter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.commits
}

// recordingObserver collects observer callbacks.
type recordingObserver struct {
	mu        sync.Mutex
	ticks     []int
	cancelled int
	committed int
	failed    int
}

func (o *recordingObserver) CountdownTick(_ context.Context, remaining int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ticks = append(o.ticks, remaining)
}

func (o *recordingObserver) Cancelled(context.Context, escalation.CandidateEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancelled++
}

func (o *recordingObserver) Committed(context.Context, *escalation.CommittedEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.committed++
}

func (o *recordingObserver) CommitFailed(context.Context, escalation.CandidateEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed++
}

func (o *recordingObserver) counts() (cancelled, committed, ticks int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.cancelled, o.committed, len(o.ticks)
}

func (o *recordingObserver) failures() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.failed
}

// shortConfig runs the countdown at millisecond scale for test speed.
func shortConfig() config.WindowConfig {
	return config.WindowConfig{
		Duration: 60 * time.Millisecond,
		Tick:     10 * time.Millisecond,
	}
}

func candidate() escalation.CandidateEvent {
	return escalation.CandidateEvent{
		OriginID:    "input-1",
		FirstSeenAt: time.Now(),
	}
}

// resolution is one onResolved invocation captured by the tests.
type resolution struct {
	candidate escalation.CandidateEvent
	committed bool
}

// TestExpiryCommitsOnce verifies the uncancelled path: exactly one commit,
// one committed callback, resolution reported as committed and carrying the
// originating candidate.
func TestExpiryCommitsOnce(t *testing.T) {
	t.Parallel()

	var (
		committer  = new(recordingCommitter)
		observer   = new(recordingObserver)
		resolvedCh = make(chan resolution, 1)
	)

	m := NewManager(context.Background(), shortConfig(), committer, observer, func(c escalation.CandidateEvent, committed bool) {
		resolvedCh <- resolution{candidate: c, committed: committed}
	})

	w, err := m.Open(context.Background(), candidate())
	require.NoError(t, err)

	<-w.Done()

	resolved := <-resolvedCh
	require.True(t, resolved.committed)
	require.Equal(t, "input-1", resolved.candidate.OriginID)
	require.Equal(t, 1, committer.count())

	cancelled, committed, ticks := observer.counts()
	require.Zero(t, cancelled)
	require.Equal(t, 1, committed)
	require.GreaterOrEqual(t, ticks, 2)
}

// TestCancelPreventsCommit verifies that a cancel before expiry suppresses
// the commit and that cancelling again afterwards is a no-op.
func TestCancelPreventsCommit(t *testing.T) {
	t.Parallel()

	var (
		committer  = new(recordingCommitter)
		observer   = new(recordingObserver)
		resolvedCh = make(chan resolution, 1)
	)

	m := NewManager(context.Background(), shortConfig(), committer, observer, func(c escalation.CandidateEvent, committed bool) {
		resolvedCh <- resolution{candidate: c, committed: committed}
	})

	w, err := m.Open(context.Background(), candidate())
	require.NoError(t, err)

	w.Cancel()
	<-w.Done()

	require.False(t, (<-resolvedCh).committed)
	require.Zero(t, committer.count())

	cancelled, committed, _ := observer.counts()
	require.Equal(t, 1, cancelled)
	require.Zero(t, committed)

	// Idempotent after resolution.
	w.Cancel()
	require.Zero(t, committer.count())
}

// TestSecondOpenRejected verifies the one-window-at-a-time guard.
func TestSecondOpenRejected(t *testing.T) {
	t.Parallel()

	var (
		committer = new(recordingCommitter)
		observer  = new(recordingObserver)
	)

	m := NewManager(context.Background(), shortConfig(), committer, observer, nil)

	w, err := m.Open(context.Background(), candidate())
	require.NoError(t, err)

	_, err = m.Open(context.Background(), candidate())
	require.ErrorIs(t, err, ErrWindowActive)

	w.Cancel()
	<-w.Done()

	// Slot freed after resolution.
	w2, err := m.Open(context.Background(), candidate())
	require.NoError(t, err)

	w2.Cancel()
	<-w2.Done()
}

// TestOpenContextCancellationDoesNotAbandon verifies that the countdown
// outlives the request whose handler opened it: cancelling the Open context
// right away still lets the window expire into a commit.
func TestOpenContextCancellationDoesNotAbandon(t *testing.T) {
	t.Parallel()

	var (
		committer = new(recordingCommitter)
		observer  = new(recordingObserver)
	)

	m := NewManager(context.Background(), shortConfig(), committer, observer, nil)

	reqCtx, cancelReq := context.WithCancel(context.Background())

	w, err := m.Open(reqCtx, candidate())
	require.NoError(t, err)

	// The request handler returns immediately after opening the window.
	cancelReq()

	<-w.Done()
	require.Equal(t, 1, committer.count())

	_, committed, _ := observer.counts()
	require.Equal(t, 1, committed)
}

// TestShutdownAbandonsWithoutCommit verifies that cancelling the manager's
// lifetime context tears the timer down without committing.
func TestShutdownAbandonsWithoutCommit(t *testing.T) {
	t.Parallel()

	var (
		committer = new(recordingCommitter)
		observer  = new(recordingObserver)
	)

	lifetime, shutdown := context.WithCancel(context.Background())
	defer shutdown()

	m := NewManager(lifetime, config.WindowConfig{
		Duration: time.Minute,
		Tick:     10 * time.Millisecond,
	}, committer, observer, nil)

	w, err := m.Open(context.Background(), candidate())
	require.NoError(t, err)

	shutdown()
	<-w.Done()

	require.Zero(t, committer.count())

	cancelled, committed, _ := observer.counts()
	require.Zero(t, cancelled)
	require.Zero(t, committed)
}

// TestCommitFailureDropsEvent verifies that a store failure drops the event:
// no committed broadcast, a commit-failure callback instead, and the window
// resolving as uncommitted so the origin is not left cooling down.
func TestCommitFailureDropsEvent(t *testing.T) {
	t.Parallel()

	var (
		committer  = &recordingCommitter{fail: true}
		observer   = new(recordingObserver)
		resolvedCh = make(chan resolution, 1)
	)

	m := NewManager(context.Background(), shortConfig(), committer, observer, func(c escalation.CandidateEvent, committed bool) {
		resolvedCh <- resolution{candidate: c, committed: committed}
	})

	w, err := m.Open(context.Background(), candidate())
	require.NoError(t, err)

	<-w.Done()

	require.False(t, (<-resolvedCh).committed)

	_, committed, _ := observer.counts()
	require.Zero(t, committed)
	require.Equal(t, 1, observer.failures())
}

// TestCancelActive verifies cancellation through the manager handle.
func TestCancelActive(t *testing.T) {
	t.Parallel()

	var (
		committer = new(recordingCommitter)
		observer  = new(recordingObserver)
	)

	m := NewManager(context.Background(), shortConfig(), committer, observer, nil)

	require.False(t, m.CancelActive())

	w, err := m.Open(context.Background(), candidate())
	require.NoError(t, err)

	require.True(t, m.CancelActive())
	<-w.Done()

	require.Zero(t, committer.count())
}
