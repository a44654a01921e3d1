package escalation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/safenetai/escalation/internal/config"
	"github.com/safenetai/escalation/internal/confirm"
	"github.com/safenetai/escalation/internal/detector"
	domain "github.com/safenetai/escalation/internal/domain/escalation"
	"github.com/safenetai/escalation/internal/domain/notification"
	"github.com/safenetai/escalation/internal/logger"
	"github.com/safenetai/escalation/internal/repository/alertrecord"
	"github.com/safenetai/escalation/internal/repository/inbox"
	"github.com/safenetai/escalation/internal/router"
)

// TriggerPanicButton is the audit-trail name of the human panic trigger.
const TriggerPanicButton = "volume_button"

// Service orchestrates the escalation pipeline: it feeds presses into
// per-origin detectors, opens the confirmation window for recognized
// bursts, commits expired windows into exactly one alert record each, and
// hands committed records to the router.
//
// It implements confirm.Committer for the panic path and sensor.Committer
// for the telemetry path.
type Service struct {
	detectorConfig config.DetectorConfig
	windows        *confirm.Manager
	records        alertrecord.Store
	inbox          inbox.Store
	router         *router.Router

	mu        sync.Mutex
	detectors map[string]*detector.Detector
	subjects  map[string]domain.SubjectContext
}

// New creates the pipeline service. The lifetime context bounds the
// confirmation-window countdowns; cancelling it abandons any open window.
// The observer mirrors window progress to external surfaces and may be nil.
func New(
	lifetime context.Context,
	cfg *config.Config,
	records alertrecord.Store,
	inboxStore inbox.Store,
	rt *router.Router,
	observer confirm.Observer,
) *Service {
	s := &Service{
		detectorConfig: cfg.Detector,
		records:        records,
		inbox:          inboxStore,
		router:         rt,
		detectors:      make(map[string]*detector.Detector),
		subjects:       make(map[string]domain.SubjectContext),
	}

	s.windows = confirm.NewManager(lifetime, cfg.Window, s, observer, s.windowResolved)

	return s
}

// HandlePress feeds one press from an input source into its detector. The
// subject identifies who the press belongs to and is captured onto the
// candidate if this press completes a burst. The returned flag reports
// whether the press was consumed for detection.
func (s *Service) HandlePress(ctx context.Context, originID string, subject domain.SubjectContext, event domain.InputEvent) bool {
	s.mu.Lock()
	s.subjects[originID] = subject

	det, ok := s.detectors[originID]
	if !ok {
		det = detector.New(originID, s.detectorConfig, s.emitCandidate)
		s.detectors[originID] = det
	}
	s.mu.Unlock()

	return det.HandlePress(ctx, event)
}

// CancelActive cancels the open confirmation window, if any. Cancelling
// when no window is open reports false and has no effect.
func (s *Service) CancelActive(ctx context.Context) bool {
	cancelled := s.windows.CancelActive()
	if cancelled {
		logger.Info(ctx, "Confirmation window cancelled by user")
	}

	return cancelled
}

// emitCandidate is the detector callback: it attaches the captured subject
// and opens the confirmation window for the candidate.
func (s *Service) emitCandidate(ctx context.Context, candidate domain.CandidateEvent) {
	s.mu.Lock()
	candidate.Subject = s.subjects[candidate.OriginID]
	det := s.detectors[candidate.OriginID]
	s.mu.Unlock()

	if _, err := s.windows.Open(ctx, candidate); err != nil {
		// Another origin already holds the window. Re-arm this detector so
		// its presses are not swallowed while it waits for nothing.
		if errors.Is(err, confirm.ErrWindowActive) {
			logger.WarnKV(ctx, "Confirmation window busy, dropping candidate",
				"origin_id", candidate.OriginID)
			det.WindowResolved(false)

			return
		}

		logger.ErrorKV(ctx, "Failed to open confirmation window",
			"origin_id", candidate.OriginID, "error", err)
		det.WindowResolved(false)

		return
	}
}

// windowResolved relays the window outcome back to the detector that
// triggered it, starting its cooldown on a commit. The candidate names
// the owning detector, so a window resolving before Open even returns
// still reaches the right one.
func (s *Service) windowResolved(candidate domain.CandidateEvent, committed bool) {
	s.mu.Lock()
	det := s.detectors[candidate.OriginID]
	s.mu.Unlock()

	if det != nil {
		det.WindowResolved(committed)
	}
}

// Commit turns an expired candidate into a committed panic event, persists
// its single alert record, and fans it out. A persistence failure aborts
// the commit; a fan-out failure does not, the record already exists.
func (s *Service) Commit(ctx context.Context, candidate domain.CandidateEvent) (*domain.CommittedEvent, error) {
	event := &domain.CommittedEvent{
		ID:          uuid.NewString(),
		Kind:        domain.RequestTypePanicAlert,
		Subject:     candidate.Subject,
		Priority:    domain.PriorityUrgent,
		TriggeredBy: TriggerPanicButton,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.persistAndDispatch(ctx, event); err != nil {
		return nil, err
	}

	return event, nil
}

// CommitCommitted persists and fans out an event committed outside the
// confirmation window (the sensor path).
func (s *Service) CommitCommitted(ctx context.Context, event *domain.CommittedEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	return s.persistAndDispatch(ctx, event)
}

func (s *Service) persistAndDispatch(ctx context.Context, event *domain.CommittedEvent) error {
	record := domain.NewAlertRecord(event)

	if err := s.records.Create(ctx, record); err != nil {
		return fmt.Errorf("persist alert record: %w", err)
	}

	logger.InfoKV(ctx, "Alert record created",
		"record_id", record.ID, "request_type", record.RequestType)

	result, err := s.router.DispatchAlert(ctx, record)
	if err != nil {
		logger.ErrorKV(ctx, "Alert dispatch failed after record creation",
			"record_id", record.ID, "error", err)

		return nil
	}

	if result.State == router.StateDispatchFailed {
		logger.WarnKV(ctx, "Alert dispatched with partial failures",
			"record_id", record.ID, "failures", len(result.Failures))
	}

	return nil
}

// SendNotification persists a direct notification record and derives its
// push per the routing rules.
func (s *Service) SendNotification(ctx context.Context, record *notification.InboxRecord) (*router.DispatchResult, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	if err := s.inbox.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("persist notification record: %w", err)
	}

	return s.router.DispatchNotification(ctx, record)
}

// Announce broadcasts an authority announcement to its audience.
func (s *Service) Announce(ctx context.Context, a notification.Announcement) (*router.DispatchResult, error) {
	return s.router.DispatchAnnouncement(ctx, a)
}

// RecentAlerts lists the newest alert records.
func (s *Service) RecentAlerts(ctx context.Context, limit int) ([]*domain.AlertRecord, error) {
	return s.records.ListRecent(ctx, limit)
}
