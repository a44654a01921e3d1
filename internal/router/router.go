package router

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/safenetai/escalation/internal/domain/escalation"
	"github.com/safenetai/escalation/internal/domain/notification"
	"github.com/safenetai/escalation/internal/logger"
)

// PushSender is the opaque push-delivery capability: it accepts an addressed
// payload and reports per-target outcomes. Idempotency is not assumed, which
// is why the router never retries.
type PushSender interface {
	Send(ctx context.Context, target notification.Target, payload notification.Payload) (notification.Outcome, error)
}

// Directory is the read-only recipient directory.
type Directory interface {
	// TokenByID returns the registered device token of one recipient in one
	// category. ok=false means the category holds no token for the id.
	TokenByID(ctx context.Context, category notification.Category, uid string) (token string, ok bool, err error)
	// SecurityStaffIDs lists the ids of staff with a security/guard role.
	SecurityStaffIDs(ctx context.Context) ([]string, error)
}

// InboxStore writes in-app notification records. Fire-and-observe: the
// router never reads them back.
type InboxStore interface {
	Create(ctx context.Context, record *notification.InboxRecord) error
}

// DispatchLog claims a one-time dispatch marker per alert record, making the
// dispatch idempotent when record events arrive more than once.
type DispatchLog interface {
	// MarkDispatched returns true when this caller claimed the record.
	MarkDispatched(ctx context.Context, recordID string) (bool, error)
}

// DispatchState is the terminal state of one dispatch attempt.
type DispatchState string

const (
	// StateDispatched means every fan-out operation was attempted and none failed.
	StateDispatched DispatchState = "dispatched"
	// StateDispatchFailed means at least one fan-out operation failed.
	// Failures are terminal per attempt; retry belongs to an external
	// supervisor that can deduplicate by record id.
	StateDispatchFailed DispatchState = "dispatch_failed"
	// StateSkipped means the dispatch was a recorded no-op (duplicate
	// record event, suppressed push, or no addressable recipient).
	StateSkipped DispatchState = "skipped"
)

// TargetFailure reports one failed fan-out operation.
type TargetFailure struct {
	// Target names the operation or recipient that failed.
	Target string
	// Err is the failure description.
	Err string
}

// DispatchResult reports the terminal state of one dispatch attempt with its
// per-target failures. Partial failure never rolls back the operations that
// succeeded.
type DispatchResult struct {
	// RecordID is the record the dispatch was for.
	RecordID string
	// State is the terminal state of the attempt.
	State DispatchState
	// Failures lists the operations that failed, if any.
	Failures []TargetFailure
}

// addFailure records one failed operation. Safe for concurrent use via mu.
func (r *DispatchResult) addFailure(mu *sync.Mutex, target string, err error) {
	mu.Lock()
	defer mu.Unlock()

	r.Failures = append(r.Failures, TargetFailure{
		Target: target,
		Err:    err.Error(),
	})
}

// Router resolves recipients, builds payloads and fans alerts out through
// the push sender and the in-app inbox. It is the single entry point for a
// new alert record, so the suppress flag on derived inbox records is enough
// to keep the notification-record path from double-pushing.
type Router struct {
	// sender delivers pushes through the external provider.
	sender PushSender
	// directory resolves tokens and staff membership.
	directory Directory
	// inbox stores in-app records.
	inbox InboxStore
	// dispatchLog claims per-record dispatch markers. Optional.
	dispatchLog DispatchLog
	// categoryOrder is the direct-addressing fallback order.
	categoryOrder []notification.Category
}

// New creates a router. dispatchLog may be nil when record events are
// delivered exactly once.
func New(sender PushSender, directory Directory, inbox InboxStore, dispatchLog DispatchLog) *Router {
	return &Router{
		sender:        sender,
		directory:     directory,
		inbox:         inbox,
		dispatchLog:   dispatchLog,
		categoryOrder: DefaultCategoryOrder,
	}
}

// DispatchAlert fans one new alert record out to its audiences:
//
//   - one topic push to authorities and security guards,
//   - one suppressed in-app record for the authority role,
//   - one suppressed in-app record per security staff member,
//   - for a resolved subject, one suppressed in-app record plus a
//     best-effort direct push to the subject's own device.
//
// All outbound calls run concurrently and are all attempted even when some
// fail; the result reports per-target failures without rollback.
func (rt *Router) DispatchAlert(ctx context.Context, record *escalation.AlertRecord) (*DispatchResult, error) {
	ctx = logger.WithKV(ctx, "record_id", record.ID, "request_type", record.RequestType)

	result := &DispatchResult{RecordID: record.ID}

	if rt.dispatchLog != nil {
		claimed, err := rt.dispatchLog.MarkDispatched(ctx, record.ID)
		if err != nil {
			return nil, fmt.Errorf("claim dispatch marker: %w", err)
		}

		if !claimed {
			logger.Info(ctx, "Alert already dispatched, skipping duplicate record event")
			result.State = StateSkipped

			return result, nil
		}
	}

	var (
		payload = BuildAlertPayload(record)
		now     = time.Now()
		mu      sync.Mutex
		group   = new(errgroup.Group)
	)

	// Role broadcast to the fixed alert audience.
	group.Go(func() error {
		if _, err := rt.sender.Send(ctx, notification.TopicTarget(alertAudienceExpression), payload); err != nil {
			result.addFailure(&mu, "push:"+alertAudienceExpression, err)

			return err
		}

		return nil
	})

	// In-app record for the authority role. Suppressed: the broadcast above
	// already covers the externally visible push for this logical
	// notification.
	group.Go(func() error {
		record := rt.inboxRecord(record, payload, now)
		record.ToRole = notification.RoleAuthority

		if err := rt.inbox.Create(ctx, record); err != nil {
			result.addFailure(&mu, "inbox:authority", err)

			return err
		}

		return nil
	})

	// One suppressed in-app record per security staff member.
	group.Go(func() error {
		staff, err := rt.directory.SecurityStaffIDs(ctx)
		if err != nil {
			result.addFailure(&mu, "inbox:security", err)

			return err
		}

		var firstErr error

		for _, uid := range staff {
			staffRecord := rt.inboxRecord(record, payload, now)
			staffRecord.ToRole = notification.RoleSecurity
			staffRecord.ToUID = uid

			if err := rt.inbox.Create(ctx, staffRecord); err != nil {
				result.addFailure(&mu, "inbox:security:"+uid, err)

				if firstErr == nil {
					firstErr = err
				}
			}
		}

		return firstErr
	})

	// The subject of a resolved alert is notified on their own device too
	// (a resident learning of their own sensor alarm). Best effort.
	if record.Subject.IsResolved() {
		group.Go(func() error {
			subjectRecord := rt.inboxRecord(record, payload, now)
			subjectRecord.ToUID = record.Subject.ResidentID

			if err := rt.inbox.Create(ctx, subjectRecord); err != nil {
				result.addFailure(&mu, "inbox:subject", err)

				return err
			}

			return nil
		})

		group.Go(func() error {
			if err := rt.pushDirect(ctx, record.Subject.ResidentID, payload); err != nil {
				result.addFailure(&mu, "push:direct:"+record.Subject.ResidentID, err)

				return err
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		result.State = StateDispatchFailed
		logger.ErrorKV(ctx, "Alert dispatch finished with failures",
			"failures", len(result.Failures), "first_error", err)

		return result, nil
	}

	result.State = StateDispatched
	logger.Info(ctx, "Alert dispatched")

	return result, nil
}

// DispatchNotification handles one new notification record: a suppressed
// record is in-app only, a role record broadcasts to the role topic, and a
// uid record falls back through the recipient categories for a token. Role
// targeting takes precedence over uid targeting.
func (rt *Router) DispatchNotification(ctx context.Context, record *notification.InboxRecord) (*DispatchResult, error) {
	ctx = logger.WithKV(ctx, "notification_id", record.ID)

	result := &DispatchResult{RecordID: record.ID}

	if record.SuppressPush {
		logger.Debug(ctx, "Suppressed in-app notification, no push derived")
		result.State = StateSkipped

		return result, nil
	}

	payload := BuildNotificationPayload(record)

	if record.ToRole != "" {
		expression, ok := TopicExpression(record.ToRole)
		if !ok {
			logger.WarnKV(ctx, "Unknown role for notification broadcast", "role", record.ToRole)
			result.State = StateSkipped

			return result, nil
		}

		if _, err := rt.sender.Send(ctx, notification.TopicTarget(expression), payload); err != nil {
			result.State = StateDispatchFailed
			result.Failures = []TargetFailure{{Target: "push:" + expression, Err: err.Error()}}

			return result, nil
		}

		result.State = StateDispatched

		return result, nil
	}

	if record.ToUID != "" {
		token, found, err := rt.resolveToken(ctx, record.ToUID)
		if err != nil {
			return nil, fmt.Errorf("resolve token for %s: %w", record.ToUID, err)
		}

		if !found {
			// A recorded no-op, not an error: the recipient simply has no
			// registered device.
			logger.InfoKV(ctx, "No token found in any category, skipping direct push", "to_uid", record.ToUID)
			result.State = StateSkipped

			return result, nil
		}

		if _, err := rt.sender.Send(ctx, notification.TokenTarget(token), payload); err != nil {
			result.State = StateDispatchFailed
			result.Failures = []TargetFailure{{Target: "push:direct:" + record.ToUID, Err: err.Error()}}

			return result, nil
		}

		result.State = StateDispatched

		return result, nil
	}

	logger.Warn(ctx, "Notification record has neither role nor uid target")
	result.State = StateSkipped

	return result, nil
}

// DispatchAnnouncement broadcasts an authority announcement to its role
// audience. Unknown audiences default to the resident topic.
func (rt *Router) DispatchAnnouncement(ctx context.Context, a notification.Announcement) (*DispatchResult, error) {
	payload := BuildAnnouncementPayload(a)

	expression, ok := TopicExpression(a.TargetAudience)
	if !ok {
		expression = residentExpression
	}

	result := &DispatchResult{}

	if _, err := rt.sender.Send(ctx, notification.TopicTarget(expression), payload); err != nil {
		result.State = StateDispatchFailed
		result.Failures = []TargetFailure{{Target: "push:" + expression, Err: err.Error()}}

		return result, nil
	}

	result.State = StateDispatched
	logger.InfoKV(ctx, "Announcement broadcast sent", "expression", expression, "title", payload.Title)

	return result, nil
}

// pushDirect sends the payload to a single recipient's token, resolved by
// category fallback. A missing token is a logged no-op.
func (rt *Router) pushDirect(ctx context.Context, uid string, payload notification.Payload) error {
	token, found, err := rt.resolveToken(ctx, uid)
	if err != nil {
		return err
	}

	if !found {
		logger.InfoKV(ctx, "No token for direct alert push", "to_uid", uid)

		return nil
	}

	_, err = rt.sender.Send(ctx, notification.TokenTarget(token), payload)

	return err
}

// resolveToken walks the category order and returns the token from the
// first category holding one. Later categories are ignored even when they
// also hold a token.
func (rt *Router) resolveToken(ctx context.Context, uid string) (string, bool, error) {
	for _, category := range rt.categoryOrder {
		token, ok, err := rt.directory.TokenByID(ctx, category, uid)
		if err != nil {
			return "", false, err
		}

		if ok {
			return token, true, nil
		}
	}

	return "", false, nil
}

// inboxRecord derives the base in-app record for an alert. Suppressed by
// construction: the alert's push is the role broadcast, so processing these
// records must not fire a second one.
func (rt *Router) inboxRecord(record *escalation.AlertRecord, payload notification.Payload, now time.Time) *notification.InboxRecord {
	return &notification.InboxRecord{
		ID:           uuid.NewString(),
		Title:        payload.Title,
		Message:      payload.Body,
		Type:         string(record.RequestType),
		Priority:     string(record.Priority),
		Route:        "/security_requests",
		SuppressPush: true,
		CreatedAt:    now,
	}
}
