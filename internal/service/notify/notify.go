package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/safenetai/escalation/internal/logger"
)

// Options configures a single send through the running daemon.
type Options struct {
	// ServerURL is the base URL of the escalation daemon.
	ServerURL string

	// Announcement switches from a direct notification to an authority
	// announcement broadcast.
	Announcement bool

	// Title and Message are the displayed content.
	Title   string
	Message string

	// Category labels an announcement ("Maintenance", "Event", ...).
	Category string

	// Audience is the target role for broadcasts.
	Audience string

	// ToUID addresses a single recipient instead of a role.
	ToUID string

	// Priority of the delivery ("urgent", "high", "medium", "normal").
	Priority string
}

// ErrNoServer indicates a missing daemon URL.
var ErrNoServer = errors.New("no server URL configured")

// requestTimeout bounds one send, retries included.
const requestTimeout = 15 * time.Second

type notificationBody struct {
	Title    string `json:"title,omitempty"`
	Message  string `json:"message,omitempty"`
	Priority string `json:"priority,omitempty"`
	ToRole   string `json:"toRole,omitempty"`
	ToUID    string `json:"toUid,omitempty"`
}

type announcementBody struct {
	Title          string `json:"title,omitempty"`
	Description    string `json:"description,omitempty"`
	Category       string `json:"category,omitempty"`
	TargetAudience string `json:"targetAudience,omitempty"`
	Priority       string `json:"priority,omitempty"`
}

type dispatchReply struct {
	ID    string `json:"id"`
	State string `json:"state"`
	Error string `json:"error"`
}

// Run performs one send and reports the daemon's dispatch state.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "escalation-notify")

	if opts.ServerURL == "" {
		return ErrNoServer
	}

	client := resty.New().
		SetBaseURL(opts.ServerURL).
		SetTimeout(requestTimeout).
		SetHeader("Content-Type", "application/json")

	var (
		path string
		body any
	)

	if opts.Announcement {
		path = "/v1/announcements"
		body = announcementBody{
			Title:          opts.Title,
			Description:    opts.Message,
			Category:       opts.Category,
			TargetAudience: opts.Audience,
			Priority:       opts.Priority,
		}
	} else {
		path = "/v1/notifications"
		body = notificationBody{
			Title:    opts.Title,
			Message:  opts.Message,
			Priority: opts.Priority,
			ToRole:   opts.Audience,
			ToUID:    opts.ToUID,
		}
	}

	var reply dispatchReply

	response, err := client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&reply).
		SetError(&reply).
		Post(path)
	if err != nil {
		return fmt.Errorf("call escalation daemon: %w", err)
	}

	if response.IsError() {
		reason := reply.Error
		if reason == "" {
			reason = response.Status()
		}

		return fmt.Errorf("daemon rejected request: %s", reason)
	}

	logger.InfoKV(ctx, "Dispatch accepted", "state", reply.State, "id", reply.ID)

	return nil
}
