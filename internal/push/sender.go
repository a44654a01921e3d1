package push

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/safenetai/escalation/internal/domain/notification"
	"github.com/safenetai/escalation/internal/logger"
)

// requestTimeout bounds one provider call. The client never retries: a
// transport error can arrive after the provider already delivered, and a
// second attempt would push twice. Delivery supervision dedups by record
// id instead.
const requestTimeout = 10 * time.Second

// Provider endpoints, relative to the configured base URL.
const (
	topicPath  = "/v1/push/topic"
	tokensPath = "/v1/push/tokens"
)

// message is the provider's push request body.
type message struct {
	// Condition is the boolean topic expression for a broadcast.
	Condition string `json:"condition,omitempty"`
	// Tokens are explicit device tokens for a multicast.
	Tokens []string `json:"tokens,omitempty"`

	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Type      string            `json:"type,omitempty"`
	Priority  string            `json:"priority,omitempty"`
	ChannelID string            `json:"channelId,omitempty"`
	Sound     string            `json:"sound,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// result is the provider's push response body.
type result struct {
	SuccessCount int             `json:"successCount"`
	FailureCount int             `json:"failureCount"`
	Failures     []resultFailure `json:"failures,omitempty"`
	Error        string          `json:"error,omitempty"`
}

type resultFailure struct {
	Token string `json:"token"`
	Error string `json:"error"`
}

// Sender delivers push notifications through the provider's HTTP API.
type Sender struct {
	client *resty.Client
}

// NewSender creates a sender for the provider at baseURL. The API key is
// attached to every request.
func NewSender(baseURL, apiKey string) *Sender {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(requestTimeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-API-Key", apiKey)

	return &Sender{client: client}
}

// Send delivers one payload to one target and reports the per-device
// outcome. A transport failure or a non-2xx response is an error; partial
// token failures are reported in the outcome instead.
func (s *Sender) Send(ctx context.Context, target notification.Target, payload notification.Payload) (notification.Outcome, error) {
	body := message{
		Title:     payload.Title,
		Body:      payload.Body,
		Type:      payload.Type,
		Priority:  payload.Priority,
		ChannelID: payload.ChannelID,
		Sound:     payload.Sound,
		Data:      payload.Data,
	}

	var path string

	switch target.Mode {
	case notification.ModeTopic:
		path = topicPath
		body.Condition = target.Expression
	case notification.ModeTokenSet:
		if len(target.Tokens) == 0 {
			return notification.Outcome{}, nil
		}

		path = tokensPath
		body.Tokens = target.Tokens
	default:
		return notification.Outcome{}, fmt.Errorf("unsupported target mode: %s", target.Mode)
	}

	var parsed result

	response, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&parsed).
		SetError(&parsed).
		Post(path)
	if err != nil {
		return notification.Outcome{}, fmt.Errorf("call push provider: %w", err)
	}

	if response.IsError() {
		reason := parsed.Error
		if reason == "" {
			reason = response.Status()
		}

		return notification.Outcome{}, fmt.Errorf("push provider rejected request: %s", reason)
	}

	outcome := notification.Outcome{
		SuccessCount: parsed.SuccessCount,
		FailureCount: parsed.FailureCount,
	}

	if len(parsed.Failures) > 0 {
		outcome.Failures = make(map[string]string, len(parsed.Failures))
		for _, failure := range parsed.Failures {
			outcome.Failures[failure.Token] = failure.Error
		}

		logger.WarnKV(ctx, "push delivery had token failures",
			"failure_count", parsed.FailureCount,
			"success_count", parsed.SuccessCount)
	}

	return outcome, nil
}
