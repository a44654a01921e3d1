package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/safenetai/escalation/internal/domain/escalation"
	"github.com/safenetai/escalation/internal/logger"
)

// Broadcast topics. On-site panels and the mobile app subscribe to these
// to mirror the confirmation window in real time.
const (
	topicCountdown    = "escalation/countdown"
	topicCancelled    = "escalation/cancelled"
	topicAlert        = "escalation/alert"
	topicCommitFailed = "escalation/commit_failed"
)

// publishTimeout bounds how long a tick may block the window goroutine.
const publishTimeout = 2 * time.Second

// QoS levels per topic. Ticks are fire-and-forget; resolutions must reach
// every panel at least once.
const (
	qosTick       byte = 0
	qosResolution byte = 1
)

// Publisher mirrors confirmation-window progress onto an MQTT broker.
// Publish failures are logged and swallowed: the broadcast is a courtesy
// surface and must never stall or fail the pipeline itself.
type Publisher struct {
	client mqtt.Client
}

// Connect dials the broker and returns a connected publisher.
func Connect(broker, clientID string) (*Publisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)

	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to mqtt broker: %w", token.Error())
	}

	return NewPublisher(client), nil
}

// NewPublisher wraps an already connected client.
func NewPublisher(client mqtt.Client) *Publisher {
	return &Publisher{client: client}
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

type countdownMessage struct {
	RemainingSeconds int `json:"remainingSeconds"`
}

type cancelledMessage struct {
	OriginID    string    `json:"originId"`
	FirstSeenAt time.Time `json:"firstSeenAt"`
}

type alertMessage struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Priority    string    `json:"priority"`
	FlatNumber  string    `json:"flatNumber"`
	TriggeredBy string    `json:"triggeredBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CountdownTick publishes the remaining whole seconds of the open window.
func (p *Publisher) CountdownTick(ctx context.Context, remainingSeconds int) {
	p.publish(ctx, topicCountdown, qosTick, countdownMessage{RemainingSeconds: remainingSeconds})
}

// Cancelled announces that the window was cancelled before expiry.
func (p *Publisher) Cancelled(ctx context.Context, candidate escalation.CandidateEvent) {
	p.publish(ctx, topicCancelled, qosResolution, cancelledMessage{
		OriginID:    candidate.OriginID,
		FirstSeenAt: candidate.FirstSeenAt,
	})
}

// Committed announces the committed event after the window expired.
func (p *Publisher) Committed(ctx context.Context, event *escalation.CommittedEvent) {
	p.publish(ctx, topicAlert, qosResolution, alertMessage{
		ID:          event.ID,
		Kind:        string(event.Kind),
		Priority:    string(event.Priority),
		FlatNumber:  event.Subject.FlatNumber,
		TriggeredBy: event.TriggeredBy,
		CreatedAt:   event.CreatedAt,
	})
}

// CommitFailed announces that the window expired but the alert record could
// not be created, so no alert exists for the candidate.
func (p *Publisher) CommitFailed(ctx context.Context, candidate escalation.CandidateEvent) {
	p.publish(ctx, topicCommitFailed, qosResolution, cancelledMessage{
		OriginID:    candidate.OriginID,
		FirstSeenAt: candidate.FirstSeenAt,
	})
}

func (p *Publisher) publish(ctx context.Context, topic string, qos byte, message any) {
	payload, err := json.Marshal(message)
	if err != nil {
		logger.ErrorKV(ctx, "encode broadcast message", "topic", topic, "error", err)

		return
	}

	token := p.client.Publish(topic, qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		logger.WarnKV(ctx, "broadcast publish timed out", "topic", topic)

		return
	}

	if err := token.Error(); err != nil {
		logger.WarnKV(ctx, "broadcast publish failed", "topic", topic, "error", err)
	}
}
