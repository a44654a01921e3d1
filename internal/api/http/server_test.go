package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/safenetai/escalation/internal/config"
	domain "github.com/safenetai/escalation/internal/domain/escalation"
	"github.com/safenetai/escalation/internal/domain/notification"
	"github.com/safenetai/escalation/internal/router"
	"github.com/safenetai/escalation/internal/sensor"
	escsvc "github.com/safenetai/escalation/internal/service/escalation"
)

type memoryRecords struct {
	mu      sync.Mutex
	records []*domain.AlertRecord
}

func (m *memoryRecords) Create(_ context.Context, record *domain.AlertRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, record.Clone())

	return nil
}

func (m *memoryRecords) GetByID(context.Context, string) (*domain.AlertRecord, error) {
	return nil, nil
}

func (m *memoryRecords) ListRecent(context.Context, int) ([]*domain.AlertRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.AlertRecord, len(m.records))
	copy(out, m.records)

	return out, nil
}

type memoryInbox struct{}

func (memoryInbox) Create(context.Context, *notification.InboxRecord) error { return nil }

type nopSender struct{}

func (nopSender) Send(context.Context, notification.Target, notification.Payload) (notification.Outcome, error) {
	return notification.Outcome{SuccessCount: 1}, nil
}

type emptyDirectory struct{}

func (emptyDirectory) TokenByID(context.Context, notification.Category, string) (string, bool, error) {
	return "", false, nil
}

func (emptyDirectory) SecurityStaffIDs(context.Context) ([]string, error) { return nil, nil }

func (emptyDirectory) ResolveByDevice(context.Context, string) (domain.SubjectContext, bool, error) {
	return domain.SubjectContext{}, false, nil
}

func (emptyDirectory) ResolveByUnit(context.Context, string) (domain.SubjectContext, bool, error) {
	return domain.SubjectContext{}, false, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *memoryRecords) {
	t.Helper()

	cfg := &config.Config{
		Detector: config.DetectorConfig{
			RequiredPresses: 3,
			PressThreshold:  time.Second,
			Cooldown:        time.Second,
		},
		Window: config.WindowConfig{
			Duration: 500 * time.Millisecond,
			Tick:     50 * time.Millisecond,
		},
	}

	lifetime, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	records := new(memoryRecords)
	directory := emptyDirectory{}
	rt := router.New(nopSender{}, directory, memoryInbox{}, nil)
	service := escsvc.New(lifetime, cfg, records, memoryInbox{}, rt, nil)
	watcher := sensor.NewWatcher(directory, service)

	server := httptest.NewServer(New(service, watcher))
	t.Cleanup(server.Close)

	return server, records
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	encoded, err := json.Marshal(body)
	require.NoError(t, err)

	response, err := http.Post(url, "application/json", bytes.NewReader(encoded))
	require.NoError(t, err)

	return response
}

func decodeBody[T any](t *testing.T, response *http.Response) T {
	t.Helper()

	defer response.Body.Close()

	var out T
	require.NoError(t, json.NewDecoder(response.Body).Decode(&out))

	return out
}

func TestHealth(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	response, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, response.StatusCode)

	body := decodeBody[map[string]string](t, response)
	require.Equal(t, "ok", body["status"])
}

func TestPressAndCancelFlow(t *testing.T) {
	t.Parallel()

	server, records := newTestServer(t)

	for i := 0; i < 3; i++ {
		response := postJSON(t, server.URL+"/v1/presses", pressRequest{
			OriginID: "device-1",
			Subject:  subjectBody{ResidentName: "Asha Kumar", FlatNumber: "204"},
		})
		require.Equal(t, http.StatusOK, response.StatusCode)
		require.True(t, decodeBody[pressResponse](t, response).Consumed)
	}

	response := postJSON(t, server.URL+"/v1/cancel", struct{}{})
	require.Equal(t, http.StatusOK, response.StatusCode)
	require.True(t, decodeBody[cancelResponse](t, response).Cancelled)

	time.Sleep(100 * time.Millisecond)

	stored, err := records.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, stored)
}

// TestPressBurstCommitsOverHTTP drives the full panic path through the API:
// each press arrives on its own request, whose context dies as soon as the
// handler returns, yet the countdown must keep running and commit exactly
// one record at expiry.
func TestPressBurstCommitsOverHTTP(t *testing.T) {
	t.Parallel()

	server, records := newTestServer(t)

	for i := 0; i < 3; i++ {
		response := postJSON(t, server.URL+"/v1/presses", pressRequest{
			OriginID: "device-1",
			Subject:  subjectBody{ResidentName: "Asha Kumar", FlatNumber: "204"},
		})
		require.Equal(t, http.StatusOK, response.StatusCode)
		require.True(t, decodeBody[pressResponse](t, response).Consumed)
	}

	require.Eventually(t, func() bool {
		stored, err := records.ListRecent(context.Background(), 10)

		return err == nil && len(stored) == 1
	}, 2*time.Second, 20*time.Millisecond)

	stored, err := records.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, domain.RequestTypePanicAlert, stored[0].RequestType)
	require.Equal(t, "Asha Kumar", stored[0].Subject.ResidentName)
}

func TestPressRequiresOrigin(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	response := postJSON(t, server.URL+"/v1/presses", pressRequest{})
	require.Equal(t, http.StatusBadRequest, response.StatusCode)
	require.NoError(t, response.Body.Close())
}

func TestTelemetryCommitsAlert(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	response := postJSON(t, server.URL+"/v1/telemetry", telemetryRequest{
		DeviceID:       "smoke-11",
		AlertTriggered: true,
		Readings:       map[string]float64{"smoke_ppm": 412},
	})
	require.Equal(t, http.StatusAccepted, response.StatusCode)
	require.NoError(t, response.Body.Close())

	// Same transition delivered twice stays a single alert.
	response = postJSON(t, server.URL+"/v1/telemetry", telemetryRequest{
		DeviceID:       "smoke-11",
		AlertTriggered: true,
	})
	require.Equal(t, http.StatusAccepted, response.StatusCode)
	require.NoError(t, response.Body.Close())

	listed, err := http.Get(server.URL + "/v1/alerts")
	require.NoError(t, err)

	alerts := decodeBody[[]alertBody](t, listed)
	require.Len(t, alerts, 1)
	require.Equal(t, "sensor_alert", alerts[0].RequestType)
	require.Equal(t, "sensor:smoke-11", alerts[0].TriggeredBy)
}

func TestNotificationEndpoint(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	response := postJSON(t, server.URL+"/v1/notifications", notificationRequest{
		Title:  "Gate issue",
		ToRole: "security",
	})
	require.Equal(t, http.StatusOK, response.StatusCode)

	body := decodeBody[dispatchResponse](t, response)
	require.Equal(t, "dispatched", body.State)
	require.NotEmpty(t, body.ID)
}

func TestAnnouncementEndpoint(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	response := postJSON(t, server.URL+"/v1/announcements", announcementRequest{
		Title:          "Water maintenance",
		Category:       "Maintenance",
		TargetAudience: "everyone",
	})
	require.Equal(t, http.StatusOK, response.StatusCode)
	require.Equal(t, "dispatched", decodeBody[dispatchResponse](t, response).State)
}
