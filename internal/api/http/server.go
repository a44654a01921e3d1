package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	domain "github.com/safenetai/escalation/internal/domain/escalation"
	"github.com/safenetai/escalation/internal/domain/notification"
	"github.com/safenetai/escalation/internal/logger"
	"github.com/safenetai/escalation/internal/sensor"
	escsvc "github.com/safenetai/escalation/internal/service/escalation"
)

// Handler exposes the ingest API: press events, window cancellation,
// sensor telemetry, direct notifications and announcements.
type Handler struct {
	service *escsvc.Service
	watcher *sensor.Watcher
}

// New builds the HTTP handler with its routes mounted.
func New(service *escsvc.Service, watcher *sensor.Watcher) http.Handler {
	h := &Handler{
		service: service,
		watcher: watcher,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/presses", h.handlePress)
		r.Post("/cancel", h.handleCancel)
		r.Post("/telemetry", h.handleTelemetry)
		r.Post("/notifications", h.handleNotification)
		r.Post("/announcements", h.handleAnnouncement)
		r.Get("/alerts", h.listAlerts)
	})

	return r
}

type subjectBody struct {
	ResidentID     string `json:"residentId"`
	ResidentName   string `json:"residentName"`
	FlatNumber     string `json:"flatNumber"`
	BuildingNumber string `json:"buildingNumber"`
	Block          string `json:"block"`
	Phone          string `json:"phone"`
}

func (b subjectBody) toDomain() domain.SubjectContext {
	return domain.SubjectContext{
		ResidentID:     b.ResidentID,
		ResidentName:   b.ResidentName,
		FlatNumber:     b.FlatNumber,
		BuildingNumber: b.BuildingNumber,
		Block:          b.Block,
		Phone:          b.Phone,
	}
}

type pressRequest struct {
	OriginID  string      `json:"originId"`
	Timestamp time.Time   `json:"timestamp"`
	Subject   subjectBody `json:"subject"`
}

type pressResponse struct {
	Consumed bool `json:"consumed"`
}

func (h *Handler) handlePress(w http.ResponseWriter, r *http.Request) {
	var req pressRequest
	if !decode(w, r, &req) {
		return
	}

	if req.OriginID == "" {
		writeError(w, http.StatusBadRequest, "originId is required")

		return
	}

	consumed := h.service.HandlePress(r.Context(), req.OriginID, req.Subject.toDomain(),
		domain.InputEvent{Timestamp: req.Timestamp})

	writeJSON(w, http.StatusOK, pressResponse{Consumed: consumed})
}

type cancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	cancelled := h.service.CancelActive(r.Context())

	writeJSON(w, http.StatusOK, cancelResponse{Cancelled: cancelled})
}

type telemetryRequest struct {
	DeviceID       string             `json:"deviceId"`
	AlertTriggered bool               `json:"alertTriggered"`
	Readings       map[string]float64 `json:"readings"`
	ObservedAt     time.Time          `json:"observedAt"`
}

func (h *Handler) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	var req telemetryRequest
	if !decode(w, r, &req) {
		return
	}

	if req.DeviceID == "" {
		writeError(w, http.StatusBadRequest, "deviceId is required")

		return
	}

	err := h.watcher.HandleSnapshot(r.Context(), sensor.Snapshot{
		DeviceID:       req.DeviceID,
		AlertTriggered: req.AlertTriggered,
		Readings:       req.Readings,
		ObservedAt:     req.ObservedAt,
	})
	if err != nil {
		logger.ErrorKV(r.Context(), "Telemetry processing failed",
			"device_id", req.DeviceID, "error", err)
		writeError(w, http.StatusInternalServerError, "telemetry processing failed")

		return
	}

	w.WriteHeader(http.StatusAccepted)
}

type notificationRequest struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Route    string `json:"route"`
	ToRole   string `json:"toRole"`
	ToUID    string `json:"toUid"`
}

type dispatchResponse struct {
	ID    string `json:"id,omitempty"`
	State string `json:"state"`
}

func (h *Handler) handleNotification(w http.ResponseWriter, r *http.Request) {
	var req notificationRequest
	if !decode(w, r, &req) {
		return
	}

	record := &notification.InboxRecord{
		Title:    req.Title,
		Message:  req.Message,
		Type:     req.Type,
		Priority: req.Priority,
		Route:    req.Route,
		ToRole:   notification.Role(req.ToRole),
		ToUID:    req.ToUID,
	}

	result, err := h.service.SendNotification(r.Context(), record)
	if err != nil {
		logger.ErrorKV(r.Context(), "Notification dispatch failed", "error", err)
		writeError(w, http.StatusInternalServerError, "notification dispatch failed")

		return
	}

	writeJSON(w, http.StatusOK, dispatchResponse{ID: record.ID, State: string(result.State)})
}

type announcementRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Category       string `json:"category"`
	TargetAudience string `json:"targetAudience"`
	Priority       string `json:"priority"`
}

func (h *Handler) handleAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req announcementRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.service.Announce(r.Context(), notification.Announcement{
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		TargetAudience: notification.Role(req.TargetAudience),
		Priority:       req.Priority,
	})
	if err != nil {
		logger.ErrorKV(r.Context(), "Announcement dispatch failed", "error", err)
		writeError(w, http.StatusInternalServerError, "announcement dispatch failed")

		return
	}

	writeJSON(w, http.StatusOK, dispatchResponse{State: string(result.State)})
}

type alertBody struct {
	ID          string      `json:"id"`
	RequestType string      `json:"requestType"`
	Status      string      `json:"status"`
	Priority    string      `json:"priority"`
	Subject     subjectBody `json:"subject"`
	TriggeredBy string      `json:"triggeredBy"`
	CreatedAt   time.Time   `json:"createdAt"`
}

func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := h.service.RecentAlerts(r.Context(), limit)
	if err != nil {
		logger.ErrorKV(r.Context(), "Listing alerts failed", "error", err)
		writeError(w, http.StatusInternalServerError, "listing alerts failed")

		return
	}

	out := make([]alertBody, 0, len(records))
	for _, record := range records {
		out = append(out, alertBody{
			ID:          record.ID,
			RequestType: string(record.RequestType),
			Status:      string(record.Status),
			Priority:    string(record.Priority),
			Subject: subjectBody{
				ResidentID:     record.Subject.ResidentID,
				ResidentName:   record.Subject.ResidentName,
				FlatNumber:     record.Subject.FlatNumber,
				BuildingNumber: record.Subject.BuildingNumber,
				Block:          record.Subject.Block,
				Phone:          record.Subject.Phone,
			},
			TriggeredBy: record.TriggeredBy,
			CreatedAt:   record.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func decode(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")

		return false
	}

	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
