// Package httphandler is the HTTP driving adapter: the platform webhook,
// the contact form endpoint and the health probe.
package httphandler

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/passlink/internal/application"
	"github.com/ericfisherdev/passlink/internal/domain/model"
)

const maxContactBody = 64 << 10

// EventDecoder translates a webhook body into a domain event. ok is false for
// updates that carry no event the bot handles.
type EventDecoder func(r io.Reader) (ev model.Event, ok bool, err error)

// EventDispatcher routes a decoded event to the bot.
type EventDispatcher interface {
	Dispatch(ctx context.Context, ev model.Event) bool
}

// Handler is the HTTP driving adapter that serves the webhook and API.
type Handler struct {
	decode     EventDecoder
	dispatcher EventDispatcher
	apiToken   string
	contactSvc *application.ContactService
	healthSvc  *application.HealthService
	logger     *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	decode EventDecoder,
	dispatcher EventDispatcher,
	apiToken string,
	contactSvc *application.ContactService,
	healthSvc *application.HealthService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		decode:     decode,
		dispatcher: dispatcher,
		apiToken:   apiToken,
		contactSvc: contactSvc,
		healthSvc:  healthSvc,
		logger:     logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/webhook/receive/{apiToken}", h.ReceiveUpdate)
	mux.HandleFunc("GET /api/webhook/ping", h.Ping)
	mux.HandleFunc("POST /api/contact", h.SubmitContact)
	mux.HandleFunc("GET /api/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)
	wrapped = requestIDMiddleware(wrapped)

	return wrapped
}

// ReceiveUpdate accepts a platform update pushed to the webhook and
// dispatches it to the bot. The path token authenticates the platform.
func (h *Handler) ReceiveUpdate(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("apiToken")
	if h.apiToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.apiToken)) != 1 {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	ev, ok, err := h.decode(r.Body)
	if err != nil {
		h.logger.Warn("undecodable update", "error", err)
		writeError(w, http.StatusBadRequest, "invalid update")
		return
	}
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}

	h.dispatcher.Dispatch(r.Context(), ev)
	w.WriteHeader(http.StatusOK)
}

// Ping lets operators check the webhook route is reachable.
func (h *Handler) Ping(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Pong"))
}

// SubmitContact forwards a contact form submission by email.
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	if h.contactSvc == nil || !h.contactSvc.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "contact form is not available")
		return
	}

	var req ContactRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxContactBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	err := h.contactSvc.Submit(r.Context(), application.ContactRequest{
		From:    req.From,
		Name:    req.Name,
		Subject: model.ContactSubject(req.Subject),
		Message: req.Message,
	})
	switch {
	case errors.Is(err, application.ErrInvalidContact):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, application.ErrContactDisabled):
		writeError(w, http.StatusServiceUnavailable, "contact form is not available")
	case err != nil:
		h.logger.Error("failed to send contact email", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	default:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
	}
}

// Health reports whether the service can reach its store. Without a
// HealthService it only reports that the process is serving.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	}
	if h.healthSvc == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	report := h.healthSvc.Check(r.Context())
	resp.StoreLatencyMS = report.Latency.Milliseconds()
	if !report.Healthy() {
		h.logger.Warn("health check failed", "error", report.StoreErr)
		resp.Status = "degraded"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
