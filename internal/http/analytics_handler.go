package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/outreach-tracker/internal/application"
)

type analyticsService interface {
	Summary(ctx context.Context) (application.AnalyticsSummary, error)
}

// AnalyticsHandler serves dashboard metrics.
type AnalyticsHandler struct {
	service   analyticsService
	responder responder
}

func NewAnalyticsHandler(service analyticsService, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{service: service, responder: newResponder(defaultLogger(logger))}
}

func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, summary)
}
