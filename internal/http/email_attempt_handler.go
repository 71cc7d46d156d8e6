package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/outreach-tracker/internal/application"
)

type emailAttemptService interface {
	CreateEmailAttempt(ctx context.Context, input application.EmailAttemptInput) (application.EmailAttempt, error)
	GetEmailAttempt(ctx context.Context, id string) (application.EmailAttempt, error)
	ListEmailAttempts(ctx context.Context, filter application.EmailAttemptFilter) ([]application.EmailAttempt, error)
	RecordEngagement(ctx context.Context, id string, kind application.EngagementKind) (application.EmailAttempt, error)
	DeleteEmailAttempt(ctx context.Context, id string) error
}

var (
	emailAttemptCreateRules = newFieldRules(
		[]string{"personId", "companyId", "attemptNumber", "sentDate", "subject", "openCount", "clickCount", "resumeOpenCount", "responded"},
		map[string]string{
			"id":        "id is assigned by the server",
			"createdAt": "createdAt is assigned by the server",
		},
	)
	engagementRules = newFieldRules([]string{"kind"}, nil)
)

// EmailAttemptHandler serves the email attempt endpoints.
type EmailAttemptHandler struct {
	service   emailAttemptService
	responder responder
	logger    *slog.Logger
}

// NewEmailAttemptHandler constructs an email attempt handler.
func NewEmailAttemptHandler(service emailAttemptService, logger *slog.Logger) *EmailAttemptHandler {
	base := defaultLogger(logger)
	return &EmailAttemptHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *EmailAttemptHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "EmailAttemptHandler", operation, attrs...)
}

func (h *EmailAttemptHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	values := r.URL.Query()
	attempts, err := h.service.ListEmailAttempts(r.Context(), application.EmailAttemptFilter{
		CompanyID: strings.TrimSpace(values.Get("companyId")),
		PersonID:  strings.TrimSpace(values.Get("personId")),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEmailAttemptsResponse{EmailAttempts: toEmailAttemptDTOs(attempts)})
}

func (h *EmailAttemptHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req emailAttemptRequest
	if err := decodeObject(r, emailAttemptCreateRules, &req); err != nil {
		h.rejectBody(w, r, "Create", err)
		return
	}

	attempt, err := h.service.CreateEmailAttempt(r.Context(), req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, emailAttemptResponse{EmailAttempt: toEmailAttemptDTO(attempt)})
}

func (h *EmailAttemptHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r)
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, kindBadRequest, errMissingID)
		return
	}

	attempt, err := h.service.GetEmailAttempt(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, emailAttemptResponse{EmailAttempt: toEmailAttemptDTO(attempt)})
}

func (h *EmailAttemptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r)
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, kindBadRequest, errMissingID)
		return
	}

	if err := h.service.DeleteEmailAttempt(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// RecordEngagement serves POST /email-attempts/{id}/engagement.
func (h *EmailAttemptHandler) RecordEngagement(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r)
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, kindBadRequest, errMissingID)
		return
	}

	var req engagementRequest
	if err := decodeObject(r, engagementRules, &req); err != nil {
		h.rejectBody(w, r, "RecordEngagement", err, "attempt_id", id)
		return
	}

	attempt, err := h.service.RecordEngagement(r.Context(), id, application.EngagementKind(strings.TrimSpace(req.Kind)))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, emailAttemptResponse{EmailAttempt: toEmailAttemptDTO(attempt)})
}

func (h *EmailAttemptHandler) rejectBody(w http.ResponseWriter, r *http.Request, operation string, err error, attrs ...any) {
	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		h.log(r.Context(), operation, append(attrs, "error_kind", "validation")...).WarnContext(r.Context(), "email attempt request rejected", "fields", vErr.Fields())
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeError(r.Context(), w, http.StatusBadRequest, kindBadRequest, err)
}

type emailAttemptRequest struct {
	PersonID        string `json:"personId"`
	CompanyID       string `json:"companyId"`
	AttemptNumber   int    `json:"attemptNumber"`
	SentDate        string `json:"sentDate"`
	Subject         string `json:"subject"`
	OpenCount       int    `json:"openCount"`
	ClickCount      int    `json:"clickCount"`
	ResumeOpenCount int    `json:"resumeOpenCount"`
	Responded       bool   `json:"responded"`
}

func (r emailAttemptRequest) toInput() application.EmailAttemptInput {
	return application.EmailAttemptInput{
		PersonID:        r.PersonID,
		CompanyID:       r.CompanyID,
		AttemptNumber:   r.AttemptNumber,
		SentDate:        r.SentDate,
		Subject:         r.Subject,
		OpenCount:       r.OpenCount,
		ClickCount:      r.ClickCount,
		ResumeOpenCount: r.ResumeOpenCount,
		Responded:       r.Responded,
	}
}

type engagementRequest struct {
	Kind string `json:"kind"`
}

type emailAttemptResponse struct {
	EmailAttempt emailAttemptDTO `json:"emailAttempt"`
}

type listEmailAttemptsResponse struct {
	EmailAttempts []emailAttemptDTO `json:"emailAttempts"`
}

type emailAttemptDTO struct {
	ID              string `json:"id"`
	PersonID        string `json:"personId"`
	CompanyID       string `json:"companyId"`
	AttemptNumber   int    `json:"attemptNumber"`
	SentDate        string `json:"sentDate"`
	Subject         string `json:"subject"`
	OpenCount       int    `json:"openCount"`
	ClickCount      int    `json:"clickCount"`
	ResumeOpenCount int    `json:"resumeOpenCount"`
	Responded       bool   `json:"responded"`
	CreatedAt       string `json:"createdAt"`
}

func toEmailAttemptDTO(attempt application.EmailAttempt) emailAttemptDTO {
	return emailAttemptDTO{
		ID:              attempt.ID,
		PersonID:        attempt.PersonID,
		CompanyID:       attempt.CompanyID,
		AttemptNumber:   attempt.AttemptNumber,
		SentDate:        attempt.SentDate,
		Subject:         attempt.Subject,
		OpenCount:       attempt.OpenCount,
		ClickCount:      attempt.ClickCount,
		ResumeOpenCount: attempt.ResumeOpenCount,
		Responded:       attempt.Responded,
		CreatedAt:       attempt.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toEmailAttemptDTOs(attempts []application.EmailAttempt) []emailAttemptDTO {
	out := make([]emailAttemptDTO, 0, len(attempts))
	for _, attempt := range attempts {
		out = append(out, toEmailAttemptDTO(attempt))
	}
	return out
}
