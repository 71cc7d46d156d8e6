package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/outreach-tracker/internal/application"
)

type personService interface {
	CreatePerson(ctx context.Context, input application.PersonInput) (application.Person, error)
	GetPerson(ctx context.Context, id string) (application.Person, error)
	UpdatePerson(ctx context.Context, id string, patch application.PersonPatch) (application.Person, error)
	DeletePerson(ctx context.Context, id string) error
	ListPeople(ctx context.Context, companyID string) ([]application.Person, error)
}

type personAttemptLister interface {
	ListEmailAttempts(ctx context.Context, filter application.EmailAttemptFilter) ([]application.EmailAttempt, error)
}

var (
	personServerFields = map[string]string{
		"id":              "id is assigned by the server",
		"createdAt":       "createdAt is assigned by the server",
		"updatedAt":       "updatedAt is assigned by the server",
		"attempts":        "attempts is derived and cannot be set",
		"lastEmailDate":   "lastEmailDate is derived and cannot be set",
		"opened":          "opened is derived and cannot be set",
		"openCount":       "openCount is derived and cannot be set",
		"clicked":         "clicked is derived and cannot be set",
		"clickCount":      "clickCount is derived and cannot be set",
		"resumeOpened":    "resumeOpened is derived and cannot be set",
		"resumeOpenCount": "resumeOpenCount is derived and cannot be set",
	}
	personEditableFields = []string{"name", "email", "position", "linkedin", "city", "state", "country", "responded"}

	personCreateRules = newFieldRules(append([]string{"companyId"}, personEditableFields...), personServerFields)
	personPatchRules  = newFieldRules(personEditableFields, withField(personServerFields, "companyId", "companyId cannot be changed"))
)

func withField(fields map[string]string, key, message string) map[string]string {
	out := make(map[string]string, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out[key] = message
	return out
}

// PersonHandler serves the contact endpoints.
type PersonHandler struct {
	service   personService
	attempts  personAttemptLister
	responder responder
	logger    *slog.Logger
}

// NewPersonHandler constructs a person handler. attempts backs
// GET /people/{id}/email-attempts and may be nil when that route is not mounted.
func NewPersonHandler(service personService, attempts personAttemptLister, logger *slog.Logger) *PersonHandler {
	base := defaultLogger(logger)
	return &PersonHandler{service: service, attempts: attempts, responder: newResponder(base), logger: base}
}

func (h *PersonHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "PersonHandler", operation, attrs...)
}

func (h *PersonHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	companyID := strings.TrimSpace(r.URL.Query().Get("companyId"))
	people, err := h.service.ListPeople(r.Context(), companyID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listPeopleResponse{People: toPersonDTOs(people)})
}

func (h *PersonHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req personRequest
	if err := decodeObject(r, personCreateRules, &req); err != nil {
		h.rejectBody(w, r, "Create", err)
		return
	}

	person, err := h.service.CreatePerson(r.Context(), req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, personResponse{Person: toPersonDTO(person)})
}

func (h *PersonHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r)
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, kindBadRequest, errMissingID)
		return
	}

	person, err := h.service.GetPerson(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, personResponse{Person: toPersonDTO(person)})
}

func (h *PersonHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r)
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, kindBadRequest, errMissingID)
		return
	}

	_, object, err := readObject(r, personPatchRules)
	if err != nil {
		h.rejectBody(w, r, "Update", err, "person_id", id)
		return
	}
	patch, err := personPatchFrom(object)
	if err != nil {
		h.rejectBody(w, r, "Update", err, "person_id", id)
		return
	}

	person, err := h.service.UpdatePerson(r.Context(), id, patch)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, personResponse{Person: toPersonDTO(person)})
}

func (h *PersonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r)
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, kindBadRequest, errMissingID)
		return
	}

	if err := h.service.DeletePerson(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// ListEmailAttempts serves GET /people/{id}/email-attempts.
func (h *PersonHandler) ListEmailAttempts(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.attempts == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r)
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, kindBadRequest, errMissingID)
		return
	}

	attempts, err := h.attempts.ListEmailAttempts(r.Context(), application.EmailAttemptFilter{PersonID: id})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEmailAttemptsResponse{EmailAttempts: toEmailAttemptDTOs(attempts)})
}

func (h *PersonHandler) rejectBody(w http.ResponseWriter, r *http.Request, operation string, err error, attrs ...any) {
	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		h.log(r.Context(), operation, append(attrs, "error_kind", "validation")...).WarnContext(r.Context(), "person request rejected", "fields", vErr.Fields())
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeError(r.Context(), w, http.StatusBadRequest, kindBadRequest, err)
}

func personPatchFrom(object map[string]json.RawMessage) (application.PersonPatch, error) {
	var patch application.PersonPatch
	vErr := &application.ValidationError{}
	for key, dst := range map[string]**string{
		"name":     &patch.Name,
		"email":    &patch.Email,
		"position": &patch.Position,
		"linkedin": &patch.LinkedIn,
		"city":     &patch.City,
		"state":    &patch.State,
		"country":  &patch.Country,
	} {
		value, err := optionalString(object, key)
		if err != nil {
			vErr.Merge(err)
			continue
		}
		*dst = value
	}
	responded, err := optionalBool(object, "responded")
	if err != nil {
		vErr.Merge(err)
	}
	patch.Responded = responded

	if vErr.HasErrors() {
		return application.PersonPatch{}, vErr
	}
	return patch, nil
}

type personRequest struct {
	CompanyID string  `json:"companyId"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Position  *string `json:"position"`
	LinkedIn  *string `json:"linkedin"`
	City      *string `json:"city"`
	State     *string `json:"state"`
	Country   *string `json:"country"`
	Responded bool    `json:"responded"`
}

func (r personRequest) toInput() application.PersonInput {
	return application.PersonInput{
		CompanyID: r.CompanyID,
		Name:      r.Name,
		Email:     r.Email,
		Position:  r.Position,
		LinkedIn:  r.LinkedIn,
		City:      r.City,
		State:     r.State,
		Country:   r.Country,
		Responded: r.Responded,
	}
}

type personResponse struct {
	Person personDTO `json:"person"`
}

type listPeopleResponse struct {
	People []personDTO `json:"people"`
}

type personDTO struct {
	ID              string  `json:"id"`
	CompanyID       string  `json:"companyId"`
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Position        *string `json:"position"`
	LinkedIn        *string `json:"linkedin"`
	City            *string `json:"city"`
	State           *string `json:"state"`
	Country         *string `json:"country"`
	Attempts        int     `json:"attempts"`
	LastEmailDate   *string `json:"lastEmailDate"`
	Opened          bool    `json:"opened"`
	OpenCount       int     `json:"openCount"`
	Clicked         bool    `json:"clicked"`
	ClickCount      int     `json:"clickCount"`
	ResumeOpened    bool    `json:"resumeOpened"`
	ResumeOpenCount int     `json:"resumeOpenCount"`
	Responded       bool    `json:"responded"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

func toPersonDTO(person application.Person) personDTO {
	return personDTO{
		ID:              person.ID,
		CompanyID:       person.CompanyID,
		Name:            person.Name,
		Email:           person.Email,
		Position:        person.Position,
		LinkedIn:        person.LinkedIn,
		City:            person.City,
		State:           person.State,
		Country:         person.Country,
		Attempts:        person.Attempts,
		LastEmailDate:   person.LastEmailDate,
		Opened:          person.Opened,
		OpenCount:       person.OpenCount,
		Clicked:         person.Clicked,
		ClickCount:      person.ClickCount,
		ResumeOpened:    person.ResumeOpened,
		ResumeOpenCount: person.ResumeOpenCount,
		Responded:       person.Responded,
		CreatedAt:       person.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:       person.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toPersonDTOs(people []application.Person) []personDTO {
	out := make([]personDTO, 0, len(people))
	for _, person := range people {
		out = append(out, toPersonDTO(person))
	}
	return out
}
