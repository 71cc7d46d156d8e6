package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/outreach-tracker/internal/application"
)

type companyService interface {
	CreateCompany(ctx context.Context, input application.CompanyInput) (application.Company, error)
	GetCompanyDetail(ctx context.Context, id string) (application.CompanyDetail, error)
	UpdateCompany(ctx context.Context, id string, patch application.CompanyPatch) (application.Company, error)
	SetDecision(ctx context.Context, id string, decision *application.Decision) (application.Company, error)
	DeleteCompany(ctx context.Context, id string) error
	ListCompanies(ctx context.Context, query application.CompanyListQuery) (application.CompanyPage, error)
}

type companyPeopleLister interface {
	ListPeople(ctx context.Context, companyID string) ([]application.Person, error)
}

var (
	companyServerFields = map[string]string{
		"id":              "id is assigned by the server",
		"createdAt":       "createdAt is assigned by the server",
		"updatedAt":       "updatedAt is assigned by the server",
		"totalEmails":     "totalEmails is derived and cannot be set",
		"totalPeople":     "totalPeople is derived and cannot be set",
		"openCount":       "openCount is derived and cannot be set",
		"clickCount":      "clickCount is derived and cannot be set",
		"resumeOpenCount": "resumeOpenCount is derived and cannot be set",
		"hasOpened":       "hasOpened is derived and cannot be set",
		"hasClicked":      "hasClicked is derived and cannot be set",
		"hasResponded":    "hasResponded is derived and cannot be set",
		"lastAttempt":     "lastAttempt is derived and cannot be set",
		"currentRound":    "currentRound is derived and cannot be set",
		"decision":        "decision can only be changed through PUT /companies/{id}/decision",
	}
	companyFieldRules  = newFieldRules([]string{"name", "website", "linkedin", "crunchbase", "companySize"}, companyServerFields)
	decisionFieldRules = newFieldRules([]string{"decision"}, nil)
)

// CompanyHandler serves the company endpoints.
type CompanyHandler struct {
	service   companyService
	people    companyPeopleLister
	responder responder
	logger    *slog.Logger
}

// NewCompanyHandler constructs a company handler. people may be nil, in which
// case GET /companies/{id}/people falls back to the company detail.
func NewCompanyHandler(service companyService, people companyPeopleLister, logger *slog.Logger) *CompanyHandler {
	base := defaultLogger(logger)
	return &CompanyHandler{service: service, people: people, responder: newResponder(base), logger: base}
}

func (h *CompanyHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CompanyHandler", operation, attrs...)
}

func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query, err := parseCompanyListQuery(r)
	if err != nil {
		h.log(r.Context(), "List", "error_kind", application.ErrorKind(err)).WarnContext(r.Context(), "invalid list query", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	page, err := h.service.ListCompanies(r.Context(), query)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, companyPageResponse{
		Items:      toCompanyDTOs(page.Items),
		Page:       page.Page,
		PageSize:   page.PageSize,
		Total:      page.Total,
		TotalPages: page.TotalPages,
	})
}

func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req companyRequest
	if err := decodeObject(r, companyFieldRules, &req); err != nil {
		h.rejectBody(w, r, "Create", err)
		return
	}

	company, err := h.service.CreateCompany(r.Context(), req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, companyResponse{Company: toCompanyDTO(company)})
}

func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r)
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, kindBadRequest, errMissingID)
		return
	}

	detail, err := h.service.GetCompanyDetail(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, companyDetailResponse{
		Company:       toCompanyDTO(detail.Company),
		People:        toPersonDTOs(detail.People),
		EmailAttempts: toEmailAttemptDTOs(detail.EmailAttempts),
	})
}

func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r)
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, kindBadRequest, errMissingID)
		return
	}

	_, object, err := readObject(r, companyFieldRules)
	if err != nil {
		h.rejectBody(w, r, "Update", err, "company_id", id)
		return
	}
	patch, err := companyPatchFrom(object)
	if err != nil {
		h.rejectBody(w, r, "Update", err, "company_id", id)
		return
	}

	company, err := h.service.UpdateCompany(r.Context(), id, patch)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, companyResponse{Company: toCompanyDTO(company)})
}

func (h *CompanyHandler) SetDecision(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r)
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, kindBadRequest, errMissingID)
		return
	}

	_, object, err := readObject(r, decisionFieldRules)
	if err != nil {
		h.rejectBody(w, r, "SetDecision", err, "company_id", id)
		return
	}
	decision, err := decisionFrom(object)
	if err != nil {
		h.rejectBody(w, r, "SetDecision", err, "company_id", id)
		return
	}

	company, err := h.service.SetDecision(r.Context(), id, decision)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, companyResponse{Company: toCompanyDTO(company)})
}

func (h *CompanyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r)
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, kindBadRequest, errMissingID)
		return
	}

	if err := h.service.DeleteCompany(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// ListPeople serves GET /companies/{id}/people.
func (h *CompanyHandler) ListPeople(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := pathID(r)
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, kindBadRequest, errMissingID)
		return
	}

	var (
		people []application.Person
		err    error
	)
	if h.people != nil {
		people, err = h.people.ListPeople(r.Context(), id)
	} else {
		var detail application.CompanyDetail
		detail, err = h.service.GetCompanyDetail(r.Context(), id)
		people = detail.People
	}
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listPeopleResponse{People: toPersonDTOs(people)})
}

func (h *CompanyHandler) rejectBody(w http.ResponseWriter, r *http.Request, operation string, err error, attrs ...any) {
	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		h.log(r.Context(), operation, append(attrs, "error_kind", "validation")...).WarnContext(r.Context(), "company request rejected", "fields", vErr.Fields())
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeError(r.Context(), w, http.StatusBadRequest, kindBadRequest, err)
}

func parseCompanyListQuery(r *http.Request) (application.CompanyListQuery, error) {
	values := r.URL.Query()
	query := application.CompanyListQuery{
		Search: values.Get("search"),
		Status: strings.TrimSpace(values.Get("status")),
	}

	vErr := &application.ValidationError{}
	for _, param := range []struct {
		name string
		dst  *int
	}{
		{"page", &query.Page},
		{"pageSize", &query.PageSize},
	} {
		raw := strings.TrimSpace(values.Get(param.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			if vErr.FieldErrors == nil {
				vErr.FieldErrors = make(map[string]string)
			}
			vErr.FieldErrors[param.name] = param.name + " must be an integer"
			continue
		}
		*param.dst = n
	}
	if vErr.HasErrors() {
		return application.CompanyListQuery{}, vErr
	}
	return query, nil
}

func companyPatchFrom(object map[string]json.RawMessage) (application.CompanyPatch, error) {
	var patch application.CompanyPatch
	vErr := &application.ValidationError{}
	for key, dst := range map[string]**string{
		"name":        &patch.Name,
		"website":     &patch.Website,
		"linkedin":    &patch.LinkedIn,
		"crunchbase":  &patch.Crunchbase,
		"companySize": &patch.CompanySize,
	} {
		value, err := optionalString(object, key)
		if err != nil {
			vErr.Merge(err)
			continue
		}
		*dst = value
	}
	if vErr.HasErrors() {
		return application.CompanyPatch{}, vErr
	}
	return patch, nil
}

func decisionFrom(object map[string]json.RawMessage) (*application.Decision, error) {
	raw, ok := object["decision"]
	if !ok {
		return nil, application.NewValidationError("decision", "decision is required (Yes, No, or null)")
	}
	if string(bytes.TrimSpace(raw)) == "null" {
		return nil, nil
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, application.NewValidationError("decision", "decision must be Yes, No, or null")
	}
	decision := application.Decision(value)
	return &decision, nil
}

type companyRequest struct {
	Name        string  `json:"name"`
	Website     string  `json:"website"`
	LinkedIn    *string `json:"linkedin"`
	Crunchbase  *string `json:"crunchbase"`
	CompanySize *string `json:"companySize"`
}

func (r companyRequest) toInput() application.CompanyInput {
	return application.CompanyInput{
		Name:        r.Name,
		Website:     r.Website,
		LinkedIn:    r.LinkedIn,
		Crunchbase:  r.Crunchbase,
		CompanySize: r.CompanySize,
	}
}

type companyResponse struct {
	Company companyDTO `json:"company"`
}

type companyDetailResponse struct {
	Company       companyDTO        `json:"company"`
	People        []personDTO       `json:"people"`
	EmailAttempts []emailAttemptDTO `json:"emailAttempts"`
}

type companyPageResponse struct {
	Items      []companyDTO `json:"items"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	Total      int          `json:"total"`
	TotalPages int          `json:"totalPages"`
}

type companyDTO struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Website         string  `json:"website"`
	LinkedIn        *string `json:"linkedin"`
	Crunchbase      *string `json:"crunchbase"`
	CompanySize     *string `json:"companySize"`
	Decision        *string `json:"decision"`
	TotalEmails     int     `json:"totalEmails"`
	TotalPeople     int     `json:"totalPeople"`
	OpenCount       int     `json:"openCount"`
	ClickCount      int     `json:"clickCount"`
	ResumeOpenCount int     `json:"resumeOpenCount"`
	HasOpened       bool    `json:"hasOpened"`
	HasClicked      bool    `json:"hasClicked"`
	HasResponded    bool    `json:"hasResponded"`
	LastAttempt     *string `json:"lastAttempt"`
	CurrentRound    int     `json:"currentRound"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

func toCompanyDTO(company application.Company) companyDTO {
	var decision *string
	if company.Decision != nil {
		value := string(*company.Decision)
		decision = &value
	}
	return companyDTO{
		ID:              company.ID,
		Name:            company.Name,
		Website:         company.Website,
		LinkedIn:        company.LinkedIn,
		Crunchbase:      company.Crunchbase,
		CompanySize:     company.CompanySize,
		Decision:        decision,
		TotalEmails:     company.TotalEmails,
		TotalPeople:     company.TotalPeople,
		OpenCount:       company.OpenCount,
		ClickCount:      company.ClickCount,
		ResumeOpenCount: company.ResumeOpenCount,
		HasOpened:       company.HasOpened,
		HasClicked:      company.HasClicked,
		HasResponded:    company.HasResponded,
		LastAttempt:     company.LastAttempt,
		CurrentRound:    company.CurrentRound(),
		CreatedAt:       company.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:       company.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toCompanyDTOs(companies []application.Company) []companyDTO {
	out := make([]companyDTO, 0, len(companies))
	for _, company := range companies {
		out = append(out, toCompanyDTO(company))
	}
	return out
}
