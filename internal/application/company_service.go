package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/outreach-tracker/internal/listing"
)

// maxPageSize caps the page size callers may request.
const maxPageSize = 100

// CompanyRepository captures the persistence operations needed by the service.
type CompanyRepository interface {
	CreateCompany(ctx context.Context, company Company) (Company, error)
	GetCompany(ctx context.Context, id string) (Company, error)
	UpdateCompany(ctx context.Context, company Company) (Company, error)
	SetCompanyDecision(ctx context.Context, id string, decision *Decision, updatedAt time.Time) (Company, error)
	DeleteCompany(ctx context.Context, id string) error
	ListCompanies(ctx context.Context) ([]Company, error)
}

// PersonLister lists people, optionally restricted to one company.
type PersonLister interface {
	ListPeople(ctx context.Context, companyID string) ([]Person, error)
}

// EmailAttemptLister lists email attempts matching a filter.
type EmailAttemptLister interface {
	ListEmailAttempts(ctx context.Context, filter EmailAttemptFilter) ([]EmailAttempt, error)
}

// CompanyService orchestrates validation, listing, and persistence for companies.
type CompanyService struct {
	companies   CompanyRepository
	people      PersonLister
	attempts    EmailAttemptLister
	idGenerator func() string
	now         func() time.Time
	pageSize    int
	logger      *slog.Logger
}

// NewCompanyService constructs a company service with the provided dependencies.
func NewCompanyService(companies CompanyRepository, people PersonLister, attempts EmailAttemptLister, idGenerator func() string, now func() time.Time) *CompanyService {
	return NewCompanyServiceWithLogger(companies, people, attempts, idGenerator, now, nil)
}

// NewCompanyServiceWithLogger constructs a company service with a specified logger.
func NewCompanyServiceWithLogger(companies CompanyRepository, people PersonLister, attempts EmailAttemptLister, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CompanyService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &CompanyService{
		companies:   companies,
		people:      people,
		attempts:    attempts,
		idGenerator: idGenerator,
		now:         now,
		pageSize:    listing.DefaultPageSize,
		logger:      defaultLogger(logger),
	}
}

// SetDefaultPageSize changes the page size used when a list query does not specify one.
func (s *CompanyService) SetDefaultPageSize(size int) {
	if s == nil || size <= 0 {
		return
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	s.pageSize = size
}

func (s *CompanyService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CompanyService", operation, attrs...)
}

// CreateCompany validates input and persists a new company with zeroed aggregates.
func (s *CompanyService) CreateCompany(ctx context.Context, input CompanyInput) (company Company, err error) {
	if s == nil {
		err = fmt.Errorf("CompanyService is nil")
		return
	}
	if s.companies == nil {
		err = fmt.Errorf("company repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateCompany")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create company", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("company_id", company.ID).InfoContext(ctx, "company created")
	}()

	input = normalizeCompanyInput(input)
	vErr := validateInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	created := s.now()
	company, err = createWithUniqueID(s.idGenerator, func(id string) (Company, error) {
		return s.companies.CreateCompany(ctx, Company{
			ID:          id,
			Name:        input.Name,
			Website:     input.Website,
			LinkedIn:    input.LinkedIn,
			Crunchbase:  input.Crunchbase,
			CompanySize: input.CompanySize,
			CreatedAt:   created,
			UpdatedAt:   created,
		})
	})
	err = mapRepoError(err)
	return
}

// GetCompany returns a single company.
func (s *CompanyService) GetCompany(ctx context.Context, id string) (Company, error) {
	if s == nil {
		return Company{}, fmt.Errorf("CompanyService is nil")
	}
	if s.companies == nil {
		return Company{}, fmt.Errorf("company repository not configured")
	}

	company, err := s.companies.GetCompany(ctx, id)
	if err != nil {
		return Company{}, mapRepoError(err)
	}
	return company, nil
}

// GetCompanyDetail returns a company together with its people and email attempts.
func (s *CompanyService) GetCompanyDetail(ctx context.Context, id string) (detail CompanyDetail, err error) {
	if s == nil {
		err = fmt.Errorf("CompanyService is nil")
		return
	}

	logger := s.loggerWith(ctx, "GetCompanyDetail", "company_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to load company detail", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("people", len(detail.People), "email_attempts", len(detail.EmailAttempts)).InfoContext(ctx, "company detail loaded")
	}()

	detail.Company, err = s.GetCompany(ctx, id)
	if err != nil {
		return
	}
	if s.people != nil {
		detail.People, err = s.people.ListPeople(ctx, id)
		if err != nil {
			err = mapRepoError(err)
			return
		}
	}
	if s.attempts != nil {
		detail.EmailAttempts, err = s.attempts.ListEmailAttempts(ctx, EmailAttemptFilter{CompanyID: id})
		if err != nil {
			err = mapRepoError(err)
			return
		}
	}
	return
}

// UpdateCompany applies a patch of client-settable fields to an existing company.
func (s *CompanyService) UpdateCompany(ctx context.Context, id string, patch CompanyPatch) (company Company, err error) {
	if s == nil {
		err = fmt.Errorf("CompanyService is nil")
		return
	}
	if s.companies == nil {
		err = fmt.Errorf("company repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateCompany", "company_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update company", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "company updated")
	}()

	var existing Company
	existing, err = s.companies.GetCompany(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	input := CompanyInput{
		Name:        existing.Name,
		Website:     existing.Website,
		LinkedIn:    existing.LinkedIn,
		Crunchbase:  existing.Crunchbase,
		CompanySize: existing.CompanySize,
	}
	if patch.Name != nil {
		input.Name = *patch.Name
	}
	if patch.Website != nil {
		input.Website = *patch.Website
	}
	if patch.LinkedIn != nil {
		input.LinkedIn = patch.LinkedIn
	}
	if patch.Crunchbase != nil {
		input.Crunchbase = patch.Crunchbase
	}
	if patch.CompanySize != nil {
		input.CompanySize = patch.CompanySize
	}

	input = normalizeCompanyInput(input)
	vErr := validateInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Name = input.Name
	updated.Website = input.Website
	updated.LinkedIn = input.LinkedIn
	updated.Crunchbase = input.Crunchbase
	updated.CompanySize = input.CompanySize
	updated.UpdatedAt = s.now()

	company, err = s.companies.UpdateCompany(ctx, updated)
	err = mapRepoError(err)
	return
}

// SetDecision records the archive decision for a company. A nil decision marks it undecided.
func (s *CompanyService) SetDecision(ctx context.Context, id string, decision *Decision) (company Company, err error) {
	if s == nil {
		err = fmt.Errorf("CompanyService is nil")
		return
	}
	if s.companies == nil {
		err = fmt.Errorf("company repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "SetDecision", "company_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to set decision", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("decision", decisionLabel(company.Decision)).InfoContext(ctx, "decision recorded")
	}()

	if decision != nil && *decision != DecisionYes && *decision != DecisionNo {
		err = NewValidationError("decision", "decision must be Yes, No, or null")
		return
	}

	company, err = s.companies.SetCompanyDecision(ctx, id, decision, s.now())
	err = mapRepoError(err)
	return
}

// DeleteCompany removes a company together with its people and email attempts.
func (s *CompanyService) DeleteCompany(ctx context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("CompanyService is nil")
	}
	if s.companies == nil {
		return fmt.Errorf("company repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteCompany", "company_id", id)

	if err := s.companies.DeleteCompany(ctx, id); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete company", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "company deleted")
	return nil
}

// ListCompanies returns one page of companies matching the search term and status.
func (s *CompanyService) ListCompanies(ctx context.Context, query CompanyListQuery) (page CompanyPage, err error) {
	if s == nil {
		err = fmt.Errorf("CompanyService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListCompanies",
		"search", query.Search,
		"status", query.Status,
		"page", query.Page,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list companies", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(page.Items), "total", page.Total).InfoContext(ctx, "companies listed")
	}()

	vErr := &ValidationError{}
	status, statusErr := listing.ParseStatus(query.Status)
	if statusErr != nil {
		vErr.add("status", "status must be one of: all, responded, not-responded, attempts-left")
	}
	if query.PageSize > maxPageSize {
		vErr.add("pageSize", fmt.Sprintf("pageSize must be at most %d", maxPageSize))
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = s.pageSize
	}

	var companies []Company
	if s.companies != nil {
		companies, err = s.companies.ListCompanies(ctx)
		if err != nil {
			err = mapRepoError(err)
			return
		}
	}

	result := listing.Apply(companies, listing.Query{
		Search:   query.Search,
		Status:   status,
		Page:     query.Page,
		PageSize: pageSize,
	}, companyFields)

	page = CompanyPage{
		Items:      result.Items,
		Page:       result.Page,
		PageSize:   result.PageSize,
		Total:      result.Total,
		TotalPages: result.TotalPages,
	}
	return
}

// CurrentRound reports the outreach round the company is in.
func (c Company) CurrentRound() int {
	return listing.CurrentRound(c.TotalEmails, c.TotalPeople)
}

func companyFields(c Company) listing.Fields {
	return listing.Fields{
		ID:           c.ID,
		Name:         c.Name,
		Website:      c.Website,
		HasResponded: c.HasResponded,
		TotalEmails:  c.TotalEmails,
		TotalPeople:  c.TotalPeople,
		Seq:          c.Seq,
	}
}

func normalizeCompanyInput(input CompanyInput) CompanyInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Website = strings.TrimSpace(input.Website)
	input.LinkedIn = normalizeOptionalString(input.LinkedIn)
	input.Crunchbase = normalizeOptionalString(input.Crunchbase)
	input.CompanySize = normalizeOptionalString(input.CompanySize)
	return input
}

func decisionLabel(decision *Decision) string {
	if decision == nil {
		return "undecided"
	}
	return string(*decision)
}
