package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/outreach-tracker/internal/logging"
)

// PersonRepository captures the persistence operations needed by the service.
type PersonRepository interface {
	CreatePerson(ctx context.Context, person Person) (Person, error)
	GetPerson(ctx context.Context, id string) (Person, error)
	UpdatePerson(ctx context.Context, person Person) (Person, error)
	DeletePerson(ctx context.Context, id string) error
	ListPeople(ctx context.Context, companyID string) ([]Person, error)
}

// CompanyReader resolves a single company.
type CompanyReader interface {
	GetCompany(ctx context.Context, id string) (Company, error)
}

// PersonService orchestrates validation and persistence for contacts.
type PersonService struct {
	people      PersonRepository
	companies   CompanyReader
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewPersonService constructs a person service with the provided dependencies.
func NewPersonService(people PersonRepository, companies CompanyReader, idGenerator func() string, now func() time.Time) *PersonService {
	return NewPersonServiceWithLogger(people, companies, idGenerator, now, nil)
}

// NewPersonServiceWithLogger constructs a person service with a specified logger.
func NewPersonServiceWithLogger(people PersonRepository, companies CompanyReader, idGenerator func() string, now func() time.Time, logger *slog.Logger) *PersonService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &PersonService{people: people, companies: companies, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *PersonService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "PersonService", operation, attrs...)
}

// CreatePerson validates input and adds a contact to an existing company.
func (s *PersonService) CreatePerson(ctx context.Context, input PersonInput) (person Person, err error) {
	if s == nil {
		err = fmt.Errorf("PersonService is nil")
		return
	}
	if s.people == nil {
		err = fmt.Errorf("person repository not configured")
		return
	}

	input = normalizePersonInput(input)
	logger := s.loggerWith(ctx, "CreatePerson",
		"company_id", input.CompanyID,
		"email", logging.RedactEmail(input.Email),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create person", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("person_id", person.ID).InfoContext(ctx, "person created")
	}()

	vErr := validateInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	created := s.now()
	person, err = createWithUniqueID(s.idGenerator, func(id string) (Person, error) {
		return s.people.CreatePerson(ctx, Person{
			ID:        id,
			CompanyID: input.CompanyID,
			Name:      input.Name,
			Email:     input.Email,
			Position:  input.Position,
			LinkedIn:  input.LinkedIn,
			City:      input.City,
			State:     input.State,
			Country:   input.Country,
			Responded: input.Responded,
			CreatedAt: created,
			UpdatedAt: created,
		})
	})
	err = mapRepoError(err)
	return
}

// GetPerson returns a single contact.
func (s *PersonService) GetPerson(ctx context.Context, id string) (Person, error) {
	if s == nil {
		return Person{}, fmt.Errorf("PersonService is nil")
	}
	if s.people == nil {
		return Person{}, fmt.Errorf("person repository not configured")
	}

	person, err := s.people.GetPerson(ctx, id)
	if err != nil {
		return Person{}, mapRepoError(err)
	}
	return person, nil
}

// UpdatePerson applies a patch of client-settable fields to an existing contact.
func (s *PersonService) UpdatePerson(ctx context.Context, id string, patch PersonPatch) (person Person, err error) {
	if s == nil {
		err = fmt.Errorf("PersonService is nil")
		return
	}
	if s.people == nil {
		err = fmt.Errorf("person repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdatePerson", "person_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update person", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "person updated")
	}()

	var existing Person
	existing, err = s.people.GetPerson(ctx, id)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	input := PersonInput{
		CompanyID: existing.CompanyID,
		Name:      existing.Name,
		Email:     existing.Email,
		Position:  existing.Position,
		LinkedIn:  existing.LinkedIn,
		City:      existing.City,
		State:     existing.State,
		Country:   existing.Country,
		Responded: existing.Responded,
	}
	if patch.Name != nil {
		input.Name = *patch.Name
	}
	if patch.Email != nil {
		input.Email = *patch.Email
	}
	if patch.Position != nil {
		input.Position = patch.Position
	}
	if patch.LinkedIn != nil {
		input.LinkedIn = patch.LinkedIn
	}
	if patch.City != nil {
		input.City = patch.City
	}
	if patch.State != nil {
		input.State = patch.State
	}
	if patch.Country != nil {
		input.Country = patch.Country
	}
	if patch.Responded != nil {
		input.Responded = *patch.Responded
	}

	input = normalizePersonInput(input)
	vErr := validateInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Name = input.Name
	updated.Email = input.Email
	updated.Position = input.Position
	updated.LinkedIn = input.LinkedIn
	updated.City = input.City
	updated.State = input.State
	updated.Country = input.Country
	updated.Responded = input.Responded
	updated.UpdatedAt = s.now()

	person, err = s.people.UpdatePerson(ctx, updated)
	err = mapRepoError(err)
	return
}

// DeletePerson removes a contact and the email attempts addressed to them.
func (s *PersonService) DeletePerson(ctx context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("PersonService is nil")
	}
	if s.people == nil {
		return fmt.Errorf("person repository not configured")
	}

	logger := s.loggerWith(ctx, "DeletePerson", "person_id", id)

	if err := s.people.DeletePerson(ctx, id); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete person", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "person deleted")
	return nil
}

// ListPeople returns contacts in creation order. When companyID is set the company
// must exist and only its people are returned.
func (s *PersonService) ListPeople(ctx context.Context, companyID string) (people []Person, err error) {
	if s == nil {
		err = fmt.Errorf("PersonService is nil")
		return
	}
	if s.people == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListPeople", "company_id", companyID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list people", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(people)).InfoContext(ctx, "people listed")
	}()

	companyID = strings.TrimSpace(companyID)
	if companyID != "" && s.companies != nil {
		if _, err = s.companies.GetCompany(ctx, companyID); err != nil {
			err = mapRepoError(err)
			return
		}
	}

	people, err = s.people.ListPeople(ctx, companyID)
	err = mapRepoError(err)
	return
}

func normalizePersonInput(input PersonInput) PersonInput {
	input.CompanyID = strings.TrimSpace(input.CompanyID)
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Position = normalizeOptionalString(input.Position)
	input.LinkedIn = normalizeOptionalString(input.LinkedIn)
	input.City = normalizeOptionalString(input.City)
	input.State = normalizeOptionalString(input.State)
	input.Country = normalizeOptionalString(input.Country)
	return input
}
