// Package adapters bridges the application services to the persistence layer.
package adapters

import (
	"context"
	"time"

	"github.com/example/outreach-tracker/internal/application"
	"github.com/example/outreach-tracker/internal/persistence"
)

// CompanyRepository adapts a persistence company repository to the application interfaces.
type CompanyRepository struct {
	repo persistence.CompanyRepository
}

var (
	_ application.CompanyRepository = (*CompanyRepository)(nil)
	_ application.CompanyReader     = (*CompanyRepository)(nil)
)

// NewCompanyRepository wraps repo.
func NewCompanyRepository(repo persistence.CompanyRepository) *CompanyRepository {
	return &CompanyRepository{repo: repo}
}

func (a *CompanyRepository) CreateCompany(ctx context.Context, company application.Company) (application.Company, error) {
	stored, err := a.repo.CreateCompany(ctx, toPersistenceCompany(company))
	if err != nil {
		return application.Company{}, err
	}
	return toApplicationCompany(stored), nil
}

func (a *CompanyRepository) GetCompany(ctx context.Context, id string) (application.Company, error) {
	stored, err := a.repo.GetCompany(ctx, id)
	if err != nil {
		return application.Company{}, err
	}
	return toApplicationCompany(stored), nil
}

func (a *CompanyRepository) UpdateCompany(ctx context.Context, company application.Company) (application.Company, error) {
	stored, err := a.repo.UpdateCompany(ctx, toPersistenceCompany(company))
	if err != nil {
		return application.Company{}, err
	}
	return toApplicationCompany(stored), nil
}

func (a *CompanyRepository) SetCompanyDecision(ctx context.Context, id string, decision *application.Decision, updatedAt time.Time) (application.Company, error) {
	stored, err := a.repo.SetCompanyDecision(ctx, id, decisionString(decision), updatedAt)
	if err != nil {
		return application.Company{}, err
	}
	return toApplicationCompany(stored), nil
}

func (a *CompanyRepository) DeleteCompany(ctx context.Context, id string) error {
	return a.repo.DeleteCompany(ctx, id)
}

func (a *CompanyRepository) ListCompanies(ctx context.Context) ([]application.Company, error) {
	models, err := a.repo.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}
	companies := make([]application.Company, 0, len(models))
	for _, model := range models {
		companies = append(companies, toApplicationCompany(model))
	}
	return companies, nil
}

// PersonRepository adapts a persistence person repository to the application interfaces.
type PersonRepository struct {
	repo persistence.PersonRepository
}

var (
	_ application.PersonRepository = (*PersonRepository)(nil)
	_ application.PersonReader     = (*PersonRepository)(nil)
	_ application.PersonLister     = (*PersonRepository)(nil)
)

// NewPersonRepository wraps repo.
func NewPersonRepository(repo persistence.PersonRepository) *PersonRepository {
	return &PersonRepository{repo: repo}
}

func (a *PersonRepository) CreatePerson(ctx context.Context, person application.Person) (application.Person, error) {
	stored, err := a.repo.CreatePerson(ctx, toPersistencePerson(person))
	if err != nil {
		return application.Person{}, err
	}
	return toApplicationPerson(stored), nil
}

func (a *PersonRepository) GetPerson(ctx context.Context, id string) (application.Person, error) {
	stored, err := a.repo.GetPerson(ctx, id)
	if err != nil {
		return application.Person{}, err
	}
	return toApplicationPerson(stored), nil
}

func (a *PersonRepository) UpdatePerson(ctx context.Context, person application.Person) (application.Person, error) {
	stored, err := a.repo.UpdatePerson(ctx, toPersistencePerson(person))
	if err != nil {
		return application.Person{}, err
	}
	return toApplicationPerson(stored), nil
}

func (a *PersonRepository) DeletePerson(ctx context.Context, id string) error {
	return a.repo.DeletePerson(ctx, id)
}

func (a *PersonRepository) ListPeople(ctx context.Context, companyID string) ([]application.Person, error) {
	models, err := a.repo.ListPeople(ctx, persistence.PersonFilter{CompanyID: companyID})
	if err != nil {
		return nil, err
	}
	people := make([]application.Person, 0, len(models))
	for _, model := range models {
		people = append(people, toApplicationPerson(model))
	}
	return people, nil
}

// EmailAttemptRepository adapts a persistence email attempt repository to the application interfaces.
type EmailAttemptRepository struct {
	repo persistence.EmailAttemptRepository
}

var (
	_ application.EmailAttemptRepository = (*EmailAttemptRepository)(nil)
	_ application.EmailAttemptLister     = (*EmailAttemptRepository)(nil)
)

// NewEmailAttemptRepository wraps repo.
func NewEmailAttemptRepository(repo persistence.EmailAttemptRepository) *EmailAttemptRepository {
	return &EmailAttemptRepository{repo: repo}
}

func (a *EmailAttemptRepository) CreateEmailAttempt(ctx context.Context, attempt application.EmailAttempt) (application.EmailAttempt, error) {
	stored, err := a.repo.CreateEmailAttempt(ctx, toPersistenceEmailAttempt(attempt))
	if err != nil {
		return application.EmailAttempt{}, err
	}
	return toApplicationEmailAttempt(stored), nil
}

func (a *EmailAttemptRepository) GetEmailAttempt(ctx context.Context, id string) (application.EmailAttempt, error) {
	stored, err := a.repo.GetEmailAttempt(ctx, id)
	if err != nil {
		return application.EmailAttempt{}, err
	}
	return toApplicationEmailAttempt(stored), nil
}

func (a *EmailAttemptRepository) ListEmailAttempts(ctx context.Context, filter application.EmailAttemptFilter) ([]application.EmailAttempt, error) {
	models, err := a.repo.ListEmailAttempts(ctx, persistence.EmailAttemptFilter{CompanyID: filter.CompanyID, PersonID: filter.PersonID})
	if err != nil {
		return nil, err
	}
	attempts := make([]application.EmailAttempt, 0, len(models))
	for _, model := range models {
		attempts = append(attempts, toApplicationEmailAttempt(model))
	}
	return attempts, nil
}

func (a *EmailAttemptRepository) RecordEngagement(ctx context.Context, id string, kind application.EngagementKind) (application.EmailAttempt, error) {
	stored, err := a.repo.RecordEngagement(ctx, id, persistence.EngagementKind(kind))
	if err != nil {
		return application.EmailAttempt{}, err
	}
	return toApplicationEmailAttempt(stored), nil
}

func (a *EmailAttemptRepository) DeleteEmailAttempt(ctx context.Context, id string) error {
	return a.repo.DeleteEmailAttempt(ctx, id)
}

func toApplicationCompany(model persistence.Company) application.Company {
	return application.Company{
		ID:              model.ID,
		Name:            model.Name,
		Website:         model.Website,
		LinkedIn:        model.LinkedIn,
		Crunchbase:      model.Crunchbase,
		CompanySize:     model.CompanySize,
		Decision:        decisionValue(model.Decision),
		TotalEmails:     model.TotalEmails,
		TotalPeople:     model.TotalPeople,
		OpenCount:       model.OpenCount,
		ClickCount:      model.ClickCount,
		ResumeOpenCount: model.ResumeOpenCount,
		HasOpened:       model.HasOpened,
		HasClicked:      model.HasClicked,
		HasResponded:    model.HasResponded,
		LastAttempt:     model.LastAttempt,
		Seq:             model.Seq,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

// toPersistenceCompany copies only the fields a store accepts from callers.
func toPersistenceCompany(company application.Company) persistence.Company {
	return persistence.Company{
		ID:          company.ID,
		Name:        company.Name,
		Website:     company.Website,
		LinkedIn:    company.LinkedIn,
		Crunchbase:  company.Crunchbase,
		CompanySize: company.CompanySize,
		Decision:    decisionString(company.Decision),
		CreatedAt:   company.CreatedAt,
		UpdatedAt:   company.UpdatedAt,
	}
}

func toApplicationPerson(model persistence.Person) application.Person {
	return application.Person{
		ID:              model.ID,
		CompanyID:       model.CompanyID,
		Name:            model.Name,
		Email:           model.Email,
		Position:        model.Position,
		LinkedIn:        model.LinkedIn,
		City:            model.City,
		State:           model.State,
		Country:         model.Country,
		Attempts:        model.Attempts,
		LastEmailDate:   model.LastEmailDate,
		Opened:          model.Opened,
		OpenCount:       model.OpenCount,
		Clicked:         model.Clicked,
		ClickCount:      model.ClickCount,
		ResumeOpened:    model.ResumeOpened,
		ResumeOpenCount: model.ResumeOpenCount,
		Responded:       model.Responded,
		Seq:             model.Seq,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

func toPersistencePerson(person application.Person) persistence.Person {
	return persistence.Person{
		ID:        person.ID,
		CompanyID: person.CompanyID,
		Name:      person.Name,
		Email:     person.Email,
		Position:  person.Position,
		LinkedIn:  person.LinkedIn,
		City:      person.City,
		State:     person.State,
		Country:   person.Country,
		Responded: person.Responded,
		CreatedAt: person.CreatedAt,
		UpdatedAt: person.UpdatedAt,
	}
}

func toApplicationEmailAttempt(model persistence.EmailAttempt) application.EmailAttempt {
	return application.EmailAttempt{
		ID:              model.ID,
		PersonID:        model.PersonID,
		CompanyID:       model.CompanyID,
		AttemptNumber:   model.AttemptNumber,
		SentDate:        model.SentDate,
		Subject:         model.Subject,
		OpenCount:       model.OpenCount,
		ClickCount:      model.ClickCount,
		ResumeOpenCount: model.ResumeOpenCount,
		Responded:       model.Responded,
		Seq:             model.Seq,
		CreatedAt:       model.CreatedAt,
	}
}

func toPersistenceEmailAttempt(attempt application.EmailAttempt) persistence.EmailAttempt {
	return persistence.EmailAttempt{
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
		CreatedAt:       attempt.CreatedAt,
	}
}

func decisionString(decision *application.Decision) *string {
	if decision == nil {
		return nil
	}
	value := string(*decision)
	return &value
}

func decisionValue(decision *string) *application.Decision {
	if decision == nil {
		return nil
	}
	value := application.Decision(*decision)
	return &value
}
