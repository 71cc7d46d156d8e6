package testfixtures

import (
	"context"
	"errors"
	"testing"

	"github.com/example/outreach-tracker/internal/application"
	"github.com/example/outreach-tracker/internal/persistence/memory"
)

func TestServiceFactoryNewServices(t *testing.T) {
	factory := NewServiceFactory()
	store := memory.New()
	services := factory.NewServices(store)
	ctx := context.Background()

	company, err := services.Companies.CreateCompany(ctx, NewCompanyFixture(WithCompanyName("Acme")).Input())
	if err != nil {
		t.Fatalf("CreateCompany returned error: %v", err)
	}
	if company.ID != "id-1" {
		t.Fatalf("expected generated ID id-1, got %q", company.ID)
	}
	if !company.CreatedAt.Equal(factory.Clock.Now()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Now(), company.CreatedAt)
	}

	person, err := services.People.CreatePerson(ctx, NewPersonFixture(company.ID).Input())
	if err != nil {
		t.Fatalf("CreatePerson returned error: %v", err)
	}
	if _, err := services.Attempts.CreateEmailAttempt(ctx, NewAttemptFixture(person.ID, 1, WithEngagement(1, 0, 0)).Input()); err != nil {
		t.Fatalf("CreateEmailAttempt returned error: %v", err)
	}

	stored, err := services.Companies.GetCompany(ctx, company.ID)
	if err != nil {
		t.Fatalf("GetCompany returned error: %v", err)
	}
	if stored.TotalEmails != 1 || stored.TotalPeople != 1 || !stored.HasOpened {
		t.Fatalf("expected aggregates to reflect the attempt, got %#v", stored)
	}
	_, err = services.Attempts.CreateEmailAttempt(ctx, NewAttemptFixture(person.ID, 4).Input())
	var vErr *application.ValidationError
	if !errors.As(err, &vErr) || vErr.FieldErrors["attemptNumber"] != "attemptNumber must be at most 3" {
		t.Fatalf("expected the default attempt cap to apply, got %v", err)
	}
}

func TestMemoryHarness(t *testing.T) {
	harness := NewMemoryHarness(t)

	company := harness.AddCompany(NewCompanyFixture())
	person := harness.AddPerson(NewPersonFixture(company.ID))
	harness.AddAttempt(NewAttemptFixture(person.ID, 1, WithSentDate("2024-07-31")))

	reloaded := harness.Company(company.ID)
	if reloaded.LastAttempt == nil || *reloaded.LastAttempt != "2024-07-31" {
		t.Fatalf("expected lastAttempt 2024-07-31, got %v", reloaded.LastAttempt)
	}
}
