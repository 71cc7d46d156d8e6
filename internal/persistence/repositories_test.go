package persistence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/outreach-tracker/internal/persistence"
	"github.com/example/outreach-tracker/internal/testfixtures"
)

func TestCompanyRepositoryContract(t *testing.T) {
	ctx := context.Background()

	t.Run("create and get round trip", func(t *testing.T) {
		harness := testfixtures.NewMemoryHarness(t)
		fixture := testfixtures.NewCompanyFixture(testfixtures.WithCompanySize("51-200"))

		created := harness.AddCompany(fixture)
		fetched, err := harness.Companies.GetCompany(ctx, fixture.ID)
		if err != nil {
			t.Fatalf("GetCompany returned error: %v", err)
		}
		if fetched.Name != created.Name || fetched.CompanySize == nil || *fetched.CompanySize != "51-200" {
			t.Fatalf("unexpected company: %#v", fetched)
		}
		if fetched.TotalEmails != 0 || fetched.TotalPeople != 0 || fetched.LastAttempt != nil {
			t.Fatalf("expected zeroed aggregates, got %#v", fetched)
		}
	})

	t.Run("derived counters supplied by callers are discarded", func(t *testing.T) {
		harness := testfixtures.NewMemoryHarness(t)
		record := testfixtures.NewCompanyFixture().Persistence()
		record.TotalEmails = 42
		record.HasResponded = true

		created, err := harness.Companies.CreateCompany(ctx, record)
		if err != nil {
			t.Fatalf("CreateCompany returned error: %v", err)
		}
		if created.TotalEmails != 0 || created.HasResponded {
			t.Fatalf("expected derived counters to be recomputed, got %#v", created)
		}
	})

	t.Run("missing records", func(t *testing.T) {
		harness := testfixtures.NewMemoryHarness(t)

		if _, err := harness.Companies.GetCompany(ctx, "ghost"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if err := harness.Companies.DeleteCompany(ctx, "ghost"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on delete, got %v", err)
		}
		decision := "Yes"
		if _, err := harness.Companies.SetCompanyDecision(ctx, "ghost", &decision, time.Now()); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on decision, got %v", err)
		}
	})

	t.Run("duplicate identifiers", func(t *testing.T) {
		harness := testfixtures.NewMemoryHarness(t)
		fixture := testfixtures.NewCompanyFixture()
		harness.AddCompany(fixture)

		if _, err := harness.Companies.CreateCompany(ctx, fixture.Persistence()); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})
}

func TestPersonRepositoryContract(t *testing.T) {
	ctx := context.Background()
	harness := testfixtures.NewMemoryHarness(t)
	acme := harness.AddCompany(testfixtures.NewCompanyFixture(testfixtures.WithCompanyName("Acme")))
	globex := harness.AddCompany(testfixtures.NewCompanyFixture(testfixtures.WithCompanyName("Globex")))

	harness.AddPerson(testfixtures.NewPersonFixture(acme.ID))
	harness.AddPerson(testfixtures.NewPersonFixture(acme.ID))
	harness.AddPerson(testfixtures.NewPersonFixture(globex.ID))

	people, err := harness.People.ListPeople(ctx, persistence.PersonFilter{CompanyID: acme.ID})
	if err != nil {
		t.Fatalf("ListPeople returned error: %v", err)
	}
	if len(people) != 2 {
		t.Fatalf("expected 2 people at Acme, got %d", len(people))
	}
	if people[0].Seq >= people[1].Seq {
		t.Fatalf("expected creation order, got seq %d then %d", people[0].Seq, people[1].Seq)
	}

	if got := harness.Company(acme.ID).TotalPeople; got != 2 {
		t.Fatalf("expected totalPeople 2, got %d", got)
	}

	orphan := testfixtures.NewPersonFixture("ghost").Persistence()
	if _, err := harness.People.CreatePerson(ctx, orphan); !errors.Is(err, persistence.ErrReferentialIntegrity) {
		t.Fatalf("expected ErrReferentialIntegrity, got %v", err)
	}
}

func TestEmailAttemptRepositoryContract(t *testing.T) {
	ctx := context.Background()
	harness := testfixtures.NewMemoryHarness(t)
	company := harness.AddCompany(testfixtures.NewCompanyFixture())
	person := harness.AddPerson(testfixtures.NewPersonFixture(company.ID))

	first := harness.AddAttempt(testfixtures.NewAttemptFixture(person.ID, 1))
	if first.CompanyID != company.ID {
		t.Fatalf("expected company to be derived from the person, got %q", first.CompanyID)
	}

	skipped := testfixtures.NewAttemptFixture(person.ID, 3).Persistence()
	if _, err := harness.Attempts.CreateEmailAttempt(ctx, skipped); !errors.Is(err, persistence.ErrOutOfSequence) {
		t.Fatalf("expected ErrOutOfSequence, got %v", err)
	}

	second := harness.AddAttempt(testfixtures.NewAttemptFixture(person.ID, 2))
	if err := harness.Attempts.DeleteEmailAttempt(ctx, first.ID); !errors.Is(err, persistence.ErrOutOfSequence) {
		t.Fatalf("expected deleting a non-latest attempt to fail, got %v", err)
	}

	updated, err := harness.Attempts.RecordEngagement(ctx, second.ID, persistence.EngagementResponse)
	if err != nil {
		t.Fatalf("RecordEngagement returned error: %v", err)
	}
	if !updated.Responded {
		t.Fatalf("expected attempt to be marked responded")
	}
	if !harness.Company(company.ID).HasResponded {
		t.Fatalf("expected company hasResponded after a response")
	}

	attempts, err := harness.Attempts.ListEmailAttempts(ctx, persistence.EmailAttemptFilter{PersonID: person.ID})
	if err != nil {
		t.Fatalf("ListEmailAttempts returned error: %v", err)
	}
	if len(attempts) != 2 || attempts[0].AttemptNumber != 1 || attempts[1].AttemptNumber != 2 {
		t.Fatalf("unexpected attempts: %#v", attempts)
	}
}
