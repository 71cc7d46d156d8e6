package testfixtures

import (
	"context"
	"testing"

	"github.com/example/outreach-tracker/internal/persistence"
	"github.com/example/outreach-tracker/internal/persistence/memory"
)

// MemoryHarness provides repository access backed by a fresh in-memory store.
type MemoryHarness struct {
	Store     *memory.Storage
	Companies persistence.CompanyRepository
	People    persistence.PersonRepository
	Attempts  persistence.EmailAttemptRepository

	tb testing.TB
}

// NewMemoryHarness constructs a MemoryHarness and registers its cleanup with tb.
func NewMemoryHarness(tb testing.TB) *MemoryHarness {
	tb.Helper()

	store := memory.New()
	tb.Cleanup(func() { _ = store.Close() })

	return &MemoryHarness{
		Store:     store,
		Companies: store,
		People:    store,
		Attempts:  store,
		tb:        tb,
	}
}

// AddCompany stores fixture and fails the test on error.
func (h *MemoryHarness) AddCompany(fixture CompanyFixture) persistence.Company {
	h.tb.Helper()
	company, err := h.Companies.CreateCompany(context.Background(), fixture.Persistence())
	if err != nil {
		h.tb.Fatalf("create company %s: %v", fixture.ID, err)
	}
	return company
}

// AddPerson stores fixture and fails the test on error.
func (h *MemoryHarness) AddPerson(fixture PersonFixture) persistence.Person {
	h.tb.Helper()
	person, err := h.People.CreatePerson(context.Background(), fixture.Persistence())
	if err != nil {
		h.tb.Fatalf("create person %s: %v", fixture.ID, err)
	}
	return person
}

// AddAttempt stores fixture and fails the test on error.
func (h *MemoryHarness) AddAttempt(fixture AttemptFixture) persistence.EmailAttempt {
	h.tb.Helper()
	attempt, err := h.Attempts.CreateEmailAttempt(context.Background(), fixture.Persistence())
	if err != nil {
		h.tb.Fatalf("create attempt %s: %v", fixture.ID, err)
	}
	return attempt
}

// Company reloads a company, failing the test when it is missing.
func (h *MemoryHarness) Company(id string) persistence.Company {
	h.tb.Helper()
	company, err := h.Companies.GetCompany(context.Background(), id)
	if err != nil {
		h.tb.Fatalf("get company %s: %v", id, err)
	}
	return company
}
