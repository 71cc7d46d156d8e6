package persistence

import (
	"context"
	"time"
)

// CompanyRepository exposes CRUD operations for companies. Implementations own the
// derived counters and ignore any values supplied for them on update.
type CompanyRepository interface {
	CreateCompany(ctx context.Context, company Company) (Company, error)
	UpdateCompany(ctx context.Context, company Company) (Company, error)
	SetCompanyDecision(ctx context.Context, id string, decision *string, updatedAt time.Time) (Company, error)
	GetCompany(ctx context.Context, id string) (Company, error)
	ListCompanies(ctx context.Context) ([]Company, error)
	DeleteCompany(ctx context.Context, id string) error
}

// PersonFilter narrows person queries.
type PersonFilter struct {
	CompanyID string
}

// PersonRepository exposes CRUD operations for people.
type PersonRepository interface {
	CreatePerson(ctx context.Context, person Person) (Person, error)
	UpdatePerson(ctx context.Context, person Person) (Person, error)
	GetPerson(ctx context.Context, id string) (Person, error)
	ListPeople(ctx context.Context, filter PersonFilter) ([]Person, error)
	DeletePerson(ctx context.Context, id string) error
}

// EmailAttemptFilter narrows email attempt queries.
type EmailAttemptFilter struct {
	CompanyID string
	PersonID  string
}

// EmailAttemptRepository stores email attempts. Attempts are append-only apart from
// engagement recording and removal of a person's latest attempt.
type EmailAttemptRepository interface {
	CreateEmailAttempt(ctx context.Context, attempt EmailAttempt) (EmailAttempt, error)
	GetEmailAttempt(ctx context.Context, id string) (EmailAttempt, error)
	ListEmailAttempts(ctx context.Context, filter EmailAttemptFilter) ([]EmailAttempt, error)
	RecordEngagement(ctx context.Context, id string, kind EngagementKind) (EmailAttempt, error)
	DeleteEmailAttempt(ctx context.Context, id string) error
}

// SnapshotStore persists and restores complete store snapshots.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot Snapshot) error
	Load(ctx context.Context) (Snapshot, error)
}
