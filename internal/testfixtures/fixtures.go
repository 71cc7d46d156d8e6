package testfixtures

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/outreach-tracker/internal/application"
	"github.com/example/outreach-tracker/internal/persistence"
)

var (
	companyCounter uint64
	personCounter  uint64
	attemptCounter uint64
)

var referenceTime = time.Date(2024, time.July, 20, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// ---------------------------- Company fixtures ----------------------------

// CompanyFixture represents a deterministic company that can be materialised
// for application or persistence tests.
type CompanyFixture struct {
	ID          string
	Name        string
	Website     string
	LinkedIn    *string
	Crunchbase  *string
	CompanySize *string
	CreatedAt   time.Time
}

// CompanyOption configures the generated company fixture.
type CompanyOption func(*CompanyFixture)

// NewCompanyFixture returns a deterministic company fixture with optional overrides.
func NewCompanyFixture(opts ...CompanyOption) CompanyFixture {
	idx := atomic.AddUint64(&companyCounter, 1)
	fixture := CompanyFixture{
		ID:        fmt.Sprintf("company-%03d", idx),
		Name:      fmt.Sprintf("Company %03d", idx),
		Website:   fmt.Sprintf("https://company-%03d.example.com", idx),
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithCompanyID overrides the generated company ID.
func WithCompanyID(id string) CompanyOption {
	return func(f *CompanyFixture) { f.ID = id }
}

// WithCompanyName overrides the generated name and derives a matching website.
func WithCompanyName(name string) CompanyOption {
	return func(f *CompanyFixture) {
		f.Name = name
		f.Website = "https://" + strings.ToLower(strings.ReplaceAll(name, " ", "")) + ".example.com"
	}
}

// WithCompanySize sets the size bucket.
func WithCompanySize(size string) CompanyOption {
	return func(f *CompanyFixture) { f.CompanySize = StringPtr(size) }
}

// Input converts the fixture into a creation input.
func (f CompanyFixture) Input() application.CompanyInput {
	return application.CompanyInput{
		Name:        f.Name,
		Website:     f.Website,
		LinkedIn:    f.LinkedIn,
		Crunchbase:  f.Crunchbase,
		CompanySize: f.CompanySize,
	}
}

// Persistence converts the fixture into a persistence record.
func (f CompanyFixture) Persistence() persistence.Company {
	return persistence.Company{
		ID:          f.ID,
		Name:        f.Name,
		Website:     f.Website,
		LinkedIn:    f.LinkedIn,
		Crunchbase:  f.Crunchbase,
		CompanySize: f.CompanySize,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.CreatedAt,
	}
}

// ---------------------------- Person fixtures -----------------------------

// PersonFixture represents a deterministic contact.
type PersonFixture struct {
	ID        string
	CompanyID string
	Name      string
	Email     string
	Position  *string
	Country   *string
	Responded bool
	CreatedAt time.Time
}

// PersonOption configures the generated person fixture.
type PersonOption func(*PersonFixture)

// NewPersonFixture returns a deterministic person belonging to companyID.
func NewPersonFixture(companyID string, opts ...PersonOption) PersonFixture {
	idx := atomic.AddUint64(&personCounter, 1)
	id := fmt.Sprintf("person-%03d", idx)
	fixture := PersonFixture{
		ID:        id,
		CompanyID: companyID,
		Name:      fmt.Sprintf("Person %03d", idx),
		Email:     id + "@example.com",
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithPersonID overrides the generated person ID.
func WithPersonID(id string) PersonOption {
	return func(f *PersonFixture) { f.ID = id }
}

// WithPersonName overrides the generated name.
func WithPersonName(name string) PersonOption {
	return func(f *PersonFixture) { f.Name = name }
}

// WithPersonPosition sets the job title.
func WithPersonPosition(position string) PersonOption {
	return func(f *PersonFixture) { f.Position = StringPtr(position) }
}

// WithPersonResponded marks the contact as having replied outside any recorded attempt.
func WithPersonResponded() PersonOption {
	return func(f *PersonFixture) { f.Responded = true }
}

// Input converts the fixture into a creation input.
func (f PersonFixture) Input() application.PersonInput {
	return application.PersonInput{
		CompanyID: f.CompanyID,
		Name:      f.Name,
		Email:     f.Email,
		Position:  f.Position,
		Country:   f.Country,
		Responded: f.Responded,
	}
}

// Persistence converts the fixture into a persistence record.
func (f PersonFixture) Persistence() persistence.Person {
	return persistence.Person{
		ID:        f.ID,
		CompanyID: f.CompanyID,
		Name:      f.Name,
		Email:     f.Email,
		Position:  f.Position,
		Country:   f.Country,
		Responded: f.Responded,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.CreatedAt,
	}
}

// ------------------------- Email attempt fixtures -------------------------

// AttemptFixture represents a deterministic email attempt.
type AttemptFixture struct {
	ID              string
	PersonID        string
	AttemptNumber   int
	SentDate        string
	Subject         string
	OpenCount       int
	ClickCount      int
	ResumeOpenCount int
	Responded       bool
	CreatedAt       time.Time
}

// AttemptOption configures the generated attempt fixture.
type AttemptOption func(*AttemptFixture)

// NewAttemptFixture returns attempt number for personID, sent that many days
// after the reference date unless overridden.
func NewAttemptFixture(personID string, number int, opts ...AttemptOption) AttemptFixture {
	idx := atomic.AddUint64(&attemptCounter, 1)
	sent := referenceTime.AddDate(0, 0, number-1)
	fixture := AttemptFixture{
		ID:            fmt.Sprintf("attempt-%03d", idx),
		PersonID:      personID,
		AttemptNumber: number,
		SentDate:      sent.Format(DateLayout),
		Subject:       fmt.Sprintf("Outreach #%d", number),
		CreatedAt:     sent,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithAttemptID overrides the generated attempt ID.
func WithAttemptID(id string) AttemptOption {
	return func(f *AttemptFixture) { f.ID = id }
}

// WithSentDate overrides the sent date.
func WithSentDate(date string) AttemptOption {
	return func(f *AttemptFixture) { f.SentDate = date }
}

// WithEngagement sets the engagement counters.
func WithEngagement(opens, clicks, resumeOpens int) AttemptOption {
	return func(f *AttemptFixture) {
		f.OpenCount = opens
		f.ClickCount = clicks
		f.ResumeOpenCount = resumeOpens
	}
}

// WithAttemptResponded marks the attempt as answered.
func WithAttemptResponded() AttemptOption {
	return func(f *AttemptFixture) { f.Responded = true }
}

// Input converts the fixture into a creation input.
func (f AttemptFixture) Input() application.EmailAttemptInput {
	return application.EmailAttemptInput{
		PersonID:        f.PersonID,
		AttemptNumber:   f.AttemptNumber,
		SentDate:        f.SentDate,
		Subject:         f.Subject,
		OpenCount:       f.OpenCount,
		ClickCount:      f.ClickCount,
		ResumeOpenCount: f.ResumeOpenCount,
		Responded:       f.Responded,
	}
}

// Persistence converts the fixture into a persistence record.
func (f AttemptFixture) Persistence() persistence.EmailAttempt {
	return persistence.EmailAttempt{
		ID:              f.ID,
		PersonID:        f.PersonID,
		AttemptNumber:   f.AttemptNumber,
		SentDate:        f.SentDate,
		Subject:         f.Subject,
		OpenCount:       f.OpenCount,
		ClickCount:      f.ClickCount,
		ResumeOpenCount: f.ResumeOpenCount,
		Responded:       f.Responded,
		CreatedAt:       f.CreatedAt,
	}
}
