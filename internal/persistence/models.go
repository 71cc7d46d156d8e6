package persistence

import "time"

// Company represents a target organisation together with its derived engagement counters.
type Company struct {
	ID          string
	Name        string
	Website     string
	LinkedIn    *string
	Crunchbase  *string
	CompanySize *string
	Decision    *string

	TotalEmails     int
	TotalPeople     int
	OpenCount       int
	ClickCount      int
	ResumeOpenCount int
	HasOpened       bool
	HasClicked      bool
	HasResponded    bool
	LastAttempt     *string

	Seq       uint64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Person represents a contact that belongs to a company.
type Person struct {
	ID        string
	CompanyID string
	Name      string
	Email     string
	Position  *string
	LinkedIn  *string
	City      *string
	State     *string
	Country   *string

	Attempts        int
	LastEmailDate   *string
	Opened          bool
	OpenCount       int
	Clicked         bool
	ClickCount      int
	ResumeOpened    bool
	ResumeOpenCount int
	Responded       bool

	Seq       uint64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EmailAttempt represents a single outreach email sent to a person.
type EmailAttempt struct {
	ID              string
	PersonID        string
	CompanyID       string
	AttemptNumber   int
	SentDate        string
	Subject         string
	OpenCount       int
	ClickCount      int
	ResumeOpenCount int
	Responded       bool

	Seq       uint64
	CreatedAt time.Time
}

// EngagementKind identifies the engagement signal recorded against an email attempt.
type EngagementKind string

const (
	EngagementOpen       EngagementKind = "open"
	EngagementClick      EngagementKind = "click"
	EngagementResumeOpen EngagementKind = "resume_open"
	EngagementResponse   EngagementKind = "response"
)

// Snapshot is a point-in-time copy of every record held by a store.
type Snapshot struct {
	Companies     []Company
	People        []Person
	EmailAttempts []EmailAttempt
	// Revision is the store revision the copy was taken at. Snapshot stores do
	// not persist it.
	Revision uint64
}
