package application

import "time"

// Decision is the manual archive status of a company.
type Decision string

const (
	// DecisionYes archives the company.
	DecisionYes Decision = "Yes"
	// DecisionNo keeps the company active.
	DecisionNo Decision = "No"
)

// Company represents a target organisation together with its derived engagement counters.
type Company struct {
	ID          string
	Name        string
	Website     string
	LinkedIn    *string
	Crunchbase  *string
	CompanySize *string
	Decision    *Decision

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

// CompanyInput captures the client-settable company fields on creation.
type CompanyInput struct {
	Name        string  `validate:"notblank"`
	Website     string  `validate:"notblank"`
	LinkedIn    *string `validate:"omitempty,max=2048"`
	Crunchbase  *string `validate:"omitempty,max=2048"`
	CompanySize *string `validate:"omitempty,oneof=1-10 11-50 51-200 201-500 501-1000 1001-5000 5001+"`
}

// CompanyPatch lists the company fields a caller may change. Nil fields are left
// untouched; an empty string clears an optional field.
type CompanyPatch struct {
	Name        *string
	Website     *string
	LinkedIn    *string
	Crunchbase  *string
	CompanySize *string
}

// CompanyDetail bundles a company with its people and their email attempts.
type CompanyDetail struct {
	Company       Company
	People        []Person
	EmailAttempts []EmailAttempt
}

// CompanyListQuery describes a company list request as received from callers.
type CompanyListQuery struct {
	Search   string
	Status   string
	Page     int
	PageSize int
}

// CompanyPage is one page of the filtered company list.
type CompanyPage struct {
	Items      []Company
	Page       int
	PageSize   int
	Total      int
	TotalPages int
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

// PersonInput captures the client-settable person fields on creation.
type PersonInput struct {
	CompanyID string  `validate:"notblank"`
	Name      string  `validate:"notblank"`
	Email     string  `validate:"notblank,email"`
	Position  *string `validate:"omitempty,max=256"`
	LinkedIn  *string `validate:"omitempty,max=2048"`
	City      *string `validate:"omitempty,max=256"`
	State     *string `validate:"omitempty,max=256"`
	Country   *string `validate:"omitempty,max=256"`
	Responded bool
}

// PersonPatch lists the person fields a caller may change. The owning company is fixed.
type PersonPatch struct {
	Name      *string
	Email     *string
	Position  *string
	LinkedIn  *string
	City      *string
	State     *string
	Country   *string
	Responded *bool
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

// EmailAttemptInput captures a new email attempt. CompanyID is optional and, when
// present, must match the person's company.
type EmailAttemptInput struct {
	PersonID        string `validate:"notblank"`
	CompanyID       string
	AttemptNumber   int    `validate:"required,min=1"`
	SentDate        string `validate:"notblank,datetime=2006-01-02"`
	Subject         string `validate:"notblank"`
	OpenCount       int    `validate:"min=0"`
	ClickCount      int    `validate:"min=0"`
	ResumeOpenCount int    `validate:"min=0"`
	Responded       bool
}

// EmailAttemptFilter narrows email attempt listings.
type EmailAttemptFilter struct {
	CompanyID string
	PersonID  string
}

// EngagementKind identifies an engagement signal recorded against an email attempt.
type EngagementKind string

const (
	EngagementOpen       EngagementKind = "open"
	EngagementClick      EngagementKind = "click"
	EngagementResumeOpen EngagementKind = "resume_open"
	EngagementResponse   EngagementKind = "response"
)

// Valid reports whether k is a known engagement kind.
func (k EngagementKind) Valid() bool {
	switch k {
	case EngagementOpen, EngagementClick, EngagementResumeOpen, EngagementResponse:
		return true
	}
	return false
}

// AnalyticsSummary aggregates engagement metrics across every company.
type AnalyticsSummary struct {
	Revision uint64 `json:"revision"`

	TotalCompanies  int `json:"totalCompanies"`
	TotalPeople     int `json:"totalPeople"`
	TotalEmails     int `json:"totalEmails"`
	ContactedPeople int `json:"contactedPeople"`

	OpenedPeople     int `json:"openedPeople"`
	ClickedPeople    int `json:"clickedPeople"`
	ResumeOpenPeople int `json:"resumeOpenPeople"`
	RespondedPeople  int `json:"respondedPeople"`

	OpenRate       float64 `json:"openRate"`
	ClickRate      float64 `json:"clickRate"`
	ResumeOpenRate float64 `json:"resumeOpenRate"`
	ResponseRate   float64 `json:"responseRate"`

	CompaniesByDecision map[string]int `json:"companiesByDecision"`
	CompaniesByRound    map[int]int    `json:"companiesByRound"`
	AttemptsByNumber    map[int]int    `json:"attemptsByNumber"`
}
