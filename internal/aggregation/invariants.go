package aggregation

import (
	"fmt"

	"github.com/example/outreach-tracker/internal/persistence"
)

// Violation describes a broken consistency rule found in a snapshot.
type Violation struct {
	Kind     string
	EntityID string
	Detail   string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %s: %s", v.Kind, v.EntityID, v.Detail)
}

// CheckInvariants reports orphaned records and derived counters that disagree with
// the detail records in the snapshot. A consistent snapshot yields no violations.
func CheckInvariants(snapshot persistence.Snapshot) []Violation {
	var violations []Violation

	companies := make(map[string]persistence.Company, len(snapshot.Companies))
	for _, company := range snapshot.Companies {
		companies[company.ID] = company
	}
	people := make(map[string]persistence.Person, len(snapshot.People))
	for _, person := range snapshot.People {
		people[person.ID] = person
		if _, ok := companies[person.CompanyID]; !ok {
			violations = append(violations, Violation{Kind: "orphan_person", EntityID: person.ID, Detail: "company " + person.CompanyID + " does not exist"})
		}
	}
	for _, attempt := range snapshot.EmailAttempts {
		owner, ok := people[attempt.PersonID]
		if !ok {
			violations = append(violations, Violation{Kind: "orphan_attempt", EntityID: attempt.ID, Detail: "person " + attempt.PersonID + " does not exist"})
			continue
		}
		if owner.CompanyID != attempt.CompanyID {
			violations = append(violations, Violation{Kind: "company_mismatch", EntityID: attempt.ID, Detail: fmt.Sprintf("attempt company %s, person company %s", attempt.CompanyID, owner.CompanyID)})
		}
	}

	for _, person := range snapshot.People {
		expected := RecomputePerson(person, snapshot.EmailAttempts)
		if expected.Attempts != person.Attempts || expected.Opened != person.Opened ||
			expected.Clicked != person.Clicked || expected.Responded != person.Responded ||
			expected.OpenCount != person.OpenCount || expected.ClickCount != person.ClickCount ||
			expected.ResumeOpenCount != person.ResumeOpenCount {
			violations = append(violations, Violation{Kind: "person_drift", EntityID: person.ID, Detail: "engagement fields differ from attempts"})
		}
	}

	for _, company := range snapshot.Companies {
		expected := RecomputeCompany(company, snapshot.People, snapshot.EmailAttempts)
		if expected.TotalPeople != company.TotalPeople {
			violations = append(violations, Violation{Kind: "company_drift", EntityID: company.ID, Detail: fmt.Sprintf("totalPeople %d, expected %d", company.TotalPeople, expected.TotalPeople)})
		}
		if expected.TotalEmails != company.TotalEmails {
			violations = append(violations, Violation{Kind: "company_drift", EntityID: company.ID, Detail: fmt.Sprintf("totalEmails %d, expected %d", company.TotalEmails, expected.TotalEmails)})
		}
		if expected.HasOpened != company.HasOpened || expected.HasClicked != company.HasClicked || expected.HasResponded != company.HasResponded {
			violations = append(violations, Violation{Kind: "company_drift", EntityID: company.ID, Detail: "engagement flags differ from people"})
		}
		if expected.OpenCount != company.OpenCount || expected.ClickCount != company.ClickCount || expected.ResumeOpenCount != company.ResumeOpenCount {
			violations = append(violations, Violation{Kind: "company_drift", EntityID: company.ID, Detail: fmt.Sprintf(
				"opens/clicks/resume opens %d/%d/%d, expected %d/%d/%d",
				company.OpenCount, company.ClickCount, company.ResumeOpenCount,
				expected.OpenCount, expected.ClickCount, expected.ResumeOpenCount)})
		}
		if stringValue(expected.LastAttempt) != stringValue(company.LastAttempt) {
			violations = append(violations, Violation{Kind: "company_drift", EntityID: company.ID, Detail: fmt.Sprintf("lastAttempt %q, expected %q", stringValue(company.LastAttempt), stringValue(expected.LastAttempt))})
		}
	}

	return violations
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
