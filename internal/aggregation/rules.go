// Package aggregation derives person and company engagement counters from the
// email attempts recorded against them.
//
// Every function is pure: the result depends only on the arguments, so running a
// recomputation twice without an intervening mutation yields identical records.
// Open, click and resume-open counters on a company count distinct people that
// engaged, not the number of engagement events.
package aggregation

import "github.com/example/outreach-tracker/internal/persistence"

// RecomputePerson returns person with its engagement fields derived from the
// attempts addressed to it. Attempts for other people are ignored.
func RecomputePerson(person persistence.Person, attempts []persistence.EmailAttempt) persistence.Person {
	person.Attempts = 0
	person.OpenCount = 0
	person.ClickCount = 0
	person.ResumeOpenCount = 0
	person.LastEmailDate = nil

	responded := person.Responded
	own := make([]persistence.EmailAttempt, 0, len(attempts))
	for _, attempt := range attempts {
		if attempt.PersonID != person.ID {
			continue
		}
		own = append(own, attempt)
		person.Attempts++
		person.OpenCount += attempt.OpenCount
		person.ClickCount += attempt.ClickCount
		person.ResumeOpenCount += attempt.ResumeOpenCount
		if attempt.Responded {
			responded = true
		}
	}

	person.Opened = person.OpenCount > 0
	person.Clicked = person.ClickCount > 0
	person.ResumeOpened = person.ResumeOpenCount > 0
	person.Responded = responded
	if latest, ok := LatestAttempt(own); ok {
		date := latest.SentDate
		person.LastEmailDate = &date
	}
	return person
}

// RecomputeCompany returns company with its derived counters rebuilt from the
// supplied people and attempts. People and attempts belonging to other companies
// are ignored. The people are expected to carry up-to-date engagement fields,
// see RecomputePerson. Decision is never modified.
func RecomputeCompany(company persistence.Company, people []persistence.Person, attempts []persistence.EmailAttempt) persistence.Company {
	company.TotalPeople = 0
	company.TotalEmails = 0
	company.OpenCount = 0
	company.ClickCount = 0
	company.ResumeOpenCount = 0
	company.LastAttempt = nil

	responded := 0
	for _, person := range people {
		if person.CompanyID != company.ID {
			continue
		}
		company.TotalPeople++
		if person.Opened {
			company.OpenCount++
		}
		if person.Clicked {
			company.ClickCount++
		}
		if person.ResumeOpened {
			company.ResumeOpenCount++
		}
		if person.Responded {
			responded++
		}
	}

	own := make([]persistence.EmailAttempt, 0, len(attempts))
	for _, attempt := range attempts {
		if attempt.CompanyID == company.ID {
			own = append(own, attempt)
		}
	}
	company.TotalEmails = len(own)

	company.HasOpened = company.OpenCount > 0
	company.HasClicked = company.ClickCount > 0
	company.HasResponded = responded > 0
	if latest, ok := LatestAttempt(own); ok {
		date := latest.SentDate
		company.LastAttempt = &date
	}
	return company
}

// LatestAttempt returns the attempt with the greatest sent date. Ties go to the
// most recently created attempt.
func LatestAttempt(attempts []persistence.EmailAttempt) (persistence.EmailAttempt, bool) {
	if len(attempts) == 0 {
		return persistence.EmailAttempt{}, false
	}
	latest := attempts[0]
	for _, attempt := range attempts[1:] {
		if isLater(attempt, latest) {
			latest = attempt
		}
	}
	return latest, true
}

// isLater compares ISO dates lexicographically and falls back to creation order.
func isLater(candidate, current persistence.EmailAttempt) bool {
	if candidate.SentDate != current.SentDate {
		return candidate.SentDate > current.SentDate
	}
	return candidate.Seq > current.Seq
}
