// Package memory provides the process-local store for companies, people and
// email attempts.
//
// All mutations run under a single write lock, and every mutation that touches a
// person or an email attempt recomputes the owning company's aggregates before the
// lock is released, so readers never observe a detail change without the matching
// company counters.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/outreach-tracker/internal/aggregation"
	"github.com/example/outreach-tracker/internal/persistence"
)

// Storage is a mutex-guarded in-memory implementation of the persistence repositories.
type Storage struct {
	mu        sync.RWMutex
	companies map[string]persistence.Company
	people    map[string]persistence.Person
	attempts  map[string]persistence.EmailAttempt
	seq       uint64
	revision  uint64
}

var (
	_ persistence.CompanyRepository      = (*Storage)(nil)
	_ persistence.PersonRepository       = (*Storage)(nil)
	_ persistence.EmailAttemptRepository = (*Storage)(nil)
)

// New returns an empty Storage.
func New() *Storage {
	return &Storage{
		companies: make(map[string]persistence.Company),
		people:    make(map[string]persistence.Person),
		attempts:  make(map[string]persistence.EmailAttempt),
	}
}

// Close releases resources held by the storage. No-op for the in-memory implementation.
func (s *Storage) Close() error {
	return nil
}

// Revision reports a counter that increases with every successful mutation.
func (s *Storage) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// --- CompanyRepository implementation ---

// CreateCompany stores a new company. Derived counters on the input are discarded.
func (s *Storage) CreateCompany(ctx context.Context, company persistence.Company) (persistence.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.companies[company.ID]; ok {
		return persistence.Company{}, persistence.ErrDuplicate
	}

	company.Seq = s.nextSeqLocked()
	s.companies[company.ID] = aggregation.RecomputeCompany(cloneCompany(company), nil, nil)
	s.revision++
	return cloneCompany(s.companies[company.ID]), nil
}

// UpdateCompany copies the client-settable fields of company onto the stored record.
// Derived counters and the decision are left untouched.
func (s *Storage) UpdateCompany(ctx context.Context, company persistence.Company) (persistence.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.companies[company.ID]
	if !ok {
		return persistence.Company{}, persistence.ErrNotFound
	}

	stored.Name = company.Name
	stored.Website = company.Website
	stored.LinkedIn = cloneString(company.LinkedIn)
	stored.Crunchbase = cloneString(company.Crunchbase)
	stored.CompanySize = cloneString(company.CompanySize)
	stored.UpdatedAt = company.UpdatedAt
	s.companies[company.ID] = stored
	s.revision++
	return cloneCompany(stored), nil
}

// SetCompanyDecision changes the archive decision of a company. A nil decision marks it undecided.
func (s *Storage) SetCompanyDecision(ctx context.Context, id string, decision *string, updatedAt time.Time) (persistence.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.companies[id]
	if !ok {
		return persistence.Company{}, persistence.ErrNotFound
	}

	stored.Decision = cloneString(decision)
	stored.UpdatedAt = updatedAt
	s.companies[id] = stored
	s.revision++
	return cloneCompany(stored), nil
}

// GetCompany retrieves a company by ID.
func (s *Storage) GetCompany(ctx context.Context, id string) (persistence.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	company, ok := s.companies[id]
	if !ok {
		return persistence.Company{}, persistence.ErrNotFound
	}
	return cloneCompany(company), nil
}

// ListCompanies returns all companies in creation order.
func (s *Storage) ListCompanies(ctx context.Context) ([]persistence.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	companies := make([]persistence.Company, 0, len(s.companies))
	for _, company := range s.companies {
		companies = append(companies, cloneCompany(company))
	}
	sort.Slice(companies, func(i, j int) bool { return companies[i].Seq < companies[j].Seq })
	return companies, nil
}

// DeleteCompany removes a company together with its people and their email attempts.
func (s *Storage) DeleteCompany(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.companies[id]; !ok {
		return persistence.ErrNotFound
	}

	for attemptID, attempt := range s.attempts {
		if attempt.CompanyID == id {
			delete(s.attempts, attemptID)
		}
	}
	for personID, person := range s.people {
		if person.CompanyID == id {
			delete(s.people, personID)
		}
	}
	delete(s.companies, id)
	s.revision++
	return nil
}

// --- PersonRepository implementation ---

// CreatePerson stores a new person under an existing company.
func (s *Storage) CreatePerson(ctx context.Context, person persistence.Person) (persistence.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.people[person.ID]; ok {
		return persistence.Person{}, persistence.ErrDuplicate
	}
	if _, ok := s.companies[person.CompanyID]; !ok {
		return persistence.Person{}, persistence.ErrReferentialIntegrity
	}

	person.Seq = s.nextSeqLocked()
	s.people[person.ID] = clonePerson(person)
	s.recomputeLocked(person.CompanyID)
	s.revision++
	return clonePerson(s.people[person.ID]), nil
}

// UpdatePerson copies the client-settable fields of person onto the stored record.
// The owning company cannot be changed.
func (s *Storage) UpdatePerson(ctx context.Context, person persistence.Person) (persistence.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.people[person.ID]
	if !ok {
		return persistence.Person{}, persistence.ErrNotFound
	}
	if person.CompanyID != "" && person.CompanyID != stored.CompanyID {
		return persistence.Person{}, persistence.ErrReferentialIntegrity
	}

	stored.Name = person.Name
	stored.Email = person.Email
	stored.Position = cloneString(person.Position)
	stored.LinkedIn = cloneString(person.LinkedIn)
	stored.City = cloneString(person.City)
	stored.State = cloneString(person.State)
	stored.Country = cloneString(person.Country)
	stored.Responded = person.Responded
	stored.UpdatedAt = person.UpdatedAt
	s.people[person.ID] = stored
	s.recomputeLocked(stored.CompanyID)
	s.revision++
	return clonePerson(s.people[person.ID]), nil
}

// GetPerson retrieves a person by ID.
func (s *Storage) GetPerson(ctx context.Context, id string) (persistence.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	person, ok := s.people[id]
	if !ok {
		return persistence.Person{}, persistence.ErrNotFound
	}
	return clonePerson(person), nil
}

// ListPeople returns people in creation order, optionally restricted to one company.
func (s *Storage) ListPeople(ctx context.Context, filter persistence.PersonFilter) ([]persistence.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	people := make([]persistence.Person, 0, len(s.people))
	for _, person := range s.people {
		if filter.CompanyID != "" && person.CompanyID != filter.CompanyID {
			continue
		}
		people = append(people, clonePerson(person))
	}
	sort.Slice(people, func(i, j int) bool { return people[i].Seq < people[j].Seq })
	return people, nil
}

// DeletePerson removes a person and the email attempts addressed to them.
func (s *Storage) DeletePerson(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	person, ok := s.people[id]
	if !ok {
		return persistence.ErrNotFound
	}

	for attemptID, attempt := range s.attempts {
		if attempt.PersonID == id {
			delete(s.attempts, attemptID)
		}
	}
	delete(s.people, id)
	s.recomputeLocked(person.CompanyID)
	s.revision++
	return nil
}

// --- EmailAttemptRepository implementation ---

// CreateEmailAttempt appends an attempt for an existing person. The company is
// taken from the person; a conflicting company on the input is rejected. The
// attempt number must directly follow the person's latest attempt.
func (s *Storage) CreateEmailAttempt(ctx context.Context, attempt persistence.EmailAttempt) (persistence.EmailAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.attempts[attempt.ID]; ok {
		return persistence.EmailAttempt{}, persistence.ErrDuplicate
	}
	person, ok := s.people[attempt.PersonID]
	if !ok {
		return persistence.EmailAttempt{}, persistence.ErrReferentialIntegrity
	}
	if attempt.CompanyID != "" && attempt.CompanyID != person.CompanyID {
		return persistence.EmailAttempt{}, persistence.ErrReferentialIntegrity
	}
	if attempt.AttemptNumber != s.latestAttemptNumberLocked(person.ID)+1 {
		return persistence.EmailAttempt{}, persistence.ErrOutOfSequence
	}

	attempt.CompanyID = person.CompanyID
	attempt.Seq = s.nextSeqLocked()
	s.attempts[attempt.ID] = attempt
	s.recomputeLocked(person.CompanyID)
	s.revision++
	return attempt, nil
}

// GetEmailAttempt retrieves an email attempt by ID.
func (s *Storage) GetEmailAttempt(ctx context.Context, id string) (persistence.EmailAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attempt, ok := s.attempts[id]
	if !ok {
		return persistence.EmailAttempt{}, persistence.ErrNotFound
	}
	return attempt, nil
}

// ListEmailAttempts returns attempts in creation order, optionally restricted to a
// company and/or a person.
func (s *Storage) ListEmailAttempts(ctx context.Context, filter persistence.EmailAttemptFilter) ([]persistence.EmailAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filterAttemptsLocked(filter), nil
}

// RecordEngagement registers an engagement signal against an attempt and refreshes
// the person and company aggregates.
func (s *Storage) RecordEngagement(ctx context.Context, id string, kind persistence.EngagementKind) (persistence.EmailAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempt, ok := s.attempts[id]
	if !ok {
		return persistence.EmailAttempt{}, persistence.ErrNotFound
	}

	switch kind {
	case persistence.EngagementOpen:
		attempt.OpenCount++
	case persistence.EngagementClick:
		attempt.ClickCount++
	case persistence.EngagementResumeOpen:
		attempt.ResumeOpenCount++
	case persistence.EngagementResponse:
		attempt.Responded = true
	default:
		return persistence.EmailAttempt{}, persistence.ErrConstraintViolation
	}

	s.attempts[id] = attempt
	s.recomputeLocked(attempt.CompanyID)
	s.revision++
	return attempt, nil
}

// DeleteEmailAttempt removes the latest attempt of a person. Removing an earlier
// attempt would break the sequential numbering and is rejected.
func (s *Storage) DeleteEmailAttempt(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempt, ok := s.attempts[id]
	if !ok {
		return persistence.ErrNotFound
	}
	if attempt.AttemptNumber != s.latestAttemptNumberLocked(attempt.PersonID) {
		return persistence.ErrOutOfSequence
	}

	delete(s.attempts, id)
	s.recomputeLocked(attempt.CompanyID)
	s.revision++
	return nil
}

// --- Aggregation and snapshots ---

// Recompute re-derives the aggregates of a single company and its people and
// returns the refreshed company. Running it twice yields identical results.
func (s *Storage) Recompute(ctx context.Context, companyID string) (persistence.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.companies[companyID]; !ok {
		return persistence.Company{}, persistence.ErrNotFound
	}
	s.recomputeLocked(companyID)
	return cloneCompany(s.companies[companyID]), nil
}

// ExportSnapshot returns a copy of every record, each kind in creation order.
func (s *Storage) ExportSnapshot(ctx context.Context) persistence.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := persistence.Snapshot{
		Companies:     make([]persistence.Company, 0, len(s.companies)),
		People:        make([]persistence.Person, 0, len(s.people)),
		EmailAttempts: s.filterAttemptsLocked(persistence.EmailAttemptFilter{}),
		Revision:      s.revision,
	}
	for _, company := range s.companies {
		snapshot.Companies = append(snapshot.Companies, cloneCompany(company))
	}
	for _, person := range s.people {
		snapshot.People = append(snapshot.People, clonePerson(person))
	}
	sort.Slice(snapshot.Companies, func(i, j int) bool { return snapshot.Companies[i].Seq < snapshot.Companies[j].Seq })
	sort.Slice(snapshot.People, func(i, j int) bool { return snapshot.People[i].Seq < snapshot.People[j].Seq })
	return snapshot
}

// ImportSnapshot replaces the store contents with snapshot. Records that reference
// missing parents are dropped and every aggregate is recomputed, so a stale or
// hand-edited snapshot cannot introduce inconsistent counters.
func (s *Storage) ImportSnapshot(ctx context.Context, snapshot persistence.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.companies = make(map[string]persistence.Company, len(snapshot.Companies))
	s.people = make(map[string]persistence.Person, len(snapshot.People))
	s.attempts = make(map[string]persistence.EmailAttempt, len(snapshot.EmailAttempts))
	s.seq = 0

	for _, company := range snapshot.Companies {
		s.companies[company.ID] = cloneCompany(company)
		s.observeSeqLocked(company.Seq)
	}
	for _, person := range snapshot.People {
		if _, ok := s.companies[person.CompanyID]; !ok {
			continue
		}
		s.people[person.ID] = clonePerson(person)
		s.observeSeqLocked(person.Seq)
	}
	for _, attempt := range snapshot.EmailAttempts {
		person, ok := s.people[attempt.PersonID]
		if !ok {
			continue
		}
		attempt.CompanyID = person.CompanyID
		s.attempts[attempt.ID] = attempt
		s.observeSeqLocked(attempt.Seq)
	}
	for id := range s.companies {
		s.recomputeLocked(id)
	}
	s.revision++
}

// recomputeLocked is the single aggregation entry point used by every mutation path.
func (s *Storage) recomputeLocked(companyID string) {
	company, ok := s.companies[companyID]
	if !ok {
		return
	}

	attempts := s.filterAttemptsLocked(persistence.EmailAttemptFilter{CompanyID: companyID})
	people := make([]persistence.Person, 0)
	for id, person := range s.people {
		if person.CompanyID != companyID {
			continue
		}
		person = aggregation.RecomputePerson(person, attempts)
		s.people[id] = person
		people = append(people, person)
	}

	s.companies[companyID] = aggregation.RecomputeCompany(company, people, attempts)
}

func (s *Storage) filterAttemptsLocked(filter persistence.EmailAttemptFilter) []persistence.EmailAttempt {
	attempts := make([]persistence.EmailAttempt, 0)
	for _, attempt := range s.attempts {
		if filter.CompanyID != "" && attempt.CompanyID != filter.CompanyID {
			continue
		}
		if filter.PersonID != "" && attempt.PersonID != filter.PersonID {
			continue
		}
		attempts = append(attempts, attempt)
	}
	sort.Slice(attempts, func(i, j int) bool { return attempts[i].Seq < attempts[j].Seq })
	return attempts
}

func (s *Storage) latestAttemptNumberLocked(personID string) int {
	latest := 0
	for _, attempt := range s.attempts {
		if attempt.PersonID == personID && attempt.AttemptNumber > latest {
			latest = attempt.AttemptNumber
		}
	}
	return latest
}

func (s *Storage) nextSeqLocked() uint64 {
	s.seq++
	return s.seq
}

func (s *Storage) observeSeqLocked(seq uint64) {
	if seq > s.seq {
		s.seq = seq
	}
}

func cloneCompany(company persistence.Company) persistence.Company {
	company.LinkedIn = cloneString(company.LinkedIn)
	company.Crunchbase = cloneString(company.Crunchbase)
	company.CompanySize = cloneString(company.CompanySize)
	company.Decision = cloneString(company.Decision)
	company.LastAttempt = cloneString(company.LastAttempt)
	return company
}

func clonePerson(person persistence.Person) persistence.Person {
	person.Position = cloneString(person.Position)
	person.LinkedIn = cloneString(person.LinkedIn)
	person.City = cloneString(person.City)
	person.State = cloneString(person.State)
	person.Country = cloneString(person.Country)
	person.LastEmailDate = cloneString(person.LastEmailDate)
	return person
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
