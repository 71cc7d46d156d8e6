// Package sqlite persists complete store snapshots to a SQLite database file.
//
// The in-memory store stays authoritative while the process runs; this package
// only writes and restores point-in-time copies of it. Derived counters are not
// written because the store recomputes them on import.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/outreach-tracker/internal/persistence"
	_ "modernc.org/sqlite" // SQLite driver
)

const timeLayout = time.RFC3339Nano

// SnapshotStore implements persistence.SnapshotStore on top of a SQLite connection.
type SnapshotStore struct {
	db *sql.DB
}

var _ persistence.SnapshotStore = (*SnapshotStore)(nil)

// Open opens (creating when absent) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*SnapshotStore, error) {
	if path == "" {
		return nil, errors.New("sqlite: snapshot path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer keeps SQLite from returning SQLITE_BUSY between our own connections.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite database: %w", err)
	}

	store := New(db)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an existing connection. Callers are responsible for running Migrate.
func New(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Close releases the underlying connection.
func (s *SnapshotStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save replaces the stored snapshot with snapshot in a single transaction.
func (s *SnapshotStore) Save(ctx context.Context, snapshot persistence.Snapshot) error {
	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"email_attempts", "people", "companies"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}

		for _, company := range snapshot.Companies {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO companies (id, name, website, linkedin, crunchbase, company_size, decision, seq, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				company.ID,
				company.Name,
				company.Website,
				nullString(company.LinkedIn),
				nullString(company.Crunchbase),
				nullString(company.CompanySize),
				nullString(company.Decision),
				int64(company.Seq),
				formatTime(company.CreatedAt),
				formatTime(company.UpdatedAt),
			)
			if err != nil {
				return fmt.Errorf("insert company %s: %w", company.ID, err)
			}
		}

		for _, person := range snapshot.People {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO people (id, company_id, name, email, position, linkedin, city, state, country, responded, seq, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				person.ID,
				person.CompanyID,
				person.Name,
				person.Email,
				nullString(person.Position),
				nullString(person.LinkedIn),
				nullString(person.City),
				nullString(person.State),
				nullString(person.Country),
				person.Responded,
				int64(person.Seq),
				formatTime(person.CreatedAt),
				formatTime(person.UpdatedAt),
			)
			if err != nil {
				return fmt.Errorf("insert person %s: %w", person.ID, err)
			}
		}

		for _, attempt := range snapshot.EmailAttempts {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO email_attempts (id, person_id, company_id, attempt_number, sent_date, subject, open_count, click_count, resume_open_count, responded, seq, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				attempt.ID,
				attempt.PersonID,
				attempt.CompanyID,
				attempt.AttemptNumber,
				attempt.SentDate,
				attempt.Subject,
				attempt.OpenCount,
				attempt.ClickCount,
				attempt.ResumeOpenCount,
				attempt.Responded,
				int64(attempt.Seq),
				formatTime(attempt.CreatedAt),
			)
			if err != nil {
				return fmt.Errorf("insert email attempt %s: %w", attempt.ID, err)
			}
		}
		return nil
	})
}

// Load reads the stored snapshot. Each kind is returned in creation order.
func (s *SnapshotStore) Load(ctx context.Context) (persistence.Snapshot, error) {
	var snapshot persistence.Snapshot

	companies, err := s.loadCompanies(ctx)
	if err != nil {
		return persistence.Snapshot{}, err
	}
	people, err := s.loadPeople(ctx)
	if err != nil {
		return persistence.Snapshot{}, err
	}
	attempts, err := s.loadEmailAttempts(ctx)
	if err != nil {
		return persistence.Snapshot{}, err
	}

	snapshot.Companies = companies
	snapshot.People = people
	snapshot.EmailAttempts = attempts
	return snapshot, nil
}

func (s *SnapshotStore) loadCompanies(ctx context.Context) ([]persistence.Company, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, website, linkedin, crunchbase, company_size, decision, seq, created_at, updated_at
		FROM companies ORDER BY seq, id`)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	var companies []persistence.Company
	for rows.Next() {
		var (
			company                                     persistence.Company
			linkedIn, crunchbase, companySize, decision sql.NullString
			seq                                         int64
			createdAt, updatedAt                        string
		)
		if err := rows.Scan(&company.ID, &company.Name, &company.Website, &linkedIn, &crunchbase, &companySize, &decision, &seq, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		company.LinkedIn = stringPtr(linkedIn)
		company.Crunchbase = stringPtr(crunchbase)
		company.CompanySize = stringPtr(companySize)
		company.Decision = stringPtr(decision)
		company.Seq = uint64(seq)
		if company.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("company %s created_at: %w", company.ID, err)
		}
		if company.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("company %s updated_at: %w", company.ID, err)
		}
		companies = append(companies, company)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}
	return companies, nil
}

func (s *SnapshotStore) loadPeople(ctx context.Context) ([]persistence.Person, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, name, email, position, linkedin, city, state, country, responded, seq, created_at, updated_at
		FROM people ORDER BY seq, id`)
	if err != nil {
		return nil, fmt.Errorf("query people: %w", err)
	}
	defer rows.Close()

	var people []persistence.Person
	for rows.Next() {
		var (
			person                                  persistence.Person
			position, linkedIn, city, state, country sql.NullString
			seq                                     int64
			createdAt, updatedAt                    string
		)
		if err := rows.Scan(&person.ID, &person.CompanyID, &person.Name, &person.Email, &position, &linkedIn, &city, &state, &country, &person.Responded, &seq, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		person.Position = stringPtr(position)
		person.LinkedIn = stringPtr(linkedIn)
		person.City = stringPtr(city)
		person.State = stringPtr(state)
		person.Country = stringPtr(country)
		person.Seq = uint64(seq)
		if person.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("person %s created_at: %w", person.ID, err)
		}
		if person.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("person %s updated_at: %w", person.ID, err)
		}
		people = append(people, person)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate people: %w", err)
	}
	return people, nil
}

func (s *SnapshotStore) loadEmailAttempts(ctx context.Context) ([]persistence.EmailAttempt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, person_id, company_id, attempt_number, sent_date, subject, open_count, click_count, resume_open_count, responded, seq, created_at
		FROM email_attempts ORDER BY seq, id`)
	if err != nil {
		return nil, fmt.Errorf("query email attempts: %w", err)
	}
	defer rows.Close()

	var attempts []persistence.EmailAttempt
	for rows.Next() {
		var (
			attempt   persistence.EmailAttempt
			seq       int64
			createdAt string
		)
		if err := rows.Scan(&attempt.ID, &attempt.PersonID, &attempt.CompanyID, &attempt.AttemptNumber, &attempt.SentDate, &attempt.Subject,
			&attempt.OpenCount, &attempt.ClickCount, &attempt.ResumeOpenCount, &attempt.Responded, &seq, &createdAt); err != nil {
			return nil, fmt.Errorf("scan email attempt: %w", err)
		}
		attempt.Seq = uint64(seq)
		if attempt.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("email attempt %s created_at: %w", attempt.ID, err)
		}
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate email attempts: %w", err)
	}
	return attempts, nil
}

// withTransaction runs fn in a transaction, rolling back when fn fails or panics.
func (s *SnapshotStore) withTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, value)
}
