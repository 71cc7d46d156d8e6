package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/outreach-tracker/internal/persistence"
)

func ptr(s string) *string { return &s }

func sampleSnapshot() persistence.Snapshot {
	created := time.Date(2024, 7, 20, 9, 0, 0, 0, time.UTC)
	return persistence.Snapshot{
		Companies: []persistence.Company{
			{ID: "c1", Name: "Acme", Website: "https://acme.example", CompanySize: ptr("11-50"), Decision: ptr("Yes"), Seq: 1, CreatedAt: created, UpdatedAt: created},
			{ID: "c2", Name: "Globex", Website: "https://globex.example", Seq: 2, CreatedAt: created, UpdatedAt: created},
		},
		People: []persistence.Person{
			{ID: "p1", CompanyID: "c1", Name: "Ada", Email: "ada@acme.example", Position: ptr("CTO"), Responded: true, Seq: 3, CreatedAt: created, UpdatedAt: created},
		},
		EmailAttempts: []persistence.EmailAttempt{
			{ID: "a1", PersonID: "p1", CompanyID: "c1", AttemptNumber: 1, SentDate: "2024-07-20", Subject: "Hello", OpenCount: 2, ClickCount: 1, Seq: 4, CreatedAt: created},
		},
	}
}

func TestSnapshotStore_SaveWritesInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	snapshot := sampleSnapshot()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM email_attempts").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM people").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM companies").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO companies").
		WithArgs("c1", "Acme", "https://acme.example", nil, nil, "11-50", "Yes", int64(1), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO companies").
		WithArgs("c2", "Globex", "https://globex.example", nil, nil, nil, nil, int64(2), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec("INSERT INTO people").
		WithArgs("p1", "c1", "Ada", "ada@acme.example", "CTO", nil, nil, nil, nil, true, int64(3), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO email_attempts").
		WithArgs("a1", "p1", "c1", 1, "2024-07-20", "Hello", 2, 1, 0, false, int64(4), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, New(db).Save(context.Background(), snapshot))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotStore_SaveRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM email_attempts").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM people").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err = New(db).Save(context.Background(), sampleSnapshot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear people")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotStore_LoadMapsNullableColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ts := "2024-07-20T09:00:00Z"
	mock.ExpectQuery("FROM companies").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "website", "linkedin", "crunchbase", "company_size", "decision", "seq", "created_at", "updated_at"}).
			AddRow("c1", "Acme", "https://acme.example", nil, nil, "11-50", "No", int64(1), ts, ts),
	)
	mock.ExpectQuery("FROM people").WillReturnRows(
		sqlmock.NewRows([]string{"id", "company_id", "name", "email", "position", "linkedin", "city", "state", "country", "responded", "seq", "created_at", "updated_at"}).
			AddRow("p1", "c1", "Ada", "ada@acme.example", nil, nil, "Berlin", nil, nil, false, int64(2), ts, ts),
	)
	mock.ExpectQuery("FROM email_attempts").WillReturnRows(
		sqlmock.NewRows([]string{"id", "person_id", "company_id", "attempt_number", "sent_date", "subject", "open_count", "click_count", "resume_open_count", "responded", "seq", "created_at"}).
			AddRow("a1", "p1", "c1", 1, "2024-07-20", "Hello", 0, 0, 1, true, int64(3), ts),
	)

	snapshot, err := New(db).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot.Companies, 1)
	require.Len(t, snapshot.People, 1)
	require.Len(t, snapshot.EmailAttempts, 1)

	company := snapshot.Companies[0]
	assert.Nil(t, company.LinkedIn)
	require.NotNil(t, company.Decision)
	assert.Equal(t, "No", *company.Decision)
	assert.Equal(t, uint64(1), company.Seq)
	assert.Equal(t, time.Date(2024, 7, 20, 9, 0, 0, 0, time.UTC), company.CreatedAt)

	person := snapshot.People[0]
	assert.Nil(t, person.Position)
	require.NotNil(t, person.City)
	assert.Equal(t, "Berlin", *person.City)

	attempt := snapshot.EmailAttempts[0]
	assert.Equal(t, 1, attempt.ResumeOpenCount)
	assert.True(t, attempt.Responded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotStore_LoadPropagatesQueryErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM companies").WillReturnError(errors.New("no such table: companies"))

	_, err = New(db).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query companies")
}

func TestSnapshotStore_FileRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snapshot.db")

	store, err := Open(ctx, path)
	require.NoError(t, err)

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), version)

	empty, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Companies)

	want := sampleSnapshot()
	require.NoError(t, store.Save(ctx, want))
	// A second save replaces rather than appends.
	require.NoError(t, store.Save(ctx, want))
	require.NoError(t, store.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}
