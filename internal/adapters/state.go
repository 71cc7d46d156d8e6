package adapters

import (
	"context"

	"github.com/example/outreach-tracker/internal/application"
	"github.com/example/outreach-tracker/internal/persistence"
)

// SnapshotExporter copies every record of a store under one lock.
type SnapshotExporter interface {
	ExportSnapshot(ctx context.Context) persistence.Snapshot
}

// StateReader serves application.StateReader from a store snapshot.
type StateReader struct {
	store SnapshotExporter
}

var _ application.StateReader = (*StateReader)(nil)

// NewStateReader wraps store.
func NewStateReader(store SnapshotExporter) *StateReader {
	return &StateReader{store: store}
}

func (r *StateReader) ReadState(ctx context.Context) (application.StoreState, error) {
	if err := ctx.Err(); err != nil {
		return application.StoreState{}, err
	}
	snapshot := r.store.ExportSnapshot(ctx)
	state := application.StoreState{
		Revision:  snapshot.Revision,
		Companies: make([]application.Company, 0, len(snapshot.Companies)),
		People:    make([]application.Person, 0, len(snapshot.People)),
		Attempts:  make([]application.EmailAttempt, 0, len(snapshot.EmailAttempts)),
	}
	for _, company := range snapshot.Companies {
		state.Companies = append(state.Companies, toApplicationCompany(company))
	}
	for _, person := range snapshot.People {
		state.People = append(state.People, toApplicationPerson(person))
	}
	for _, attempt := range snapshot.EmailAttempts {
		state.Attempts = append(state.Attempts, toApplicationEmailAttempt(attempt))
	}
	return state, nil
}
