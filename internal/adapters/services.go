package adapters

import (
	"log/slog"
	"time"

	"github.com/example/outreach-tracker/internal/application"
	"github.com/example/outreach-tracker/internal/persistence/memory"
)

// Options tune the services built by NewServices. Zero values fall back to the
// service defaults.
type Options struct {
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
	MaxAttempts int
	PageSize    int
	Cache       application.SummaryCache
}

// Services bundles every application service backed by one store.
type Services struct {
	Companies *application.CompanyService
	People    *application.PersonService
	Attempts  *application.EmailAttemptService
	Analytics *application.AnalyticsService
}

// NewServices wires the application services to store.
func NewServices(store *memory.Storage, opts Options) Services {
	companies := NewCompanyRepository(store)
	people := NewPersonRepository(store)
	attempts := NewEmailAttemptRepository(store)

	companyService := application.NewCompanyServiceWithLogger(companies, people, attempts, opts.IDGenerator, opts.Now, opts.Logger)
	if opts.PageSize > 0 {
		companyService.SetDefaultPageSize(opts.PageSize)
	}

	return Services{
		Companies: companyService,
		People:    application.NewPersonServiceWithLogger(people, companies, opts.IDGenerator, opts.Now, opts.Logger),
		Attempts:  application.NewEmailAttemptServiceWithLogger(attempts, people, opts.IDGenerator, opts.Now, opts.MaxAttempts, opts.Logger),
		Analytics: application.NewAnalyticsService(NewStateReader(store), store, opts.Cache, opts.Logger),
	}
}
