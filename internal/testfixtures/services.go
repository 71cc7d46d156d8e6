package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/outreach-tracker/internal/adapters"
	"github.com/example/outreach-tracker/internal/application"
	"github.com/example/outreach-tracker/internal/persistence/memory"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
	MaxAttempts int
	PageSize    int
	Cache       application.SummaryCache
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithMaxAttempts overrides the per-person attempt cap.
func WithMaxAttempts(max int) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.MaxAttempts = max
	}
}

// WithSummaryCache installs a cache for analytics summaries.
func WithSummaryCache(cache application.SummaryCache) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Cache = cache
	}
}

// NewServices wires every application service to store using the factory defaults.
func (f *ServiceFactory) NewServices(store *memory.Storage) adapters.Services {
	return adapters.NewServices(store, adapters.Options{
		IDGenerator: f.IDGenerator.NextFunc(),
		Now:         f.Clock.NowFunc(),
		Logger:      f.Logger,
		MaxAttempts: f.MaxAttempts,
		PageSize:    f.PageSize,
		Cache:       f.Cache,
	})
}
