package testfixtures

import (
	"log/slog"
	"testing"
	"time"

	"github.com/example/room-finder/internal/application"
	"github.com/example/room-finder/internal/directory"
	"github.com/example/room-finder/internal/persistence"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	GroupIDs    *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("res"),
		GroupIDs:    NewIDGenerator("grp"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("res")
	}
	if factory.GroupIDs == nil {
		factory.GroupIDs = NewIDGenerator("grp")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the reservation identifier generator.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// ReservationServiceDeps captures optional dependencies for a reservation
// service. Nil fields fall back to the fixture catalog, an empty busy
// calendar and no stores.
type ReservationServiceDeps struct {
	Catalog      *directory.Catalog
	Availability application.AvailabilityIndex
	Reservations persistence.ReservationStore
	Preferences  persistence.PreferenceStore
	Observer     application.Observer
	Logger       *slog.Logger
}

// NewReservationService builds a reservation service using the supplied
// dependencies combined with the factory defaults.
func (f *ServiceFactory) NewReservationService(tb testing.TB, deps ReservationServiceDeps) *application.ReservationService {
	tb.Helper()
	if deps.Catalog == nil {
		deps.Catalog = NewCatalog(tb)
	}
	if deps.Availability == nil {
		deps.Availability = NewAvailability(tb)
	}
	svc, err := application.NewReservationService(application.Dependencies{
		Catalog:          deps.Catalog,
		Availability:     deps.Availability,
		Reservations:     deps.Reservations,
		Preferences:      deps.Preferences,
		IDGenerator:      f.IDGenerator.NextFunc(),
		GroupIDGenerator: f.GroupIDs.NextFunc(),
		Now:              f.Clock.NowFunc(),
		Logger:           deps.Logger,
		Observer:         deps.Observer,
	})
	if err != nil {
		tb.Fatalf("failed to build reservation service: %v", err)
	}
	return svc
}
