package testfixtures

import (
	"log/slog"

	"github.com/example/room-calendar/internal/application"
	"github.com/example/room-calendar/internal/persistence"
	"github.com/example/room-calendar/internal/scheduler"
)

// ServiceFactory builds scheduling services with deterministic identifiers.
type ServiceFactory struct {
	IDGenerator *IDGenerator
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{IDGenerator: NewIDGenerator("booking")}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("booking")
	}
	return factory
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithLogger sets the logger handed to every service.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// SchedulingDeps captures the optional collaborators of a scheduling service.
type SchedulingDeps struct {
	Store       persistence.Store
	Kind        persistence.Kind
	Validator   *scheduler.Validator
	Rooms       *application.RoomCatalog
	Metrics     application.MetricsRecorder
	StrictReads bool
}

// NewSchedulingService wires a repository and service for deps.Kind over
// deps.Store. A zero Kind selects room reservations.
func (f *ServiceFactory) NewSchedulingService(deps SchedulingDeps) (*application.SchedulingService, *application.BookingRepository) {
	kind := deps.Kind
	if kind.Name == "" {
		kind = persistence.KindRooms
	}
	repo := application.NewBookingRepository(deps.Store, kind, application.RepositoryOptions{
		StrictReads: deps.StrictReads,
		Logger:      f.Logger,
	})
	svc := application.NewSchedulingService(repo, application.ServiceOptions{
		Validator:   deps.Validator,
		Rooms:       deps.Rooms,
		IDGenerator: f.IDGenerator.NextFunc(),
		Logger:      f.Logger,
		Metrics:     deps.Metrics,
	})
	return svc, repo
}

// NewRoomCatalog builds a catalog over store.
func (f *ServiceFactory) NewRoomCatalog(store persistence.Store) *application.RoomCatalog {
	return application.NewRoomCatalog(store, f.Logger)
}
