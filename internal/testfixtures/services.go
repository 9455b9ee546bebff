package testfixtures

import (
	"log/slog"
	"time"

	"github.com/emaximovel/agenda/internal/application"
	"github.com/emaximovel/agenda/internal/permission"
	"github.com/emaximovel/agenda/internal/persistence"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Resolver    permission.Resolver
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults: the reference
// clock, sequential ids and the default super admin in UTC.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Resolver: permission.Resolver{
			SuperAdminEmail: "gl.infostech@gmail.com",
			Location:        time.UTC,
		},
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
	return func(factory *ServiceFactory) { factory.Clock = clock }
}

// WithIDGenerator overrides the identifier generator.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.IDGenerator = generator }
}

// WithResolver overrides the permission resolver.
func WithResolver(resolver permission.Resolver) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.Resolver = resolver }
}

// WithLogger attaches a logger to constructed services.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) { factory.Logger = logger }
}

// AppointmentService builds an appointment service on the given repositories.
func (f *ServiceFactory) AppointmentService(appointments persistence.AppointmentRepository, consultants application.ConsultantDirectory) *application.AppointmentService {
	return application.NewAppointmentServiceWithLogger(appointments, consultants, f.Resolver, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// AuthService builds an auth service with a one-day session window.
func (f *ServiceFactory) AuthService(users persistence.UserRepository, sessions persistence.SessionRepository) *application.AuthService {
	return application.NewAuthServiceWithLogger(users, sessions, nil, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), 24*time.Hour, f.Logger)
}

// ConsultantService builds a consultant service.
func (f *ServiceFactory) ConsultantService(users persistence.UserRepository) *application.ConsultantService {
	return application.NewConsultantServiceWithLogger(users, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}
