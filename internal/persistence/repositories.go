package persistence

import (
	"context"
	"time"

	"github.com/emaximovel/agenda/internal/agenda"
)

// AppointmentFilter narrows appointment queries. Empty fields are ignored.
type AppointmentFilter struct {
	BrokerID string
	Date     string
	DateFrom string
	DateTo   string
	GroupID  string
}

// AppointmentRepository stores appointment records. Batch operations commit
// as a single transaction: all rows are written or none are.
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, appt agenda.Appointment) error
	CreateAppointments(ctx context.Context, appts []agenda.Appointment) error
	UpdateAppointment(ctx context.Context, appt agenda.Appointment) error
	GetAppointment(ctx context.Context, id string) (agenda.Appointment, error)
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]agenda.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
	// DeleteAppointmentsByGroup removes the whole series atomically and
	// returns the ids that were removed.
	DeleteAppointmentsByGroup(ctx context.Context, groupID string) ([]string, error)
}

// UserRepository exposes the consultant roster and credentials.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) error
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
