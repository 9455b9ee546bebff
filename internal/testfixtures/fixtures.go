package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/emaximovel/agenda/internal/agenda"
	"github.com/emaximovel/agenda/internal/persistence"
)

var (
	appointmentCounter uint64
	userCounter        uint64
	sessionCounter     uint64
)

var referenceTime = time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// AppointmentOption configures a generated appointment fixture.
type AppointmentOption func(*agenda.Appointment)

// NewAppointment returns a deterministic visit on broker_davi with one client
// and one property, ten days after the reference time. Options override any
// field.
func NewAppointment(opts ...AppointmentOption) agenda.Appointment {
	idx := atomic.AddUint64(&appointmentCounter, 1)
	appt := agenda.Appointment{
		ID:              fmt.Sprintf("appt-%03d", idx),
		Date:            "2024-06-10",
		StartTime:       "10:00",
		EndTime:         "11:00",
		BrokerID:        "broker_davi",
		Reference:       fmt.Sprintf("AP%03d", idx),
		PropertyAddress: fmt.Sprintf("Rua das Flores, %d", idx),
		Status:          agenda.StatusScheduled,
		CreatedBy:       "ana@imob.com",
		CreatedByName:   "Ana",
		CreatedAt:       referenceTime.Format(time.RFC3339),
		History: []agenda.HistoryEntry{
			{Date: "01/06/2024 09:00:00", User: "Ana", Action: "Criação do Agendamento"},
		},
	}
	appt.Properties = []agenda.Property{{Reference: appt.Reference, Address: appt.PropertyAddress}}
	appt.Clients = []agenda.Client{{
		Name:        fmt.Sprintf("Cliente %03d", idx),
		Phone:       "15 99999-0000",
		AddedBy:     appt.CreatedBy,
		AddedByName: appt.CreatedByName,
		AddedAt:     "01/06/2024 09:00:00",
	}}

	for _, opt := range opts {
		opt(&appt)
	}
	return appt
}

// WithBroker books the fixture against another broker.
func WithBroker(brokerID string) AppointmentOption {
	return func(a *agenda.Appointment) { a.BrokerID = brokerID }
}

// WithDate moves the fixture to a specific day.
func WithDate(date string) AppointmentOption {
	return func(a *agenda.Appointment) { a.Date = date }
}

// WithTimes sets the scheduled window.
func WithTimes(start, end string) AppointmentOption {
	return func(a *agenda.Appointment) {
		a.StartTime = start
		a.EndTime = end
	}
}

// WithCreator reassigns the fixture owner.
func WithCreator(email, name string) AppointmentOption {
	return func(a *agenda.Appointment) {
		a.CreatedBy = email
		a.CreatedByName = name
	}
}

// WithSharedWith grants shared access.
func WithSharedWith(emails ...string) AppointmentOption {
	return func(a *agenda.Appointment) { a.SharedWith = emails }
}

// WithGroupID marks the fixture as a recurrence member.
func WithGroupID(groupID string) AppointmentOption {
	return func(a *agenda.Appointment) { a.GroupID = groupID }
}

// AsEvent turns the fixture into an internal event without clients or
// properties.
func AsEvent(comment string) AppointmentOption {
	return func(a *agenda.Appointment) {
		a.IsEvent = true
		a.EventComment = comment
		a.Clients = nil
		a.Properties = nil
		a.Reference = ""
		a.PropertyAddress = ""
	}
}

// WithStatus overrides the lifecycle status.
func WithStatus(status, observation string) AppointmentOption {
	return func(a *agenda.Appointment) {
		a.Status = status
		a.StatusObservation = observation
	}
}

// UserOption configures a generated user fixture.
type UserOption func(*persistence.User)

// NewUser returns a deterministic consultant account.
func NewUser(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	user := persistence.User{
		ID:           fmt.Sprintf("user-%03d", idx),
		Email:        fmt.Sprintf("user-%03d@imob.com", idx),
		Name:         fmt.Sprintf("Consultor %03d", idx),
		Role:         agenda.RoleConsultant,
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithRole overrides the account role.
func WithRole(role agenda.Role) UserOption {
	return func(u *persistence.User) { u.Role = role }
}

// WithEmail overrides the account email and keeps the name in sync.
func WithEmail(email, name string) UserOption {
	return func(u *persistence.User) {
		u.Email = email
		u.Name = name
	}
}

// WithPasswordHash sets a real credential hash.
func WithPasswordHash(hash string) UserOption {
	return func(u *persistence.User) { u.PasswordHash = hash }
}

// Disabled marks the account as disabled.
func Disabled() UserOption {
	return func(u *persistence.User) { u.Disabled = true }
}

// NewSession returns a deterministic session for the given user, valid for a
// day from the reference time.
func NewSession(userID string) persistence.Session {
	idx := atomic.AddUint64(&sessionCounter, 1)
	return persistence.Session{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    userID,
		Token:     fmt.Sprintf("token-%03d", idx),
		CreatedAt: referenceTime,
		ExpiresAt: referenceTime.Add(24 * time.Hour),
	}
}
