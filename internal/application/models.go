package application

import (
	"time"

	"github.com/emaximovel/agenda/internal/agenda"
)

// AppointmentInput is the validated form payload for a save. Optional fields
// default to their zero value; Status defaults to "agendada".
type AppointmentInput struct {
	ID string // empty means create

	BrokerID  string
	Date      string // YYYY-MM-DD
	StartTime string // HH:MM
	EndTime   string // HH:MM or "24:00"
	IsEvent   bool

	EventComment string
	// Properties supersede the legacy Reference/PropertyAddress pair; when
	// empty, the legacy fields are promoted into a single entry.
	Properties      []agenda.Property
	Reference       string
	PropertyAddress string

	Clients    []agenda.Client
	SharedWith []string

	Status            string
	StatusObservation string

	// OwnerEmail reassigns the appointment owner. Admin only; empty keeps
	// the current owner.
	OwnerEmail string

	// Recurrence turns an admin creation into a series.
	Recurrence *RecurrenceInput
}

// RecurrenceInput describes a weekly recurrence request.
type RecurrenceInput struct {
	EndDate  string // inclusive, YYYY-MM-DD
	Weekdays []time.Weekday
}

// Requested reports whether the input actually asks for a series.
func (r *RecurrenceInput) Requested() bool {
	return r != nil && r.EndDate != "" && len(r.Weekdays) > 0
}

// SaveAppointmentParams wraps a save call.
type SaveAppointmentParams struct {
	Actor agenda.Actor
	Input AppointmentInput
}

// SaveResult carries the persisted record(s) and the optional notification
// hand-off payload. Recurrence creations return one record per occurrence.
type SaveResult struct {
	Appointments []agenda.Appointment
	Notification *Notification
}

// DeleteChoice selects between removing one occurrence or a whole series.
type DeleteChoice string

const (
	// DeleteUnspecified means the caller has not chosen yet; deleting a
	// series member with this choice fails with ErrSeriesChoiceRequired.
	DeleteUnspecified DeleteChoice = ""
	// DeleteSingle removes exactly one occurrence.
	DeleteSingle DeleteChoice = "single"
	// DeleteSeries removes every record sharing the group id.
	DeleteSeries DeleteChoice = "series"
)

// DeleteAppointmentParams wraps a delete call.
type DeleteAppointmentParams struct {
	Actor         agenda.Actor
	AppointmentID string
	Choice        DeleteChoice
}

// DeleteResult carries the executed deletion plan.
type DeleteResult struct {
	DeletedIDs   []string
	Notification *Notification
}

// ListAppointmentsParams narrows appointment listings.
type ListAppointmentsParams struct {
	BrokerID string
	Date     string
	DateFrom string
	DateTo   string
}

// Consultant is a roster entry used by sharing and owner pickers.
type Consultant struct {
	Email string
	Name  string
	Role  agenda.Role
}

// AuthenticateParams captures a login attempt.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult is a successful login: the actor plus a session token.
type AuthenticateResult struct {
	Actor     agenda.Actor
	Token     string
	ExpiresAt time.Time
}
