package application

import (
	"errors"
	"fmt"

	"github.com/emaximovel/agenda/internal/agenda"
)

var (
	// ErrForbidden is returned when the acting user lacks permission for an
	// operation or for the specific fields being changed.
	ErrForbidden = errors.New("application: forbidden")
	// ErrNotFound is returned when the requested appointment or user does
	// not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrSeriesChoiceRequired is returned when deleting a recurrence member
	// without choosing between the single occurrence and the whole series.
	ErrSeriesChoiceRequired = errors.New("application: série de agendamentos requer escolha entre ocorrência única e série completa")

	// ErrInvalidCredentials is returned on failed logins.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrAccountDisabled is returned when a disabled account attempts login.
	ErrAccountDisabled = errors.New("application: account disabled")
	// ErrSessionExpired is returned when a session passed its validity window.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session was explicitly revoked.
	ErrSessionRevoked = errors.New("application: session revoked")
)

// ForbiddenError wraps ErrForbidden with the user-facing reason.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	if e == nil || e.Reason == "" {
		return ErrForbidden.Error()
	}
	return e.Reason
}

// Unwrap lets errors.Is(err, ErrForbidden) match.
func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}

func forbidden(format string, args ...any) error {
	return &ForbiddenError{Reason: fmt.Sprintf(format, args...)}
}

// ConflictError reports a schedule collision against an existing record.
type ConflictError struct {
	With agenda.Appointment
}

func (e *ConflictError) Error() string {
	if e == nil {
		return "conflito de horário"
	}
	return fmt.Sprintf("Conflito de horário: já existe um agendamento das %s às %s para este corretor.",
		e.With.StartTime, e.With.EndTime)
}

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
