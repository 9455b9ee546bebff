package http

import (
	"context"
	"log/slog"

	"github.com/emaximovel/agenda/internal/agenda"
	"github.com/emaximovel/agenda/internal/logging"
)

type contextKey string

const (
	actorContextKey         contextKey = "actor"
	appointmentIDContextKey contextKey = "appointment_id"
)

// ContextWithActor returns a derived context containing the authenticated actor.
func ContextWithActor(ctx context.Context, actor agenda.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// ActorFromContext extracts the authenticated actor from context if available.
func ActorFromContext(ctx context.Context) (agenda.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(agenda.Actor)
	return actor, ok
}

// ContextWithAppointmentID injects the appointment identifier resolved from
// the request path.
func ContextWithAppointmentID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, appointmentIDContextKey, id)
}

// AppointmentIDFromContext extracts an appointment identifier previously
// associated with the context.
func AppointmentIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(appointmentIDContextKey).(string)
	return id, ok
}

// ContextWithLogger attaches a request scoped logger to the context.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext extracts a request scoped logger, or nil.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
