package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/emaximovel/agenda/internal/application"
)

var (
	errBadRequestBody       = errors.New("Formato de requisição inválido.")
	errInvalidAppointmentID = errors.New("ID de agendamento inválido.")
	errMissingSessionToken  = errors.New("Informe o token de autenticação.")
	errInvalidDeleteChoice  = errors.New("Opção de exclusão inválida. Use 'single' ou 'series'.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	r.loggerFor(ctx).ErrorContext(ctx, "operation rejected", "error", err, "error_kind", application.ErrorKind(err))

	switch {
	case errors.Is(err, application.ErrForbidden):
		message := localizedStatusMessage(http.StatusForbidden)
		var fErr *application.ForbiddenError
		if errors.As(err, &fErr) && fErr.Reason != "" {
			message = fErr.Reason
		}
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "FORBIDDEN",
			Message:   message,
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "Agendamento não encontrado."})
	case errors.Is(err, application.ErrSeriesChoiceRequired):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "SERIES_CHOICE_REQUIRED",
			Message:   "Este agendamento faz parte de uma série. Escolha excluir apenas esta ocorrência ou a série completa.",
		})
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_INVALID_CREDENTIALS",
			Message:   "E-mail ou senha incorretos.",
		})
	case errors.Is(err, application.ErrAccountDisabled):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_ACCOUNT_DISABLED",
			Message:   "Conta desativada. Procure o administrador.",
		})
	case errors.Is(err, application.ErrSessionExpired), errors.Is(err, application.ErrSessionRevoked):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_EXPIRED",
			Message:   "Sessão expirada. Faça login novamente.",
		})
	default:
		var cErr *application.ConflictError
		if errors.As(err, &cErr) {
			r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
				ErrorCode: "SCHEDULE_CONFLICT",
				Message:   cErr.Error(),
			})
			return
		}

		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: localizedStatusMessage(http.StatusUnprocessableEntity),
				Errors:  vErr.FieldErrors,
			})
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: localizedStatusMessage(http.StatusInternalServerError)})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Requisição inválida."
	case http.StatusUnauthorized:
		return "Autenticação necessária."
	case http.StatusForbidden:
		return "Você não tem permissão para executar esta operação."
	case http.StatusNotFound:
		return "Registro não encontrado."
	case http.StatusConflict:
		return "A requisição conflita com o estado atual do recurso."
	case http.StatusUnprocessableEntity:
		return "Há erros nos campos informados."
	default:
		return "Erro interno do servidor."
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
