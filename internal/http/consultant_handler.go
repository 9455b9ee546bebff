package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/emaximovel/agenda/internal/application"
	"github.com/emaximovel/agenda/internal/directory"
)

type consultantService interface {
	ListConsultants(ctx context.Context) ([]application.Consultant, error)
}

// ConsultantHandler serves the consultant roster for the sharing and owner
// pickers, and the fixed broker roster for the calendar columns.
type ConsultantHandler struct {
	service   consultantService
	responder responder
}

func NewConsultantHandler(service consultantService, logger *slog.Logger) *ConsultantHandler {
	return &ConsultantHandler{service: service, responder: newResponder(logger)}
}

func (h *ConsultantHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	consultants, err := h.service.ListConsultants(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]consultantDTO, 0, len(consultants))
	for _, c := range consultants {
		out = append(out, consultantDTO{Email: c.Email, Name: c.Name, Role: string(c.Role)})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, consultantListResponse{Consultants: out})
}

func (h *ConsultantHandler) ListBrokers(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	brokers := directory.Brokers()
	out := make([]brokerDTO, 0, len(brokers))
	for _, b := range brokers {
		out = append(out, brokerDTO{ID: b.ID, Name: b.Name})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, brokerListResponse{Brokers: out})
}

type consultantDTO struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type consultantListResponse struct {
	Consultants []consultantDTO `json:"consultants"`
}

type brokerDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type brokerListResponse struct {
	Brokers []brokerDTO `json:"brokers"`
}
