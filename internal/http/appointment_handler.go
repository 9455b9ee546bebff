package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/emaximovel/agenda/internal/agenda"
	"github.com/emaximovel/agenda/internal/application"
)

type appointmentService interface {
	SaveAppointment(ctx context.Context, params application.SaveAppointmentParams) (application.SaveResult, error)
	DeleteAppointment(ctx context.Context, params application.DeleteAppointmentParams) (application.DeleteResult, error)
	GetAppointment(ctx context.Context, id string) (agenda.Appointment, error)
	ListAppointments(ctx context.Context, params application.ListAppointmentsParams) ([]agenda.Appointment, error)
}

type AppointmentHandler struct {
	service   appointmentService
	responder responder
}

func NewAppointmentHandler(service appointmentService, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{service: service, responder: newResponder(logger)}
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	actor, _ := ActorFromContext(r.Context())

	result, err := h.service.SaveAppointment(r.Context(), application.SaveAppointmentParams{
		Actor: actor,
		Input: req.toInput(""),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toSaveResponse(result))
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := AppointmentIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAppointmentID)
		return
	}

	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	actor, _ := ActorFromContext(r.Context())

	result, err := h.service.SaveAppointment(r.Context(), application.SaveAppointmentParams{
		Actor: actor,
		Input: req.toInput(id),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSaveResponse(result))
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := AppointmentIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAppointmentID)
		return
	}

	appt, err := h.service.GetAppointment(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAppointmentDTO(appt))
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := AppointmentIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidAppointmentID)
		return
	}

	choice, ok := parseDeleteChoice(r.URL.Query())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDeleteChoice)
		return
	}

	actor, _ := ActorFromContext(r.Context())

	result, err := h.service.DeleteAppointment(r.Context(), application.DeleteAppointmentParams{
		Actor:         actor,
		AppointmentID: id,
		Choice:        choice,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, deleteResponse{
		DeletedIDs:   result.DeletedIDs,
		Notification: toNotificationDTO(result.Notification),
	})
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	appts, err := h.service.ListAppointments(r.Context(), application.ListAppointmentsParams{
		BrokerID: strings.TrimSpace(query.Get("broker_id")),
		Date:     strings.TrimSpace(query.Get("date")),
		DateFrom: strings.TrimSpace(query.Get("date_from")),
		DateTo:   strings.TrimSpace(query.Get("date_to")),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]appointmentDTO, 0, len(appts))
	for _, appt := range appts {
		out = append(out, toAppointmentDTO(appt))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listResponse{Appointments: out})
}

func parseDeleteChoice(query url.Values) (application.DeleteChoice, bool) {
	switch strings.TrimSpace(query.Get("choice")) {
	case "":
		return application.DeleteUnspecified, true
	case "single":
		return application.DeleteSingle, true
	case "series":
		return application.DeleteSeries, true
	default:
		return application.DeleteUnspecified, false
	}
}

type clientDTO struct {
	Name        string `json:"name"`
	Phone       string `json:"phone,omitempty"`
	AddedBy     string `json:"added_by,omitempty"`
	AddedByName string `json:"added_by_name,omitempty"`
	AddedAt     string `json:"added_at,omitempty"`
}

type propertyDTO struct {
	Reference string `json:"reference,omitempty"`
	Address   string `json:"address,omitempty"`
}

type historyDTO struct {
	Date   string `json:"date"`
	User   string `json:"user"`
	Action string `json:"action"`
}

// recurrenceDTO uses calendar weekday indices, Sunday = 0.
type recurrenceDTO struct {
	EndDate  string `json:"end_date"`
	Weekdays []int  `json:"weekdays"`
}

type appointmentRequest struct {
	BrokerID          string         `json:"broker_id"`
	Date              string         `json:"date"`
	StartTime         string         `json:"start_time"`
	EndTime           string         `json:"end_time"`
	IsEvent           bool           `json:"is_event"`
	EventComment      string         `json:"event_comment,omitempty"`
	Properties        []propertyDTO  `json:"properties,omitempty"`
	Clients           []clientDTO    `json:"clients,omitempty"`
	SharedWith        []string       `json:"shared_with,omitempty"`
	Status            string         `json:"status,omitempty"`
	StatusObservation string         `json:"status_observation,omitempty"`
	OwnerEmail        string         `json:"owner_email,omitempty"`
	Recurrence        *recurrenceDTO `json:"recurrence,omitempty"`
}

func (r appointmentRequest) toInput(id string) application.AppointmentInput {
	input := application.AppointmentInput{
		ID:                id,
		BrokerID:          r.BrokerID,
		Date:              r.Date,
		StartTime:         r.StartTime,
		EndTime:           r.EndTime,
		IsEvent:           r.IsEvent,
		EventComment:      r.EventComment,
		Status:            r.Status,
		StatusObservation: r.StatusObservation,
		SharedWith:        r.SharedWith,
		OwnerEmail:        r.OwnerEmail,
	}
	for _, p := range r.Properties {
		input.Properties = append(input.Properties, agenda.Property{Reference: p.Reference, Address: p.Address})
	}
	for _, c := range r.Clients {
		input.Clients = append(input.Clients, agenda.Client{
			Name:        c.Name,
			Phone:       c.Phone,
			AddedBy:     c.AddedBy,
			AddedByName: c.AddedByName,
			AddedAt:     c.AddedAt,
		})
	}
	if r.Recurrence != nil {
		rec := &application.RecurrenceInput{EndDate: r.Recurrence.EndDate}
		for _, day := range r.Recurrence.Weekdays {
			if day >= 0 && day <= 6 {
				rec.Weekdays = append(rec.Weekdays, time.Weekday(day))
			}
		}
		input.Recurrence = rec
	}
	return input
}

type appointmentDTO struct {
	ID                string        `json:"id"`
	BrokerID          string        `json:"broker_id"`
	Date              string        `json:"date"`
	StartTime         string        `json:"start_time"`
	EndTime           string        `json:"end_time"`
	IsEvent           bool          `json:"is_event"`
	EventComment      string        `json:"event_comment,omitempty"`
	Properties        []propertyDTO `json:"properties,omitempty"`
	Reference         string        `json:"reference,omitempty"`
	PropertyAddress   string        `json:"property_address,omitempty"`
	Clients           []clientDTO   `json:"clients,omitempty"`
	SharedWith        []string      `json:"shared_with,omitempty"`
	Status            string        `json:"status"`
	StatusObservation string        `json:"status_observation,omitempty"`
	CreatedBy         string        `json:"created_by"`
	CreatedByName     string        `json:"created_by_name,omitempty"`
	CreatedAt         string        `json:"created_at,omitempty"`
	UpdatedAt         string        `json:"updated_at,omitempty"`
	UpdatedBy         string        `json:"updated_by,omitempty"`
	GroupID           string        `json:"group_id,omitempty"`
	History           []historyDTO  `json:"history,omitempty"`
}

func toAppointmentDTO(appt agenda.Appointment) appointmentDTO {
	dto := appointmentDTO{
		ID:                appt.ID,
		BrokerID:          appt.BrokerID,
		Date:              appt.Date,
		StartTime:         appt.StartTime,
		EndTime:           appt.EndTime,
		IsEvent:           appt.IsEvent,
		EventComment:      appt.EventComment,
		Reference:         appt.Reference,
		PropertyAddress:   appt.PropertyAddress,
		SharedWith:        appt.SharedWith,
		Status:            appt.Status,
		StatusObservation: appt.StatusObservation,
		CreatedBy:         appt.CreatedBy,
		CreatedByName:     appt.CreatedByName,
		CreatedAt:         appt.CreatedAt,
		UpdatedAt:         appt.UpdatedAt,
		UpdatedBy:         appt.UpdatedBy,
		GroupID:           appt.GroupID,
	}
	for _, p := range appt.Properties {
		dto.Properties = append(dto.Properties, propertyDTO{Reference: p.Reference, Address: p.Address})
	}
	for _, c := range appt.Clients {
		dto.Clients = append(dto.Clients, clientDTO{
			Name:        c.Name,
			Phone:       c.Phone,
			AddedBy:     c.AddedBy,
			AddedByName: c.AddedByName,
			AddedAt:     c.AddedAt,
		})
	}
	for _, entry := range appt.History {
		dto.History = append(dto.History, historyDTO{Date: entry.Date, User: entry.User, Action: entry.Action})
	}
	return dto
}

type notificationDTO struct {
	Kind        string `json:"kind"`
	BrokerID    string `json:"broker_id"`
	BrokerName  string `json:"broker_name"`
	Phone       string `json:"phone"`
	Title       string `json:"title"`
	Question    string `json:"question"`
	Message     string `json:"message"`
	WhatsAppURL string `json:"whatsapp_url"`
}

func toNotificationDTO(n *application.Notification) *notificationDTO {
	if n == nil {
		return nil
	}
	return &notificationDTO{
		Kind:        string(n.Kind),
		BrokerID:    n.BrokerID,
		BrokerName:  n.BrokerName,
		Phone:       n.Phone,
		Title:       n.Title,
		Question:    n.Question,
		Message:     n.Message,
		WhatsAppURL: n.WhatsAppURL,
	}
}

type saveResponse struct {
	Appointments []appointmentDTO `json:"appointments"`
	Notification *notificationDTO `json:"notification,omitempty"`
}

func toSaveResponse(result application.SaveResult) saveResponse {
	out := saveResponse{Notification: toNotificationDTO(result.Notification)}
	for _, appt := range result.Appointments {
		out.Appointments = append(out.Appointments, toAppointmentDTO(appt))
	}
	return out
}

type deleteResponse struct {
	DeletedIDs   []string         `json:"deleted_ids"`
	Notification *notificationDTO `json:"notification,omitempty"`
}

type listResponse struct {
	Appointments []appointmentDTO `json:"appointments"`
}
