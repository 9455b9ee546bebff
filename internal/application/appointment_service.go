package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/emaximovel/agenda/internal/agenda"
	"github.com/emaximovel/agenda/internal/audit"
	"github.com/emaximovel/agenda/internal/directory"
	"github.com/emaximovel/agenda/internal/permission"
	"github.com/emaximovel/agenda/internal/persistence"
	"github.com/emaximovel/agenda/internal/recurrence"
	"github.com/emaximovel/agenda/internal/scheduler"
)

// ConsultantDirectory resolves consultant display names for owner
// reassignment.
type ConsultantDirectory interface {
	GetConsultant(ctx context.Context, email string) (Consultant, error)
}

// AppointmentService orchestrates the appointment lifecycle: permission
// checks, validation, overlap detection, audit history, recurrence expansion
// and the notification hand-off payload.
type AppointmentService struct {
	appointments persistence.AppointmentRepository
	consultants  ConsultantDirectory
	resolver     permission.Resolver
	snapshots    *snapshotCache
	idGenerator  func() string
	now          func() time.Time
	location     *time.Location
	logger       *slog.Logger
}

// NewAppointmentService wires dependencies for appointment operations.
func NewAppointmentService(appointments persistence.AppointmentRepository, consultants ConsultantDirectory, resolver permission.Resolver, idGenerator func() string, now func() time.Time) *AppointmentService {
	return NewAppointmentServiceWithLogger(appointments, consultants, resolver, idGenerator, now, nil)
}

// NewAppointmentServiceWithLogger constructs an AppointmentService with a
// specified logger.
func NewAppointmentServiceWithLogger(appointments persistence.AppointmentRepository, consultants ConsultantDirectory, resolver permission.Resolver, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AppointmentService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	loc := resolver.Location
	if loc == nil {
		loc = time.Local
	}
	return &AppointmentService{
		appointments: appointments,
		consultants:  consultants,
		resolver:     resolver,
		snapshots:    newSnapshotCache(0, 0, now),
		idGenerator:  idGenerator,
		now:          now,
		location:     loc,
		logger:       defaultLogger(logger),
	}
}

func (s *AppointmentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AppointmentService", operation, attrs...)
}

// SaveAppointment validates and persists a create or update, returning the
// finalized record(s) and the notification payload for the UI to confirm.
func (s *AppointmentService) SaveAppointment(ctx context.Context, params SaveAppointmentParams) (result SaveResult, err error) {
	if s == nil {
		return SaveResult{}, fmt.Errorf("AppointmentService is nil")
	}
	if s.appointments == nil {
		return SaveResult{}, fmt.Errorf("appointment repository not configured")
	}

	actor := params.Actor
	input := normalizeInput(params.Input)
	isNew := input.ID == ""

	logger := s.loggerWith(ctx, "SaveAppointment",
		"actor", actor.Email,
		"appointment_id", input.ID,
		"is_new", isNew,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "save rejected", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "appointment saved", "records", len(result.Appointments))
	}()

	var existing *agenda.Appointment
	if !isNew {
		loaded, getErr := s.appointments.GetAppointment(ctx, input.ID)
		if getErr != nil {
			return SaveResult{}, mapRepoError(getErr)
		}
		existing = &loaded
	}

	now := s.now()
	perms := s.resolver.Resolve(actor, existing, now)
	if !isNew && !perms.CanSaveAnything() {
		return SaveResult{}, forbidden("Você não tem permissão para alterar esta visita.")
	}

	proposed, err := s.buildProposed(ctx, actor, input, existing, perms, now)
	if err != nil {
		return SaveResult{}, err
	}

	if !isNew {
		if err := s.enforceFieldPermissions(actor, *existing, proposed, perms, now); err != nil {
			return SaveResult{}, err
		}
	}

	if err := validateAppointment(proposed); err != nil {
		return SaveResult{}, err
	}

	if conflictErr := s.checkOverlap(ctx, proposed, input.ID); conflictErr != nil {
		return SaveResult{}, conflictErr
	}

	if isNew && actor.IsAdmin() && input.Recurrence.Requested() {
		return s.saveSeries(ctx, actor, proposed, input, now)
	}

	if isNew {
		proposed.ID = s.idGenerator()
		proposed.History = []agenda.HistoryEntry{audit.NewHistoryEntry(now, actor.Name, audit.ActionCreated)}
		if err := s.appointments.CreateAppointment(ctx, proposed); err != nil {
			return SaveResult{}, mapRepoError(err)
		}
	} else {
		changes := audit.Diff(*existing, proposed)
		proposed.History = append(append([]agenda.HistoryEntry(nil), existing.History...),
			audit.EntryFromChanges(now, actor.Name, changes))
		if err := s.appointments.UpdateAppointment(ctx, proposed); err != nil {
			return SaveResult{}, mapRepoError(err)
		}
	}
	s.snapshots.Invalidate()

	kind := NotificationUpdate
	if isNew {
		kind = NotificationCreate
	}
	return SaveResult{
		Appointments: []agenda.Appointment{proposed},
		Notification: BuildNotification(kind, proposed),
	}, nil
}

// saveSeries expands a recurrence request into one record per matching date
// and persists the batch atomically.
func (s *AppointmentService) saveSeries(ctx context.Context, actor agenda.Actor, template agenda.Appointment, input AppointmentInput, now time.Time) (SaveResult, error) {
	dates, err := recurrence.ExpandDates(input.Date, input.Recurrence.EndDate, input.Recurrence.Weekdays, s.location, recurrence.Options{})
	if err != nil {
		switch {
		case errors.Is(err, recurrence.ErrNoDates), errors.Is(err, recurrence.ErrNoWeekdays):
			vErr := &ValidationError{}
			vErr.add("recurrence", "nenhuma data gerada para a recorrência selecionada")
			return SaveResult{}, vErr
		case errors.Is(err, recurrence.ErrInvalidWindow):
			vErr := &ValidationError{}
			vErr.add("recurrence", "data final anterior à data inicial")
			return SaveResult{}, vErr
		}
		return SaveResult{}, err
	}

	groupID := s.idGenerator()
	records := make([]agenda.Appointment, 0, len(dates))
	for _, date := range dates {
		record := template.Clone()
		record.ID = s.idGenerator()
		record.Date = date
		record.GroupID = groupID
		record.History = []agenda.HistoryEntry{audit.NewHistoryEntry(now, actor.Name, audit.ActionCreatedSeries)}

		if conflictErr := s.checkOverlap(ctx, record, ""); conflictErr != nil {
			return SaveResult{}, conflictErr
		}
		records = append(records, record)
	}

	if err := s.appointments.CreateAppointments(ctx, records); err != nil {
		return SaveResult{}, mapRepoError(err)
	}
	s.snapshots.Invalidate()

	// A batch has no single visit to confirm; the broker hand-off only
	// happens for individual saves.
	return SaveResult{Appointments: records}, nil
}

// DeleteAppointment executes the deletion plan for one occurrence or a
// whole series.
func (s *AppointmentService) DeleteAppointment(ctx context.Context, params DeleteAppointmentParams) (result DeleteResult, err error) {
	if s == nil {
		return DeleteResult{}, fmt.Errorf("AppointmentService is nil")
	}
	if s.appointments == nil {
		return DeleteResult{}, fmt.Errorf("appointment repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteAppointment",
		"actor", params.Actor.Email,
		"appointment_id", params.AppointmentID,
		"choice", string(params.Choice),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "delete rejected", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "appointment deleted", "records", len(result.DeletedIDs))
	}()

	existing, err := s.appointments.GetAppointment(ctx, params.AppointmentID)
	if err != nil {
		return DeleteResult{}, mapRepoError(err)
	}

	perms := s.resolver.Resolve(params.Actor, &existing, s.now())
	if !perms.CanDelete {
		if perms.Locked && perms.CoreEditor {
			return DeleteResult{}, forbidden("Não é possível excluir visitas antigas/bloqueadas.")
		}
		return DeleteResult{}, forbidden("Você não tem permissão para excluir esta visita.")
	}

	if existing.GroupID != "" && params.Choice == DeleteUnspecified {
		return DeleteResult{}, ErrSeriesChoiceRequired
	}

	var deleted []string
	if existing.GroupID != "" && params.Choice == DeleteSeries {
		deleted, err = s.appointments.DeleteAppointmentsByGroup(ctx, existing.GroupID)
		if err != nil {
			return DeleteResult{}, mapRepoError(err)
		}
	} else {
		if err := s.appointments.DeleteAppointment(ctx, existing.ID); err != nil {
			return DeleteResult{}, mapRepoError(err)
		}
		deleted = []string{existing.ID}
	}
	s.snapshots.Invalidate()

	return DeleteResult{
		DeletedIDs:   deleted,
		Notification: BuildNotification(NotificationDelete, existing),
	}, nil
}

// GetAppointment loads one record.
func (s *AppointmentService) GetAppointment(ctx context.Context, id string) (agenda.Appointment, error) {
	if s == nil || s.appointments == nil {
		return agenda.Appointment{}, fmt.Errorf("appointment repository not configured")
	}
	appt, err := s.appointments.GetAppointment(ctx, id)
	if err != nil {
		return agenda.Appointment{}, mapRepoError(err)
	}
	return appt, nil
}

// ListAppointments enumerates records for calendar views and reports.
func (s *AppointmentService) ListAppointments(ctx context.Context, params ListAppointmentsParams) ([]agenda.Appointment, error) {
	if s == nil || s.appointments == nil {
		return nil, fmt.Errorf("appointment repository not configured")
	}
	appts, err := s.appointments.ListAppointments(ctx, persistence.AppointmentFilter{
		BrokerID: params.BrokerID,
		Date:     params.Date,
		DateFrom: params.DateFrom,
		DateTo:   params.DateTo,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}
	return appts, nil
}

// buildProposed assembles the candidate record from the input, carrying over
// the immutable creation metadata and resolving the final owner.
func (s *AppointmentService) buildProposed(ctx context.Context, actor agenda.Actor, input AppointmentInput, existing *agenda.Appointment, perms permission.Set, now time.Time) (agenda.Appointment, error) {
	proposed := agenda.Appointment{
		ID:                input.ID,
		Date:              input.Date,
		StartTime:         input.StartTime,
		EndTime:           input.EndTime,
		IsEvent:           input.IsEvent,
		BrokerID:          input.BrokerID,
		Properties:        input.Properties,
		Clients:           s.stampClients(actor, input.Clients, existing, now),
		SharedWith:        input.SharedWith,
		Status:            input.Status,
		StatusObservation: input.StatusObservation,
		EventComment:      input.EventComment,
		UpdatedAt:         now.UTC().Format(time.RFC3339),
		UpdatedBy:         actor.Email,
	}
	proposed.SyncLegacyPropertyFields()

	ownerEmail := actor.Email
	ownerName := actor.Name
	if existing != nil {
		ownerEmail = existing.CreatedBy
		ownerName = existing.CreatedByName
		proposed.CreatedAt = existing.CreatedAt
		proposed.GroupID = existing.GroupID
		proposed.History = existing.History
	} else {
		proposed.CreatedAt = now.UTC().Format(time.RFC3339)
	}

	if input.OwnerEmail != "" && input.OwnerEmail != ownerEmail {
		if !perms.CanChangeOwner {
			return agenda.Appointment{}, forbidden("Apenas administradores podem alterar o responsável.")
		}
		brokerChanged := existing != nil && existing.BrokerID != input.BrokerID
		if !s.resolver.OwnerReassignmentAllowed(perms, true, brokerChanged) {
			return agenda.Appointment{}, forbidden("Ação Bloqueada: Como a visita já excedeu o tempo limite, apenas o Criador pode alterar o Corretor ou Responsável.")
		}
		ownerEmail = input.OwnerEmail
		ownerName = s.resolveOwnerName(ctx, input.OwnerEmail, existing)
	}

	proposed.CreatedBy = ownerEmail
	proposed.CreatedByName = ownerName
	return proposed, nil
}

func (s *AppointmentService) resolveOwnerName(ctx context.Context, email string, existing *agenda.Appointment) string {
	if s.consultants != nil {
		if consultant, err := s.consultants.GetConsultant(ctx, email); err == nil && consultant.Name != "" {
			return consultant.Name
		}
	}
	if existing != nil && existing.CreatedBy == email {
		return existing.CreatedByName
	}
	return email
}

// stampClients fills authorship metadata on rows that arrive without it
// (freshly added in the form).
func (s *AppointmentService) stampClients(actor agenda.Actor, clients []agenda.Client, existing *agenda.Appointment, now time.Time) []agenda.Client {
	if len(clients) == 0 {
		return clients
	}
	out := make([]agenda.Client, len(clients))
	copy(out, clients)
	for i := range out {
		if out[i].AddedBy == "" {
			out[i].AddedBy = actor.Email
			out[i].AddedByName = actor.Name
			out[i].AddedAt = scheduler.FormatTimestampBR(now)
		}
	}
	return out
}

// enforceFieldPermissions rejects a save that changes field classes the
// actor cannot edit. Hard rejection was chosen over silently restoring the
// previous values.
func (s *AppointmentService) enforceFieldPermissions(actor agenda.Actor, existing, proposed agenda.Appointment, perms permission.Set, now time.Time) error {
	if perms.SuperAdmin {
		return nil
	}

	if coreFieldsChanged(existing, proposed) && !perms.CanEditCore {
		if perms.Locked {
			return forbidden("%s", scheduler.LockMessage(existing.Date, now, s.location))
		}
		return forbidden("Você não tem permissão para alterar os dados principais desta visita.")
	}

	brokerChanged := existing.BrokerID != proposed.BrokerID
	ownerChanged := existing.CreatedBy != proposed.CreatedBy
	if !s.resolver.OwnerReassignmentAllowed(perms, ownerChanged, brokerChanged) {
		return forbidden("Ação Bloqueada: Como a visita já excedeu o tempo limite, apenas o Criador pode alterar o Corretor ou Responsável.")
	}

	statusChanged := existing.Status != proposed.Status || existing.StatusObservation != proposed.StatusObservation
	if statusChanged && !perms.CanEditStatus {
		return forbidden("Você não tem permissão para alterar o status desta visita.")
	}

	if sharesChanged(existing.SharedWith, proposed.SharedWith) && !perms.CanShare {
		return forbidden("Você não tem permissão para alterar o compartilhamento desta visita.")
	}

	return s.enforceClientRowPermissions(actor, existing, proposed, perms)
}

// enforceClientRowPermissions applies the per-row rule: a row may only be
// changed or removed by its author or a core editor, and never while locked.
func (s *AppointmentService) enforceClientRowPermissions(actor agenda.Actor, existing, proposed agenda.Appointment, perms permission.Set) error {
	oldRows := clientRowSet(existing.Clients)
	newRows := clientRowSet(proposed.Clients)

	for sig, row := range oldRows {
		if _, kept := newRows[sig]; kept {
			continue
		}
		if !s.resolver.CanEditClientRow(perms, actor, row) {
			return forbidden("Você não pode alterar clientes adicionados por outro consultor.")
		}
	}
	for sig := range newRows {
		if _, existed := oldRows[sig]; existed {
			continue
		}
		if perms.Locked {
			return forbidden("Não é possível adicionar clientes em uma visita bloqueada.")
		}
	}
	return nil
}

func clientRowSet(clients []agenda.Client) map[string]agenda.Client {
	rows := make(map[string]agenda.Client, len(clients))
	for _, c := range clients {
		sig := strings.TrimSpace(c.Name) + "|" + strings.TrimSpace(c.Phone) + "|" + c.AddedBy
		rows[sig] = c
	}
	return rows
}

func coreFieldsChanged(existing, proposed agenda.Appointment) bool {
	if existing.BrokerID != proposed.BrokerID ||
		existing.Date != proposed.Date ||
		existing.StartTime != proposed.StartTime ||
		existing.EndTime != proposed.EndTime ||
		existing.IsEvent != proposed.IsEvent ||
		existing.EventComment != proposed.EventComment ||
		existing.Reference != proposed.Reference ||
		existing.PropertyAddress != proposed.PropertyAddress {
		return true
	}
	if len(existing.Properties) != len(proposed.Properties) {
		return true
	}
	for i := range existing.Properties {
		if existing.Properties[i] != proposed.Properties[i] {
			return true
		}
	}
	return false
}

func sharesChanged(oldShares, newShares []string) bool {
	if len(oldShares) != len(newShares) {
		return true
	}
	seen := make(map[string]int, len(oldShares))
	for _, e := range oldShares {
		seen[e]++
	}
	for _, e := range newShares {
		if seen[e] == 0 {
			return true
		}
		seen[e]--
	}
	return false
}

func (s *AppointmentService) checkOverlap(ctx context.Context, candidate agenda.Appointment, excludeID string) error {
	existing, err := s.existingFor(ctx, candidate.BrokerID, candidate.Date)
	if err != nil {
		return err
	}
	if conflict := scheduler.FindOverlap(candidate, excludeID, existing); conflict != nil {
		return &ConflictError{With: *conflict}
	}
	return nil
}

// existingFor returns the broker's appointments on a date, served from the
// short-lived snapshot cache. Overlap checks are best-effort over a possibly
// stale snapshot; two near-simultaneous saves may both pass.
func (s *AppointmentService) existingFor(ctx context.Context, brokerID, date string) ([]agenda.Appointment, error) {
	key := brokerID + "|" + date
	if cached, ok := s.snapshots.Get(key); ok {
		return cached, nil
	}
	appts, err := s.appointments.ListAppointments(ctx, persistence.AppointmentFilter{BrokerID: brokerID, Date: date})
	if err != nil {
		return nil, mapRepoError(err)
	}
	s.snapshots.Store(key, appts)
	return appts, nil
}

func normalizeInput(input AppointmentInput) AppointmentInput {
	input.ID = strings.TrimSpace(input.ID)
	input.Date = strings.TrimSpace(input.Date)
	input.StartTime = strings.TrimSpace(input.StartTime)
	input.EndTime = strings.TrimSpace(input.EndTime)
	if input.Status == "" {
		input.Status = agenda.StatusScheduled
	}
	if len(input.Properties) == 0 && (input.Reference != "" || input.PropertyAddress != "") {
		input.Properties = []agenda.Property{{Reference: input.Reference, Address: input.PropertyAddress}}
	}

	kept := input.Clients[:0:0]
	for _, c := range input.Clients {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		c.Name = strings.TrimSpace(c.Name)
		c.Phone = strings.TrimSpace(c.Phone)
		kept = append(kept, c)
	}
	input.Clients = kept
	return input
}

func validateAppointment(appt agenda.Appointment) error {
	vErr := &ValidationError{}

	if appt.BrokerID == "" {
		vErr.add("broker", "corretor é obrigatório")
	} else if !directory.BrokerExists(appt.BrokerID) {
		vErr.add("broker", "corretor desconhecido")
	}
	if appt.Date == "" {
		vErr.add("date", "data é obrigatória")
	}
	if !scheduler.ValidRange(appt.StartTime, appt.EndTime) {
		vErr.add("time", "horário inicial deve ser anterior ao final")
	}
	if !appt.IsEvent {
		if len(appt.Clients) == 0 {
			vErr.add("clients", "a visita precisa de pelo menos um cliente")
		}
		if len(appt.Properties) == 0 {
			vErr.add("properties", "a visita precisa de pelo menos um imóvel")
		}
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
