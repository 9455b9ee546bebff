package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/emaximovel/agenda/internal/agenda"
	"github.com/emaximovel/agenda/internal/audit"
	"github.com/emaximovel/agenda/internal/permission"
	"github.com/emaximovel/agenda/internal/persistence"
)

type appointmentRepoStub struct {
	byID         map[string]agenda.Appointment
	created      []agenda.Appointment
	batchCreated []agenda.Appointment
	updated      []agenda.Appointment
	deletedIDs   []string
	deletedGroup string
	err          error
}

func newAppointmentRepoStub(appts ...agenda.Appointment) *appointmentRepoStub {
	stub := &appointmentRepoStub{byID: make(map[string]agenda.Appointment)}
	for _, appt := range appts {
		stub.byID[appt.ID] = appt
	}
	return stub
}

func (s *appointmentRepoStub) CreateAppointment(ctx context.Context, appt agenda.Appointment) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, appt)
	s.byID[appt.ID] = appt
	return nil
}

func (s *appointmentRepoStub) CreateAppointments(ctx context.Context, appts []agenda.Appointment) error {
	if s.err != nil {
		return s.err
	}
	s.batchCreated = append(s.batchCreated, appts...)
	for _, appt := range appts {
		s.byID[appt.ID] = appt
	}
	return nil
}

func (s *appointmentRepoStub) UpdateAppointment(ctx context.Context, appt agenda.Appointment) error {
	if s.err != nil {
		return s.err
	}
	s.updated = append(s.updated, appt)
	s.byID[appt.ID] = appt
	return nil
}

func (s *appointmentRepoStub) GetAppointment(ctx context.Context, id string) (agenda.Appointment, error) {
	if s.err != nil {
		return agenda.Appointment{}, s.err
	}
	appt, ok := s.byID[id]
	if !ok {
		return agenda.Appointment{}, persistence.ErrNotFound
	}
	return appt, nil
}

func (s *appointmentRepoStub) ListAppointments(ctx context.Context, filter persistence.AppointmentFilter) ([]agenda.Appointment, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []agenda.Appointment
	for _, appt := range s.byID {
		if filter.BrokerID != "" && appt.BrokerID != filter.BrokerID {
			continue
		}
		if filter.Date != "" && appt.Date != filter.Date {
			continue
		}
		if filter.GroupID != "" && appt.GroupID != filter.GroupID {
			continue
		}
		out = append(out, appt)
	}
	return out, nil
}

func (s *appointmentRepoStub) DeleteAppointment(ctx context.Context, id string) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.byID[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.byID, id)
	s.deletedIDs = append(s.deletedIDs, id)
	return nil
}

func (s *appointmentRepoStub) DeleteAppointmentsByGroup(ctx context.Context, groupID string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.deletedGroup = groupID
	var ids []string
	for id, appt := range s.byID {
		if appt.GroupID == groupID {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		delete(s.byID, id)
	}
	if len(ids) == 0 {
		return nil, persistence.ErrNotFound
	}
	return ids, nil
}

type consultantDirectoryStub struct {
	byEmail map[string]Consultant
}

func (s *consultantDirectoryStub) GetConsultant(ctx context.Context, email string) (Consultant, error) {
	if s == nil {
		return Consultant{}, ErrNotFound
	}
	consultant, ok := s.byEmail[email]
	if !ok {
		return Consultant{}, ErrNotFound
	}
	return consultant, nil
}

func sequenceIDs(prefix string) func() string {
	counter := 0
	return func() string {
		counter++
		return fmt.Sprintf("%s-%d", prefix, counter)
	}
}

func fixedNow() time.Time {
	return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
}

func newTestService(repo *appointmentRepoStub, consultants ConsultantDirectory) *AppointmentService {
	resolver := permission.Resolver{
		SuperAdminEmail: "gl.infostech@gmail.com",
		Location:        time.UTC,
	}
	return NewAppointmentService(repo, consultants, resolver, sequenceIDs("id"), fixedNow)
}

var (
	consultantActor = agenda.Actor{Email: "ana@imob.com", Name: "Ana", Role: agenda.RoleConsultant}
	adminActor      = agenda.Actor{Email: "chefe@imob.com", Name: "Chefe", Role: agenda.RoleAdmin}
	superActor      = agenda.Actor{Email: "gl.infostech@gmail.com", Name: "GL", Role: agenda.RoleAdmin}
)

func visitInput() AppointmentInput {
	return AppointmentInput{
		BrokerID:   "broker_davi",
		Date:       "2024-06-10",
		StartTime:  "10:00",
		EndTime:    "11:00",
		Properties: []agenda.Property{{Reference: "AP100", Address: "Rua das Flores, 10"}},
		Clients:    []agenda.Client{{Name: "Beatriz", Phone: "15 99999-0000"}},
	}
}

func existingVisit() agenda.Appointment {
	return agenda.Appointment{
		ID:              "visit-1",
		Date:            "2024-06-10",
		StartTime:       "10:00",
		EndTime:         "11:00",
		BrokerID:        "broker_davi",
		Reference:       "AP100",
		PropertyAddress: "Rua das Flores, 10",
		Properties:      []agenda.Property{{Reference: "AP100", Address: "Rua das Flores, 10"}},
		Clients: []agenda.Client{
			{Name: "Beatriz", Phone: "15 99999-0000", AddedBy: "ana@imob.com", AddedByName: "Ana", AddedAt: "01/05/2024 10:00:00"},
		},
		Status:        agenda.StatusScheduled,
		CreatedBy:     "ana@imob.com",
		CreatedByName: "Ana",
		History: []agenda.HistoryEntry{
			{Date: "01/05/2024 10:00:00", User: "Ana", Action: audit.ActionCreated},
		},
	}
}

func inputFromVisit(appt agenda.Appointment) AppointmentInput {
	return AppointmentInput{
		ID:                appt.ID,
		BrokerID:          appt.BrokerID,
		Date:              appt.Date,
		StartTime:         appt.StartTime,
		EndTime:           appt.EndTime,
		IsEvent:           appt.IsEvent,
		EventComment:      appt.EventComment,
		Properties:        append([]agenda.Property(nil), appt.Properties...),
		Clients:           append([]agenda.Client(nil), appt.Clients...),
		SharedWith:        append([]string(nil), appt.SharedWith...),
		Status:            appt.Status,
		StatusObservation: appt.StatusObservation,
	}
}

func TestSaveAppointmentCreate(t *testing.T) {
	t.Parallel()

	repo := newAppointmentRepoStub()
	service := newTestService(repo, nil)

	result, err := service.SaveAppointment(context.Background(), SaveAppointmentParams{
		Actor: consultantActor,
		Input: visitInput(),
	})
	if err != nil {
		t.Fatalf("SaveAppointment returned error: %v", err)
	}
	if len(result.Appointments) != 1 {
		t.Fatalf("expected 1 appointment, got %d", len(result.Appointments))
	}

	saved := result.Appointments[0]
	if saved.ID != "id-1" {
		t.Errorf("expected generated id, got %q", saved.ID)
	}
	if saved.Status != agenda.StatusScheduled {
		t.Errorf("expected default status %q, got %q", agenda.StatusScheduled, saved.Status)
	}
	if saved.CreatedBy != consultantActor.Email {
		t.Errorf("expected creator %q, got %q", consultantActor.Email, saved.CreatedBy)
	}
	if saved.Reference != "AP100" || saved.PropertyAddress != "Rua das Flores, 10" {
		t.Errorf("legacy property fields not mirrored: %q / %q", saved.Reference, saved.PropertyAddress)
	}
	if len(saved.History) != 1 || saved.History[0].Action != audit.ActionCreated {
		t.Fatalf("expected a single creation history entry, got %+v", saved.History)
	}
	if len(saved.Clients) != 1 || saved.Clients[0].AddedBy != consultantActor.Email {
		t.Errorf("client row not stamped with author: %+v", saved.Clients)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one repo create, got %d", len(repo.created))
	}

	if result.Notification == nil {
		t.Fatal("expected a notification for a broker with a contact")
	}
	if result.Notification.Kind != NotificationCreate {
		t.Errorf("expected create notification, got %q", result.Notification.Kind)
	}
	if !strings.Contains(result.Notification.Message, "10/06/2024") {
		t.Errorf("notification message missing localized date: %q", result.Notification.Message)
	}
	if !strings.Contains(result.Notification.WhatsAppURL, "https://wa.me/5515998538409?text=") {
		t.Errorf("unexpected WhatsApp URL: %q", result.Notification.WhatsAppURL)
	}
}

func TestSaveAppointmentValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*AppointmentInput)
		field  string
	}{
		{"missing clients", func(in *AppointmentInput) { in.Clients = nil }, "clients"},
		{"blank client names dropped", func(in *AppointmentInput) {
			in.Clients = []agenda.Client{{Name: "   "}}
		}, "clients"},
		{"missing properties", func(in *AppointmentInput) {
			in.Properties = nil
			in.Reference = ""
			in.PropertyAddress = ""
		}, "properties"},
		{"unknown broker", func(in *AppointmentInput) { in.BrokerID = "broker_nope" }, "broker"},
		{"inverted times", func(in *AppointmentInput) { in.StartTime = "12:00"; in.EndTime = "11:00" }, "time"},
		{"start at end of day", func(in *AppointmentInput) { in.StartTime = "24:00"; in.EndTime = "24:00" }, "time"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			service := newTestService(newAppointmentRepoStub(), nil)
			input := visitInput()
			tc.mutate(&input)

			_, err := service.SaveAppointment(context.Background(), SaveAppointmentParams{Actor: consultantActor, Input: input})
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := vErr.FieldErrors[tc.field]; !ok {
				t.Errorf("expected error on field %q, got %v", tc.field, vErr.FieldErrors)
			}
		})
	}
}

func TestSaveAppointmentEndOfDaySentinel(t *testing.T) {
	t.Parallel()

	service := newTestService(newAppointmentRepoStub(), nil)
	input := visitInput()
	input.StartTime = "23:00"
	input.EndTime = "24:00"

	if _, err := service.SaveAppointment(context.Background(), SaveAppointmentParams{Actor: consultantActor, Input: input}); err != nil {
		t.Fatalf("expected 23:00-24:00 to be accepted, got %v", err)
	}
}

func TestSaveAppointmentConflict(t *testing.T) {
	t.Parallel()

	existing := existingVisit()
	existing.Date = "2024-06-10"

	t.Run("overlapping visit rejected", func(t *testing.T) {
		t.Parallel()

		repo := newAppointmentRepoStub(existing)
		service := newTestService(repo, nil)

		input := visitInput()
		input.StartTime = "10:30"
		input.EndTime = "11:30"

		_, err := service.SaveAppointment(context.Background(), SaveAppointmentParams{Actor: consultantActor, Input: input})
		var cErr *ConflictError
		if !errors.As(err, &cErr) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if cErr.With.ID != existing.ID {
			t.Errorf("conflict reported against %q, want %q", cErr.With.ID, existing.ID)
		}
		if !strings.Contains(cErr.Error(), "10:00 às 11:00") {
			t.Errorf("unexpected conflict message: %q", cErr.Error())
		}
	})

	t.Run("event does not collide with visit", func(t *testing.T) {
		t.Parallel()

		repo := newAppointmentRepoStub(existing)
		service := newTestService(repo, nil)

		input := visitInput()
		input.IsEvent = true
		input.EventComment = "Reunião interna"
		input.Clients = nil
		input.Properties = nil
		input.StartTime = "10:30"
		input.EndTime = "11:30"

		if _, err := service.SaveAppointment(context.Background(), SaveAppointmentParams{Actor: consultantActor, Input: input}); err != nil {
			t.Fatalf("expected event to be accepted alongside a visit, got %v", err)
		}
	})

	t.Run("touching intervals do not conflict", func(t *testing.T) {
		t.Parallel()

		repo := newAppointmentRepoStub(existing)
		service := newTestService(repo, nil)

		input := visitInput()
		input.StartTime = "11:00"
		input.EndTime = "12:00"

		if _, err := service.SaveAppointment(context.Background(), SaveAppointmentParams{Actor: consultantActor, Input: input}); err != nil {
			t.Fatalf("expected back-to-back visits to be accepted, got %v", err)
		}
	})
}

func TestSaveAppointmentLocked(t *testing.T) {
	t.Parallel()

	// The visit started 2024-06-10 10:00; now is past that instant.
	lockedNow := time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC)

	newLockedService := func(repo *appointmentRepoStub) *AppointmentService {
		resolver := permission.Resolver{SuperAdminEmail: "gl.infostech@gmail.com", Location: time.UTC}
		return NewAppointmentService(repo, nil, resolver, sequenceIDs("id"), func() time.Time { return lockedNow })
	}

	t.Run("creator cannot move a locked visit", func(t *testing.T) {
		t.Parallel()

		repo := newAppointmentRepoStub(existingVisit())
		service := newLockedService(repo)

		input := inputFromVisit(existingVisit())
		input.StartTime = "14:00"
		input.EndTime = "15:00"

		_, err := service.SaveAppointment(context.Background(), SaveAppointmentParams{Actor: consultantActor, Input: input})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected forbidden, got %v", err)
		}
		if !strings.Contains(err.Error(), "Edição bloqueada") {
			t.Errorf("expected lock message, got %q", err.Error())
		}
	})

	t.Run("admin may still change status", func(t *testing.T) {
		t.Parallel()

		repo := newAppointmentRepoStub(existingVisit())
		service := newLockedService(repo)

		input := inputFromVisit(existingVisit())
		input.Status = agenda.StatusCompleted
		input.StatusObservation = "Visita realizada com sucesso"

		result, err := service.SaveAppointment(context.Background(), SaveAppointmentParams{Actor: adminActor, Input: input})
		if err != nil {
			t.Fatalf("expected status edit to pass, got %v", err)
		}
		if result.Appointments[0].Status != agenda.StatusCompleted {
			t.Errorf("status not updated: %q", result.Appointments[0].Status)
		}
	})

	t.Run("shared may still change the status observation", func(t *testing.T) {
		t.Parallel()

		shared := agenda.Actor{Email: "bia@imob.com", Name: "Bia", Role: agenda.RoleConsultant}
		visit := existingVisit()
		visit.SharedWith = []string{shared.Email}

		repo := newAppointmentRepoStub(visit)
		service := newLockedService(repo)

		input := inputFromVisit(visit)
		input.StatusObservation = "Cliente confirmou presença por telefone"

		result, err := service.SaveAppointment(context.Background(), SaveAppointmentParams{Actor: shared, Input: input})
		if err != nil {
			t.Fatalf("expected locked shared status edit to pass, got %v", err)
		}
		if result.Appointments[0].StatusObservation != "Cliente confirmou presença por telefone" {
			t.Errorf("observation not updated: %q", result.Appointments[0].StatusObservation)
		}
	})

	t.Run("shared still cannot move a locked visit", func(t *testing.T) {
		t.Parallel()

		shared := agenda.Actor{Email: "bia@imob.com", Name: "Bia", Role: agenda.RoleConsultant}
		visit := existingVisit()
		visit.SharedWith = []string{shared.Email}

		repo := newAppointmentRepoStub(visit)
		service := newLockedService(repo)

		input := inputFromVisit(visit)
		input.BrokerID = "broker_lima"

		_, err := service.SaveAppointment(context.Background(), SaveAppointmentParams{Actor: shared, Input: input})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})

	t.Run("locked admin cannot reassign owner", func(t *testing.T) {
		t.Parallel()

		repo := newAppointmentRepoStub(existingVisit())
		service := newLockedService(repo)

		input := inputFromVisit(existingVisit())
		input.OwnerEmail = "outro@imob.com"

		_, err := service.SaveAppointment(context.Background(), SaveAppointmentParams{Actor: adminActor, Input: input})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected forbidden, got %v", err)
		}
		if !strings.Contains(err.Error(), "Ação Bloqueada") {
			t.Errorf("expected reassignment block message, got %q", err.Error())
		}
	})

	t.Run("super admin bypasses the lock", func(t *testing.T) {
		t.Parallel()

		repo := newAppointmentRepoStub(existingVisit())
		service := newLockedService(repo)

		input := inputFromVisit(existingVisit())
		input.StartTime = "14:00"
		input.EndTime = "15:00"
		input.OwnerEmail = "outro@imob.com"

		result, err := service.SaveAppointment(context.Background(), SaveAppointmentParams{Actor: superActor, Input: input})
		if err != nil {
			t.Fatalf("expected super admin save to pass, got %v", err)
		}
		if result.Appointments[0].CreatedBy != "outro@imob.com" {
			t.Errorf("owner not reassigned: %q", result.Appointments[0].CreatedBy)
		}
	})
}

func TestSaveAppointmentShared(t *testing.T) {
	t.Parallel()

	shared := agenda.Actor{Email: "bia@imob.com", Name: "Bia", Role: agenda.RoleConsultant}
	base := existingVisit()
	base.SharedWith = []string{shared.Email}

	t.Run("shared may change status", func(t *testing.T) {
		t.Parallel()

		repo := newAppointmentRepoStub(base)
		service := newTestService(repo, nil)

		input := inputFromVisit(base)
		input.Status = agenda.StatusCancelled

		if _, err := service.SaveAppointment(context.Background(), SaveAppointmentParams{Actor: shared, Input: input}); err != nil {
			t.Fatalf("expected shared status edit to pass, got %v", err)
		}
	})

	t.Run("shared may add own client rows", func(t *testing.T) {
		t.Parallel()

		repo := newAppointmentRepoStub(base)
		service := newTestService(repo, nil)

		input := inputFromVisit(base)
		input.Clients = append(input.Clients, agenda.Client{Name: "Novo Cliente"})

		result, err := service.SaveAppointment(context.Background(), SaveAppointmentParams{Actor: shared, Input: input})
		if err != nil {
			t.Fatalf("expected client addition to pass, got %v", err)
		}
		added := result.Appointments[0].Clients[1]
		if added.AddedBy != shared.Email {
			t.Errorf("new row stamped with %q, want %q", added.AddedBy, shared.Email)
		}
	})

	t.Run("shared may not remove another author's row", func(t *testing.T) {
		t.Parallel()

		repo := newAppointmentRepoStub(base)
		service := newTestService(repo, nil)

		input := inputFromVisit(base)
		input.Clients = nil

		_, err := service.SaveAppointment(context.Background(), SaveAppointmentParams{Actor: shared, Input: input})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})

	t.Run("shared may not change the schedule", func(t *testing.T) {
		t.Parallel()

		repo := newAppointmentRepoStub(base)
		service := newTestService(repo, nil)

		input := inputFromVisit(base)
		input.StartTime = "16:00"
		input.EndTime = "17:00"

		_, err := service.SaveAppointment(context.Background(), SaveAppointmentParams{Actor: shared, Input: input})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})

	t.Run("outsider may not save at all", func(t *testing.T) {
		t.Parallel()

		repo := newAppointmentRepoStub(base)
		service := newTestService(repo, nil)

		outsider := agenda.Actor{Email: "fora@imob.com", Name: "Fora", Role: agenda.RoleConsultant}
		input := inputFromVisit(base)
		input.Status = agenda.StatusCancelled

		_, err := service.SaveAppointment(context.Background(), SaveAppointmentParams{Actor: outsider, Input: input})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})
}

func TestSaveAppointmentHistory(t *testing.T) {
	t.Parallel()

	t.Run("edit appends a diff entry", func(t *testing.T) {
		t.Parallel()

		repo := newAppointmentRepoStub(existingVisit())
		service := newTestService(repo, nil)

		input := inputFromVisit(existingVisit())
		input.Date = "2024-06-11"

		result, err := service.SaveAppointment(context.Background(), SaveAppointmentParams{Actor: consultantActor, Input: input})
		if err != nil {
			t.Fatalf("SaveAppointment returned error: %v", err)
		}

		history := result.Appointments[0].History
		if len(history) != 2 {
			t.Fatalf("expected 2 history entries, got %d", len(history))
		}
		if history[0].Action != audit.ActionCreated {
			t.Errorf("creation entry was displaced: %+v", history[0])
		}
		if !strings.Contains(history[1].Action, "Data: de 10/06/2024 para 11/06/2024") {
			t.Errorf("unexpected diff entry: %q", history[1].Action)
		}
	})

	t.Run("no-op save records a trivial edit", func(t *testing.T) {
		t.Parallel()

		repo := newAppointmentRepoStub(existingVisit())
		service := newTestService(repo, nil)

		result, err := service.SaveAppointment(context.Background(), SaveAppointmentParams{Actor: consultantActor, Input: inputFromVisit(existingVisit())})
		if err != nil {
			t.Fatalf("SaveAppointment returned error: %v", err)
		}

		history := result.Appointments[0].History
		if history[len(history)-1].Action != audit.ActionTrivialEdit {
			t.Errorf("expected trivial edit entry, got %q", history[len(history)-1].Action)
		}
	})
}

func TestSaveAppointmentOwnerReassignment(t *testing.T) {
	t.Parallel()

	t.Run("consultant may not reassign", func(t *testing.T) {
		t.Parallel()

		repo := newAppointmentRepoStub(existingVisit())
		service := newTestService(repo, nil)

		input := inputFromVisit(existingVisit())
		input.OwnerEmail = "outro@imob.com"

		_, err := service.SaveAppointment(context.Background(), SaveAppointmentParams{Actor: consultantActor, Input: input})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected forbidden, got %v", err)
		}
	})

	t.Run("admin reassigns and resolves the new owner name", func(t *testing.T) {
		t.Parallel()

		repo := newAppointmentRepoStub(existingVisit())
		consultants := &consultantDirectoryStub{byEmail: map[string]Consultant{
			"outro@imob.com": {Email: "outro@imob.com", Name: "Outro Consultor"},
		}}
		service := newTestService(repo, consultants)

		input := inputFromVisit(existingVisit())
		input.OwnerEmail = "outro@imob.com"

		result, err := service.SaveAppointment(context.Background(), SaveAppointmentParams{Actor: adminActor, Input: input})
		if err != nil {
			t.Fatalf("SaveAppointment returned error: %v", err)
		}

		saved := result.Appointments[0]
		if saved.CreatedBy != "outro@imob.com" || saved.CreatedByName != "Outro Consultor" {
			t.Errorf("owner not resolved: %q / %q", saved.CreatedBy, saved.CreatedByName)
		}
		if saved.History[0].User != "Ana" {
			t.Errorf("creation entry must keep the original creator, got %q", saved.History[0].User)
		}
		last := saved.History[len(saved.History)-1]
		if !strings.Contains(last.Action, "Responsável alterado") {
			t.Errorf("expected owner change in the diff, got %q", last.Action)
		}
	})
}

func TestSaveAppointmentSeries(t *testing.T) {
	t.Parallel()

	repo := newAppointmentRepoStub()
	service := newTestService(repo, nil)

	input := visitInput()
	input.Date = "2024-06-03"
	input.Recurrence = &RecurrenceInput{
		EndDate:  "2024-06-16",
		Weekdays: []time.Weekday{time.Monday, time.Wednesday},
	}

	result, err := service.SaveAppointment(context.Background(), SaveAppointmentParams{Actor: adminActor, Input: input})
	if err != nil {
		t.Fatalf("SaveAppointment returned error: %v", err)
	}

	wantDates := []string{"2024-06-03", "2024-06-05", "2024-06-10", "2024-06-12"}
	if len(result.Appointments) != len(wantDates) {
		t.Fatalf("expected %d occurrences, got %d", len(wantDates), len(result.Appointments))
	}

	groupID := result.Appointments[0].GroupID
	if groupID == "" {
		t.Fatal("series records must share a group id")
	}
	for i, appt := range result.Appointments {
		if appt.Date != wantDates[i] {
			t.Errorf("occurrence %d on %q, want %q", i, appt.Date, wantDates[i])
		}
		if appt.GroupID != groupID {
			t.Errorf("occurrence %d has group %q, want %q", i, appt.GroupID, groupID)
		}
		if len(appt.History) != 1 || appt.History[0].Action != audit.ActionCreatedSeries {
			t.Errorf("occurrence %d history: %+v", i, appt.History)
		}
	}

	if len(repo.batchCreated) != len(wantDates) {
		t.Errorf("expected a batch create of %d rows, got %d", len(wantDates), len(repo.batchCreated))
	}
	if len(repo.created) != 0 {
		t.Errorf("series must not use single-row create")
	}
	if result.Notification != nil {
		t.Errorf("a batch has no broker hand-off, got %+v", result.Notification)
	}
}

func TestSaveAppointmentSeriesConsultantIgnored(t *testing.T) {
	t.Parallel()

	repo := newAppointmentRepoStub()
	service := newTestService(repo, nil)

	input := visitInput()
	input.Recurrence = &RecurrenceInput{
		EndDate:  "2024-06-30",
		Weekdays: []time.Weekday{time.Monday},
	}

	result, err := service.SaveAppointment(context.Background(), SaveAppointmentParams{Actor: consultantActor, Input: input})
	if err != nil {
		t.Fatalf("SaveAppointment returned error: %v", err)
	}
	if len(result.Appointments) != 1 {
		t.Fatalf("recurrence is admin-only; expected a single record, got %d", len(result.Appointments))
	}
	if result.Appointments[0].GroupID != "" {
		t.Errorf("single record must not carry a group id")
	}
}

func TestDeleteAppointment(t *testing.T) {
	t.Parallel()

	t.Run("single delete", func(t *testing.T) {
		t.Parallel()

		repo := newAppointmentRepoStub(existingVisit())
		service := newTestService(repo, nil)

		result, err := service.DeleteAppointment(context.Background(), DeleteAppointmentParams{
			Actor:         consultantActor,
			AppointmentID: "visit-1",
		})
		if err != nil {
			t.Fatalf("DeleteAppointment returned error: %v", err)
		}
		if len(result.DeletedIDs) != 1 || result.DeletedIDs[0] != "visit-1" {
			t.Errorf("unexpected deleted ids: %v", result.DeletedIDs)
		}
		if result.Notification == nil || result.Notification.Kind != NotificationDelete {
			t.Errorf("expected delete notification, got %+v", result.Notification)
		}
	})

	t.Run("series member requires a choice", func(t *testing.T) {
		t.Parallel()

		member := existingVisit()
		member.GroupID = "serie-1"
		repo := newAppointmentRepoStub(member)
		service := newTestService(repo, nil)

		_, err := service.DeleteAppointment(context.Background(), DeleteAppointmentParams{
			Actor:         consultantActor,
			AppointmentID: "visit-1",
		})
		if !errors.Is(err, ErrSeriesChoiceRequired) {
			t.Fatalf("expected ErrSeriesChoiceRequired, got %v", err)
		}
	})

	t.Run("series delete removes every member", func(t *testing.T) {
		t.Parallel()

		first := existingVisit()
		first.GroupID = "serie-1"
		second := existingVisit()
		second.ID = "visit-2"
		second.Date = "2024-06-17"
		second.GroupID = "serie-1"

		repo := newAppointmentRepoStub(first, second)
		service := newTestService(repo, nil)

		result, err := service.DeleteAppointment(context.Background(), DeleteAppointmentParams{
			Actor:         consultantActor,
			AppointmentID: "visit-1",
			Choice:        DeleteSeries,
		})
		if err != nil {
			t.Fatalf("DeleteAppointment returned error: %v", err)
		}
		if len(result.DeletedIDs) != 2 {
			t.Errorf("expected 2 deleted ids, got %v", result.DeletedIDs)
		}
		if repo.deletedGroup != "serie-1" {
			t.Errorf("expected group delete of serie-1, got %q", repo.deletedGroup)
		}
	})

	t.Run("single choice on a series member deletes one row", func(t *testing.T) {
		t.Parallel()

		member := existingVisit()
		member.GroupID = "serie-1"
		repo := newAppointmentRepoStub(member)
		service := newTestService(repo, nil)

		result, err := service.DeleteAppointment(context.Background(), DeleteAppointmentParams{
			Actor:         consultantActor,
			AppointmentID: "visit-1",
			Choice:        DeleteSingle,
		})
		if err != nil {
			t.Fatalf("DeleteAppointment returned error: %v", err)
		}
		if len(result.DeletedIDs) != 1 {
			t.Errorf("expected one deleted id, got %v", result.DeletedIDs)
		}
	})

	t.Run("locked visit cannot be deleted", func(t *testing.T) {
		t.Parallel()

		repo := newAppointmentRepoStub(existingVisit())
		resolver := permission.Resolver{SuperAdminEmail: "gl.infostech@gmail.com", Location: time.UTC}
		lockedNow := time.Date(2024, 6, 10, 11, 0, 0, 0, time.UTC)
		service := NewAppointmentService(repo, nil, resolver, sequenceIDs("id"), func() time.Time { return lockedNow })

		_, err := service.DeleteAppointment(context.Background(), DeleteAppointmentParams{
			Actor:         consultantActor,
			AppointmentID: "visit-1",
		})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected forbidden, got %v", err)
		}
		if !strings.Contains(err.Error(), "antigas/bloqueadas") {
			t.Errorf("unexpected message: %q", err.Error())
		}
	})

	t.Run("missing appointment", func(t *testing.T) {
		t.Parallel()

		service := newTestService(newAppointmentRepoStub(), nil)
		_, err := service.DeleteAppointment(context.Background(), DeleteAppointmentParams{
			Actor:         consultantActor,
			AppointmentID: "nope",
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestListAppointments(t *testing.T) {
	t.Parallel()

	first := existingVisit()
	second := existingVisit()
	second.ID = "visit-2"
	second.BrokerID = "broker_lima"

	repo := newAppointmentRepoStub(first, second)
	service := newTestService(repo, nil)

	appts, err := service.ListAppointments(context.Background(), ListAppointmentsParams{BrokerID: "broker_davi"})
	if err != nil {
		t.Fatalf("ListAppointments returned error: %v", err)
	}
	if len(appts) != 1 || appts[0].ID != "visit-1" {
		t.Errorf("unexpected listing: %+v", appts)
	}
}
