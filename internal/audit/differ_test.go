package audit

import (
	"strings"
	"testing"
	"time"

	"github.com/emaximovel/agenda/internal/agenda"
)

func baseVisit() agenda.Appointment {
	return agenda.Appointment{
		ID:              "visit-1",
		Date:            "2024-06-10",
		StartTime:       "10:00",
		EndTime:         "11:00",
		BrokerID:        "broker_davi",
		Reference:       "AP100",
		PropertyAddress: "Rua das Flores, 10",
		Properties:      []agenda.Property{{Reference: "AP100", Address: "Rua das Flores, 10"}},
		Clients:         []agenda.Client{{Name: "Beatriz"}},
		SharedWith:      []string{"bia@imob.com"},
		Status:          agenda.StatusScheduled,
		CreatedBy:       "ana@imob.com",
	}
}

func TestDiffNoChanges(t *testing.T) {
	t.Parallel()

	if changes := Diff(baseVisit(), baseVisit()); len(changes) != 0 {
		t.Errorf("expected empty diff, got %v", changes)
	}
}

func TestDiffBrokerChange(t *testing.T) {
	t.Parallel()

	after := baseVisit()
	after.BrokerID = "broker_lima"

	changes := Diff(baseVisit(), after)
	if len(changes) != 1 {
		t.Fatalf("expected one change, got %v", changes)
	}
	if changes[0] != "Corretor: de 'Davi' para 'Lima'" {
		t.Errorf("unexpected broker line: %q", changes[0])
	}
}

func TestDiffDateUsesLocalizedFormat(t *testing.T) {
	t.Parallel()

	after := baseVisit()
	after.Date = "2024-06-12"

	changes := Diff(baseVisit(), after)
	if len(changes) != 1 || changes[0] != "Data: de 10/06/2024 para 12/06/2024" {
		t.Errorf("unexpected date diff: %v", changes)
	}
}

func TestDiffScalarFields(t *testing.T) {
	t.Parallel()

	after := baseVisit()
	after.StartTime = "14:00"
	after.Status = agenda.StatusCompleted
	after.StatusObservation = "tudo certo"

	changes := Diff(baseVisit(), after)
	joined := strings.Join(changes, "; ")
	for _, want := range []string{"Início: alterado", "Status: alterado", "Obs. Status: alterado"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in %q", want, joined)
		}
	}
}

func TestDiffOwnerAndKind(t *testing.T) {
	t.Parallel()

	after := baseVisit()
	after.CreatedBy = "outro@imob.com"
	after.IsEvent = true

	changes := Diff(baseVisit(), after)
	joined := strings.Join(changes, "; ")
	if !strings.Contains(joined, "Responsável alterado") {
		t.Errorf("missing owner line: %q", joined)
	}
	if !strings.Contains(joined, "Tipo: alterado") {
		t.Errorf("missing kind line: %q", joined)
	}
}

func TestDiffClients(t *testing.T) {
	t.Parallel()

	after := baseVisit()
	after.Clients = []agenda.Client{{Name: "Carla "}}

	changes := Diff(baseVisit(), after)
	joined := strings.Join(changes, "; ")
	if !strings.Contains(joined, "Cliente add: Carla") {
		t.Errorf("missing addition: %q", joined)
	}
	if !strings.Contains(joined, "Cliente removido: Beatriz") {
		t.Errorf("missing removal: %q", joined)
	}
}

func TestDiffShares(t *testing.T) {
	t.Parallel()

	after := baseVisit()
	after.SharedWith = []string{"carla@imob.com"}

	changes := Diff(baseVisit(), after)
	joined := strings.Join(changes, "; ")
	if !strings.Contains(joined, "Compartilhado com: carla@imob.com") {
		t.Errorf("missing share grant: %q", joined)
	}
	if !strings.Contains(joined, "Compartilhamento removido: bia@imob.com") {
		t.Errorf("missing share removal: %q", joined)
	}
}

func TestEntryFromChanges(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 10, 15, 30, 0, 0, time.UTC)

	entry := EntryFromChanges(now, "Ana", []string{"Início: alterado", "Fim: alterado"})
	if entry.Date != "10/06/2024 15:30:00" {
		t.Errorf("unexpected timestamp: %q", entry.Date)
	}
	if entry.User != "Ana" {
		t.Errorf("unexpected user: %q", entry.User)
	}
	if entry.Action != "Início: alterado; Fim: alterado" {
		t.Errorf("unexpected action: %q", entry.Action)
	}

	trivial := EntryFromChanges(now, "Ana", nil)
	if trivial.Action != ActionTrivialEdit {
		t.Errorf("empty diff must record %q, got %q", ActionTrivialEdit, trivial.Action)
	}
}
