// Package audit turns the difference between two appointment snapshots into
// the human-readable log lines the office reads in the edit history.
package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/emaximovel/agenda/internal/agenda"
	"github.com/emaximovel/agenda/internal/directory"
	"github.com/emaximovel/agenda/internal/scheduler"
)

// Actions recorded for lifecycle events.
const (
	ActionCreated       = "Criação do Agendamento"
	ActionCreatedSeries = "Criação do Agendamento (recorrente)"
	ActionTrivialEdit   = "Edição sem alterações"
)

// monitoredField pairs a display label with an accessor over the snapshot.
type monitoredField struct {
	label string
	value func(agenda.Appointment) string
}

var monitoredFields = []monitoredField{
	{"Data", func(a agenda.Appointment) string { return a.Date }},
	{"Início", func(a agenda.Appointment) string { return a.StartTime }},
	{"Fim", func(a agenda.Appointment) string { return a.EndTime }},
	{"Referência", func(a agenda.Appointment) string { return a.Reference }},
	{"Endereço", func(a agenda.Appointment) string { return a.PropertyAddress }},
	{"Imóveis", func(a agenda.Appointment) string { return propertySignature(a.Properties) }},
	{"Status", func(a agenda.Appointment) string { return a.Status }},
	{"Obs. Status", func(a agenda.Appointment) string { return a.StatusObservation }},
	{"Comentário", func(a agenda.Appointment) string { return a.EventComment }},
}

// Diff compares two snapshots and emits one line per changed monitored
// field, plus added/removed lines for clients and shares. An empty result
// means nothing monitored changed; callers still record a trivial-edit entry.
func Diff(oldAppt, newAppt agenda.Appointment) []string {
	var changes []string

	if oldAppt.BrokerID != newAppt.BrokerID {
		changes = append(changes, fmt.Sprintf("Corretor: de '%s' para '%s'",
			directory.BrokerName(oldAppt.BrokerID), directory.BrokerName(newAppt.BrokerID)))
	}

	for _, field := range monitoredFields {
		oldVal := strings.TrimSpace(field.value(oldAppt))
		newVal := strings.TrimSpace(field.value(newAppt))
		if oldVal == newVal {
			continue
		}
		if field.label == "Data" {
			changes = append(changes, fmt.Sprintf("Data: de %s para %s",
				scheduler.FormatDateBR(oldVal), scheduler.FormatDateBR(newVal)))
			continue
		}
		changes = append(changes, fmt.Sprintf("%s: alterado", field.label))
	}

	if oldAppt.CreatedBy != newAppt.CreatedBy {
		changes = append(changes, "Responsável alterado")
	}
	if oldAppt.IsEvent != newAppt.IsEvent {
		changes = append(changes, "Tipo: alterado")
	}

	changes = append(changes, diffClients(oldAppt.Clients, newAppt.Clients)...)
	changes = append(changes, diffShares(oldAppt.SharedWith, newAppt.SharedWith)...)
	return changes
}

// NewHistoryEntry builds one audit record at the given instant.
func NewHistoryEntry(now time.Time, user, action string) agenda.HistoryEntry {
	return agenda.HistoryEntry{
		Date:   scheduler.FormatTimestampBR(now),
		User:   user,
		Action: action,
	}
}

// EntryFromChanges collapses diff lines into a single history record. An
// empty diff becomes the trivial-edit label so every save leaves a trace.
func EntryFromChanges(now time.Time, user string, changes []string) agenda.HistoryEntry {
	action := ActionTrivialEdit
	if len(changes) > 0 {
		action = strings.Join(changes, "; ")
	}
	return NewHistoryEntry(now, user, action)
}

// Client identity is the trimmed name; shares are identified by email.
func diffClients(oldClients, newClients []agenda.Client) []string {
	oldSigs := clientSignatures(oldClients)
	newSigs := clientSignatures(newClients)

	var changes []string
	for _, sig := range newSigs {
		if !containsString(oldSigs, sig) {
			changes = append(changes, "Cliente add: "+sig)
		}
	}
	for _, sig := range oldSigs {
		if !containsString(newSigs, sig) {
			changes = append(changes, "Cliente removido: "+sig)
		}
	}
	return changes
}

func diffShares(oldShares, newShares []string) []string {
	var changes []string
	for _, email := range newShares {
		if !containsString(oldShares, email) {
			changes = append(changes, "Compartilhado com: "+email)
		}
	}
	for _, email := range oldShares {
		if !containsString(newShares, email) {
			changes = append(changes, "Compartilhamento removido: "+email)
		}
	}
	return changes
}

func clientSignatures(clients []agenda.Client) []string {
	sigs := make([]string, 0, len(clients))
	for _, c := range clients {
		sigs = append(sigs, strings.TrimSpace(c.Name))
	}
	return sigs
}

func propertySignature(properties []agenda.Property) string {
	parts := make([]string, 0, len(properties))
	for _, p := range properties {
		parts = append(parts, strings.TrimSpace(p.Reference)+"|"+strings.TrimSpace(p.Address))
	}
	return strings.Join(parts, ";")
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
