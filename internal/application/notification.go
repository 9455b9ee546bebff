package application

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/emaximovel/agenda/internal/agenda"
	"github.com/emaximovel/agenda/internal/directory"
	"github.com/emaximovel/agenda/internal/scheduler"
)

// NotificationKind selects the message template.
type NotificationKind string

const (
	NotificationCreate NotificationKind = "create"
	NotificationUpdate NotificationKind = "update"
	NotificationDelete NotificationKind = "delete"
)

// Notification is the WhatsApp hand-off payload built after a lifecycle
// operation. The engine never sends anything; the UI shows the question and
// opens the URL on confirmation.
type Notification struct {
	Kind        NotificationKind
	BrokerID    string
	BrokerName  string
	Phone       string
	Title       string
	Question    string
	Message     string
	WhatsAppURL string
}

// BuildNotification assembles the payload for an appointment, or nil when no
// notification applies: internal events carry no broker message, and brokers
// without a registered phone are skipped.
func BuildNotification(kind NotificationKind, appt agenda.Appointment) *Notification {
	if appt.IsEvent {
		return nil
	}
	brokerName := directory.BrokerName(appt.BrokerID)
	phone := directory.BrokerPhoneByName(brokerName)
	if phone == "" {
		return nil
	}

	firstName := brokerFirstName(brokerName)
	title, question := notificationPrompt(kind, firstName)
	message := notificationMessage(kind, firstName, appt)

	return &Notification{
		Kind:        kind,
		BrokerID:    appt.BrokerID,
		BrokerName:  brokerName,
		Phone:       phone,
		Title:       title,
		Question:    question,
		Message:     message,
		WhatsAppURL: "https://wa.me/" + phone + "?text=" + url.QueryEscape(message),
	}
}

func notificationPrompt(kind NotificationKind, firstName string) (title, question string) {
	switch kind {
	case NotificationDelete:
		return "Avisar Cancelamento?",
			fmt.Sprintf("Deseja avisar o cancelamento no WhatsApp de %s?", firstName)
	case NotificationUpdate:
		return "Avisar Atualização?",
			fmt.Sprintf("Deseja enviar a atualização para o WhatsApp de %s?", firstName)
	default:
		return "Confirmar ao Corretor?",
			fmt.Sprintf("Deseja enviar o agendamento para o WhatsApp de %s?", firstName)
	}
}

func notificationMessage(kind NotificationKind, firstName string, appt agenda.Appointment) string {
	var b strings.Builder
	switch kind {
	case NotificationDelete:
		fmt.Fprintf(&b, "Oi %s, o seguinte agendamento foi CANCELADO:\n\n", firstName)
	case NotificationUpdate:
		fmt.Fprintf(&b, "Oi %s, segue agendamento atualizado:\n\n", firstName)
	default:
		fmt.Fprintf(&b, "Oi %s, segue novo agendamento marcado:\n\n", firstName)
	}

	fmt.Fprintf(&b, "Data: %s\n", scheduler.FormatDateBR(appt.Date))
	fmt.Fprintf(&b, "Horário: %s às %s\n", appt.StartTime, appt.EndTime)
	for _, p := range appt.Properties {
		line := p.Address
		if p.Reference != "" {
			if line != "" {
				line += fmt.Sprintf(" (Ref: %s)", p.Reference)
			} else {
				line = fmt.Sprintf("Ref: %s", p.Reference)
			}
		}
		if line != "" {
			fmt.Fprintf(&b, "Imóvel: %s\n", line)
		}
	}
	for _, c := range appt.Clients {
		fmt.Fprintf(&b, "Cliente: %s\n", c.Name)
		if c.Phone != "" {
			fmt.Fprintf(&b, "Telefone: %s\n", c.Phone)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func brokerFirstName(name string) string {
	name = strings.TrimSpace(name)
	if idx := strings.IndexByte(name, ' '); idx > 0 {
		return name[:idx]
	}
	return name
}
