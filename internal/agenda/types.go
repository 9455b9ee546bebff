// Package agenda holds the domain model shared by the scheduling engine:
// appointments, clients, properties, audit history and acting users.
package agenda

// Role identifies the category of an acting user.
type Role string

const (
	// RoleAdmin marks office administrators with extended edit rights.
	RoleAdmin Role = "admin"
	// RoleConsultant marks regular consultants.
	RoleConsultant Role = "consultant"
	// RoleBroker marks broker accounts (view-oriented, rarely edit).
	RoleBroker Role = "broker"
)

// Status values follow the vocabulary used by the office.
const (
	// StatusScheduled is the default status of a visit.
	StatusScheduled = "agendada"
	// StatusCancelled marks a visit the office called off.
	StatusCancelled = "cancelada"
	// StatusCompleted marks a visit that took place.
	StatusCompleted = "realizada"
)

// Actor is the authenticated user performing an operation.
type Actor struct {
	Email string
	Name  string
	Role  Role
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Client is one client row attached to a visit. Each row records who added
// it so shared collaborators can edit only their own rows.
type Client struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	AddedBy     string `json:"addedBy"`
	AddedByName string `json:"addedByName"`
	AddedAt     string `json:"addedAt"`
}

// Property is one property entry attached to a visit. The first entry
// mirrors into the legacy Reference/PropertyAddress fields.
type Property struct {
	Reference string `json:"reference"`
	Address   string `json:"address"`
}

// HistoryEntry is one append-only audit record. Entry 0 always holds the
// original creation and original creator, regardless of later owner changes.
type HistoryEntry struct {
	Date   string `json:"date"`
	User   string `json:"user"`
	Action string `json:"action"`
}

// Appointment is the central entity: a client visit or an internal event on
// a broker's calendar.
type Appointment struct {
	ID        string
	Date      string // YYYY-MM-DD
	StartTime string // HH:MM, 24h
	EndTime   string // HH:MM; "24:00" is the end-of-day sentinel
	IsEvent   bool
	BrokerID  string

	Reference       string
	PropertyAddress string
	Properties      []Property
	Clients         []Client
	SharedWith      []string

	Status            string
	StatusObservation string
	EventComment      string

	CreatedBy     string
	CreatedByName string
	CreatedAt     string
	UpdatedAt     string
	UpdatedBy     string

	GroupID string
	History []HistoryEntry
}

// SharedWithContains reports whether the email has shared access.
func (a Appointment) SharedWithContains(email string) bool {
	for _, e := range a.SharedWith {
		if e == email {
			return true
		}
	}
	return false
}

// SyncLegacyPropertyFields mirrors the first property entry into the
// single-valued Reference/PropertyAddress fields kept for older records.
func (a *Appointment) SyncLegacyPropertyFields() {
	if len(a.Properties) == 0 {
		return
	}
	a.Reference = a.Properties[0].Reference
	a.PropertyAddress = a.Properties[0].Address
}

// Clone returns a deep copy so callers can diff against a stable snapshot.
func (a Appointment) Clone() Appointment {
	out := a
	if a.Properties != nil {
		out.Properties = append([]Property(nil), a.Properties...)
	}
	if a.Clients != nil {
		out.Clients = append([]Client(nil), a.Clients...)
	}
	if a.SharedWith != nil {
		out.SharedWith = append([]string(nil), a.SharedWith...)
	}
	if a.History != nil {
		out.History = append([]HistoryEntry(nil), a.History...)
	}
	return out
}
