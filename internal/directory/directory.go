// Package directory carries the fixed broker roster of the office, including
// the pseudo-resources used for external brokers and key pickup, plus the
// WhatsApp contact table used for notification hand-off.
package directory

import "strings"

// Broker is a person or pseudo-resource appointments are booked against.
type Broker struct {
	ID   string
	Name string
}

var brokers = []Broker{
	{ID: "broker_lima", Name: "Lima"},
	{ID: "broker_braga", Name: "Braga"},
	{ID: "broker_davi", Name: "Davi"},
	{ID: "broker_carlos", Name: "Carlos"},
	{ID: "broker_igor", Name: "Igor"},
	{ID: "carol", Name: "Carol"},
	{ID: "broker_externo", Name: "Corretor Externo"},
	{ID: "broker_chaves", Name: "Retirada de Chaves"},
}

// Brokers returns the roster in display order.
func Brokers() []Broker {
	out := make([]Broker, len(brokers))
	copy(out, brokers)
	return out
}

// BrokerExists reports whether the id belongs to the roster.
func BrokerExists(id string) bool {
	for _, b := range brokers {
		if b.ID == id {
			return true
		}
	}
	return false
}

// BrokerName resolves a broker id to its display name. Unknown ids come back
// unchanged so audit lines stay readable for retired entries.
func BrokerName(id string) string {
	for _, b := range brokers {
		if b.ID == id {
			return b.Name
		}
	}
	return id
}

// brokerContacts maps broker first names to WhatsApp numbers. Pseudo-brokers
// have no entry on purpose.
var brokerContacts = map[string]string{
	"Davi":   "5515998538409",
	"Carlos": "5515974072397",
	"Braga":  "5515991451481",
	"Lima":   "5515997278796",
	"Igor":   "5515998168850",
	"Carol":  "5515991809938",
}

// BrokerPhoneByName resolves a phone number by case-insensitive substring
// match of the broker's display name. Returns "" when no contact exists,
// which callers treat as "skip notification".
func BrokerPhoneByName(name string) string {
	if name == "" {
		return ""
	}
	lower := strings.ToLower(name)
	for key, phone := range brokerContacts {
		if strings.Contains(lower, strings.ToLower(key)) {
			return phone
		}
	}
	return ""
}
