package testfixtures

import (
	"testing"
	"time"
)

func TestNewServiceFactoryDefaults(t *testing.T) {
	t.Parallel()

	factory := NewServiceFactory()
	if factory.Clock == nil || factory.IDGenerator == nil {
		t.Fatal("factory must provide defaults")
	}
	if factory.Clock.Now() != ReferenceTime() {
		t.Errorf("default clock should start at the reference time, got %s", factory.Clock.Now())
	}
	if factory.Resolver.SuperAdminEmail == "" {
		t.Error("default resolver must carry the super admin account")
	}
}

func TestServiceFactoryOptions(t *testing.T) {
	t.Parallel()

	clock := NewClock(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	generator := NewIDGenerator("custom")

	factory := NewServiceFactory(WithClock(clock), WithIDGenerator(generator))
	if factory.Clock != clock {
		t.Error("clock option ignored")
	}
	if got := factory.IDGenerator.Next(); got != "custom-1" {
		t.Errorf("generator option ignored, got %q", got)
	}
}

func TestNewAppointmentFixture(t *testing.T) {
	t.Parallel()

	first := NewAppointment()
	second := NewAppointment(WithBroker("broker_lima"), WithTimes("14:00", "15:00"))

	if first.ID == second.ID {
		t.Error("fixtures must have distinct ids")
	}
	if len(first.Clients) != 1 || len(first.Properties) != 1 {
		t.Errorf("default fixture must carry a client and a property: %+v", first)
	}
	if second.BrokerID != "broker_lima" || second.StartTime != "14:00" {
		t.Errorf("options ignored: %+v", second)
	}

	event := NewAppointment(AsEvent("Reunião"))
	if !event.IsEvent || len(event.Clients) != 0 {
		t.Errorf("event option must drop clients: %+v", event)
	}
}
