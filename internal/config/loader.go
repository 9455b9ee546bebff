package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultSuperAdminEmail is the account that bypasses lock and ownership
// restrictions unless AGENDA_SUPER_ADMIN_EMAIL overrides it.
const DefaultSuperAdminEmail = "gl.infostech@gmail.com"

// Config captures environment driven configuration values for the agenda
// service.
type Config struct {
	HTTPPort        int
	SQLiteDSN       string
	SessionTTL      time.Duration
	SuperAdminEmail string
	Timezone        string
}

// Load parses configuration values from the current process environment.
//
// Every field has a default so a bare environment boots a local instance;
// invalid values are reported with localized error messages.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:        8080,
		SQLiteDSN:       "file:agenda.db?_pragma=foreign_keys(1)",
		SessionTTL:      24 * time.Hour,
		SuperAdminEmail: DefaultSuperAdminEmail,
		Timezone:        "America/Sao_Paulo",
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("AGENDA_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "AGENDA_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("AGENDA_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("AGENDA_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "AGENDA_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if email := strings.TrimSpace(os.Getenv("AGENDA_SUPER_ADMIN_EMAIL")); email != "" {
		cfg.SuperAdminEmail = strings.ToLower(email)
	}

	if tz := strings.TrimSpace(os.Getenv("AGENDA_TIMEZONE")); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			invalid = append(invalid, "AGENDA_TIMEZONE")
		} else {
			cfg.Timezone = tz
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("variáveis de ambiente com valores inválidos: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
