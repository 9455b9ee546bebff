package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/emaximovel/agenda/internal/agenda"
	"github.com/emaximovel/agenda/internal/persistence"
)

const appointmentColumns = `id, date, start_time, end_time, is_event, broker_id,
	reference, property_address, properties, clients, shared_with,
	status, status_observation, event_comment,
	created_by, created_by_name, created_at, updated_at, updated_by,
	group_id, history`

// CreateAppointment inserts a single record.
func (s *Storage) CreateAppointment(ctx context.Context, appt agenda.Appointment) error {
	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		return insertAppointment(ctx, tx, appt)
	})
}

// CreateAppointments inserts a recurrence batch atomically.
func (s *Storage) CreateAppointments(ctx context.Context, appts []agenda.Appointment) error {
	if len(appts) == 0 {
		return nil
	}
	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		for _, appt := range appts {
			if err := insertAppointment(ctx, tx, appt); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertAppointment(ctx context.Context, tx *sql.Tx, appt agenda.Appointment) error {
	properties, clients, shared, history, err := encodeDocumentColumns(appt)
	if err != nil {
		return err
	}

	query := `INSERT INTO appointments (` + appointmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query,
		appt.ID, appt.Date, appt.StartTime, appt.EndTime, boolToInt(appt.IsEvent), appt.BrokerID,
		appt.Reference, appt.PropertyAddress, properties, clients, shared,
		appt.Status, appt.StatusObservation, appt.EventComment,
		appt.CreatedBy, appt.CreatedByName, appt.CreatedAt, appt.UpdatedAt, appt.UpdatedBy,
		appt.GroupID, history,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return persistence.ErrDuplicate
		}
		return fmt.Errorf("sqlite: insert appointment %s: %w", appt.ID, err)
	}
	return nil
}

// UpdateAppointment overwrites an existing record.
func (s *Storage) UpdateAppointment(ctx context.Context, appt agenda.Appointment) error {
	properties, clients, shared, history, err := encodeDocumentColumns(appt)
	if err != nil {
		return err
	}

	query := `UPDATE appointments SET
		date = ?, start_time = ?, end_time = ?, is_event = ?, broker_id = ?,
		reference = ?, property_address = ?, properties = ?, clients = ?, shared_with = ?,
		status = ?, status_observation = ?, event_comment = ?,
		created_by = ?, created_by_name = ?, updated_at = ?, updated_by = ?,
		group_id = ?, history = ?
		WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query,
		appt.Date, appt.StartTime, appt.EndTime, boolToInt(appt.IsEvent), appt.BrokerID,
		appt.Reference, appt.PropertyAddress, properties, clients, shared,
		appt.Status, appt.StatusObservation, appt.EventComment,
		appt.CreatedBy, appt.CreatedByName, appt.UpdatedAt, appt.UpdatedBy,
		appt.GroupID, history,
		appt.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: update appointment %s: %w", appt.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetAppointment loads one record by id.
func (s *Storage) GetAppointment(ctx context.Context, id string) (agenda.Appointment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id)
	appt, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return agenda.Appointment{}, persistence.ErrNotFound
	}
	return appt, err
}

// ListAppointments returns records matching the filter, ordered by date and
// start time.
func (s *Storage) ListAppointments(ctx context.Context, filter persistence.AppointmentFilter) ([]agenda.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	var conditions []string
	var args []any

	if filter.BrokerID != "" {
		conditions = append(conditions, "broker_id = ?")
		args = append(args, filter.BrokerID)
	}
	if filter.Date != "" {
		conditions = append(conditions, "date = ?")
		args = append(args, filter.Date)
	}
	if filter.DateFrom != "" {
		conditions = append(conditions, "date >= ?")
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		conditions = append(conditions, "date <= ?")
		args = append(args, filter.DateTo)
	}
	if filter.GroupID != "" {
		conditions = append(conditions, "group_id = ?")
		args = append(args, filter.GroupID)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date, start_time, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list appointments: %w", err)
	}
	defer rows.Close()

	var appts []agenda.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}

// DeleteAppointment removes one record.
func (s *Storage) DeleteAppointment(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete appointment %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// DeleteAppointmentsByGroup removes a whole series in one transaction and
// returns the removed ids.
func (s *Storage) DeleteAppointmentsByGroup(ctx context.Context, groupID string) ([]string, error) {
	if groupID == "" {
		return nil, persistence.ErrNotFound
	}

	var ids []string
	err := s.withTransaction(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT id FROM appointments WHERE group_id = ?`, groupID)
		if err != nil {
			return fmt.Errorf("sqlite: list group %s: %w", groupID, err)
		}
		defer rows.Close()
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		if len(ids) == 0 {
			return persistence.ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM appointments WHERE group_id = ?`, groupID); err != nil {
			return fmt.Errorf("sqlite: delete group %s: %w", groupID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (agenda.Appointment, error) {
	var appt agenda.Appointment
	var isEvent int
	var properties, clients, shared, history string

	err := row.Scan(
		&appt.ID, &appt.Date, &appt.StartTime, &appt.EndTime, &isEvent, &appt.BrokerID,
		&appt.Reference, &appt.PropertyAddress, &properties, &clients, &shared,
		&appt.Status, &appt.StatusObservation, &appt.EventComment,
		&appt.CreatedBy, &appt.CreatedByName, &appt.CreatedAt, &appt.UpdatedAt, &appt.UpdatedBy,
		&appt.GroupID, &history,
	)
	if err != nil {
		return agenda.Appointment{}, err
	}
	appt.IsEvent = isEvent != 0

	if err := json.Unmarshal([]byte(properties), &appt.Properties); err != nil {
		return agenda.Appointment{}, fmt.Errorf("sqlite: decode properties of %s: %w", appt.ID, err)
	}
	if err := json.Unmarshal([]byte(clients), &appt.Clients); err != nil {
		return agenda.Appointment{}, fmt.Errorf("sqlite: decode clients of %s: %w", appt.ID, err)
	}
	if err := json.Unmarshal([]byte(shared), &appt.SharedWith); err != nil {
		return agenda.Appointment{}, fmt.Errorf("sqlite: decode shared_with of %s: %w", appt.ID, err)
	}
	if err := json.Unmarshal([]byte(history), &appt.History); err != nil {
		return agenda.Appointment{}, fmt.Errorf("sqlite: decode history of %s: %w", appt.ID, err)
	}
	return appt, nil
}

func encodeDocumentColumns(appt agenda.Appointment) (properties, clients, shared, history string, err error) {
	properties, err = encodeJSONList(appt.Properties)
	if err != nil {
		return
	}
	clients, err = encodeJSONList(appt.Clients)
	if err != nil {
		return
	}
	shared, err = encodeJSONList(appt.SharedWith)
	if err != nil {
		return
	}
	history, err = encodeJSONList(appt.History)
	return
}

// encodeJSONList marshals a slice, normalizing nil to an empty JSON array so
// reloaded records round-trip without null entries.
func encodeJSONList[T any](values []T) (string, error) {
	if values == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
