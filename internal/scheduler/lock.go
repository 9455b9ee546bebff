package scheduler

import "time"

// Locked reports whether the appointment's edit deadline has passed: the
// lock triggers once now reaches the scheduled start instant. The predicate
// is role-agnostic; super-admin exemption is the caller's responsibility.
func Locked(date, startTime string, now time.Time, loc *time.Location) bool {
	if date == "" || startTime == "" {
		return false
	}
	start, err := CombineDateTime(date, startTime, loc)
	if err != nil {
		return false
	}
	return !now.In(loc).Before(start)
}

// LockMessage explains a lock to the user, distinguishing a date already in
// the past from a visit that started earlier today.
func LockMessage(date string, now time.Time, loc *time.Location) string {
	day, err := ParseDate(date, loc)
	if err != nil {
		return "Edição bloqueada."
	}
	nowLocal := now.In(loc)
	today := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, loc)
	if day.Before(today) {
		return "Prazo encerrado. Edição bloqueada."
	}
	return "Horário da visita iniciado. Edição bloqueada."
}
