package scheduling

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the closed set of appointment states. Tokens are Spanish, matching
// what the booking site and the admin panel display.
type Status string

const (
	StatusPending   Status = "pendiente"
	StatusConfirmed Status = "confirmada"
	StatusCompleted Status = "completada"
	StatusCancelled Status = "cancelada"
	StatusNoShow    Status = "no-asistio"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Blocks reports whether an appointment in this status occupies its slot.
// Cancelled and no-show appointments free the slot for rebooking.
func (s Status) Blocks() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted:
		return true
	case StatusCancelled, StatusNoShow:
		return false
	}
	return false
}

// WeeklySchedule is a recurring availability window. Multiple rows per doctor
// per day are allowed, e.g. a morning and an afternoon block.
type WeeklySchedule struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	DayOfWeek int       `db:"day_of_week" json:"day_of_week"` // 0=Sunday..6=Saturday
	StartTime string    `db:"start_time" json:"start_time"`   // HH:MM
	EndTime   string    `db:"end_time" json:"end_time"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Exception overrides the weekly schedule for one calendar date. A blocking
// exception with no time range clears the whole day; with a range it removes
// that sub-range. An available exception adds an extra window, even on days
// with no base schedule.
type Exception struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Date        string    `db:"exception_date" json:"date"` // YYYY-MM-DD
	StartTime   *string   `db:"start_time" json:"start_time,omitempty"`
	EndTime     *string   `db:"end_time" json:"end_time,omitempty"`
	Reason      *string   `db:"reason" json:"reason,omitempty"`
	IsAvailable bool      `db:"is_available" json:"is_available"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// VisitDuration sets the consultation length for a specialty. Specialties
// without a row fall back to the configured default.
type VisitDuration struct {
	ID          uuid.UUID `db:"id" json:"id"`
	SpecialtyID uuid.UUID `db:"specialty_id" json:"specialty_id"`
	Minutes     int       `db:"minutes" json:"duration"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Appointment occupies [Time, Time+duration) for its doctor on its date.
type Appointment struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	DoctorID    uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	SpecialtyID *uuid.UUID `db:"specialty_id" json:"specialty_id,omitempty"`
	PatientName string     `db:"patient_name" json:"patient_name"`
	Email       *string    `db:"email" json:"email,omitempty"`
	Phone       *string    `db:"phone" json:"phone,omitempty"`
	Date        string     `db:"appt_date" json:"date"` // YYYY-MM-DD
	Time        string     `db:"start_time" json:"time"`
	Status      Status     `db:"status" json:"status"`
	Notes       *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// ParseDate validates a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseClock converts "HH:MM" to minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}
