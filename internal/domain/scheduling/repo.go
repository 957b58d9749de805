package scheduling

import (
	"context"

	"github.com/google/uuid"
)

type ScheduleRepository interface {
	Create(ctx context.Context, s *WeeklySchedule) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*WeeklySchedule, error)
}

type ExceptionRepository interface {
	Create(ctx context.Context, e *Exception) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Exception, error)
	ListByDoctorDate(ctx context.Context, doctorID uuid.UUID, date string) ([]*Exception, error)
}

type DurationRepository interface {
	Create(ctx context.Context, d *VisitDuration) error
	Update(ctx context.Context, d *VisitDuration) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*VisitDuration, error)
	// GetBySpecialty returns nil (no error) when the specialty has no row.
	GetBySpecialty(ctx context.Context, specialtyID uuid.UUID) (*VisitDuration, error)
}

// AppointmentFilter narrows admin listings. Zero values mean "no filter".
type AppointmentFilter struct {
	DoctorID uuid.UUID
	Date     string
	Status   Status
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f AppointmentFilter, limit, offset int) ([]*Appointment, int, error)
	// ListBlockingByDoctorDate returns the doctor's appointments on a date in
	// a status that occupies its slot.
	ListBlockingByDoctorDate(ctx context.Context, doctorID uuid.UUID, date string) ([]*Appointment, error)
}
