package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinisalud/api/internal/platform/cache"
	"github.com/clinisalud/api/internal/platform/db"
)

// ErrSlotTaken is returned when a booking targets a slot that another
// appointment claimed first. Handlers map it to 409 so the client can refetch
// slots and prompt the user to pick again.
var ErrSlotTaken = errors.New("slot is no longer available")

// ErrInvalidDate marks date inputs the caller can correct. Handlers map it to
// 400; anything else coming out of the slot computation is a server fault.
var ErrInvalidDate = errors.New("invalid date")

// DoctorChecker is the piece of the staff service the engine needs.
type DoctorChecker interface {
	IsDoctorActive(ctx context.Context, id uuid.UUID) bool
}

type Service struct {
	pool         *pgxpool.Pool
	schedules    ScheduleRepository
	exceptions   ExceptionRepository
	durations    DurationRepository
	appointments AppointmentRepository
	doctors      DoctorChecker
	cache        cache.Store

	defaultMinutes int
	cacheTTL       time.Duration
	now            func() time.Time
}

func NewService(
	pool *pgxpool.Pool,
	schedules ScheduleRepository,
	exceptions ExceptionRepository,
	durations DurationRepository,
	appointments AppointmentRepository,
	doctors DoctorChecker,
	store cache.Store,
	defaultMinutes int,
	cacheTTL time.Duration,
) *Service {
	return &Service{
		pool:           pool,
		schedules:      schedules,
		exceptions:     exceptions,
		durations:      durations,
		appointments:   appointments,
		doctors:        doctors,
		cache:          store,
		defaultMinutes: defaultMinutes,
		cacheTTL:       cacheTTL,
		now:            time.Now,
	}
}

// =========== Availability ===========

// ComputeAvailableSlots returns the bookable "HH:MM" start times for a doctor
// on a date. An inactive or unknown doctor yields an empty list, not an error.
func (s *Service) ComputeAvailableSlots(ctx context.Context, doctorID uuid.UUID, date string, specialtyID *uuid.UUID) ([]string, error) {
	day, err := ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	today := s.today()
	if day.Before(today) {
		return nil, fmt.Errorf("%w: %s is in the past", ErrInvalidDate, date)
	}

	if !s.doctors.IsDoctorActive(ctx, doctorID) {
		return []string{}, nil
	}

	key := cache.AvailabilityKey(doctorID.String(), date, specialtyKey(specialtyID))
	if raw, ok := s.cache.Get(ctx, key); ok {
		var cached []string
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}

	slots, err := s.computeSlots(ctx, doctorID, day, date, specialtyID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(slots); err == nil {
		s.cache.Set(ctx, key, raw, s.cacheTTL)
	}
	return slots, nil
}

// computeSlots assembles the engine input from the store and runs the pure
// computation. It reads through whatever connection the context carries, so
// the booking transaction can reuse it for its re-check.
func (s *Service) computeSlots(ctx context.Context, doctorID uuid.UUID, day time.Time, date string, specialtyID *uuid.UUID) ([]string, error) {
	all, err := s.schedules.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	weekday := int(day.Weekday())
	var daySchedules []*WeeklySchedule
	for _, row := range all {
		if row.IsActive && row.DayOfWeek == weekday {
			daySchedules = append(daySchedules, row)
		}
	}

	dayExceptions, err := s.exceptions.ListByDoctorDate(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	slotMinutes, err := s.durationFor(ctx, specialtyID)
	if err != nil {
		return nil, err
	}

	existing, err := s.appointments.ListBlockingByDoctorDate(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	booked := make([]BookedSlot, 0, len(existing))
	for _, a := range existing {
		start, err := ParseClock(a.Time)
		if err != nil {
			return nil, err
		}
		minutes, err := s.durationFor(ctx, a.SpecialtyID)
		if err != nil {
			return nil, err
		}
		booked = append(booked, BookedSlot{StartMin: start, Minutes: minutes})
	}

	nowMin := -1
	if day.Equal(s.today()) {
		now := s.now()
		nowMin = now.Hour()*60 + now.Minute()
	}

	return AvailableSlots(EngineInput{
		Schedules:   daySchedules,
		Exceptions:  dayExceptions,
		Booked:      booked,
		SlotMinutes: slotMinutes,
		NowMin:      nowMin,
	})
}

// durationFor resolves the visit length for a specialty. Missing specialty or
// missing duration row both fall back to the configured default.
func (s *Service) durationFor(ctx context.Context, specialtyID *uuid.UUID) (int, error) {
	if specialtyID == nil {
		return s.defaultMinutes, nil
	}
	d, err := s.durations.GetBySpecialty(ctx, *specialtyID)
	if err != nil {
		return 0, err
	}
	if d == nil || d.Minutes <= 0 {
		return s.defaultMinutes, nil
	}
	return d.Minutes, nil
}

func (s *Service) today() time.Time {
	n := s.now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

func specialtyKey(id *uuid.UUID) string {
	if id == nil {
		return "default"
	}
	return id.String()
}

// =========== Appointments ===========

// BookAppointment creates an appointment after re-validating the slot inside a
// transaction. Two patients racing for the same slot are serialized by the
// re-check plus the partial unique index on (doctor_id, appt_date, start_time).
func (s *Service) BookAppointment(ctx context.Context, a *Appointment) error {
	if a.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if a.PatientName == "" {
		return fmt.Errorf("patient_name is required")
	}
	if _, err := ParseClock(a.Time); err != nil {
		return err
	}
	if a.Status == "" {
		a.Status = StatusPending
	}
	if !a.Status.Valid() {
		return fmt.Errorf("invalid status %q", a.Status)
	}

	err := s.inTx(ctx, func(txCtx context.Context) error {
		slots, err := s.recheckSlots(txCtx, a)
		if err != nil {
			return err
		}
		if !contains(slots, a.Time) {
			return ErrSlotTaken
		}
		return s.appointments.Create(txCtx, a)
	})
	if db.IsUniqueViolation(err) {
		return ErrSlotTaken
	}
	if err != nil {
		return err
	}

	s.cache.DeleteByPrefix(ctx, cache.DoctorPrefix(a.DoctorID.String()))
	return nil
}

// inTx wraps fn in a database transaction. A nil pool runs fn directly, which
// repositories without transaction support (in-memory ones) rely on.
func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.pool == nil {
		return fn(ctx)
	}
	return db.WithTx(ctx, s.pool, fn)
}

// recheckSlots recomputes availability straight from the store (the cache is
// skipped: the whole point is that a cached list may be stale).
func (s *Service) recheckSlots(ctx context.Context, a *Appointment) ([]string, error) {
	day, err := ParseDate(a.Date)
	if err != nil {
		return nil, err
	}
	if day.Before(s.today()) {
		return nil, fmt.Errorf("date %s is in the past", a.Date)
	}
	if !s.doctors.IsDoctorActive(ctx, a.DoctorID) {
		return nil, fmt.Errorf("doctor is not available for booking")
	}
	return s.computeSlots(ctx, a.DoctorID, day, a.Date, a.SpecialtyID)
}

func contains(slots []string, t string) bool {
	for _, s := range slots {
		if s == t {
			return true
		}
	}
	return false
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

func (s *Service) ListAppointments(ctx context.Context, f AppointmentFilter, limit, offset int) ([]*Appointment, int, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, fmt.Errorf("invalid status %q", f.Status)
	}
	return s.appointments.List(ctx, f, limit, offset)
}

// UpdateAppointmentStatus transitions an appointment. Moving to a
// non-blocking status frees the slot, so the doctor's availability entries
// are evicted either way.
func (s *Service) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid status %q", status)
	}
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.appointments.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	a.Status = status
	s.cache.DeleteByPrefix(ctx, cache.DoctorPrefix(a.DoctorID.String()))
	return a, nil
}

func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.appointments.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.DeleteByPrefix(ctx, cache.DoctorPrefix(a.DoctorID.String()))
	return nil
}

// =========== Schedules ===========

func (s *Service) CreateSchedule(ctx context.Context, sc *WeeklySchedule) error {
	if sc.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if sc.DayOfWeek < 0 || sc.DayOfWeek > 6 {
		return fmt.Errorf("day_of_week must be 0..6")
	}
	start, err := ParseClock(sc.StartTime)
	if err != nil {
		return err
	}
	end, err := ParseClock(sc.EndTime)
	if err != nil {
		return err
	}
	if start >= end {
		return fmt.Errorf("start_time must be before end_time")
	}
	if err := s.schedules.Create(ctx, sc); err != nil {
		return err
	}
	s.cache.DeleteByPrefix(ctx, cache.DoctorPrefix(sc.DoctorID.String()))
	return nil
}

func (s *Service) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	if err := s.schedules.Delete(ctx, id); err != nil {
		return err
	}
	// The row is gone before we know its doctor, so evict every availability
	// entry rather than one doctor's.
	s.cache.DeleteByPrefix(ctx, "avail:")
	return nil
}

func (s *Service) ListSchedules(ctx context.Context, doctorID uuid.UUID) ([]*WeeklySchedule, error) {
	return s.schedules.ListByDoctor(ctx, doctorID)
}

// =========== Exceptions ===========

func (s *Service) CreateException(ctx context.Context, e *Exception) error {
	if e.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if _, err := ParseDate(e.Date); err != nil {
		return err
	}
	if (e.StartTime == nil) != (e.EndTime == nil) {
		return fmt.Errorf("start_time and end_time must be given together")
	}
	if e.IsAvailable && e.StartTime == nil {
		return fmt.Errorf("an availability exception needs a time range")
	}
	if e.StartTime != nil {
		start, err := ParseClock(*e.StartTime)
		if err != nil {
			return err
		}
		end, err := ParseClock(*e.EndTime)
		if err != nil {
			return err
		}
		if start >= end {
			return fmt.Errorf("start_time must be before end_time")
		}
	}
	if err := s.exceptions.Create(ctx, e); err != nil {
		return err
	}
	s.cache.DeleteByPrefix(ctx, cache.DoctorPrefix(e.DoctorID.String()))
	return nil
}

func (s *Service) DeleteException(ctx context.Context, id uuid.UUID) error {
	if err := s.exceptions.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.DeleteByPrefix(ctx, "avail:")
	return nil
}

func (s *Service) ListExceptions(ctx context.Context, doctorID uuid.UUID) ([]*Exception, error) {
	return s.exceptions.ListByDoctor(ctx, doctorID)
}

// =========== Visit Durations ===========

func (s *Service) CreateDuration(ctx context.Context, d *VisitDuration) error {
	if d.SpecialtyID == uuid.Nil {
		return fmt.Errorf("specialty_id is required")
	}
	if d.Minutes <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	if err := s.durations.Create(ctx, d); err != nil {
		return err
	}
	// Durations are specialty-keyed and cut across doctors.
	s.cache.DeleteByPrefix(ctx, "avail:")
	return nil
}

func (s *Service) UpdateDuration(ctx context.Context, d *VisitDuration) error {
	if d.Minutes <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	if err := s.durations.Update(ctx, d); err != nil {
		return err
	}
	s.cache.DeleteByPrefix(ctx, "avail:")
	return nil
}

func (s *Service) DeleteDuration(ctx context.Context, id uuid.UUID) error {
	if err := s.durations.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.DeleteByPrefix(ctx, "avail:")
	return nil
}

func (s *Service) ListDurations(ctx context.Context) ([]*VisitDuration, error) {
	return s.durations.List(ctx)
}
