package scheduling

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinisalud/api/internal/platform/cache"
)

type mockScheduleRepo struct {
	rows map[uuid.UUID]*WeeklySchedule
}

func (m *mockScheduleRepo) Create(_ context.Context, s *WeeklySchedule) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	m.rows[s.ID] = s
	return nil
}

func (m *mockScheduleRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.rows, id)
	return nil
}

func (m *mockScheduleRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*WeeklySchedule, error) {
	var out []*WeeklySchedule
	for _, s := range m.rows {
		if s.DoctorID == doctorID {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockExceptionRepo struct {
	rows map[uuid.UUID]*Exception
}

func (m *mockExceptionRepo) Create(_ context.Context, e *Exception) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	m.rows[e.ID] = e
	return nil
}

func (m *mockExceptionRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.rows, id)
	return nil
}

func (m *mockExceptionRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*Exception, error) {
	var out []*Exception
	for _, e := range m.rows {
		if e.DoctorID == doctorID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockExceptionRepo) ListByDoctorDate(_ context.Context, doctorID uuid.UUID, date string) ([]*Exception, error) {
	var out []*Exception
	for _, e := range m.rows {
		if e.DoctorID == doctorID && e.Date == date {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockDurationRepo struct {
	rows map[uuid.UUID]*VisitDuration
}

func (m *mockDurationRepo) Create(_ context.Context, d *VisitDuration) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	m.rows[d.ID] = d
	return nil
}

func (m *mockDurationRepo) Update(_ context.Context, d *VisitDuration) error {
	m.rows[d.ID] = d
	return nil
}

func (m *mockDurationRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.rows, id)
	return nil
}

func (m *mockDurationRepo) List(_ context.Context) ([]*VisitDuration, error) {
	var out []*VisitDuration
	for _, d := range m.rows {
		out = append(out, d)
	}
	return out, nil
}

func (m *mockDurationRepo) GetBySpecialty(_ context.Context, specialtyID uuid.UUID) (*VisitDuration, error) {
	for _, d := range m.rows {
		if d.SpecialtyID == specialtyID {
			return d, nil
		}
	}
	return nil, nil
}

type mockAppointmentRepo struct {
	rows map[uuid.UUID]*Appointment
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.rows[a.ID] = a
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("appointment %s not found", id)
	}
	return a, nil
}

func (m *mockAppointmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status Status) error {
	a, ok := m.rows[id]
	if !ok {
		return fmt.Errorf("appointment %s not found", id)
	}
	a.Status = status
	return nil
}

func (m *mockAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.rows, id)
	return nil
}

func (m *mockAppointmentRepo) List(_ context.Context, f AppointmentFilter, limit, offset int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.rows {
		if f.DoctorID != uuid.Nil && a.DoctorID != f.DoctorID {
			continue
		}
		if f.Date != "" && a.Date != f.Date {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, a)
	}
	return out, len(out), nil
}

func (m *mockAppointmentRepo) ListBlockingByDoctorDate(_ context.Context, doctorID uuid.UUID, date string) ([]*Appointment, error) {
	var out []*Appointment
	for _, a := range m.rows {
		if a.DoctorID == doctorID && a.Date == date && a.Status.Blocks() {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeDoctors struct {
	active map[uuid.UUID]bool
}

func (f *fakeDoctors) IsDoctorActive(_ context.Context, id uuid.UUID) bool {
	return f.active[id]
}

type fixture struct {
	svc          *Service
	schedules    *mockScheduleRepo
	exceptions   *mockExceptionRepo
	durations    *mockDurationRepo
	appointments *mockAppointmentRepo
	doctors      *fakeDoctors
	doctorID     uuid.UUID
}

// testNow is a Tuesday morning; testMonday is the following Monday.
var (
	testNow    = time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	testMonday = "2026-09-07"
)

func newFixture() *fixture {
	f := &fixture{
		schedules:    &mockScheduleRepo{rows: map[uuid.UUID]*WeeklySchedule{}},
		exceptions:   &mockExceptionRepo{rows: map[uuid.UUID]*Exception{}},
		durations:    &mockDurationRepo{rows: map[uuid.UUID]*VisitDuration{}},
		appointments: &mockAppointmentRepo{rows: map[uuid.UUID]*Appointment{}},
		doctors:      &fakeDoctors{active: map[uuid.UUID]bool{}},
		doctorID:     uuid.New(),
	}
	f.doctors.active[f.doctorID] = true
	f.svc = NewService(nil, f.schedules, f.exceptions, f.durations, f.appointments,
		f.doctors, cache.NewMemory(), 30, time.Minute)
	f.svc.now = func() time.Time { return testNow }
	return f
}

func (f *fixture) addMondayMorning(t *testing.T) {
	t.Helper()
	err := f.svc.CreateSchedule(context.Background(), &WeeklySchedule{
		DoctorID:  f.doctorID,
		DayOfWeek: 1,
		StartTime: "09:00",
		EndTime:   "12:00",
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}
}

func TestComputeAvailableSlots(t *testing.T) {
	f := newFixture()
	f.addMondayMorning(t)

	got, err := f.svc.ComputeAvailableSlots(context.Background(), f.doctorID, testMonday, nil)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	want := []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestComputeUsesSpecialtyDuration(t *testing.T) {
	f := newFixture()
	f.addMondayMorning(t)

	spID := uuid.New()
	if err := f.svc.CreateDuration(context.Background(), &VisitDuration{
		SpecialtyID: spID,
		Minutes:     60,
	}); err != nil {
		t.Fatalf("create duration: %v", err)
	}

	got, err := f.svc.ComputeAvailableSlots(context.Background(), f.doctorID, testMonday, &spID)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	want := []string{"09:00", "10:00", "11:00"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestUnknownSpecialtyFallsBackToDefault(t *testing.T) {
	f := newFixture()
	f.addMondayMorning(t)

	spID := uuid.New() // no duration row
	got, err := f.svc.ComputeAvailableSlots(context.Background(), f.doctorID, testMonday, &spID)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(got) != 6 {
		t.Fatalf("expected 6 default-length slots, got %v", got)
	}
}

func TestInactiveDoctorYieldsEmptyList(t *testing.T) {
	f := newFixture()
	f.addMondayMorning(t)
	f.doctors.active[f.doctorID] = false

	got, err := f.svc.ComputeAvailableSlots(context.Background(), f.doctorID, testMonday, nil)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty list for inactive doctor, got %v", got)
	}

	unknown := uuid.New()
	got, err = f.svc.ComputeAvailableSlots(context.Background(), unknown, testMonday, nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty list for unknown doctor, got %v (%v)", got, err)
	}
}

func TestComputeRejectsBadDates(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.ComputeAvailableSlots(context.Background(), f.doctorID, "07/09/2026", nil); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate for malformed date, got %v", err)
	}
	if _, err := f.svc.ComputeAvailableSlots(context.Background(), f.doctorID, "2026-08-24", nil); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate for past date, got %v", err)
	}
}

func TestSameDayExcludesElapsedSlots(t *testing.T) {
	f := newFixture()
	f.addMondayMorning(t)
	f.svc.now = func() time.Time {
		return time.Date(2026, 9, 7, 10, 15, 0, 0, time.UTC)
	}

	got, err := f.svc.ComputeAvailableSlots(context.Background(), f.doctorID, testMonday, nil)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	want := []string{"10:30", "11:00", "11:30"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestAvailabilityIsCachedUntilInvalidated(t *testing.T) {
	f := newFixture()
	f.addMondayMorning(t)

	first, err := f.svc.ComputeAvailableSlots(context.Background(), f.doctorID, testMonday, nil)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	// A write that bypasses the service does not evict, so the stale entry
	// keeps serving.
	f.appointments.rows[uuid.New()] = &Appointment{
		DoctorID: f.doctorID, Date: testMonday, Time: "09:00", Status: StatusConfirmed,
	}
	cached, err := f.svc.ComputeAvailableSlots(context.Background(), f.doctorID, testMonday, nil)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !reflect.DeepEqual(first, cached) {
		t.Fatalf("expected cached result %v, got %v", first, cached)
	}

	// A schedule write for the doctor evicts and recomputes.
	f.addMondayMorning(t)
	fresh, err := f.svc.ComputeAvailableSlots(context.Background(), f.doctorID, testMonday, nil)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if contains(fresh, "09:00") {
		t.Fatalf("expected 09:00 to be gone after recompute, got %v", fresh)
	}
}

func TestBookAppointmentHappyPath(t *testing.T) {
	f := newFixture()
	f.addMondayMorning(t)

	a := &Appointment{
		DoctorID:    f.doctorID,
		PatientName: "Ana Torres",
		Date:        testMonday,
		Time:        "10:00",
	}
	if err := f.svc.BookAppointment(context.Background(), a); err != nil {
		t.Fatalf("book: %v", err)
	}
	if a.Status != StatusPending {
		t.Fatalf("expected default status pendiente, got %s", a.Status)
	}

	got, err := f.svc.ComputeAvailableSlots(context.Background(), f.doctorID, testMonday, nil)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if contains(got, "10:00") {
		t.Fatalf("booked slot still offered: %v", got)
	}
}

func TestBookAppointmentConflict(t *testing.T) {
	f := newFixture()
	f.addMondayMorning(t)

	first := &Appointment{DoctorID: f.doctorID, PatientName: "Ana", Date: testMonday, Time: "10:00"}
	if err := f.svc.BookAppointment(context.Background(), first); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	second := &Appointment{DoctorID: f.doctorID, PatientName: "Luis", Date: testMonday, Time: "10:00"}
	err := f.svc.BookAppointment(context.Background(), second)
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
}

func TestBookAppointmentRejectsOffScheduleTime(t *testing.T) {
	f := newFixture()
	f.addMondayMorning(t)

	a := &Appointment{DoctorID: f.doctorID, PatientName: "Ana", Date: testMonday, Time: "13:00"}
	if err := f.svc.BookAppointment(context.Background(), a); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken for off-schedule time, got %v", err)
	}
}

func TestCancellationFreesSlot(t *testing.T) {
	f := newFixture()
	f.addMondayMorning(t)

	a := &Appointment{DoctorID: f.doctorID, PatientName: "Ana", Date: testMonday, Time: "10:00"}
	if err := f.svc.BookAppointment(context.Background(), a); err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := f.svc.UpdateAppointmentStatus(context.Background(), a.ID, StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	got, err := f.svc.ComputeAvailableSlots(context.Background(), f.doctorID, testMonday, nil)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !contains(got, "10:00") {
		t.Fatalf("cancelled slot should be offered again, got %v", got)
	}

	rebooked := &Appointment{DoctorID: f.doctorID, PatientName: "Luis", Date: testMonday, Time: "10:00"}
	if err := f.svc.BookAppointment(context.Background(), rebooked); err != nil {
		t.Fatalf("rebooking a cancelled slot: %v", err)
	}
}

func TestNoShowDoesNotBlock(t *testing.T) {
	f := newFixture()
	f.addMondayMorning(t)

	f.appointments.rows[uuid.New()] = &Appointment{
		DoctorID: f.doctorID, Date: testMonday, Time: "09:00", Status: StatusNoShow,
	}
	got, err := f.svc.ComputeAvailableSlots(context.Background(), f.doctorID, testMonday, nil)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !contains(got, "09:00") {
		t.Fatalf("no-show appointment should not block, got %v", got)
	}
}

func TestUpdateAppointmentStatusValidation(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.UpdateAppointmentStatus(context.Background(), uuid.New(), "confirmed"); err == nil {
		t.Fatal("expected error for English status token")
	}
}

func TestCreateScheduleValidation(t *testing.T) {
	f := newFixture()

	cases := []*WeeklySchedule{
		{DoctorID: f.doctorID, DayOfWeek: 7, StartTime: "09:00", EndTime: "12:00"},
		{DoctorID: f.doctorID, DayOfWeek: 1, StartTime: "12:00", EndTime: "09:00"},
		{DoctorID: f.doctorID, DayOfWeek: 1, StartTime: "nine", EndTime: "12:00"},
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"},
	}
	for i, sc := range cases {
		if err := f.svc.CreateSchedule(context.Background(), sc); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestCreateExceptionValidation(t *testing.T) {
	f := newFixture()

	cases := []*Exception{
		{DoctorID: f.doctorID, Date: "not-a-date", IsAvailable: false},
		{DoctorID: f.doctorID, Date: testMonday, IsAvailable: false, StartTime: strptr("10:00")},
		{DoctorID: f.doctorID, Date: testMonday, IsAvailable: true},
		{DoctorID: f.doctorID, Date: testMonday, IsAvailable: true, StartTime: strptr("12:00"), EndTime: strptr("10:00")},
	}
	for i, e := range cases {
		if err := f.svc.CreateException(context.Background(), e); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}

	ok := &Exception{DoctorID: f.doctorID, Date: testMonday, IsAvailable: false, Reason: strptr("congreso")}
	if err := f.svc.CreateException(context.Background(), ok); err != nil {
		t.Fatalf("full-day block should validate: %v", err)
	}
}
