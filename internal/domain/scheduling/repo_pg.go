package scheduling

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinisalud/api/internal/platform/db"
)

// Dates travel as YYYY-MM-DD strings end to end, so the queries cast on insert
// and format on select instead of round-tripping through time.Time.

// =========== Schedule Repository ===========

type scheduleRepoPG struct{ pool *pgxpool.Pool }

func NewScheduleRepoPG(pool *pgxpool.Pool) ScheduleRepository { return &scheduleRepoPG{pool: pool} }

func (r *scheduleRepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *scheduleRepoPG) Create(ctx context.Context, s *WeeklySchedule) error {
	s.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO weekly_schedule (id, doctor_id, day_of_week, start_time, end_time, is_active)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at`,
		s.ID, s.DoctorID, s.DayOfWeek, s.StartTime, s.EndTime, s.IsActive).Scan(&s.CreatedAt)
}

func (r *scheduleRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM weekly_schedule WHERE id = $1`, id)
	return err
}

func (r *scheduleRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*WeeklySchedule, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, doctor_id, day_of_week, start_time, end_time, is_active, created_at
		FROM weekly_schedule
		WHERE doctor_id = $1
		ORDER BY day_of_week, start_time`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*WeeklySchedule
	for rows.Next() {
		var s WeeklySchedule
		if err := rows.Scan(&s.ID, &s.DoctorID, &s.DayOfWeek, &s.StartTime, &s.EndTime,
			&s.IsActive, &s.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &s)
	}
	return items, rows.Err()
}

// =========== Exception Repository ===========

type exceptionRepoPG struct{ pool *pgxpool.Pool }

func NewExceptionRepoPG(pool *pgxpool.Pool) ExceptionRepository { return &exceptionRepoPG{pool: pool} }

func (r *exceptionRepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const exceptionCols = `id, doctor_id, to_char(exception_date, 'YYYY-MM-DD'),
	start_time, end_time, reason, is_available, created_at`

func scanException(row pgx.Row) (*Exception, error) {
	var e Exception
	err := row.Scan(&e.ID, &e.DoctorID, &e.Date, &e.StartTime, &e.EndTime,
		&e.Reason, &e.IsAvailable, &e.CreatedAt)
	return &e, err
}

func (r *exceptionRepoPG) Create(ctx context.Context, e *Exception) error {
	e.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO schedule_exception (id, doctor_id, exception_date, start_time, end_time, reason, is_available)
		VALUES ($1,$2,$3::date,$4,$5,$6,$7)
		RETURNING created_at`,
		e.ID, e.DoctorID, e.Date, e.StartTime, e.EndTime, e.Reason, e.IsAvailable).Scan(&e.CreatedAt)
}

func (r *exceptionRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM schedule_exception WHERE id = $1`, id)
	return err
}

func (r *exceptionRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Exception, error) {
	return r.list(ctx, `WHERE doctor_id = $1`, doctorID)
}

func (r *exceptionRepoPG) ListByDoctorDate(ctx context.Context, doctorID uuid.UUID, date string) ([]*Exception, error) {
	return r.list(ctx, `WHERE doctor_id = $1 AND exception_date = $2::date`, doctorID, date)
}

func (r *exceptionRepoPG) list(ctx context.Context, where string, args ...any) ([]*Exception, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+exceptionCols+` FROM schedule_exception `+where+` ORDER BY exception_date, start_time`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Exception
	for rows.Next() {
		e, err := scanException(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

// =========== Duration Repository ===========

type durationRepoPG struct{ pool *pgxpool.Pool }

func NewDurationRepoPG(pool *pgxpool.Pool) DurationRepository { return &durationRepoPG{pool: pool} }

func (r *durationRepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const durationCols = `id, specialty_id, minutes, description, created_at`

func (r *durationRepoPG) Create(ctx context.Context, d *VisitDuration) error {
	d.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO visit_duration (id, specialty_id, minutes, description)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at`,
		d.ID, d.SpecialtyID, d.Minutes, d.Description).Scan(&d.CreatedAt)
}

func (r *durationRepoPG) Update(ctx context.Context, d *VisitDuration) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE visit_duration SET specialty_id=$2, minutes=$3, description=$4
		WHERE id = $1`,
		d.ID, d.SpecialtyID, d.Minutes, d.Description)
	return err
}

func (r *durationRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM visit_duration WHERE id = $1`, id)
	return err
}

func (r *durationRepoPG) List(ctx context.Context) ([]*VisitDuration, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+durationCols+` FROM visit_duration ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*VisitDuration
	for rows.Next() {
		var d VisitDuration
		if err := rows.Scan(&d.ID, &d.SpecialtyID, &d.Minutes, &d.Description, &d.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &d)
	}
	return items, rows.Err()
}

func (r *durationRepoPG) GetBySpecialty(ctx context.Context, specialtyID uuid.UUID) (*VisitDuration, error) {
	var d VisitDuration
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+durationCols+` FROM visit_duration WHERE specialty_id = $1`, specialtyID).
		Scan(&d.ID, &d.SpecialtyID, &d.Minutes, &d.Description, &d.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const appointmentCols = `id, doctor_id, specialty_id, patient_name, email, phone,
	to_char(appt_date, 'YYYY-MM-DD'), start_time, status, notes, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.DoctorID, &a.SpecialtyID, &a.PatientName, &a.Email, &a.Phone,
		&a.Date, &a.Time, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment (id, doctor_id, specialty_id, patient_name, email, phone, appt_date, start_time, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7::date,$8,$9,$10)
		RETURNING created_at, updated_at`,
		a.ID, a.DoctorID, a.SpecialtyID, a.PatientName, a.Email, a.Phone,
		a.Date, a.Time, a.Status, a.Notes).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointment WHERE id = $1`, id))
}

func (r *appointmentRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointment SET status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *appointmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointment WHERE id = $1`, id)
	return err
}

func (r *appointmentRepoPG) List(ctx context.Context, f AppointmentFilter, limit, offset int) ([]*Appointment, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	n := 0
	if f.DoctorID != uuid.Nil {
		n++
		where += ` AND doctor_id = $` + itoa(n)
		args = append(args, f.DoctorID)
	}
	if f.Date != "" {
		n++
		where += ` AND appt_date = $` + itoa(n) + `::date`
		args = append(args, f.Date)
	}
	if f.Status != "" {
		n++
		where += ` AND status = $` + itoa(n)
		args = append(args, f.Status)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointment`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+appointmentCols+` FROM appointment`+where+
			` ORDER BY appt_date DESC, start_time LIMIT $`+itoa(n+1)+` OFFSET $`+itoa(n+2),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *appointmentRepoPG) ListBlockingByDoctorDate(ctx context.Context, doctorID uuid.UUID, date string) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+appointmentCols+` FROM appointment
		WHERE doctor_id = $1 AND appt_date = $2::date
			AND status IN ('pendiente','confirmada','completada')
		ORDER BY start_time`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func itoa(n int) string { return strconv.Itoa(n) }
