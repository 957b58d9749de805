package staff

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinisalud/api/internal/platform/db"
)

// =========== Doctor Repository ===========

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository { return &doctorRepoPG{pool: pool} }

func (r *doctorRepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const doctorCols = `id, full_name, email, phone, bio, photo_id, is_active, created_at, updated_at`

func (r *doctorRepoPG) scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.FullName, &d.Email, &d.Phone, &d.Bio, &d.PhotoID,
		&d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor (id, full_name, email, phone, bio, photo_id, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		d.ID, d.FullName, d.Email, d.Phone, d.Bio, d.PhotoID, d.IsActive)
	if err != nil {
		return err
	}
	if len(d.Specialties) > 0 {
		return r.SetSpecialties(ctx, d.ID, d.Specialties)
	}
	return nil
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := r.scanDoctor(r.conn(ctx).QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctor WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT specialty_id FROM doctor_specialty WHERE doctor_id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var sid uuid.UUID
		if err := rows.Scan(&sid); err != nil {
			return nil, err
		}
		d.Specialties = append(d.Specialties, sid)
	}
	return d, rows.Err()
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctor SET full_name=$2, email=$3, phone=$4, bio=$5, photo_id=$6,
			is_active=$7, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.FullName, d.Email, d.Phone, d.Bio, d.PhotoID, d.IsActive)
	return err
}

func (r *doctorRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	// Schedules, exceptions, and the specialty links cascade via FK.
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctor WHERE id = $1`, id)
	return err
}

func (r *doctorRepoPG) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Doctor, int, error) {
	where := ``
	if activeOnly {
		where = ` WHERE is_active`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM doctor`+where).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+doctorCols+` FROM doctor`+where+` ORDER BY full_name LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Doctor
	for rows.Next() {
		d, err := r.scanDoctor(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, d)
	}
	return items, total, rows.Err()
}

func (r *doctorRepoPG) SetSpecialties(ctx context.Context, doctorID uuid.UUID, specialtyIDs []uuid.UUID) error {
	conn := r.conn(ctx)
	if _, err := conn.Exec(ctx, `DELETE FROM doctor_specialty WHERE doctor_id = $1`, doctorID); err != nil {
		return err
	}
	for _, sid := range specialtyIDs {
		if _, err := conn.Exec(ctx,
			`INSERT INTO doctor_specialty (doctor_id, specialty_id) VALUES ($1, $2)`,
			doctorID, sid); err != nil {
			return err
		}
	}
	return nil
}

// =========== Specialty Repository ===========

type specialtyRepoPG struct{ pool *pgxpool.Pool }

func NewSpecialtyRepoPG(pool *pgxpool.Pool) SpecialtyRepository { return &specialtyRepoPG{pool: pool} }

func (r *specialtyRepoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const specialtyCols = `id, name, description, created_at, updated_at`

func (r *specialtyRepoPG) scanSpecialty(row pgx.Row) (*Specialty, error) {
	var s Specialty
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *specialtyRepoPG) Create(ctx context.Context, s *Specialty) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO specialty (id, name, description) VALUES ($1,$2,$3)`,
		s.ID, s.Name, s.Description)
	return err
}

func (r *specialtyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Specialty, error) {
	return r.scanSpecialty(r.conn(ctx).QueryRow(ctx,
		`SELECT `+specialtyCols+` FROM specialty WHERE id = $1`, id))
}

func (r *specialtyRepoPG) Update(ctx context.Context, s *Specialty) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE specialty SET name=$2, description=$3, updated_at=NOW() WHERE id = $1`,
		s.ID, s.Name, s.Description)
	return err
}

func (r *specialtyRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM specialty WHERE id = $1`, id)
	return err
}

func (r *specialtyRepoPG) List(ctx context.Context, limit, offset int) ([]*Specialty, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM specialty`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+specialtyCols+` FROM specialty ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Specialty
	for rows.Next() {
		s, err := r.scanSpecialty(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}
