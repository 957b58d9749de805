package testimonial

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinisalud/api/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const cols = `id, author_name, content, rating, is_approved, created_at, updated_at`

func scan(row pgx.Row) (*Testimonial, error) {
	var t Testimonial
	err := row.Scan(&t.ID, &t.AuthorName, &t.Content, &t.Rating, &t.IsApproved,
		&t.CreatedAt, &t.UpdatedAt)
	return &t, err
}

func (r *repoPG) Create(ctx context.Context, t *Testimonial) error {
	t.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO testimonial (id, author_name, content, rating, is_approved)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at`,
		t.ID, t.AuthorName, t.Content, t.Rating, t.IsApproved).
		Scan(&t.CreatedAt, &t.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Testimonial, error) {
	return scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM testimonial WHERE id = $1`, id))
}

func (r *repoPG) SetApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE testimonial SET is_approved=$2, updated_at=NOW() WHERE id = $1`, id, approved)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM testimonial WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, approvedOnly bool, limit, offset int) ([]*Testimonial, int, error) {
	where := ``
	if approvedOnly {
		where = ` WHERE is_approved`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM testimonial`+where).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM testimonial`+where+` ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Testimonial
	for rows.Next() {
		t, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}
