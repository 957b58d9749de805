package blog

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

const postCols = `id, title, slug, body, excerpt, image_id, is_published, published_at, created_at, updated_at`

func scanPost(row pgx.Row) (*Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Body, &p.Excerpt, &p.ImageID,
		&p.IsPublished, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Post) error {
	p.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO blog_post (id, title, slug, body, excerpt, image_id, is_published, published_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		p.ID, p.Title, p.Slug, p.Body, p.Excerpt, p.ImageID, p.IsPublished, p.PublishedAt).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	return scanPost(r.conn(ctx).QueryRow(ctx,
		`SELECT `+postCols+` FROM blog_post WHERE id = $1`, id))
}

func (r *repoPG) GetBySlug(ctx context.Context, slug string) (*Post, error) {
	return scanPost(r.conn(ctx).QueryRow(ctx,
		`SELECT `+postCols+` FROM blog_post WHERE slug = $1`, slug))
}

func (r *repoPG) Update(ctx context.Context, p *Post) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE blog_post SET title=$2, slug=$3, body=$4, excerpt=$5, image_id=$6,
			is_published=$7, published_at=$8, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Title, p.Slug, p.Body, p.Excerpt, p.ImageID, p.IsPublished, p.PublishedAt)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM blog_post WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*Post, int, error) {
	where := ``
	if publishedOnly {
		where = ` WHERE is_published`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM blog_post`+where).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+postCols+` FROM blog_post`+where+` ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}
