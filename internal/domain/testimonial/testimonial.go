// Package testimonial handles patient testimonials. Submissions arrive from
// the public site and stay hidden until an admin approves them.
package testimonial

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/clinisalud/api/internal/platform/cache"
)

type Testimonial struct {
	ID         uuid.UUID `db:"id" json:"id"`
	AuthorName string    `db:"author_name" json:"author_name"`
	Content    string    `db:"content" json:"content"`
	Rating     int       `db:"rating" json:"rating"` // 1..5
	IsApproved bool      `db:"is_approved" json:"is_approved"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

type Repository interface {
	Create(ctx context.Context, t *Testimonial) error
	GetByID(ctx context.Context, id uuid.UUID) (*Testimonial, error)
	SetApproved(ctx context.Context, id uuid.UUID, approved bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, approvedOnly bool, limit, offset int) ([]*Testimonial, int, error)
}

type Service struct {
	repo  Repository
	cache cache.Store
}

func NewService(repo Repository, store cache.Store) *Service {
	return &Service{repo: repo, cache: store}
}

func (s *Service) Submit(ctx context.Context, t *Testimonial) error {
	if t.AuthorName == "" {
		return fmt.Errorf("author_name is required")
	}
	if t.Content == "" {
		return fmt.Errorf("content is required")
	}
	if t.Rating < 1 || t.Rating > 5 {
		return fmt.Errorf("rating must be 1..5")
	}
	t.IsApproved = false
	if err := s.repo.Create(ctx, t); err != nil {
		return err
	}
	s.cache.DeleteByPrefix(ctx, cache.ListPrefix("testimonials"))
	return nil
}

func (s *Service) SetApproved(ctx context.Context, id uuid.UUID, approved bool) (*Testimonial, error) {
	if err := s.repo.SetApproved(ctx, id, approved); err != nil {
		return nil, err
	}
	s.cache.DeleteByPrefix(ctx, cache.ListPrefix("testimonials"))
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.DeleteByPrefix(ctx, cache.ListPrefix("testimonials"))
	return nil
}

type testimonialPage struct {
	Testimonials []*Testimonial `json:"testimonials"`
	Total        int            `json:"total"`
}

func (s *Service) List(ctx context.Context, approvedOnly bool, limit, offset int) ([]*Testimonial, int, error) {
	key := cache.ListKey("testimonials", strconv.FormatBool(approvedOnly), strconv.Itoa(limit), strconv.Itoa(offset))
	if raw, ok := s.cache.Get(ctx, key); ok {
		var page testimonialPage
		if err := json.Unmarshal(raw, &page); err == nil {
			return page.Testimonials, page.Total, nil
		}
	}

	items, total, err := s.repo.List(ctx, approvedOnly, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if raw, err := json.Marshal(testimonialPage{Testimonials: items, Total: total}); err == nil {
		s.cache.Set(ctx, key, raw, cache.DefaultListTTL)
	}
	return items, total, nil
}
