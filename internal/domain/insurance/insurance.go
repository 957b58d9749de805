// Package insurance manages the list of accepted insurance companies shown on
// the public site.
package insurance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/clinisalud/api/internal/platform/cache"
)

type Company struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	LogoID    *string   `db:"logo_id" json:"logo_id,omitempty"`
	Website   *string   `db:"website" json:"website,omitempty"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Repository interface {
	Create(ctx context.Context, c *Company) error
	GetByID(ctx context.Context, id uuid.UUID) (*Company, error)
	Update(ctx context.Context, c *Company) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Company, int, error)
}

type Service struct {
	repo  Repository
	cache cache.Store
}

func NewService(repo Repository, store cache.Store) *Service {
	return &Service{repo: repo, cache: store}
}

func (s *Service) Create(ctx context.Context, c *Company) error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return err
	}
	s.cache.DeleteByPrefix(ctx, cache.ListPrefix("insurance"))
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Company, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, c *Company) error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return err
	}
	s.cache.DeleteByPrefix(ctx, cache.ListPrefix("insurance"))
	return nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.DeleteByPrefix(ctx, cache.ListPrefix("insurance"))
	return nil
}

type companyPage struct {
	Companies []*Company `json:"companies"`
	Total     int        `json:"total"`
}

func (s *Service) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Company, int, error) {
	key := cache.ListKey("insurance", strconv.FormatBool(activeOnly), strconv.Itoa(limit), strconv.Itoa(offset))
	if raw, ok := s.cache.Get(ctx, key); ok {
		var page companyPage
		if err := json.Unmarshal(raw, &page); err == nil {
			return page.Companies, page.Total, nil
		}
	}

	companies, total, err := s.repo.List(ctx, activeOnly, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if raw, err := json.Marshal(companyPage{Companies: companies, Total: total}); err == nil {
		s.cache.Set(ctx, key, raw, cache.DefaultListTTL)
	}
	return companies, total, nil
}
