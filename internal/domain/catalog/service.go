package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/clinisalud/api/internal/platform/cache"
)

type Service struct {
	repo  Repository
	cache cache.Store
}

func NewService(repo Repository, store cache.Store) *Service {
	return &Service{repo: repo, cache: store}
}

func (s *Service) validate(p *Product) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.PriceCents < 0 {
		return fmt.Errorf("price must not be negative")
	}
	if p.Stock < 0 {
		return fmt.Errorf("stock must not be negative")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := s.validate(p); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	s.cache.DeleteByPrefix(ctx, cache.ListPrefix("products"))
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := s.validate(p); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	s.cache.DeleteByPrefix(ctx, cache.ListPrefix("products"))
	return nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.DeleteByPrefix(ctx, cache.ListPrefix("products"))
	return nil
}

type productPage struct {
	Products []*Product `json:"products"`
	Total    int        `json:"total"`
}

func (s *Service) List(ctx context.Context, activeOnly bool, search string, limit, offset int) ([]*Product, int, error) {
	key := cache.ListKey("products", strconv.FormatBool(activeOnly), search, strconv.Itoa(limit), strconv.Itoa(offset))
	if raw, ok := s.cache.Get(ctx, key); ok {
		var page productPage
		if err := json.Unmarshal(raw, &page); err == nil {
			return page.Products, page.Total, nil
		}
	}

	products, total, err := s.repo.List(ctx, activeOnly, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if raw, err := json.Marshal(productPage{Products: products, Total: total}); err == nil {
		s.cache.Set(ctx, key, raw, cache.DefaultListTTL)
	}
	return products, total, nil
}

// AdjustStock applies a delta to a product's stock, refusing to go negative.
func (s *Service) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next := p.Stock + delta
	if next < 0 {
		return nil, fmt.Errorf("stock cannot drop below zero (have %d, delta %d)", p.Stock, delta)
	}
	p.Stock = next
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.cache.DeleteByPrefix(ctx, cache.ListPrefix("products"))
	return p, nil
}
