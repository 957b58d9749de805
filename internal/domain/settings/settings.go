// Package settings is a key/value store for site-wide configuration the admin
// panel edits at runtime: opening hours text, contact details, feature toggles.
package settings

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

type Setting struct {
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Repository interface {
	Upsert(ctx context.Context, s *Setting) error
	Get(ctx context.Context, key string) (*Setting, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]*Setting, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Set(ctx context.Context, key, value string) (*Setting, error) {
	if key == "" {
		return nil, fmt.Errorf("key is required")
	}
	st := &Setting{Key: key, Value: value}
	if err := s.repo.Upsert(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Service) Delete(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, key)
}

func (s *Service) List(ctx context.Context) ([]*Setting, error) {
	return s.repo.List(ctx)
}

// Typed accessors. A missing or malformed value yields the fallback; settings
// are advisory and must never take a request down.

func (s *Service) GetString(ctx context.Context, key, fallback string) string {
	st, err := s.repo.Get(ctx, key)
	if err != nil || st == nil {
		return fallback
	}
	return st.Value
}

func (s *Service) GetInt(ctx context.Context, key string, fallback int) int {
	st, err := s.repo.Get(ctx, key)
	if err != nil || st == nil {
		return fallback
	}
	n, err := strconv.Atoi(st.Value)
	if err != nil {
		return fallback
	}
	return n
}

func (s *Service) GetBool(ctx context.Context, key string, fallback bool) bool {
	st, err := s.repo.Get(ctx, key)
	if err != nil || st == nil {
		return fallback
	}
	b, err := strconv.ParseBool(st.Value)
	if err != nil {
		return fallback
	}
	return b
}
