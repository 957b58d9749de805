package blog

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinisalud/api/internal/platform/cache"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL slug from a title. Accented characters common in
// Spanish titles are transliterated before stripping.
func Slugify(title string) string {
	s := strings.ToLower(title)
	replacer := strings.NewReplacer(
		"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ñ", "n", "ü", "u")
	s = replacer.Replace(s)
	s = slugPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

type Service struct {
	repo  Repository
	cache cache.Store
}

func NewService(repo Repository, store cache.Store) *Service {
	return &Service{repo: repo, cache: store}
}

func (s *Service) Create(ctx context.Context, p *Post) error {
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}
	if p.IsPublished && p.PublishedAt == nil {
		now := time.Now()
		p.PublishedAt = &now
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	s.cache.DeleteByPrefix(ctx, cache.ListPrefix("blog"))
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Post, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*Post, error) {
	return s.repo.GetBySlug(ctx, slug)
}

func (s *Service) Update(ctx context.Context, p *Post) error {
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}
	if p.IsPublished && p.PublishedAt == nil {
		now := time.Now()
		p.PublishedAt = &now
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	s.cache.DeleteByPrefix(ctx, cache.ListPrefix("blog"))
	return nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.DeleteByPrefix(ctx, cache.ListPrefix("blog"))
	return nil
}

type postPage struct {
	Posts []*Post `json:"posts"`
	Total int     `json:"total"`
}

func (s *Service) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]*Post, int, error) {
	key := cache.ListKey("blog", strconv.FormatBool(publishedOnly), strconv.Itoa(limit), strconv.Itoa(offset))
	if raw, ok := s.cache.Get(ctx, key); ok {
		var page postPage
		if err := json.Unmarshal(raw, &page); err == nil {
			return page.Posts, page.Total, nil
		}
	}

	posts, total, err := s.repo.List(ctx, publishedOnly, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if raw, err := json.Marshal(postPage{Posts: posts, Total: total}); err == nil {
		s.cache.Set(ctx, key, raw, cache.DefaultListTTL)
	}
	return posts, total, nil
}
