package blog

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/clinisalud/api/internal/platform/cache"
)

type mockRepo struct {
	posts     map[uuid.UUID]*Post
	listCalls int
}

func (m *mockRepo) Create(_ context.Context, p *Post) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.posts[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Post, error) {
	p, ok := m.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %s not found", id)
	}
	return p, nil
}

func (m *mockRepo) GetBySlug(_ context.Context, slug string) (*Post, error) {
	for _, p := range m.posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, fmt.Errorf("post %q not found", slug)
}

func (m *mockRepo) Update(_ context.Context, p *Post) error {
	m.posts[p.ID] = p
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.posts, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, publishedOnly bool, limit, offset int) ([]*Post, int, error) {
	m.listCalls++
	var out []*Post
	for _, p := range m.posts {
		if publishedOnly && !p.IsPublished {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Cuidados del corazón":       "cuidados-del-corazon",
		"  Año nuevo, salud nueva! ": "ano-nuevo-salud-nueva",
		"Ya-con-guiones":             "ya-con-guiones",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCreateDerivesSlugAndPublishedAt(t *testing.T) {
	svc := NewService(&mockRepo{posts: map[uuid.UUID]*Post{}}, cache.NewMemory())

	p := &Post{Title: "Vacunación infantil", Body: "...", IsPublished: true}
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Slug != "vacunacion-infantil" {
		t.Fatalf("slug %q", p.Slug)
	}
	if p.PublishedAt == nil {
		t.Fatal("expected published_at to be set")
	}
}

func TestListPublishedOnly(t *testing.T) {
	repo := &mockRepo{posts: map[uuid.UUID]*Post{}}
	svc := NewService(repo, cache.NewMemory())

	for _, p := range []*Post{
		{Title: "Publicado", IsPublished: true},
		{Title: "Borrador"},
	} {
		if err := svc.Create(context.Background(), p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	items, total, err := svc.List(context.Background(), true, 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || items[0].Title != "Publicado" {
		t.Fatalf("expected only the published post, got %d", total)
	}
}

func TestListCachedUntilWrite(t *testing.T) {
	repo := &mockRepo{posts: map[uuid.UUID]*Post{}}
	svc := NewService(repo, cache.NewMemory())

	if err := svc.Create(context.Background(), &Post{Title: "Vacunas de temporada", IsPublished: true}); err != nil {
		t.Fatalf("create: %v", err)
	}

	svc.List(context.Background(), true, 20, 0)
	svc.List(context.Background(), true, 20, 0)
	if repo.listCalls != 1 {
		t.Fatalf("expected repeated list to be cached, repo saw %d calls", repo.listCalls)
	}

	if err := svc.Create(context.Background(), &Post{Title: "Horario de verano", IsPublished: true}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, total, err := svc.List(context.Background(), true, 20, 0)
	if err != nil || total != 2 {
		t.Fatalf("list after write: total=%d err=%v", total, err)
	}
}
