package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/clinisalud/api/internal/platform/cache"
)

type mockRepo struct {
	products  map[uuid.UUID]*Product
	listCalls int
}

func (m *mockRepo) Create(_ context.Context, p *Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.products[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s not found", id)
	}
	return p, nil
}

func (m *mockRepo) Update(_ context.Context, p *Product) error {
	m.products[p.ID] = p
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.products, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, activeOnly bool, search string, limit, offset int) ([]*Product, int, error) {
	m.listCalls++
	var out []*Product
	for _, p := range m.products {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func newTestService() *Service {
	return NewService(&mockRepo{products: map[uuid.UUID]*Product{}}, cache.NewMemory())
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService()

	cases := []*Product{
		{},
		{Name: "Paracetamol", PriceCents: -1},
		{Name: "Paracetamol", Stock: -5},
	}
	for i, p := range cases {
		if err := svc.Create(context.Background(), p); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestAdjustStock(t *testing.T) {
	svc := newTestService()

	p := &Product{Name: "Ibuprofeno 400mg", PriceCents: 550, Stock: 10, IsActive: true}
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.AdjustStock(context.Background(), p.ID, -4)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if got.Stock != 6 {
		t.Fatalf("stock %d, want 6", got.Stock)
	}

	if _, err := svc.AdjustStock(context.Background(), p.ID, -7); err == nil {
		t.Fatal("expected error when stock would go negative")
	}
}

func TestListReadsThroughCache(t *testing.T) {
	repo := &mockRepo{products: map[uuid.UUID]*Product{}}
	svc := NewService(repo, cache.NewMemory())

	p := &Product{Name: "Ibuprofeno", PriceCents: 550, Stock: 10, IsActive: true}
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, total, err := svc.List(context.Background(), true, "", 20, 0); err != nil || total != 1 {
		t.Fatalf("first list: total=%d err=%v", total, err)
	}
	if _, _, err := svc.List(context.Background(), true, "", 20, 0); err != nil {
		t.Fatalf("second list: %v", err)
	}
	if repo.listCalls != 1 {
		t.Fatalf("expected second list to be served from cache, repo saw %d calls", repo.listCalls)
	}

	// A write must evict every cached page for the entity.
	if err := svc.Create(context.Background(), &Product{Name: "Amoxicilina", PriceCents: 890, Stock: 5, IsActive: true}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, total, err := svc.List(context.Background(), true, "", 20, 0); err != nil || total != 2 {
		t.Fatalf("list after write: total=%d err=%v", total, err)
	}
	if repo.listCalls != 2 {
		t.Fatalf("expected list after write to hit the repository, saw %d calls", repo.listCalls)
	}
}
