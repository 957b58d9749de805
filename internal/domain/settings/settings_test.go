package settings

import (
	"context"
	"testing"
	"time"
)

type mockRepo struct {
	rows map[string]*Setting
}

func (m *mockRepo) Upsert(_ context.Context, s *Setting) error {
	s.UpdatedAt = time.Now()
	m.rows[s.Key] = s
	return nil
}

func (m *mockRepo) Get(_ context.Context, key string) (*Setting, error) {
	return m.rows[key], nil
}

func (m *mockRepo) Delete(_ context.Context, key string) error {
	delete(m.rows, key)
	return nil
}

func (m *mockRepo) List(_ context.Context) ([]*Setting, error) {
	var out []*Setting
	for _, s := range m.rows {
		out = append(out, s)
	}
	return out, nil
}

func TestTypedAccessors(t *testing.T) {
	svc := NewService(&mockRepo{rows: map[string]*Setting{}})
	ctx := context.Background()

	if _, err := svc.Set(ctx, "site_name", "CliniSalud"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := svc.Set(ctx, "max_bookings_per_day", "40"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := svc.Set(ctx, "online_booking_enabled", "true"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := svc.Set(ctx, "broken_int", "cuarenta"); err != nil {
		t.Fatalf("set: %v", err)
	}

	if got := svc.GetString(ctx, "site_name", "x"); got != "CliniSalud" {
		t.Errorf("GetString = %q", got)
	}
	if got := svc.GetInt(ctx, "max_bookings_per_day", 0); got != 40 {
		t.Errorf("GetInt = %d", got)
	}
	if got := svc.GetBool(ctx, "online_booking_enabled", false); !got {
		t.Error("GetBool = false, want true")
	}

	// Fallbacks for missing and malformed values.
	if got := svc.GetString(ctx, "missing", "fallback"); got != "fallback" {
		t.Errorf("fallback string = %q", got)
	}
	if got := svc.GetInt(ctx, "broken_int", 7); got != 7 {
		t.Errorf("fallback int = %d", got)
	}
	if got := svc.GetBool(ctx, "missing", true); !got {
		t.Error("fallback bool = false, want true")
	}
}

func TestSetRequiresKey(t *testing.T) {
	svc := NewService(&mockRepo{rows: map[string]*Setting{}})
	if _, err := svc.Set(context.Background(), "", "v"); err == nil {
		t.Fatal("expected error for empty key")
	}
}
