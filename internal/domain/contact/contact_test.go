package contact

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
)

type mockRepo struct {
	rows map[uuid.UUID]*Message
}

func (m *mockRepo) Create(_ context.Context, msg *Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	m.rows[msg.ID] = msg
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Message, error) {
	msg, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("message %s not found", id)
	}
	return msg, nil
}

func (m *mockRepo) SetRead(_ context.Context, id uuid.UUID, read bool) error {
	msg, ok := m.rows[id]
	if !ok {
		return fmt.Errorf("message %s not found", id)
	}
	msg.IsRead = read
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.rows, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, unreadOnly bool, limit, offset int) ([]*Message, int, error) {
	var out []*Message
	for _, msg := range m.rows {
		if unreadOnly && msg.IsRead {
			continue
		}
		out = append(out, msg)
	}
	return out, len(out), nil
}

func (m *mockRepo) CountUnread(_ context.Context) (int, error) {
	n := 0
	for _, msg := range m.rows {
		if !msg.IsRead {
			n++
		}
	}
	return n, nil
}

func TestSubmitValidation(t *testing.T) {
	svc := NewService(&mockRepo{rows: map[uuid.UUID]*Message{}})

	cases := []*Message{
		{Email: "ana@example.com", Body: "hola"},
		{Name: "Ana", Email: "not-an-email", Body: "hola"},
		{Name: "Ana", Email: "ana@example.com"},
	}
	for i, m := range cases {
		if err := svc.Submit(context.Background(), m); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestUnreadFlow(t *testing.T) {
	repo := &mockRepo{rows: map[uuid.UUID]*Message{}}
	svc := NewService(repo)

	m := &Message{Name: "Ana", Email: "ana@example.com", Body: "Consulta sobre horarios"}
	if err := svc.Submit(context.Background(), m); err != nil {
		t.Fatalf("submit: %v", err)
	}

	n, _ := svc.CountUnread(context.Background())
	if n != 1 {
		t.Fatalf("unread %d, want 1", n)
	}

	if _, err := svc.SetRead(context.Background(), m.ID, true); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	n, _ = svc.CountUnread(context.Background())
	if n != 0 {
		t.Fatalf("unread %d, want 0", n)
	}
}
