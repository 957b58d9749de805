// Package contact stores messages from the public contact form and backs the
// admin inbox.
package contact

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Subject   *string   `db:"subject" json:"subject,omitempty"`
	Body      string    `db:"body" json:"body"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Repository interface {
	Create(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*Message, error)
	SetRead(ctx context.Context, id uuid.UUID, read bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, unreadOnly bool, limit, offset int) ([]*Message, int, error)
	CountUnread(ctx context.Context) (int, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Submit(ctx context.Context, m *Message) error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if _, err := mail.ParseAddress(m.Email); err != nil {
		return fmt.Errorf("invalid email address")
	}
	if m.Body == "" {
		return fmt.Errorf("message body is required")
	}
	m.IsRead = false
	return s.repo.Create(ctx, m)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Message, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) SetRead(ctx context.Context, id uuid.UUID, read bool) (*Message, error) {
	if err := s.repo.SetRead(ctx, id, read); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, unreadOnly bool, limit, offset int) ([]*Message, int, error) {
	return s.repo.List(ctx, unreadOnly, limit, offset)
}

func (s *Service) CountUnread(ctx context.Context) (int, error) {
	return s.repo.CountUnread(ctx)
}
