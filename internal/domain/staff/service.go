package staff

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	doctors     DoctorRepository
	specialties SpecialtyRepository
}

func NewService(doctors DoctorRepository, specialties SpecialtyRepository) *Service {
	return &Service{doctors: doctors, specialties: specialties}
}

// -- Doctor --

func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) error {
	if d.FullName == "" {
		return fmt.Errorf("full_name is required")
	}
	return s.doctors.Create(ctx, d)
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) UpdateDoctor(ctx context.Context, d *Doctor) error {
	if d.FullName == "" {
		return fmt.Errorf("full_name is required")
	}
	if err := s.doctors.Update(ctx, d); err != nil {
		return err
	}
	if d.Specialties != nil {
		return s.doctors.SetSpecialties(ctx, d.ID, d.Specialties)
	}
	return nil
}

func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	return s.doctors.Delete(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context, activeOnly bool, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.List(ctx, activeOnly, limit, offset)
}

// IsDoctorActive reports whether the doctor exists and is active. A missing
// doctor is simply inactive, not an error.
func (s *Service) IsDoctorActive(ctx context.Context, id uuid.UUID) bool {
	d, err := s.doctors.GetByID(ctx, id)
	return err == nil && d.IsActive
}

// -- Specialty --

func (s *Service) CreateSpecialty(ctx context.Context, sp *Specialty) error {
	if sp.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.specialties.Create(ctx, sp)
}

func (s *Service) GetSpecialty(ctx context.Context, id uuid.UUID) (*Specialty, error) {
	return s.specialties.GetByID(ctx, id)
}

func (s *Service) UpdateSpecialty(ctx context.Context, sp *Specialty) error {
	if sp.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.specialties.Update(ctx, sp)
}

func (s *Service) DeleteSpecialty(ctx context.Context, id uuid.UUID) error {
	return s.specialties.Delete(ctx, id)
}

func (s *Service) ListSpecialties(ctx context.Context, limit, offset int) ([]*Specialty, int, error) {
	return s.specialties.List(ctx, limit, offset)
}
