package store

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for stores and their services.
type Repository interface {
	Save(ctx context.Context, s *Store) error
	Update(ctx context.Context, s *Store) error
	FindByID(ctx context.Context, id uuid.UUID) (*Store, error)

	SaveService(ctx context.Context, svc Service) error
	FindService(ctx context.Context, id uuid.UUID) (Service, error)
	ListServices(ctx context.Context, storeID uuid.UUID) ([]Service, error)
}
