package catalog

import (
	"context"
	"sync"

	"github.com/expdynts/expwatch/internal/domain"
)

// Service provides catalog lookups with an in-process cache. Court and
// extract rows are immutable reference data, so cached entries never
// expire.
type Service struct {
	repo Repository

	mu     sync.RWMutex
	courts map[string]*domain.Court
}

// NewService creates a new catalog service.
func NewService(repo Repository) *Service {
	return &Service{
		repo:   repo,
		courts: make(map[string]*domain.Court),
	}
}

// CourtMeta resolves a court by ID, serving repeated lookups from the
// cache. The fetch pipeline calls this for every detected change.
func (s *Service) CourtMeta(ctx context.Context, courtID string) (*domain.Court, error) {
	s.mu.RLock()
	court, ok := s.courts[courtID]
	s.mu.RUnlock()
	if ok {
		return court, nil
	}

	court, err := s.repo.GetCourt(ctx, courtID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.courts[courtID] = court
	s.mu.Unlock()
	return court, nil
}

// ListCourts returns all courts.
func (s *Service) ListCourts(ctx context.Context) ([]domain.Court, error) {
	return s.repo.ListCourts(ctx)
}

// GetExtract returns one extract by code.
func (s *Service) GetExtract(ctx context.Context, code string) (*domain.Extract, error) {
	return s.repo.GetExtract(ctx, code)
}

// ListExtracts returns all extracts.
func (s *Service) ListExtracts(ctx context.Context) ([]domain.Extract, error) {
	return s.repo.ListExtracts(ctx)
}
