package catalog

import (
	"context"
	"errors"

	"github.com/expdynts/expwatch/internal/domain"
)

// Sentinel errors for catalog lookups.
var (
	ErrCourtNotFound   = errors.New("court not found")
	ErrExtractNotFound = errors.New("extract not found")
)

// Repository defines the interface for catalog data operations. The
// catalog is reference data loaded from the published court listings;
// there are no write operations.
type Repository interface {
	GetCourt(ctx context.Context, id string) (*domain.Court, error)
	ListCourts(ctx context.Context) ([]domain.Court, error)

	GetExtract(ctx context.Context, code string) (*domain.Extract, error)
	ListExtracts(ctx context.Context) ([]domain.Extract, error)
}
