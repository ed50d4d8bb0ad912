package catalog

import (
	"context"
	"testing"

	"github.com/expdynts/expwatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	courts   map[string]*domain.Court
	extracts map[string]*domain.Extract
	calls    int
}

func (f *fakeRepo) GetCourt(_ context.Context, id string) (*domain.Court, error) {
	f.calls++
	court, ok := f.courts[id]
	if !ok {
		return nil, ErrCourtNotFound
	}
	return court, nil
}

func (f *fakeRepo) ListCourts(context.Context) ([]domain.Court, error) { return nil, nil }

func (f *fakeRepo) GetExtract(_ context.Context, code string) (*domain.Extract, error) {
	extract, ok := f.extracts[code]
	if !ok {
		return nil, ErrExtractNotFound
	}
	return extract, nil
}

func (f *fakeRepo) ListExtracts(context.Context) ([]domain.Extract, error) { return nil, nil }

func TestCourtMeta_CachesLookups(t *testing.T) {
	repo := &fakeRepo{courts: map[string]*domain.Court{
		"LABORAL-L04": {ID: "LABORAL-L04", Code: "L04", Name: "JUZGADO SEGUNDO LABORAL"},
	}}
	service := NewService(repo)

	for i := 0; i < 3; i++ {
		court, err := service.CourtMeta(context.Background(), "LABORAL-L04")
		require.NoError(t, err)
		assert.Equal(t, "L04", court.Code)
	}

	assert.Equal(t, 1, repo.calls)
}

func TestCourtMeta_MissesAreNotCached(t *testing.T) {
	repo := &fakeRepo{courts: map[string]*domain.Court{}}
	service := NewService(repo)

	_, err := service.CourtMeta(context.Background(), "missing")
	require.ErrorIs(t, err, ErrCourtNotFound)

	_, err = service.CourtMeta(context.Background(), "missing")
	require.ErrorIs(t, err, ErrCourtNotFound)

	assert.Equal(t, 2, repo.calls)
}
