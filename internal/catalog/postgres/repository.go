// Package postgres provides the PostgreSQL implementation of the
// catalog repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/expdynts/expwatch/internal/catalog"
	"github.com/expdynts/expwatch/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the catalog.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetCourt retrieves a court by its ID.
func (r *Repository) GetCourt(ctx context.Context, id string) (*domain.Court, error) {
	query := `
		SELECT id, code, name, location, extract_code
		FROM courts
		WHERE id = $1
	`
	var court domain.Court
	err := r.db.QueryRow(ctx, query, id).Scan(
		&court.ID,
		&court.Code,
		&court.Name,
		&court.Location,
		&court.ExtractCode,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrCourtNotFound
		}
		return nil, fmt.Errorf("get court: %w", err)
	}
	return &court, nil
}

// ListCourts retrieves all courts ordered by code.
func (r *Repository) ListCourts(ctx context.Context) ([]domain.Court, error) {
	query := `
		SELECT id, code, name, location, extract_code
		FROM courts
		ORDER BY code
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list courts: %w", err)
	}
	defer rows.Close()

	var courts []domain.Court
	for rows.Next() {
		var court domain.Court
		if err := rows.Scan(
			&court.ID,
			&court.Code,
			&court.Name,
			&court.Location,
			&court.ExtractCode,
		); err != nil {
			return nil, fmt.Errorf("scan court: %w", err)
		}
		courts = append(courts, court)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courts: %w", err)
	}
	return courts, nil
}

// GetExtract retrieves an extract by its code.
func (r *Repository) GetExtract(ctx context.Context, code string) (*domain.Extract, error) {
	query := `
		SELECT code, name, description, key_search
		FROM extracts
		WHERE code = $1
	`
	var extract domain.Extract
	err := r.db.QueryRow(ctx, query, code).Scan(
		&extract.Code,
		&extract.Name,
		&extract.Description,
		&extract.KeySearch,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrExtractNotFound
		}
		return nil, fmt.Errorf("get extract: %w", err)
	}
	return &extract, nil
}

// ListExtracts retrieves all extracts ordered by code.
func (r *Repository) ListExtracts(ctx context.Context) ([]domain.Extract, error) {
	query := `
		SELECT code, name, description, key_search
		FROM extracts
		ORDER BY code
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list extracts: %w", err)
	}
	defer rows.Close()

	var extracts []domain.Extract
	for rows.Next() {
		var extract domain.Extract
		if err := rows.Scan(
			&extract.Code,
			&extract.Name,
			&extract.Description,
			&extract.KeySearch,
		); err != nil {
			return nil, fmt.Errorf("scan extract: %w", err)
		}
		extracts = append(extracts, extract)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extracts: %w", err)
	}
	return extracts, nil
}
