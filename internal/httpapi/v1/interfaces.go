package v1

import (
	"context"

	"github.com/avolkov/filmoteka/internal/catalog"
)

// GenreReader abstracts the genre lookup table.
type GenreReader interface {
	// GetGenre returns one genre by id.
	GetGenre(ctx context.Context, id int) (catalog.Genre, error)
	// ListGenres returns all genres ordered by id.
	ListGenres(ctx context.Context) ([]catalog.Genre, error)
}

// MpaReader abstracts the MPA rating lookup table.
type MpaReader interface {
	// GetMpaRating returns one MPA rating by id.
	GetMpaRating(ctx context.Context, id int) (catalog.MpaRating, error)
	// ListMpaRatings returns all MPA ratings ordered by id.
	ListMpaRatings(ctx context.Context) ([]catalog.MpaRating, error)
}

// ReadyChecker is optionally implemented by stores to indicate readiness.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}
