// Package refs implements the reference validators: existence checks run
// before any write that embeds a foreign id. Checks against reference tables
// (genres, MPA ratings) surface errs.ErrBadReference; checks against entity
// tables (users, films) surface errs.ErrNotFound, matching what callers of the
// corresponding operations expect.
package refs

import (
	"context"
	"errors"
	"fmt"

	"github.com/avolkov/filmoteka/internal/catalog"
	"github.com/avolkov/filmoteka/internal/errs"
)

type GenreReader interface {
	GetGenre(ctx context.Context, id int) (catalog.Genre, error)
}

type MpaReader interface {
	GetMpaRating(ctx context.Context, id int) (catalog.MpaRating, error)
}

type UserReader interface {
	GetUser(ctx context.Context, id int64) (catalog.User, error)
}

type FilmReader interface {
	GetFilm(ctx context.Context, id int64) (catalog.Film, error)
}

// Validator bundles the existence checks used by the film and user services.
type Validator struct {
	genres GenreReader
	mpa    MpaReader
	users  UserReader
	films  FilmReader
}

func New(genres GenreReader, mpa MpaReader, users UserReader, films FilmReader) *Validator {
	return &Validator{genres: genres, mpa: mpa, users: users, films: films}
}

// Mpa verifies the MPA rating id exists.
func (v *Validator) Mpa(ctx context.Context, id int) error {
	if _, err := v.mpa.GetMpaRating(ctx, id); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return fmt.Errorf("%w: mpa rating %d", errs.ErrBadReference, id)
		}
		return err
	}
	return nil
}

// Genres verifies every genre id exists. Duplicate ids are checked once.
func (v *Validator) Genres(ctx context.Context, ids []int) error {
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, err := v.genres.GetGenre(ctx, id); err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return fmt.Errorf("%w: genre %d", errs.ErrBadReference, id)
			}
			return err
		}
	}
	return nil
}

// User verifies the user id exists.
func (v *Validator) User(ctx context.Context, id int64) error {
	if _, err := v.users.GetUser(ctx, id); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return fmt.Errorf("%w: user %d", errs.ErrNotFound, id)
		}
		return err
	}
	return nil
}

// Film verifies the film id exists.
func (v *Validator) Film(ctx context.Context, id int64) error {
	if _, err := v.films.GetFilm(ctx, id); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return fmt.Errorf("%w: film %d", errs.ErrNotFound, id)
		}
		return err
	}
	return nil
}
