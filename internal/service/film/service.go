// Package film implements the film service rules: field validation, reference
// checks against the genre and MPA tables, like bookkeeping, and the derived
// popularity and genre-filter views.
package film

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/avolkov/filmoteka/internal/catalog"
	"github.com/avolkov/filmoteka/internal/errs"
	"github.com/avolkov/filmoteka/internal/service/refs"
)

// MaxDescriptionLen bounds the film description, counted in runes.
const MaxDescriptionLen = 200

type Repo interface {
	GetFilm(ctx context.Context, id int64) (catalog.Film, error)
	ListFilms(ctx context.Context) ([]catalog.Film, error)
	PopularFilms(ctx context.Context, limit int) ([]catalog.Film, error)
	FilmsByGenre(ctx context.Context, genreID int) ([]catalog.Film, error)
}

type Writer interface {
	CreateFilm(ctx context.Context, f catalog.Film) (catalog.Film, error)
	UpdateFilm(ctx context.Context, f catalog.Film) (catalog.Film, error)
	AddLike(ctx context.Context, filmID, userID int64) error
	RemoveLike(ctx context.Context, filmID, userID int64) error
}

type Service interface {
	Validate(f catalog.Film) error
	Create(ctx context.Context, f catalog.Film) (catalog.Film, error)
	Update(ctx context.Context, f catalog.Film) (catalog.Film, error)
	Get(ctx context.Context, id int64) (catalog.Film, error)
	List(ctx context.Context) ([]catalog.Film, error)
	Like(ctx context.Context, filmID, userID int64) error
	Unlike(ctx context.Context, filmID, userID int64) error
	Popular(ctx context.Context, count int) ([]catalog.Film, error)
	ByGenre(ctx context.Context, genreID int) ([]catalog.Film, error)
}

type service struct {
	repo   Repo
	writer Writer
	refs   *refs.Validator
}

func New(repo Repo, writer Writer, validator *refs.Validator) Service {
	return &service{repo: repo, writer: writer, refs: validator}
}

// Validate checks the scalar invariants of a film.
func (s *service) Validate(f catalog.Film) error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: film name must not be blank", errs.ErrInvalid)
	}
	if utf8.RuneCountInString(f.Description) > MaxDescriptionLen {
		return fmt.Errorf("%w: description must not exceed %d characters", errs.ErrInvalid, MaxDescriptionLen)
	}
	if f.ReleaseDate.Before(catalog.EarliestReleaseDate) {
		return fmt.Errorf("%w: release date must not be before 1895-12-28", errs.ErrInvalid)
	}
	if f.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", errs.ErrInvalid)
	}
	return nil
}

// Create validates the film and its references, collapses duplicate genres,
// and persists. The returned film carries the assigned id and an empty like set.
func (s *service) Create(ctx context.Context, f catalog.Film) (catalog.Film, error) {
	if err := s.Validate(f); err != nil {
		return catalog.Film{}, err
	}
	if err := s.checkReferences(ctx, f); err != nil {
		return catalog.Film{}, err
	}
	f.Genres = catalog.DedupGenres(f.Genres)
	return s.writer.CreateFilm(ctx, f)
}

// Update replaces the scalar fields and genre set of an existing film.
// Likes are never touched by update.
func (s *service) Update(ctx context.Context, f catalog.Film) (catalog.Film, error) {
	if f.ID <= 0 {
		return catalog.Film{}, fmt.Errorf("%w: film id must be positive", errs.ErrInvalid)
	}
	if err := s.Validate(f); err != nil {
		return catalog.Film{}, err
	}
	if _, err := s.repo.GetFilm(ctx, f.ID); err != nil {
		return catalog.Film{}, err
	}
	if err := s.checkReferences(ctx, f); err != nil {
		return catalog.Film{}, err
	}
	f.Genres = catalog.DedupGenres(f.Genres)
	return s.writer.UpdateFilm(ctx, f)
}

func (s *service) Get(ctx context.Context, id int64) (catalog.Film, error) {
	return s.repo.GetFilm(ctx, id)
}

func (s *service) List(ctx context.Context) ([]catalog.Film, error) {
	return s.repo.ListFilms(ctx)
}

// Like records userID's like on filmID. Idempotent.
func (s *service) Like(ctx context.Context, filmID, userID int64) error {
	if err := s.refs.Film(ctx, filmID); err != nil {
		return err
	}
	if err := s.refs.User(ctx, userID); err != nil {
		return err
	}
	return s.writer.AddLike(ctx, filmID, userID)
}

// Unlike removes userID's like on filmID; a never-liked pair is a no-op.
func (s *service) Unlike(ctx context.Context, filmID, userID int64) error {
	if err := s.refs.Film(ctx, filmID); err != nil {
		return err
	}
	if err := s.refs.User(ctx, userID); err != nil {
		return err
	}
	return s.writer.RemoveLike(ctx, filmID, userID)
}

// Popular returns the top count films by like count, film id ascending on ties.
func (s *service) Popular(ctx context.Context, count int) ([]catalog.Film, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive", errs.ErrInvalid)
	}
	return s.repo.PopularFilms(ctx, count)
}

// ByGenre returns all films tagged with the genre, full genre list included.
// An unknown genre yields an empty list, not an error.
func (s *service) ByGenre(ctx context.Context, genreID int) ([]catalog.Film, error) {
	return s.repo.FilmsByGenre(ctx, genreID)
}

// checkReferences verifies the MPA rating and every genre id exist before a write.
func (s *service) checkReferences(ctx context.Context, f catalog.Film) error {
	if err := s.refs.Mpa(ctx, f.MpaRatingID); err != nil {
		return err
	}
	return s.refs.Genres(ctx, catalog.GenreIDs(f.Genres))
}
