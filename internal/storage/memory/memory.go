// Package memory provides a simple in-memory implementation used for development and tests.
// It keeps code paths easy to follow while allowing us to plug in a real DB later.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/avolkov/filmoteka/internal/catalog"
	"github.com/avolkov/filmoteka/internal/errs"
)

// Store is an in-memory implementation of the repositories used by the API.
// Films (with their genre and like associations) and users (with their
// friendship edges) are guarded by separate RWMutexes; reference data has its
// own. Film reads take filmMu before refMu, never the other way round.
type Store struct {
	filmMu     sync.RWMutex
	films      map[int64]catalog.Film // scalar fields only
	filmGenres map[int64][]int        // deduped genre ids, sorted asc
	likes      map[int64]map[int64]struct{}
	nextFilmID int64

	userMu     sync.RWMutex
	users      map[int64]catalog.User
	friends    map[int64]map[int64]struct{} // directed: userID -> friend ids
	nextUserID int64

	refMu  sync.RWMutex
	genres map[int]catalog.Genre
	mpa    map[int]catalog.MpaRating
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		films:      make(map[int64]catalog.Film),
		filmGenres: make(map[int64][]int),
		likes:      make(map[int64]map[int64]struct{}),
		users:      make(map[int64]catalog.User),
		friends:    make(map[int64]map[int64]struct{}),
		genres:     make(map[int]catalog.Genre),
		mpa:        make(map[int]catalog.MpaRating),
	}
}

// Seed helpers for local dev/tests.
func (s *Store) SeedGenre(g catalog.Genre) {
	s.refMu.Lock()
	s.genres[g.ID] = g
	s.refMu.Unlock()
}

func (s *Store) SeedMpaRating(m catalog.MpaRating) {
	s.refMu.Lock()
	s.mpa[m.ID] = m
	s.refMu.Unlock()
}

// SeedReferenceData loads the canonical genre and MPA rating tables.
func (s *Store) SeedReferenceData() {
	for _, g := range []catalog.Genre{
		{ID: 1, Name: "Comedy"},
		{ID: 2, Name: "Drama"},
		{ID: 3, Name: "Animation"},
		{ID: 4, Name: "Thriller"},
		{ID: 5, Name: "Documentary"},
		{ID: 6, Name: "Action"},
	} {
		s.SeedGenre(g)
	}
	for _, m := range []catalog.MpaRating{
		{ID: 1, Name: "G"},
		{ID: 2, Name: "PG"},
		{ID: 3, Name: "PG-13"},
		{ID: 4, Name: "R"},
		{ID: 5, Name: "NC-17"},
	} {
		s.SeedMpaRating(m)
	}
}

func (s *Store) Reset() {
	s.filmMu.Lock()
	s.films = map[int64]catalog.Film{}
	s.filmGenres = map[int64][]int{}
	s.likes = map[int64]map[int64]struct{}{}
	s.nextFilmID = 0
	s.filmMu.Unlock()
	s.userMu.Lock()
	s.users = map[int64]catalog.User{}
	s.friends = map[int64]map[int64]struct{}{}
	s.nextUserID = 0
	s.userMu.Unlock()
	s.refMu.Lock()
	s.genres = map[int]catalog.Genre{}
	s.mpa = map[int]catalog.MpaRating{}
	s.refMu.Unlock()
}

// --- Films ---

// CreateFilm assigns an id, persists the scalar fields and the deduplicated
// genre set, and returns the film assembled from storage with empty likes.
func (s *Store) CreateFilm(_ context.Context, f catalog.Film) (catalog.Film, error) {
	s.filmMu.Lock()
	defer s.filmMu.Unlock()
	s.nextFilmID++
	f.ID = s.nextFilmID
	s.films[f.ID] = scalarFilm(f)
	s.filmGenres[f.ID] = dedupIDs(catalog.GenreIDs(f.Genres))
	s.likes[f.ID] = make(map[int64]struct{})
	return s.assembleFilmLocked(f.ID)
}

// UpdateFilm replaces scalar fields and the genre set. Likes are untouched.
func (s *Store) UpdateFilm(_ context.Context, f catalog.Film) (catalog.Film, error) {
	s.filmMu.Lock()
	defer s.filmMu.Unlock()
	if _, ok := s.films[f.ID]; !ok {
		return catalog.Film{}, errs.ErrNotFound
	}
	s.films[f.ID] = scalarFilm(f)
	s.filmGenres[f.ID] = dedupIDs(catalog.GenreIDs(f.Genres))
	return s.assembleFilmLocked(f.ID)
}

// GetFilm assembles one film with its full genre list and like set.
func (s *Store) GetFilm(_ context.Context, id int64) (catalog.Film, error) {
	s.filmMu.RLock()
	defer s.filmMu.RUnlock()
	return s.assembleFilmLocked(id)
}

// ListFilms returns every film ordered by id for stable output.
func (s *Store) ListFilms(_ context.Context) ([]catalog.Film, error) {
	s.filmMu.RLock()
	defer s.filmMu.RUnlock()
	ids := s.filmIDsLocked()
	out := make([]catalog.Film, 0, len(ids))
	for _, id := range ids {
		f, err := s.assembleFilmLocked(id)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// AddLike inserts the (film, user) pair. Re-adding an existing like is a no-op.
func (s *Store) AddLike(_ context.Context, filmID, userID int64) error {
	s.filmMu.Lock()
	defer s.filmMu.Unlock()
	if _, ok := s.films[filmID]; !ok {
		return errs.ErrNotFound
	}
	set := s.likes[filmID]
	if set == nil {
		set = make(map[int64]struct{})
		s.likes[filmID] = set
	}
	set[userID] = struct{}{}
	return nil
}

// RemoveLike deletes the (film, user) pair; an absent like is a no-op.
func (s *Store) RemoveLike(_ context.Context, filmID, userID int64) error {
	s.filmMu.Lock()
	defer s.filmMu.Unlock()
	if _, ok := s.films[filmID]; !ok {
		return errs.ErrNotFound
	}
	delete(s.likes[filmID], userID)
	return nil
}

// PopularFilms returns films ordered by descending like count, ties broken by
// ascending film id, truncated to limit.
func (s *Store) PopularFilms(_ context.Context, limit int) ([]catalog.Film, error) {
	s.filmMu.RLock()
	defer s.filmMu.RUnlock()
	ids := s.filmIDsLocked()
	sort.SliceStable(ids, func(i, j int) bool {
		ci, cj := len(s.likes[ids[i]]), len(s.likes[ids[j]])
		if ci != cj {
			return ci > cj
		}
		return ids[i] < ids[j]
	})
	if limit < len(ids) {
		ids = ids[:limit]
	}
	out := make([]catalog.Film, 0, len(ids))
	for _, id := range ids {
		f, err := s.assembleFilmLocked(id)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// FilmsByGenre returns every film carrying the genre, each with its full genre
// list, ordered by film id ascending.
func (s *Store) FilmsByGenre(_ context.Context, genreID int) ([]catalog.Film, error) {
	s.filmMu.RLock()
	defer s.filmMu.RUnlock()
	matched := make([]int64, 0)
	for id, gids := range s.filmGenres {
		for _, gid := range gids {
			if gid == genreID {
				matched = append(matched, id)
				break
			}
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i] < matched[j] })
	out := make([]catalog.Film, 0, len(matched))
	for _, id := range matched {
		f, err := s.assembleFilmLocked(id)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// --- Users ---

func (s *Store) CreateUser(_ context.Context, u catalog.User) (catalog.User, error) {
	s.userMu.Lock()
	defer s.userMu.Unlock()
	s.nextUserID++
	u.ID = s.nextUserID
	s.users[u.ID] = u
	s.friends[u.ID] = make(map[int64]struct{})
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, u catalog.User) (catalog.User, error) {
	s.userMu.Lock()
	defer s.userMu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return catalog.User{}, errs.ErrNotFound
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (catalog.User, error) {
	s.userMu.RLock()
	defer s.userMu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return catalog.User{}, errs.ErrNotFound
	}
	return u, nil
}

func (s *Store) ListUsers(_ context.Context) ([]catalog.User, error) {
	s.userMu.RLock()
	defer s.userMu.RUnlock()
	ids := make([]int64, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]catalog.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.users[id])
	}
	return out, nil
}

// AddFriend inserts the directed edge userID -> friendID. Idempotent.
func (s *Store) AddFriend(_ context.Context, userID, friendID int64) error {
	s.userMu.Lock()
	defer s.userMu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return errs.ErrNotFound
	}
	if _, ok := s.users[friendID]; !ok {
		return errs.ErrNotFound
	}
	set := s.friends[userID]
	if set == nil {
		set = make(map[int64]struct{})
		s.friends[userID] = set
	}
	set[friendID] = struct{}{}
	return nil
}

// RemoveFriend deletes the directed edge if present; an absent edge is a no-op.
func (s *Store) RemoveFriend(_ context.Context, userID, friendID int64) error {
	s.userMu.Lock()
	defer s.userMu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return errs.ErrNotFound
	}
	if _, ok := s.users[friendID]; !ok {
		return errs.ErrNotFound
	}
	delete(s.friends[userID], friendID)
	return nil
}

// Friends returns the targets of the user's outgoing edges, ordered by id.
func (s *Store) Friends(_ context.Context, userID int64) ([]catalog.User, error) {
	s.userMu.RLock()
	defer s.userMu.RUnlock()
	if _, ok := s.users[userID]; !ok {
		return nil, errs.ErrNotFound
	}
	return s.usersByIDsLocked(s.friends[userID]), nil
}

// CommonFriends intersects the outgoing edges of both users by target id.
func (s *Store) CommonFriends(_ context.Context, userID, otherID int64) ([]catalog.User, error) {
	s.userMu.RLock()
	defer s.userMu.RUnlock()
	if _, ok := s.users[userID]; !ok {
		return nil, errs.ErrNotFound
	}
	if _, ok := s.users[otherID]; !ok {
		return nil, errs.ErrNotFound
	}
	common := make(map[int64]struct{})
	other := s.friends[otherID]
	for id := range s.friends[userID] {
		if _, ok := other[id]; ok {
			common[id] = struct{}{}
		}
	}
	return s.usersByIDsLocked(common), nil
}

// --- Reference data ---

func (s *Store) GetGenre(_ context.Context, id int) (catalog.Genre, error) {
	s.refMu.RLock()
	defer s.refMu.RUnlock()
	g, ok := s.genres[id]
	if !ok {
		return catalog.Genre{}, errs.ErrNotFound
	}
	return g, nil
}

func (s *Store) ListGenres(_ context.Context) ([]catalog.Genre, error) {
	s.refMu.RLock()
	defer s.refMu.RUnlock()
	out := make([]catalog.Genre, 0, len(s.genres))
	for _, g := range s.genres {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetMpaRating(_ context.Context, id int) (catalog.MpaRating, error) {
	s.refMu.RLock()
	defer s.refMu.RUnlock()
	m, ok := s.mpa[id]
	if !ok {
		return catalog.MpaRating{}, errs.ErrNotFound
	}
	return m, nil
}

func (s *Store) ListMpaRatings(_ context.Context) ([]catalog.MpaRating, error) {
	s.refMu.RLock()
	defer s.refMu.RUnlock()
	out := make([]catalog.MpaRating, 0, len(s.mpa))
	for _, m := range s.mpa {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- helpers ---

// scalarFilm strips association fields before storing the scalar row.
func scalarFilm(f catalog.Film) catalog.Film {
	f.Genres = nil
	f.Likes = nil
	return f
}

// assembleFilmLocked builds the entity-with-collections shape for one film.
// Caller must hold filmMu (read or write).
func (s *Store) assembleFilmLocked(id int64) (catalog.Film, error) {
	f, ok := s.films[id]
	if !ok {
		return catalog.Film{}, errs.ErrNotFound
	}
	s.refMu.RLock()
	genres := make([]catalog.Genre, 0, len(s.filmGenres[id]))
	for _, gid := range s.filmGenres[id] {
		if g, ok := s.genres[gid]; ok {
			genres = append(genres, g)
		} else {
			genres = append(genres, catalog.Genre{ID: gid})
		}
	}
	s.refMu.RUnlock()
	f.Genres = genres
	likes := make([]int64, 0, len(s.likes[id]))
	for uid := range s.likes[id] {
		likes = append(likes, uid)
	}
	sort.Slice(likes, func(i, j int) bool { return likes[i] < likes[j] })
	f.Likes = likes
	return f, nil
}

// filmIDsLocked returns all film ids sorted ascending. Caller must hold filmMu.
func (s *Store) filmIDsLocked() []int64 {
	ids := make([]int64, 0, len(s.films))
	for id := range s.films {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// usersByIDsLocked resolves a set of user ids to users ordered by id.
// Caller must hold userMu.
func (s *Store) usersByIDsLocked(set map[int64]struct{}) []catalog.User {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]catalog.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out
}

// dedupIDs collapses duplicates and sorts ascending.
func dedupIDs(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
