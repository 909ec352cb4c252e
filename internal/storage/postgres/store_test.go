package postgres

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/avolkov/filmoteka/internal/catalog"
	"github.com/avolkov/filmoteka/internal/errs"
)

func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres store tests")
	}
	return dsn
}

func mustOpen(t *testing.T, dsn string) *Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func applyInitSQL(t *testing.T, dsn string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s := mustOpen(t, dsn)
	defer s.Close()
	// Resolve init SQL path relative to this test file so CWD doesn't matter
	_, thisFile, _, _ := runtime.Caller(0)
	repoRoot := filepath.Clean(filepath.Join(filepath.Dir(thisFile), "../../../"))
	path := filepath.Join(repoRoot, "db", "migrations", "0001_init.sql")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read init sql: %v", err)
	}
	if _, err := s.pool.Exec(ctx, string(b)); err != nil {
		t.Fatalf("apply init sql: %v", err)
	}
}

func truncateAll(t *testing.T, dsn string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s := mustOpen(t, dsn)
	defer s.Close()
	// Reference tables stay seeded; only entity and association rows go.
	_, _ = s.pool.Exec(ctx, `truncate table likes, friends, film_genres, films, users restart identity cascade`)
}

func testFilm(name string, genreIDs ...int) catalog.Film {
	genres := make([]catalog.Genre, 0, len(genreIDs))
	for _, id := range genreIDs {
		genres = append(genres, catalog.Genre{ID: id})
	}
	return catalog.Film{
		Name:        name,
		Description: "integration test film",
		ReleaseDate: time.Date(2001, 7, 20, 0, 0, 0, 0, time.UTC),
		Duration:    125,
		MpaRatingID: 2,
		Genres:      genres,
	}
}

func testUser(login string) catalog.User {
	return catalog.User{
		Email:    login + "@example.com",
		Login:    login,
		Name:     login,
		Birthday: time.Date(1991, 11, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestStore_FilmsUsersAndAssociations(t *testing.T) {
	dsn := getTestDSN(t)
	applyInitSQL(t, dsn)
	truncateAll(t, dsn)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s := mustOpen(t, dsn)
	defer s.Close()

	if err := s.Ready(ctx); err != nil {
		t.Fatalf("ready: %v", err)
	}

	// Reference data comes from the migration seed
	genres, err := s.ListGenres(ctx)
	if err != nil {
		t.Fatalf("list genres: %v", err)
	}
	if len(genres) != 6 {
		t.Fatalf("expected 6 genres, got %d", len(genres))
	}
	mpa, err := s.ListMpaRatings(ctx)
	if err != nil {
		t.Fatalf("list mpa: %v", err)
	}
	if len(mpa) != 5 {
		t.Fatalf("expected 5 mpa ratings, got %d", len(mpa))
	}
	if _, err := s.GetGenre(ctx, 999); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("get missing genre: %v", err)
	}

	// Users
	u1, err := s.CreateUser(ctx, testUser("u1"))
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	u2, err := s.CreateUser(ctx, testUser("u2"))
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	u1.Name = "renamed"
	if _, err := s.UpdateUser(ctx, u1); err != nil {
		t.Fatalf("update user: %v", err)
	}
	got, err := s.GetUser(ctx, u1.ID)
	if err != nil || got.Name != "renamed" {
		t.Fatalf("get user: %+v err=%v", got, err)
	}
	missing := testUser("ghost")
	missing.ID = 99999
	if _, err := s.UpdateUser(ctx, missing); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("update missing user: %v", err)
	}

	// Films: create with duplicate genre ids, expect deduped sorted set
	f1, err := s.CreateFilm(ctx, testFilm("first", 2, 1, 2))
	if err != nil {
		t.Fatalf("create film: %v", err)
	}
	if f1.ID <= 0 || len(f1.Genres) != 2 || f1.Genres[0].ID != 1 || f1.Genres[1].ID != 2 {
		t.Fatalf("unexpected created film: %+v", f1)
	}
	if len(f1.Likes) != 0 {
		t.Fatalf("new film likes: %v", f1.Likes)
	}

	// FK violation surfaces as bad reference
	bad := testFilm("bad", 1)
	bad.MpaRatingID = 999
	if _, err := s.CreateFilm(ctx, bad); !errors.Is(err, errs.ErrBadReference) {
		t.Fatalf("create with bad mpa: %v", err)
	}
	bad = testFilm("bad", 999)
	if _, err := s.CreateFilm(ctx, bad); !errors.Is(err, errs.ErrBadReference) {
		t.Fatalf("create with bad genre: %v", err)
	}

	// Update replaces genre set, keeps likes
	if err := s.AddLike(ctx, f1.ID, u1.ID); err != nil {
		t.Fatalf("add like: %v", err)
	}
	upd := f1
	upd.Genres = []catalog.Genre{{ID: 4}}
	upd.Name = "first (upd)"
	f1, err = s.UpdateFilm(ctx, upd)
	if err != nil {
		t.Fatalf("update film: %v", err)
	}
	if len(f1.Genres) != 1 || f1.Genres[0].ID != 4 {
		t.Fatalf("genres after update: %+v", f1.Genres)
	}
	if len(f1.Likes) != 1 || f1.Likes[0] != u1.ID {
		t.Fatalf("likes after update: %v", f1.Likes)
	}
	ghost := testFilm("ghost", 1)
	ghost.ID = 99999
	if _, err := s.UpdateFilm(ctx, ghost); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("update missing film: %v", err)
	}

	// Likes: idempotent add, no-op remove, FK violation on unknown ids
	if err := s.AddLike(ctx, f1.ID, u1.ID); err != nil {
		t.Fatalf("re-add like: %v", err)
	}
	if err := s.AddLike(ctx, f1.ID, 99999); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("like by missing user: %v", err)
	}
	if err := s.RemoveLike(ctx, f1.ID, u2.ID); err != nil {
		t.Fatalf("remove absent like: %v", err)
	}

	// Popularity: f2 gets two likes, f1 keeps one
	f2, err := s.CreateFilm(ctx, testFilm("second", 2))
	if err != nil {
		t.Fatalf("create film: %v", err)
	}
	if err := s.AddLike(ctx, f2.ID, u1.ID); err != nil {
		t.Fatalf("add like: %v", err)
	}
	if err := s.AddLike(ctx, f2.ID, u2.ID); err != nil {
		t.Fatalf("add like: %v", err)
	}
	top, err := s.PopularFilms(ctx, 10)
	if err != nil {
		t.Fatalf("popular: %v", err)
	}
	if len(top) != 2 || top[0].ID != f2.ID || top[1].ID != f1.ID {
		t.Fatalf("popular order: %+v", top)
	}
	top, err = s.PopularFilms(ctx, 1)
	if err != nil || len(top) != 1 {
		t.Fatalf("popular limit: %+v err=%v", top, err)
	}

	// Genre filter returns the full genre list of each match
	byGenre, err := s.FilmsByGenre(ctx, 2)
	if err != nil {
		t.Fatalf("by genre: %v", err)
	}
	if len(byGenre) != 1 || byGenre[0].ID != f2.ID {
		t.Fatalf("by genre: %+v", byGenre)
	}
	byGenre, err = s.FilmsByGenre(ctx, 999)
	if err != nil || len(byGenre) != 0 {
		t.Fatalf("by missing genre: %+v err=%v", byGenre, err)
	}

	// Friends: directed edges and intersection
	u3, err := s.CreateUser(ctx, testUser("u3"))
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := s.AddFriend(ctx, u1.ID, u3.ID); err != nil {
		t.Fatalf("add friend: %v", err)
	}
	if err := s.AddFriend(ctx, u1.ID, u3.ID); err != nil {
		t.Fatalf("re-add friend: %v", err)
	}
	if err := s.AddFriend(ctx, u2.ID, u3.ID); err != nil {
		t.Fatalf("add friend: %v", err)
	}
	if err := s.AddFriend(ctx, u1.ID, 99999); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("friend missing user: %v", err)
	}
	fr, err := s.Friends(ctx, u1.ID)
	if err != nil || len(fr) != 1 || fr[0].ID != u3.ID {
		t.Fatalf("friends of u1: %+v err=%v", fr, err)
	}
	fr, err = s.Friends(ctx, u3.ID)
	if err != nil || len(fr) != 0 {
		t.Fatalf("friends of u3 (no reverse edge): %+v err=%v", fr, err)
	}
	common, err := s.CommonFriends(ctx, u1.ID, u2.ID)
	if err != nil || len(common) != 1 || common[0].ID != u3.ID {
		t.Fatalf("common friends: %+v err=%v", common, err)
	}
	if err := s.RemoveFriend(ctx, u1.ID, u3.ID); err != nil {
		t.Fatalf("remove friend: %v", err)
	}
	fr, err = s.Friends(ctx, u1.ID)
	if err != nil || len(fr) != 0 {
		t.Fatalf("friends after removal: %+v err=%v", fr, err)
	}

	// Listing stays ordered by id
	all, err := s.ListFilms(ctx)
	if err != nil || len(all) != 2 || all[0].ID != f1.ID {
		t.Fatalf("list films: %+v err=%v", all, err)
	}
	users, err := s.ListUsers(ctx)
	if err != nil || len(users) != 3 {
		t.Fatalf("list users: %+v err=%v", users, err)
	}
}
