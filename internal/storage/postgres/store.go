// Package postgres provides a pgx-backed storage implementation that satisfies
// the repository and writer interfaces used by the HTTP/API and services.
//
// It is intentionally small and explicit. Migrations that create the expected
// schema live under db/migrations. This package focuses on mapping between the
// domain entities and SQL rows and running the necessary statements/transactions.
//
// Two consistency rules shape the code here: the genre-association set of a
// film is replaced delete-then-insert inside one transaction, and every read
// that assembles a film from multiple rows runs inside a repeatable-read
// read-only transaction so a concurrent replace is never observed half-applied.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avolkov/filmoteka/internal/catalog"
	"github.com/avolkov/filmoteka/internal/errs"
)

// Store holds a pgx connection pool and implements the read/write interfaces
// used across the service layer. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// --- Film writes ---

// CreateFilm inserts the scalar row and one association row per distinct
// genre id in a transaction, then returns the film re-read from storage.
func (s *Store) CreateFilm(ctx context.Context, f catalog.Film) (catalog.Film, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return catalog.Film{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	err = tx.QueryRow(ctx, `
        insert into films (name, description, release_date, duration, mpa_rating_id)
        values ($1,$2,$3,$4,$5)
        returning film_id
    `, f.Name, f.Description, f.ReleaseDate, f.Duration, f.MpaRatingID).Scan(&f.ID)
	if err != nil {
		return catalog.Film{}, mapRefViolation(err)
	}
	if err := insertGenres(ctx, tx, f.ID, f.Genres); err != nil {
		return catalog.Film{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return catalog.Film{}, err
	}
	return s.GetFilm(ctx, f.ID)
}

// UpdateFilm replaces the scalar fields, deletes all prior genre associations
// and re-inserts the new set, all in one transaction. Likes are not touched.
func (s *Store) UpdateFilm(ctx context.Context, f catalog.Film) (catalog.Film, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return catalog.Film{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	ct, err := tx.Exec(ctx, `
        update films
        set name=$1, description=$2, release_date=$3, duration=$4, mpa_rating_id=$5
        where film_id=$6
    `, f.Name, f.Description, f.ReleaseDate, f.Duration, f.MpaRatingID, f.ID)
	if err != nil {
		return catalog.Film{}, mapRefViolation(err)
	}
	if ct.RowsAffected() == 0 {
		return catalog.Film{}, errs.ErrNotFound
	}
	if _, err := tx.Exec(ctx, `delete from film_genres where film_id=$1`, f.ID); err != nil {
		return catalog.Film{}, err
	}
	if err := insertGenres(ctx, tx, f.ID, f.Genres); err != nil {
		return catalog.Film{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return catalog.Film{}, err
	}
	return s.GetFilm(ctx, f.ID)
}

// AddLike inserts the (film, user) pair; re-adding an existing like is a no-op.
func (s *Store) AddLike(ctx context.Context, filmID, userID int64) error {
	_, err := s.pool.Exec(ctx, `
        insert into likes (film_id, user_id)
        values ($1,$2)
        on conflict (film_id, user_id) do nothing
    `, filmID, userID)
	if isFKViolation(err) {
		return errs.ErrNotFound
	}
	return err
}

// RemoveLike deletes the (film, user) pair; an absent like is a no-op.
func (s *Store) RemoveLike(ctx context.Context, filmID, userID int64) error {
	_, err := s.pool.Exec(ctx, `delete from likes where film_id=$1 and user_id=$2`, filmID, userID)
	return err
}

// --- Film reads ---

// GetFilm assembles one film with its full genre list and like set.
func (s *Store) GetFilm(ctx context.Context, id int64) (catalog.Film, error) {
	var out catalog.Film
	err := s.readTx(ctx, func(tx pgx.Tx) error {
		films, err := loadFilms(ctx, tx, []int64{id})
		if err != nil {
			return err
		}
		if len(films) == 0 {
			return errs.ErrNotFound
		}
		out = films[0]
		return nil
	})
	return out, err
}

// ListFilms returns every film, ordered by film id.
func (s *Store) ListFilms(ctx context.Context) ([]catalog.Film, error) {
	var out []catalog.Film
	err := s.readTx(ctx, func(tx pgx.Tx) error {
		ids, err := collectIDs(tx.Query(ctx, `select film_id from films order by film_id`))
		if err != nil {
			return err
		}
		out, err = loadFilms(ctx, tx, ids)
		return err
	})
	return out, err
}

// PopularFilms returns films ordered by descending like count, ascending film
// id on ties, truncated to limit.
func (s *Store) PopularFilms(ctx context.Context, limit int) ([]catalog.Film, error) {
	var out []catalog.Film
	err := s.readTx(ctx, func(tx pgx.Tx) error {
		ids, err := collectIDs(tx.Query(ctx, `
            select f.film_id
            from films f
            left join likes l on l.film_id = f.film_id
            group by f.film_id
            order by count(l.user_id) desc, f.film_id asc
            limit $1
        `, limit))
		if err != nil {
			return err
		}
		out, err = loadFilms(ctx, tx, ids)
		return err
	})
	return out, err
}

// FilmsByGenre returns films that carry the genre, each with its full genre
// list, ordered by film id ascending.
func (s *Store) FilmsByGenre(ctx context.Context, genreID int) ([]catalog.Film, error) {
	var out []catalog.Film
	err := s.readTx(ctx, func(tx pgx.Tx) error {
		ids, err := collectIDs(tx.Query(ctx, `
            select distinct film_id from film_genres where genre_id=$1 order by film_id
        `, genreID))
		if err != nil {
			return err
		}
		out, err = loadFilms(ctx, tx, ids)
		return err
	})
	return out, err
}

// --- User writes ---

func (s *Store) CreateUser(ctx context.Context, u catalog.User) (catalog.User, error) {
	err := s.pool.QueryRow(ctx, `
        insert into users (email, login, name, birthday)
        values ($1,$2,$3,$4)
        returning user_id
    `, u.Email, u.Login, u.Name, u.Birthday).Scan(&u.ID)
	if err != nil {
		return catalog.User{}, err
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u catalog.User) (catalog.User, error) {
	ct, err := s.pool.Exec(ctx, `
        update users set email=$1, login=$2, name=$3, birthday=$4 where user_id=$5
    `, u.Email, u.Login, u.Name, u.Birthday, u.ID)
	if err != nil {
		return catalog.User{}, err
	}
	if ct.RowsAffected() == 0 {
		return catalog.User{}, errs.ErrNotFound
	}
	return u, nil
}

// AddFriend inserts the directed edge userID -> friendID. Idempotent.
func (s *Store) AddFriend(ctx context.Context, userID, friendID int64) error {
	_, err := s.pool.Exec(ctx, `
        insert into friends (user_id, friend_id)
        values ($1,$2)
        on conflict (user_id, friend_id) do nothing
    `, userID, friendID)
	if isFKViolation(err) {
		return errs.ErrNotFound
	}
	return err
}

// RemoveFriend deletes the directed edge; an absent edge is a no-op.
func (s *Store) RemoveFriend(ctx context.Context, userID, friendID int64) error {
	_, err := s.pool.Exec(ctx, `delete from friends where user_id=$1 and friend_id=$2`, userID, friendID)
	return err
}

// --- User reads ---

func (s *Store) GetUser(ctx context.Context, id int64) (catalog.User, error) {
	var u catalog.User
	err := s.pool.QueryRow(ctx, `
        select user_id, email, login, name, birthday from users where user_id=$1
    `, id).Scan(&u.ID, &u.Email, &u.Login, &u.Name, &u.Birthday)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.User{}, errs.ErrNotFound
	}
	if err != nil {
		return catalog.User{}, err
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]catalog.User, error) {
	return s.queryUsers(ctx, `
        select user_id, email, login, name, birthday from users order by user_id
    `)
}

// Friends returns the targets of the user's outgoing friendship edges.
func (s *Store) Friends(ctx context.Context, userID int64) ([]catalog.User, error) {
	return s.queryUsers(ctx, `
        select u.user_id, u.email, u.login, u.name, u.birthday
        from users u
        join friends f on u.user_id = f.friend_id
        where f.user_id = $1
        order by u.user_id
    `, userID)
}

// CommonFriends intersects the outgoing edges of both users by target id.
func (s *Store) CommonFriends(ctx context.Context, userID, otherID int64) ([]catalog.User, error) {
	return s.queryUsers(ctx, `
        select u.user_id, u.email, u.login, u.name, u.birthday
        from users u
        join friends f1 on u.user_id = f1.friend_id and f1.user_id = $1
        join friends f2 on u.user_id = f2.friend_id and f2.user_id = $2
        order by u.user_id
    `, userID, otherID)
}

// --- Reference data ---

func (s *Store) GetGenre(ctx context.Context, id int) (catalog.Genre, error) {
	var g catalog.Genre
	err := s.pool.QueryRow(ctx, `select genre_id, name from genres where genre_id=$1`, id).
		Scan(&g.ID, &g.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Genre{}, errs.ErrNotFound
	}
	if err != nil {
		return catalog.Genre{}, err
	}
	return g, nil
}

func (s *Store) ListGenres(ctx context.Context) ([]catalog.Genre, error) {
	rows, err := s.pool.Query(ctx, `select genre_id, name from genres order by genre_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]catalog.Genre, 0)
	for rows.Next() {
		var g catalog.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) GetMpaRating(ctx context.Context, id int) (catalog.MpaRating, error) {
	var m catalog.MpaRating
	err := s.pool.QueryRow(ctx, `select mpa_rating_id, name from mpa_ratings where mpa_rating_id=$1`, id).
		Scan(&m.ID, &m.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.MpaRating{}, errs.ErrNotFound
	}
	if err != nil {
		return catalog.MpaRating{}, err
	}
	return m, nil
}

func (s *Store) ListMpaRatings(ctx context.Context) ([]catalog.MpaRating, error) {
	rows, err := s.pool.Query(ctx, `select mpa_rating_id, name from mpa_ratings order by mpa_rating_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]catalog.MpaRating, 0)
	for rows.Next() {
		var m catalog.MpaRating
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// --- helpers ---

// readTx runs fn inside a repeatable-read read-only transaction so multi-row
// film assembly never observes a torn genre or like set.
func (s *Store) readTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// loadFilms fetches scalar rows plus genre and like sets for the given ids and
// folds the association rows into films by id, preserving the order of ids.
func loadFilms(ctx context.Context, tx pgx.Tx, ids []int64) ([]catalog.Film, error) {
	if len(ids) == 0 {
		return []catalog.Film{}, nil
	}
	rows, err := tx.Query(ctx, `
        select film_id, name, description, release_date, duration, mpa_rating_id
        from films
        where film_id = any($1)
    `, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	byID := make(map[int64]*catalog.Film, len(ids))
	for rows.Next() {
		var f catalog.Film
		if err := rows.Scan(&f.ID, &f.Name, &f.Description, &f.ReleaseDate, &f.Duration, &f.MpaRatingID); err != nil {
			return nil, err
		}
		f.Genres = []catalog.Genre{}
		f.Likes = []int64{}
		byID[f.ID] = &f
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	genreRows, err := tx.Query(ctx, `
        select fg.film_id, g.genre_id, g.name
        from film_genres fg
        join genres g on g.genre_id = fg.genre_id
        where fg.film_id = any($1)
        order by g.genre_id asc
    `, ids)
	if err != nil {
		return nil, err
	}
	defer genreRows.Close()
	for genreRows.Next() {
		var filmID int64
		var g catalog.Genre
		if err := genreRows.Scan(&filmID, &g.ID, &g.Name); err != nil {
			return nil, err
		}
		if f := byID[filmID]; f != nil {
			f.Genres = append(f.Genres, g)
		}
	}
	if err := genreRows.Err(); err != nil {
		return nil, err
	}
	likeRows, err := tx.Query(ctx, `
        select film_id, user_id from likes where film_id = any($1) order by user_id asc
    `, ids)
	if err != nil {
		return nil, err
	}
	defer likeRows.Close()
	for likeRows.Next() {
		var filmID, userID int64
		if err := likeRows.Scan(&filmID, &userID); err != nil {
			return nil, err
		}
		if f := byID[filmID]; f != nil {
			f.Likes = append(f.Likes, userID)
		}
	}
	if err := likeRows.Err(); err != nil {
		return nil, err
	}
	out := make([]catalog.Film, 0, len(byID))
	for _, id := range ids {
		if f, ok := byID[id]; ok {
			out = append(out, *f)
		}
	}
	return out, nil
}

// insertGenres writes one association row per distinct genre id.
func insertGenres(ctx context.Context, tx pgx.Tx, filmID int64, genres []catalog.Genre) error {
	seen := make(map[int]struct{}, len(genres))
	for _, g := range genres {
		if _, ok := seen[g.ID]; ok {
			continue
		}
		seen[g.ID] = struct{}{}
		if _, err := tx.Exec(ctx, `
            insert into film_genres (film_id, genre_id) values ($1,$2)
        `, filmID, g.ID); err != nil {
			return mapRefViolation(err)
		}
	}
	return nil
}

// queryUsers runs a query selecting full user rows and scans the results.
func (s *Store) queryUsers(ctx context.Context, sql string, args ...any) ([]catalog.User, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]catalog.User, 0)
	for rows.Next() {
		var u catalog.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Login, &u.Name, &u.Birthday); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// collectIDs drains a single-column id query.
func collectIDs(rows pgx.Rows, err error) ([]int64, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// mapRefViolation converts a foreign-key violation into the domain reference
// error. The service layer checks references first; the constraint catches
// rows deleted between check and write.
func mapRefViolation(err error) error {
	if isFKViolation(err) {
		return errs.ErrBadReference
	}
	return err
}

func isFKViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
