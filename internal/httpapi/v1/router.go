package v1

import (
	"net/http"

	"log/slog"

	chi "github.com/go-chi/chi/v5"

	"github.com/avolkov/filmoteka/internal/service/film"
	"github.com/avolkov/filmoteka/internal/service/refs"
	"github.com/avolkov/filmoteka/internal/service/user"
)

// Store is the union of repositories the API needs. Both storage backends
// (memory, postgres) satisfy it.
type Store interface {
	film.Repo
	film.Writer
	user.Repo
	user.Writer
	GenreReader
	MpaReader
}

// Server wires handlers and middleware using Chi.
type Server struct {
	films  film.Service
	users  user.Service
	genres GenreReader
	mpa    MpaReader
	store  Store
	log    *slog.Logger
	rt     *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
// The logger is used by basic request/response logging and panic recovery.
func New(store Store, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	validator := refs.New(store, store, store, store)
	s := &Server{
		films:  film.New(store, store, validator),
		users:  user.New(store, store, validator),
		genres: store,
		mpa:    store,
		store:  store,
		log:    logger,
		rt:     r,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints.
func (s *Server) routes() {
	// Films (v1)
	s.rt.Get("/v1/films", s.listFilms)
	s.rt.Post("/v1/films", s.postFilm)
	s.rt.Put("/v1/films", s.putFilm)
	s.rt.Get("/v1/films/popular", s.popularFilms)
	s.rt.Get("/v1/films/genre/{genreID}", s.filmsByGenre)
	s.rt.Get("/v1/films/{id}", s.getFilm)
	s.rt.Put("/v1/films/{id}/like/{userID}", s.likeFilm)
	s.rt.Delete("/v1/films/{id}/like/{userID}", s.unlikeFilm)
	// Users (v1)
	s.rt.Get("/v1/users", s.listUsers)
	s.rt.Post("/v1/users", s.postUser)
	s.rt.Put("/v1/users", s.putUser)
	s.rt.Get("/v1/users/{id}", s.getUser)
	s.rt.Put("/v1/users/{id}/friends/{friendID}", s.addFriend)
	s.rt.Delete("/v1/users/{id}/friends/{friendID}", s.removeFriend)
	s.rt.Get("/v1/users/{id}/friends", s.listFriends)
	s.rt.Get("/v1/users/{id}/friends/common/{otherID}", s.commonFriends)
	// Reference data (v1)
	s.rt.Get("/v1/genres", s.listGenres)
	s.rt.Get("/v1/genres/{id}", s.getGenre)
	s.rt.Get("/v1/mpa", s.listMpaRatings)
	s.rt.Get("/v1/mpa/{id}", s.getMpaRating)
	// Health and metrics (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Handle("/metrics", metricsHandler())
}
