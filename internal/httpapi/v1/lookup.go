package v1

import (
	"net/http"
	"strconv"

	chi "github.com/go-chi/chi/v5"
)

// Reference-data endpoints. Genres and MPA ratings are read-only: pre-seeded
// by migration, never written through the API.

func (s *Server) listGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := s.genres.ListGenres(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, genres)
}

func (s *Server) getGenre(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid genre id")
		return
	}
	g, err := s.genres.GetGenre(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, g)
}

func (s *Server) listMpaRatings(w http.ResponseWriter, r *http.Request) {
	ratings, err := s.mpa.ListMpaRatings(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, ratings)
}

func (s *Server) getMpaRating(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid mpa rating id")
		return
	}
	m, err := s.mpa.GetMpaRating(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, m)
}
