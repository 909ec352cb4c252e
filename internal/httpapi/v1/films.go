package v1

import (
	"encoding/json"
	"net/http"
	"strconv"

	chi "github.com/go-chi/chi/v5"
)

// defaultPopularCount is used when GET /films/popular has no count param.
const defaultPopularCount = 10

// listFilms handles GET /films.
func (s *Server) listFilms(w http.ResponseWriter, r *http.Request) {
	films, err := s.films.List(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toFilmResponses(films))
}

// getFilm handles GET /films/{id}.
func (s *Server) getFilm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	f, err := s.films.Get(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toFilmResponse(f))
}

// postFilm handles POST /films.
func (s *Server) postFilm(w http.ResponseWriter, r *http.Request) {
	var req filmRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	created, err := s.films.Create(r.Context(), toFilmDomain(req))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	toJSON(w, http.StatusCreated, toFilmResponse(created))
}

// putFilm handles PUT /films. The body must carry the id of an existing film.
func (s *Server) putFilm(w http.ResponseWriter, r *http.Request) {
	var req filmRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	updated, err := s.films.Update(r.Context(), toFilmDomain(req))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toFilmResponse(updated))
}

// likeFilm handles PUT /films/{id}/like/{userID}.
func (s *Server) likeFilm(w http.ResponseWriter, r *http.Request) {
	filmID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	if err := s.films.Like(r.Context(), filmID, userID); err != nil {
		s.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// unlikeFilm handles DELETE /films/{id}/like/{userID}.
func (s *Server) unlikeFilm(w http.ResponseWriter, r *http.Request) {
	filmID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	if err := s.films.Unlike(r.Context(), filmID, userID); err != nil {
		s.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// popularFilms handles GET /films/popular?count=N (default 10).
func (s *Server) popularFilms(w http.ResponseWriter, r *http.Request) {
	count := defaultPopularCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(w, "invalid count")
			return
		}
		count = n
	}
	films, err := s.films.Popular(r.Context(), count)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toFilmResponses(films))
}

// filmsByGenre handles GET /films/genre/{genreID}. Unknown genres yield an
// empty list.
func (s *Server) filmsByGenre(w http.ResponseWriter, r *http.Request) {
	genreID, err := strconv.Atoi(chi.URLParam(r, "genreID"))
	if err != nil {
		badRequest(w, "invalid genre id")
		return
	}
	films, err := s.films.ByGenre(r.Context(), genreID)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toFilmResponses(films))
}

// pathID parses a positive int64 path parameter, responding 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, "invalid "+name)
		return 0, false
	}
	return id, true
}
