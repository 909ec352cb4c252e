package v1

import (
	"fmt"
	"time"

	"github.com/avolkov/filmoteka/internal/catalog"
)

// dateOnly marshals as yyyy-mm-dd, matching the wire format for release dates
// and birthdays.
type dateOnly struct {
	time.Time
}

const dateOnlyLayout = "2006-01-02"

func (d dateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateOnlyLayout) + `"`), nil
}

func (d *dateOnly) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("date must be a %q string", dateOnlyLayout)
	}
	t, err := time.Parse(dateOnlyLayout, string(b[1:len(b)-1]))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

type genrePayload struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

type filmRequest struct {
	ID          int64          `json:"id,omitempty"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	ReleaseDate dateOnly       `json:"release_date"`
	Duration    int            `json:"duration"`
	MpaRatingID int            `json:"mpa_rating_id"`
	Genres      []genrePayload `json:"genres"`
}

type filmResponse struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	ReleaseDate dateOnly       `json:"release_date"`
	Duration    int            `json:"duration"`
	MpaRatingID int            `json:"mpa_rating_id"`
	Genres      []genrePayload `json:"genres"`
	Likes       []int64        `json:"likes"`
}

type userRequest struct {
	ID       int64    `json:"id,omitempty"`
	Email    string   `json:"email"`
	Login    string   `json:"login"`
	Name     string   `json:"name"`
	Birthday dateOnly `json:"birthday"`
}

type userResponse struct {
	ID       int64    `json:"id"`
	Email    string   `json:"email"`
	Login    string   `json:"login"`
	Name     string   `json:"name"`
	Birthday dateOnly `json:"birthday"`
}

func toFilmDomain(req filmRequest) catalog.Film {
	genres := make([]catalog.Genre, 0, len(req.Genres))
	for _, g := range req.Genres {
		genres = append(genres, catalog.Genre{ID: g.ID, Name: g.Name})
	}
	return catalog.Film{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		ReleaseDate: req.ReleaseDate.Time,
		Duration:    req.Duration,
		MpaRatingID: req.MpaRatingID,
		Genres:      genres,
	}
}

func toFilmResponse(f catalog.Film) filmResponse {
	genres := make([]genrePayload, 0, len(f.Genres))
	for _, g := range f.Genres {
		genres = append(genres, genrePayload{ID: g.ID, Name: g.Name})
	}
	likes := f.Likes
	if likes == nil {
		likes = []int64{}
	}
	return filmResponse{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		ReleaseDate: dateOnly{f.ReleaseDate},
		Duration:    f.Duration,
		MpaRatingID: f.MpaRatingID,
		Genres:      genres,
		Likes:       likes,
	}
}

func toFilmResponses(films []catalog.Film) []filmResponse {
	out := make([]filmResponse, 0, len(films))
	for _, f := range films {
		out = append(out, toFilmResponse(f))
	}
	return out
}

func toUserDomain(req userRequest) catalog.User {
	return catalog.User{
		ID:       req.ID,
		Email:    req.Email,
		Login:    req.Login,
		Name:     req.Name,
		Birthday: req.Birthday.Time,
	}
}

func toUserResponse(u catalog.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Login: u.Login, Name: u.Name, Birthday: dateOnly{u.Birthday}}
}

func toUserResponses(users []catalog.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}
