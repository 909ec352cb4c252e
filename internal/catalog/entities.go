package catalog

import (
	"sort"
	"strings"
	"time"
)

// EarliestReleaseDate is the first public film screening; no film can predate it.
var EarliestReleaseDate = time.Date(1895, time.December, 28, 0, 0, 0, 0, time.UTC)

// Genre is a many-to-many classification tag attachable to a film.
// Genres are reference data: pre-seeded, never created or mutated by the service.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MpaRating is a content-rating classification (G, PG, ...), one per film.
// Like Genre it is read-only reference data.
type MpaRating struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Film is a catalog entry. Genres are always surfaced sorted by genre id with
// duplicates collapsed; Likes holds the ids of users who liked the film,
// sorted ascending for stable output.
type Film struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ReleaseDate time.Time `json:"release_date"`
	// Duration is the running time in minutes.
	Duration    int     `json:"duration"`
	MpaRatingID int     `json:"mpa_rating_id"`
	Genres      []Genre `json:"genres"`
	Likes       []int64 `json:"likes"`
}

// User owns likes and friendship edges. Friends are not stored on the entity;
// they are derived from the directed friendship relation.
type User struct {
	ID       int64     `json:"id"`
	Email    string    `json:"email"`
	Login    string    `json:"login"`
	Name     string    `json:"name"`
	Birthday time.Time `json:"birthday"`
}

// Normalized returns a copy of the user with a blank name replaced by the
// login. It must be applied exactly once, before persistence; once persisted a
// user's name is never blank.
func (u User) Normalized() User {
	if strings.TrimSpace(u.Name) == "" {
		u.Name = u.Login
	}
	return u
}

// DedupGenres collapses duplicate genre ids keeping the first-seen name and
// returns the result sorted by id ascending.
func DedupGenres(genres []Genre) []Genre {
	seen := make(map[int]struct{}, len(genres))
	out := make([]Genre, 0, len(genres))
	for _, g := range genres {
		if _, ok := seen[g.ID]; ok {
			continue
		}
		seen[g.ID] = struct{}{}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GenreIDs extracts the ids of the given genres in order.
func GenreIDs(genres []Genre) []int {
	ids := make([]int, 0, len(genres))
	for _, g := range genres {
		ids = append(ids, g.ID)
	}
	return ids
}
