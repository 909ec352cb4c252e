package memory

import (
	"github.com/avolkov/filmoteka/internal/service/film"
	"github.com/avolkov/filmoteka/internal/service/user"
)

// Compile-time interface assertions documenting which interfaces Store satisfies.
var (
	// Service layer repos and writers
	_ film.Repo   = (*Store)(nil)
	_ film.Writer = (*Store)(nil)
	_ user.Repo   = (*Store)(nil)
	_ user.Writer = (*Store)(nil)
)
