package v1

import (
	"github.com/avolkov/filmoteka/internal/storage/memory"
	"github.com/avolkov/filmoteka/internal/storage/postgres"
)

// Compile-time interface assertions documenting which interfaces the storage
// backends satisfy.
var (
	_ Store = (*memory.Store)(nil)
	_ Store = (*postgres.Store)(nil)

	_ ReadyChecker = (*postgres.Store)(nil)
)
