package main

import (
	"os"
	"path/filepath"

	"grafema/internal/backend"
	"grafema/internal/backend/memory"
	"grafema/internal/backend/sqlite"
)

// openBackend opens the graph store named by the --db/--memory flags,
// creating the database's parent directory if needed (spec §3 "GraphBackend").
func openBackend() (backend.GraphBackend, error) {
	if useMemory {
		return memory.New(), nil
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return sqlite.Open(dbPath)
}

// closeBackend closes b, ignoring the error since callers are already
// exiting with their own status.
func closeBackend(b backend.GraphBackend) {
	_ = b.Close()
}
