package sqlite

import (
	"database/sql"
	"fmt"

	"grafema/internal/glog"
)

// CurrentSchemaVersion is the graph database's schema version (spec §6
// "the backend's data directory"). Bump and add a migration below when the
// schema changes; existing databases are upgraded in place on Open.
const CurrentSchemaVersion = 1

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS nodes (
		id     TEXT PRIMARY KEY,
		kind   TEXT NOT NULL,
		name   TEXT NOT NULL,
		file   TEXT NOT NULL,
		line   INTEGER NOT NULL,
		column INTEGER NOT NULL,
		attrs  TEXT NOT NULL DEFAULT '{}'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_nodes_kind ON nodes(kind)`,
	`CREATE INDEX IF NOT EXISTS idx_nodes_file ON nodes(file)`,
	`CREATE TABLE IF NOT EXISTS edges (
		src   TEXT NOT NULL,
		kind  TEXT NOT NULL,
		dst   TEXT NOT NULL,
		attrs TEXT NOT NULL DEFAULT '{}'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_src ON edges(src)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_dst ON edges(dst)`,
	`CREATE TABLE IF NOT EXISTS singletons (
		id TEXT PRIMARY KEY
	)`,
}

// applyMigrations brings a database up to CurrentSchemaVersion, following
// the teacher's versioned-migration idiom (a schema_version table plus an
// ordered list of statements applied idempotently with CREATE ... IF NOT
// EXISTS). There is only one version today; future schema changes append
// a numbered migration rather than editing schemaStatements in place.
func applyMigrations(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("applying schema statement %q: %w", stmt, err)
		}
	}
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_version`).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, CurrentSchemaVersion); err != nil {
			return err
		}
		glog.Backend("initialized graph schema at version %d", CurrentSchemaVersion)
	}
	return nil
}
