// Package sqlite is Grafema's durable GraphBackend, grounded on
// internal/store/local_graph.go's mutex-guarded *sql.DB wrapper and
// internal/store/migrations.go's versioned schema applier — adapted from a
// knowledge-graph/vector store to the node/edge/singleton schema the
// extraction pipeline needs. Uses modernc.org/sqlite (pure Go, matching the
// teacher's secondary sqlite driver) so the backend has no cgo dependency.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"grafema/internal/backend"
	"grafema/internal/glog"
	"grafema/internal/grafemaerr"
	"grafema/internal/graph"
)

// Store is a sqlite-backed GraphBackend.
type Store struct {
	mu sync.RWMutex
	db *sql.DB
}

// Open opens (creating if absent) the sqlite database at path and applies
// pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, grafemaerr.Wrap(grafemaerr.KindBackendUnavailable, err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite + WAL: serialize writers at the Go level too
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, grafemaerr.Wrap(grafemaerr.KindBackendUnavailable, err)
	}
	s := &Store{db: db}
	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, grafemaerr.Wrap(grafemaerr.KindBackendUnavailable, err)
	}
	glog.Backend("opened sqlite graph backend at %s", path)
	return s, nil
}

func (s *Store) AddNodes(_ context.Context, nodes []*graph.Node) error {
	timer := glog.StartTimer(glog.CategoryBackend, "AddNodes")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO nodes (id, kind, name, file, line, column, attrs) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, n := range nodes {
		attrsJSON, err := json.Marshal(n.Attrs)
		if err != nil {
			return fmt.Errorf("marshal attrs for %s: %w", n.ID, err)
		}
		if _, err := stmt.Exec(n.ID, string(n.Kind), n.Name, n.File, n.Line, n.Column, string(attrsJSON)); err != nil {
			return grafemaerr.New(grafemaerr.KindDuplicateID, "insert node %s: %v", n.ID, err)
		}
	}
	return tx.Commit()
}

func (s *Store) AddEdges(ctx context.Context, edges []*graph.Edge, opts backend.AddEdgesOptions) error {
	timer := glog.StartTimer(glog.CategoryBackend, "AddEdges")
	defer timer.Stop()

	if !opts.SkipValidation {
		for _, e := range edges {
			from, fromOK, _ := s.GetNode(ctx, e.From)
			to, toOK, _ := s.GetNode(ctx, e.To)
			if !fromOK || !toOK {
				return grafemaerr.New(grafemaerr.KindUnknownTargetType, "edge %s endpoints not both present: %s -> %s", e.Kind, e.From, e.To)
			}
			if !graph.CheckSignature(e.Kind, from.Kind, to.Kind) {
				return grafemaerr.New(grafemaerr.KindUnknownTargetType, "edge %s may not connect %s -> %s", e.Kind, from.Kind, to.Kind)
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO edges (src, kind, dst, attrs) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, e := range edges {
		attrsJSON, err := json.Marshal(e.Attrs)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(e.From, string(e.Kind), e.To, string(attrsJSON)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) GetNode(_ context.Context, id string) (*graph.Node, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRow(`SELECT id, kind, name, file, line, column, attrs FROM nodes WHERE id = ?`, id)
	n, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return n, true, nil
}

func (s *Store) FindNodes(_ context.Context, filter backend.NodeFilter) ([]*graph.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	query := `SELECT id, kind, name, file, line, column, attrs FROM nodes WHERE 1=1`
	var args []any
	if filter.Kind != "" {
		query += " AND kind = ?"
		args = append(args, string(filter.Kind))
	}
	if filter.Name != "" {
		query += " AND name = ?"
		args = append(args, filter.Name)
	}
	if filter.File != "" {
		query += " AND file = ?"
		args = append(args, filter.File)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*graph.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			glog.BackendWarn("FindNodes row scan failed: %v", err)
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *Store) GetEdges(_ context.Context, nodeID string, dir backend.Direction) ([]*graph.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var query string
	switch dir {
	case backend.DirectionOut:
		query = `SELECT src, kind, dst, attrs FROM edges WHERE src = ?`
	case backend.DirectionIn:
		query = `SELECT src, kind, dst, attrs FROM edges WHERE dst = ?`
	default:
		query = `SELECT src, kind, dst, attrs FROM edges WHERE src = ? OR dst = ?`
	}
	args := []any{nodeID}
	if dir == backend.DirectionBoth {
		args = append(args, nodeID)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEdges(rows)
}

func (s *Store) GetAllEdges(_ context.Context) ([]*graph.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.Query(`SELECT src, kind, dst, attrs FROM edges`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEdges(rows)
}

func (s *Store) DeleteNodes(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, id := range ids {
		if _, err := tx.Exec(`DELETE FROM edges WHERE src = ? OR dst = ?`, id, id); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM nodes WHERE id = ?`, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*graph.Node, error) {
	var n graph.Node
	var kind, attrsJSON string
	if err := row.Scan(&n.ID, &kind, &n.Name, &n.File, &n.Line, &n.Column, &attrsJSON); err != nil {
		return nil, err
	}
	n.Kind = graph.NodeKind(kind)
	n.Attrs = make(map[string]any)
	if attrsJSON != "" {
		if err := json.Unmarshal([]byte(attrsJSON), &n.Attrs); err != nil {
			return nil, err
		}
	}
	return &n, nil
}

func scanEdges(rows *sql.Rows) ([]*graph.Edge, error) {
	var out []*graph.Edge
	for rows.Next() {
		var e graph.Edge
		var kind, attrsJSON string
		if err := rows.Scan(&e.From, &kind, &e.To, &attrsJSON); err != nil {
			glog.BackendWarn("edge row scan failed: %v", err)
			continue
		}
		e.Kind = graph.EdgeKind(kind)
		e.Attrs = make(map[string]any)
		if attrsJSON != "" {
			if err := json.Unmarshal([]byte(attrsJSON), &e.Attrs); err != nil {
				glog.BackendWarn("edge attrs unmarshal failed for %s -[%s]-> %s: %v", e.From, e.Kind, e.To, err)
			}
		}
		out = append(out, &e)
	}
	return out, nil
}

var _ backend.GraphBackend = (*Store)(nil)
