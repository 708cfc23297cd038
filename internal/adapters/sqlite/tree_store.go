// Package sqlite contains the SQLite implementation of the tree store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/lms/internal/core/tree"
	"github.com/example/lms/internal/ports/secondary"
)

// TreeStore implements secondary.TreeStore with one row per leaf.
type TreeStore struct {
	db *sql.DB
}

// NewTreeStore creates a new SQLite tree store.
func NewTreeStore(db *sql.DB) *TreeStore {
	return &TreeStore{db: db}
}

// Read assembles the subtree at path from its leaves.
func (s *TreeStore) Read(ctx context.Context, path string) (any, bool, error) {
	path = tree.Clean(path)

	var (
		rows *sql.Rows
		err  error
	)
	if path == "" {
		rows, err = s.db.QueryContext(ctx, "SELECT path, value FROM nodes ORDER BY path")
	} else {
		lo, hi := tree.SubtreeBounds(path)
		rows, err = s.db.QueryContext(ctx,
			"SELECT path, value FROM nodes WHERE path = ? OR (path >= ? AND path < ?) ORDER BY path",
			path, lo, hi,
		)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %q: %w", path, err)
	}
	defer rows.Close()

	var leaves []tree.Leaf
	for rows.Next() {
		var leaf tree.Leaf
		if err := rows.Scan(&leaf.Path, &leaf.Value); err != nil {
			return nil, false, fmt.Errorf("failed to scan leaf: %w", err)
		}
		leaves = append(leaves, leaf)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to read %q: %w", path, err)
	}

	value, ok, err := tree.Assemble(path, leaves)
	if err != nil {
		return nil, false, err
	}
	return value, ok, nil
}

// Write replaces the subtree at path.
func (s *TreeStore) Write(ctx context.Context, path string, value any) error {
	path = tree.Clean(path)
	leaves, err := prepare(path, value)
	if err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return replace(ctx, tx, path, leaves)
	})
}

// Merge replaces each child of path named in partial, in one transaction.
func (s *TreeStore) Merge(ctx context.Context, path string, partial map[string]any) error {
	path = tree.Clean(path)
	children := make(map[string][]tree.Leaf, len(partial))
	for _, k := range tree.SortedKeys(partial) {
		if !tree.ValidKey(k) {
			return fmt.Errorf("invalid key %q under %q", k, path)
		}
		leaves, err := prepare(tree.Join(path, k), partial[k])
		if err != nil {
			return err
		}
		children[k] = leaves
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, k := range tree.SortedKeys(partial) {
			if err := replace(ctx, tx, tree.Join(path, k), children[k]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes the subtree at path.
func (s *TreeStore) Delete(ctx context.Context, path string) error {
	path = tree.Clean(path)
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return replace(ctx, tx, path, nil)
	})
}

func prepare(path string, value any) ([]tree.Leaf, error) {
	norm, err := tree.Normalize(value)
	if err != nil {
		return nil, fmt.Errorf("failed to store value at %q: %w", path, err)
	}
	norm = tree.Prune(norm)
	if path == "" && norm != nil && !tree.IsObject(norm) {
		return nil, fmt.Errorf("the tree root must be an object, got %T", norm)
	}
	return tree.Flatten(path, norm)
}

// replace removes the subtree at path and inserts leaves in its place. When
// leaves are inserted, leaf rows at ancestors are removed so the new node is
// reachable.
func replace(ctx context.Context, tx *sql.Tx, path string, leaves []tree.Leaf) error {
	var err error
	if path == "" {
		_, err = tx.ExecContext(ctx, "DELETE FROM nodes")
	} else {
		lo, hi := tree.SubtreeBounds(path)
		_, err = tx.ExecContext(ctx, "DELETE FROM nodes WHERE path = ? OR (path >= ? AND path < ?)", path, lo, hi)
	}
	if err != nil {
		return fmt.Errorf("failed to clear %q: %w", path, err)
	}
	if len(leaves) == 0 {
		return nil
	}

	for _, ancestor := range tree.Ancestors(path) {
		if _, err := tx.ExecContext(ctx, "DELETE FROM nodes WHERE path = ?", ancestor); err != nil {
			return fmt.Errorf("failed to clear ancestor %q: %w", ancestor, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO nodes (path, value, updated_at) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, leaf := range leaves {
		if _, err := stmt.ExecContext(ctx, leaf.Path, leaf.Value, now); err != nil {
			return fmt.Errorf("failed to write %q: %w", leaf.Path, err)
		}
	}
	return nil
}

func (s *TreeStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

var _ secondary.TreeStore = (*TreeStore)(nil)
