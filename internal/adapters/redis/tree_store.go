// Package redis implements the tree store on Redis. Leaves are indexed in a
// sorted set with equal scores, so a subtree is a lexicographic range, and their
// JSON values live in a hash.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/example/lms/internal/core/tree"
	"github.com/example/lms/internal/ports/secondary"
)

// DefaultPrefix namespaces the store keys when no prefix is configured.
const DefaultPrefix = "lms:tree"

// Connect opens a client and checks the server answers.
func Connect(ctx context.Context, addr string) (*goredis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// TreeStore implements secondary.TreeStore on Redis.
type TreeStore struct {
	rdb    *goredis.Client
	idxKey string
	valKey string
}

// NewTreeStore creates a tree store whose keys start with prefix.
func NewTreeStore(rdb *goredis.Client, prefix string) *TreeStore {
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultPrefix
	}
	return &TreeStore{
		rdb:    rdb,
		idxKey: prefix + ":idx",
		valKey: prefix + ":val",
	}
}

// Read assembles the subtree at path.
func (s *TreeStore) Read(ctx context.Context, path string) (any, bool, error) {
	path = tree.Clean(path)
	paths, err := s.subtree(ctx, path)
	if err != nil {
		return nil, false, err
	}
	if len(paths) == 0 {
		return nil, false, nil
	}

	values, err := s.rdb.HMGet(ctx, s.valKey, paths...).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %q: %w", path, err)
	}
	leaves := make([]tree.Leaf, 0, len(paths))
	for i, p := range paths {
		raw, ok := values[i].(string)
		if !ok {
			// Index entry without a value: a concurrent writer is mid-flight.
			continue
		}
		leaves = append(leaves, tree.Leaf{Path: p, Value: raw})
	}
	return tree.Assemble(path, leaves)
}

// Write replaces the subtree at path.
func (s *TreeStore) Write(ctx context.Context, path string, value any) error {
	path = tree.Clean(path)
	leaves, err := prepare(path, value)
	if err != nil {
		return err
	}
	return s.replace(ctx, map[string][]tree.Leaf{path: leaves})
}

// Merge replaces each child of path named in partial.
func (s *TreeStore) Merge(ctx context.Context, path string, partial map[string]any) error {
	path = tree.Clean(path)
	children := make(map[string][]tree.Leaf, len(partial))
	for k, v := range partial {
		if !tree.ValidKey(k) {
			return fmt.Errorf("invalid key %q under %q", k, path)
		}
		leaves, err := prepare(tree.Join(path, k), v)
		if err != nil {
			return err
		}
		children[tree.Join(path, k)] = leaves
	}
	if len(children) == 0 {
		return nil
	}
	return s.replace(ctx, children)
}

// Delete removes the subtree at path.
func (s *TreeStore) Delete(ctx context.Context, path string) error {
	return s.replace(ctx, map[string][]tree.Leaf{tree.Clean(path): nil})
}

// replace clears each target subtree and stores its new leaves in one MULTI/EXEC.
func (s *TreeStore) replace(ctx context.Context, targets map[string][]tree.Leaf) error {
	var stale []string
	for path, leaves := range targets {
		existing, err := s.subtree(ctx, path)
		if err != nil {
			return err
		}
		stale = append(stale, existing...)
		if len(leaves) > 0 {
			stale = append(stale, tree.Ancestors(path)...)
		}
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		if len(stale) > 0 {
			members := make([]interface{}, len(stale))
			for i, p := range stale {
				members[i] = p
			}
			pipe.ZRem(ctx, s.idxKey, members...)
			pipe.HDel(ctx, s.valKey, stale...)
		}
		for _, leaves := range targets {
			if len(leaves) == 0 {
				continue
			}
			zs := make([]goredis.Z, len(leaves))
			pairs := make([]interface{}, 0, 2*len(leaves))
			for i, leaf := range leaves {
				zs[i] = goredis.Z{Score: 0, Member: leaf.Path}
				pairs = append(pairs, leaf.Path, leaf.Value)
			}
			pipe.ZAdd(ctx, s.idxKey, zs...)
			pipe.HSet(ctx, s.valKey, pairs...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write tree: %w", err)
	}
	return nil
}

// subtree lists the leaf paths at or below path.
func (s *TreeStore) subtree(ctx context.Context, path string) ([]string, error) {
	if path == "" {
		paths, err := s.rdb.ZRange(ctx, s.idxKey, 0, -1).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to list leaves: %w", err)
		}
		return paths, nil
	}

	lo, hi := tree.SubtreeBounds(path)
	paths, err := s.rdb.ZRangeByLex(ctx, s.idxKey, &goredis.ZRangeBy{Min: "[" + lo, Max: "(" + hi}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list leaves under %q: %w", path, err)
	}
	if _, err := s.rdb.ZScore(ctx, s.idxKey, path).Result(); err == nil {
		paths = append([]string{path}, paths...)
	} else if !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("failed to look up %q: %w", path, err)
	}
	return paths, nil
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

var _ secondary.TreeStore = (*TreeStore)(nil)
