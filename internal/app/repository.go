package app

import (
	"context"
	"fmt"
	"time"

	"github.com/example/lms/internal/core/schema"
	"github.com/example/lms/internal/core/tree"
	"github.com/example/lms/internal/ports/secondary"
)

// Repository binds the tree store to the canonical root, the standardizer and
// the validator. Every entity accessor goes through one of its collections.
type Repository struct {
	store        secondary.TreeStore
	ids          secondary.IDGenerator
	root         string
	standardizer schema.Standardizer
}

// NewRepository creates a Repository rooted at root.
func NewRepository(store secondary.TreeStore, ids secondary.IDGenerator, root string, standardizer schema.Standardizer) *Repository {
	if standardizer.Now == nil {
		standardizer.Now = time.Now
	}
	return &Repository{
		store:        store,
		ids:          ids,
		root:         tree.Clean(root),
		standardizer: standardizer,
	}
}

// Root returns the canonical root path.
func (r *Repository) Root() string {
	return r.root
}

// Path joins parts under the canonical root.
func (r *Repository) Path(parts ...string) string {
	return tree.Join(append([]string{r.root}, parts...)...)
}

// Store returns the underlying tree store.
func (r *Repository) Store() secondary.TreeStore {
	return r.store
}

// Standardizer returns the standardizer records are written through.
func (r *Repository) Standardizer() schema.Standardizer {
	return r.standardizer
}

// Now returns the current timestamp in stored form.
func (r *Repository) Now() string {
	return schema.Timestamp(r.standardizer.Now())
}

// Collection returns the collection of kind.
func (r *Repository) Collection(kind schema.Kind) *Collection {
	return &Collection{repo: r, kind: kind, base: r.Path(kind.Collection())}
}

// Collection is a kind's canonical subtree. Paths passed to its methods are
// relative to the collection ("" is the collection itself), which lets nested
// layouts such as evaluations/{moduleId} share one collection.
type Collection struct {
	repo *Repository
	kind schema.Kind
	base string
}

// Kind returns the entity kind of the collection.
func (c *Collection) Kind() schema.Kind {
	return c.kind
}

// Path returns the absolute tree path of a location inside the collection.
func (c *Collection) Path(parts ...string) string {
	return tree.Join(append([]string{c.base}, parts...)...)
}

// FetchAll returns the records stored directly under path. An absent subtree
// is an empty list. Keyed children get their key as id; arrays are returned as
// stored. Children that are not objects are ignored.
func (c *Collection) FetchAll(ctx context.Context, path string) ([]schema.Record, error) {
	value, ok, err := c.repo.store.Read(ctx, c.Path(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.Path(path), err)
	}
	records := []schema.Record{}
	if !ok {
		return records, nil
	}
	switch t := value.(type) {
	case map[string]any:
		for _, key := range tree.SortedKeys(t) {
			rec, ok := tree.AsMap(t[key])
			if !ok {
				continue
			}
			rec["id"] = key
			records = append(records, rec)
		}
	case []any:
		for _, item := range t {
			if rec, ok := tree.AsMap(item); ok {
				records = append(records, rec)
			}
		}
	}
	return records, nil
}

// FetchByID returns the record at path/id, or nil when it is absent.
func (c *Collection) FetchByID(ctx context.Context, path, id string) (schema.Record, error) {
	full := c.Path(path, id)
	value, ok, err := c.repo.store.Read(ctx, full)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", full, err)
	}
	if !ok {
		return nil, nil
	}
	rec, isMap := tree.AsMap(value)
	if !isMap {
		return nil, fmt.Errorf("failed to read %s: expected an object, found %T", full, value)
	}
	return rec, nil
}

// Create standardizes and validates data, then writes it under a fresh id.
func (c *Collection) Create(ctx context.Context, path string, data schema.Record) (string, error) {
	rec := c.repo.standardizer.Standardize(c.kind, data)
	if res := schema.Validate(c.kind, rec); !res.IsValid {
		return "", &ValidationError{Kind: c.kind, Errors: res.Errors}
	}
	id := c.repo.ids.NewID()
	if hasID(c.kind) {
		rec["id"] = id
	}
	if err := c.repo.store.Write(ctx, c.Path(path, id), rec); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", c.kind, err)
	}
	return id, nil
}

// Update shallow-merges data into the record at path/id, stamps the update
// time, standardizes and validates the result and writes it back.
func (c *Collection) Update(ctx context.Context, path, id string, data schema.Record) (bool, error) {
	existing, err := c.FetchByID(ctx, path, id)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, &NotFoundError{Kind: c.kind, Path: c.Path(path, id)}
	}

	merged := mergeChanges(c.kind, existing, data)
	if hasID(c.kind) {
		merged["id"] = id
	}
	if field := c.kind.TouchField(); field != "" {
		merged[field] = c.repo.Now()
	}

	rec := c.repo.standardizer.Standardize(c.kind, merged)
	if res := schema.Validate(c.kind, rec); !res.IsValid {
		return false, &ValidationError{Kind: c.kind, Errors: res.Errors}
	}
	if err := c.repo.store.Write(ctx, c.Path(path, id), rec); err != nil {
		return false, fmt.Errorf("failed to update %s %s: %w", c.kind, id, err)
	}
	return true, nil
}

// Delete removes the record at path/id.
func (c *Collection) Delete(ctx context.Context, path, id string) (bool, error) {
	full := c.Path(path, id)
	_, ok, err := c.repo.store.Read(ctx, full)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", full, err)
	}
	if !ok {
		return false, &NotFoundError{Kind: c.kind, Path: full}
	}
	if err := c.repo.store.Delete(ctx, full); err != nil {
		return false, fmt.Errorf("failed to delete %s %s: %w", c.kind, id, err)
	}
	return true, nil
}

// Put writes an already standardized record at path/id without validation.
func (c *Collection) Put(ctx context.Context, path, id string, rec schema.Record) error {
	if err := c.repo.store.Write(ctx, c.Path(path, id), rec); err != nil {
		return fmt.Errorf("failed to write %s %s: %w", c.kind, id, err)
	}
	return nil
}

func hasID(kind schema.Kind) bool {
	switch kind {
	case schema.KindEnrollment, schema.KindProgress:
		return false
	}
	return true
}
