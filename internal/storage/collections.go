package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/karasuda/kakeibo/internal/common"
)

// record is the contract every collection-managed entity satisfies through
// its embedded model.Meta.
type record interface {
	RecordID() int
	SetRecordID(int)
	Stamp(time.Time)
	Created() time.Time
	SetCreated(time.Time)
}

// envelope wraps a persisted collection with its optimistic version stamp.
type envelope struct {
	Records json.RawMessage `json:"records"`
	Version int64           `json:"version"`
}

// loadList reads a named collection and its current version. An absent key is
// an empty collection at version zero.
func loadList[T any](s *Store, name string) ([]T, int64, error) {
	raw, ok, err := s.substrate.Get(keyPrefix + name)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read collection %s: %w", name, err)
	}
	if !ok {
		return nil, 0, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, 0, fmt.Errorf("%w: collection %s: %v", common.ErrStoreCorrupted, name, err)
	}

	var records []T
	if len(env.Records) > 0 {
		if err := json.Unmarshal(env.Records, &records); err != nil {
			return nil, 0, fmt.Errorf("%w: collection %s records: %v", common.ErrStoreCorrupted, name, err)
		}
	}
	return records, env.Version, nil
}

// saveList writes a collection back, bumping its version. baseVersion must be
// the version the caller read; if the stored version has moved in the
// meantime the write is rejected with common.ErrConflict.
func saveList[T any](s *Store, name string, records []T, baseVersion int64) error {
	key := keyPrefix + name

	raw, ok, err := s.substrate.Get(key)
	if err != nil {
		return fmt.Errorf("failed to re-read collection %s: %w", name, err)
	}
	if ok {
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("%w: collection %s: %v", common.ErrStoreCorrupted, name, err)
		}
		if env.Version != baseVersion {
			return fmt.Errorf("%w: collection %s (read version %d, stored version %d)",
				common.ErrConflict, name, baseVersion, env.Version)
		}
	} else if baseVersion != 0 {
		return fmt.Errorf("%w: collection %s was cleared", common.ErrConflict, name)
	}

	if records == nil {
		records = []T{}
	}
	encoded, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to serialize collection %s: %w", name, err)
	}

	out, err := json.Marshal(envelope{Records: encoded, Version: baseVersion + 1})
	if err != nil {
		return fmt.Errorf("failed to serialize collection envelope %s: %w", name, err)
	}
	if err := s.substrate.Set(key, out); err != nil {
		return fmt.Errorf("failed to write collection %s: %w", name, err)
	}
	return nil
}

// collection provides the generic CRUD primitives over one named collection
// of id-keyed records. Lookup is a full linear scan; the substrate holds the
// entire collection in memory on every access, so there is no partial load to
// exploit.
type collection[T any, PT interface {
	*T
	record
}] struct {
	store *Store
	name  string
}

func (c collection[T, PT]) load(ctx context.Context) ([]T, int64, error) {
	if err := validateContext(ctx); err != nil {
		return nil, 0, err
	}
	return loadList[T](c.store, c.name)
}

func (c collection[T, PT]) save(ctx context.Context, records []T, baseVersion int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return saveList(c.store, c.name, records, baseVersion)
}

// nextID allocates max(existing ids)+1. Safe only under the package's
// single-caller assumption.
func nextID[T any, PT interface {
	*T
	record
}](records []T) int {
	maxID := 0
	for i := range records {
		if id := PT(&records[i]).RecordID(); id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}

// insert assigns an id if the record has none, stamps the bookkeeping fields,
// appends, and persists the collection. Returns the stored record.
func (c collection[T, PT]) insert(ctx context.Context, rec PT) (*T, error) {
	records, version, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	if rec.RecordID() == 0 {
		rec.SetRecordID(nextID[T, PT](records))
	}
	rec.Stamp(c.store.now())

	records = append(records, *(*T)(rec))
	if err := c.save(ctx, records, version); err != nil {
		return nil, err
	}

	stored := *(*T)(rec)
	return &stored, nil
}

// update applies mutate to the record with the given id, re-stamps UpdatedAt,
// and persists. An error from mutate aborts the update before anything is
// written. Id and CreatedAt are restored after mutate runs, so a patch can
// never overwrite them. Returns nil with no error when the id is absent.
func (c collection[T, PT]) update(ctx context.Context, id int, mutate func(PT) error) (*T, error) {
	records, version, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	for i := range records {
		rec := PT(&records[i])
		if rec.RecordID() != id {
			continue
		}

		created := rec.Created()
		if err := mutate(rec); err != nil {
			return nil, err
		}
		rec.SetRecordID(id)
		rec.SetCreated(created)
		rec.Stamp(c.store.now())

		if err := c.save(ctx, records, version); err != nil {
			return nil, err
		}
		updated := records[i]
		return &updated, nil
	}
	return nil, nil
}

// remove filters the id out and persists. Removing an absent id is a no-op.
func (c collection[T, PT]) remove(ctx context.Context, id int) error {
	records, version, err := c.load(ctx)
	if err != nil {
		return err
	}

	kept := records[:0]
	removed := false
	for i := range records {
		if PT(&records[i]).RecordID() == id {
			removed = true
			continue
		}
		kept = append(kept, records[i])
	}
	if !removed {
		return nil
	}
	return c.save(ctx, kept, version)
}

// findByID returns the record with the given id, or nil when absent.
func (c collection[T, PT]) findByID(ctx context.Context, id int) (*T, error) {
	records, _, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if PT(&records[i]).RecordID() == id {
			rec := records[i]
			return &rec, nil
		}
	}
	return nil, nil
}

// findWhere returns all records matching the predicate, in collection order.
func (c collection[T, PT]) findWhere(ctx context.Context, match func(*T) bool) ([]T, error) {
	records, _, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	var out []T
	for i := range records {
		if match(&records[i]) {
			out = append(out, records[i])
		}
	}
	return out, nil
}

// anyMatch reports whether any record matches the predicate.
func (c collection[T, PT]) anyMatch(ctx context.Context, match func(*T) bool) (bool, error) {
	records, _, err := c.load(ctx)
	if err != nil {
		return false, err
	}
	for i := range records {
		if match(&records[i]) {
			return true, nil
		}
	}
	return false, nil
}
