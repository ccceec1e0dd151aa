// Package kv provides the flat key/value substrate the data layer is built on.
//
// The substrate is a synchronous, single-process, crash-only store: values are
// opaque JSON documents keyed by plain strings, with no partial-write
// guarantees beyond whole-value replacement.
package kv

import "encoding/json"

// Store is the persistence primitive the data layer depends on.
type Store interface {
	// Get returns the value stored under key, or ok=false if the key is absent.
	Get(key string) (value json.RawMessage, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(key string, value json.RawMessage) error
	// Remove deletes key. Removing an absent key is a no-op.
	Remove(key string) error
	// Clear deletes every key in the store.
	Clear() error
	// Keys returns all keys currently present, in no particular order.
	Keys() ([]string, error)
}
