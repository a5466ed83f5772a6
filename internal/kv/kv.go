// Package kv provides the key-value backing medium for the local cache.
// The store layer is written against the KV interface so persistence can be
// swapped (sqlite on disk, memory in tests) without touching cache logic.
package kv

// KV is a durable string-keyed byte store. Implementations make no
// atomicity guarantee across keys.
type KV interface {
	// Get returns the value for key. ok is false when the key is absent;
	// err is reserved for real persistence failures.
	Get(key string) (value []byte, ok bool, err error)
	// Set writes the value for key, replacing any existing value.
	Set(key string, value []byte) error
	// Delete removes the key. Deleting an absent key is not an error.
	Delete(key string) error
	// Close releases the backing resources.
	Close() error
}
