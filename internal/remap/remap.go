// Package remap records which server identifier a locally created task
// ended up with. A task created offline is visible immediately under a
// local ID; every queued operation that references it must target the
// server ID at replay time, which is only known once the create has been
// acknowledged. Resolution therefore happens when an operation is
// replayed, never when it is enqueued.
package remap

import (
	"github.com/hazel/sprout/internal/ident"
	"github.com/hazel/sprout/internal/store"
)

// Remapper maps local task identifiers to server identifiers. Mappings are
// write-once: an identifier is remapped at most once.
type Remapper struct {
	store *store.Store
}

// New creates a Remapper persisting through the given store.
func New(s *store.Store) *Remapper {
	return &Remapper{store: s}
}

// SetMapping records localID → serverID. An existing mapping for localID
// is never overwritten.
func (r *Remapper) SetMapping(localID, serverID ident.TaskID) error {
	m, err := r.store.IDMap()
	if err != nil {
		return err
	}
	if _, exists := m[localID.String()]; exists {
		return nil
	}
	m[localID.String()] = serverID.String()
	return r.store.SetIDMap(m)
}

// Resolve returns the server identifier mapped to id, or id unchanged when
// no mapping exists (a remote ID, or a local ID whose create has not been
// acknowledged yet).
func (r *Remapper) Resolve(id ident.TaskID) (ident.TaskID, error) {
	if !id.IsLocal() {
		return id, nil
	}
	m, err := r.store.IDMap()
	if err != nil {
		return id, err
	}
	if serverID, ok := m[id.String()]; ok {
		return ident.Remote(serverID), nil
	}
	return id, nil
}

// Clear wipes the map, used on logout.
func (r *Remapper) Clear() error {
	return r.store.ClearIDMap()
}
