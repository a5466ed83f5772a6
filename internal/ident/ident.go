// Package ident defines the task identifier type. A task ID is either
// server-issued or device-local (generated offline, pending remap), and the
// distinction is carried as an explicit tag rather than inferred from the
// string value, so a server ID can never be mistaken for a local one.
package ident

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// TaskID identifies a task. The zero value is the empty remote ID.
type TaskID struct {
	value string
	local bool
}

// Remote wraps a server-issued identifier.
func Remote(id string) TaskID {
	return TaskID{value: id}
}

// NewLocal generates a fresh device-local identifier. The value embeds a
// millisecond timestamp plus random suffix so IDs sort roughly by creation
// time and never collide within a device.
func NewLocal() TaskID {
	buf := make([]byte, 5)
	rand.Read(buf)
	return TaskID{
		value: fmt.Sprintf("local_%d_%s", time.Now().UnixMilli(), hex.EncodeToString(buf)),
		local: true,
	}
}

// Local wraps an existing local identifier value. Used when rehydrating
// queue payloads that recorded the value before the tag type existed.
func Local(id string) TaskID {
	return TaskID{value: id, local: true}
}

// String returns the wire value of the identifier.
func (id TaskID) String() string { return id.value }

// IsLocal reports whether the identifier was generated on-device and has
// not been remapped to a server identifier.
func (id TaskID) IsLocal() bool { return id.local }

// IsZero reports whether the identifier is unset.
func (id TaskID) IsZero() bool { return id.value == "" }

// taggedID is the persisted form of a local identifier.
type taggedID struct {
	Value string `json:"value"`
	Local bool   `json:"local"`
}

// MarshalJSON writes remote IDs as plain strings (the server wire form) and
// local IDs as a tagged object so the local bit survives a cache round-trip.
func (id TaskID) MarshalJSON() ([]byte, error) {
	if !id.local {
		return json.Marshal(id.value)
	}
	return json.Marshal(taggedID{Value: id.value, Local: true})
}

// UnmarshalJSON accepts both forms. A bare string always decodes as a
// remote identifier; only the tagged object form produces a local one.
func (id *TaskID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = TaskID{value: s}
		return nil
	}
	var tagged taggedID
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("task id: %w", err)
	}
	*id = TaskID{value: tagged.Value, local: tagged.Local}
	return nil
}
