// Package opqueue is the durable log of mutations that have not been
// acknowledged by the server. Entries are appended when an offline
// mutation is applied to the cache and removed only after the sync engine
// replays them (or discards them as unrecoverable).
package opqueue

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hazel/sprout/internal/ident"
	"github.com/hazel/sprout/internal/models"
	"github.com/hazel/sprout/internal/store"
)

// Kind identifies the mutation an operation carries.
type Kind string

const (
	KindCreateTask    Kind = "CREATE_TASK"
	KindUpdateTask    Kind = "UPDATE_TASK"
	KindDeleteTask    Kind = "DELETE_TASK"
	KindCompleteTask  Kind = "COMPLETE_TASK"
	KindTimerComplete Kind = "TIMER_COMPLETE"
)

// Operation is one queued mutation. Payload is the kind-specific body.
type Operation struct {
	ID          string          `json:"id"`
	Kind        Kind            `json:"kind"`
	Payload     json.RawMessage `json:"payload"`
	Timestamp   int64           `json:"timestamp"` // unix millis at enqueue
	LocalTaskID ident.TaskID    `json:"localTaskId,omitzero"`
}

// TaskRef is the payload of DELETE_TASK and COMPLETE_TASK operations.
type TaskRef struct {
	ID ident.TaskID `json:"id"`
}

// UpdatePayload is the payload of UPDATE_TASK operations.
type UpdatePayload struct {
	ID      ident.TaskID      `json:"id"`
	Updates models.TaskUpdate `json:"updates"`
}

// Queue is an ordered, append-only log persisted through the local store.
type Queue struct {
	store *store.Store
}

// New creates a Queue persisting through the given store.
func New(s *store.Store) *Queue {
	return &Queue{store: s}
}

func (q *Queue) load() ([]Operation, error) {
	var ops []Operation
	ok, err := q.store.Get(q.store.QueueKey(), &ops)
	if err != nil {
		return nil, err
	}
	if !ok || ops == nil {
		return []Operation{}, nil
	}
	return ops, nil
}

func (q *Queue) save(ops []Operation) error {
	return q.store.Set(q.store.QueueKey(), ops)
}

// Enqueue appends a new operation with a generated ID and the current
// timestamp. payload must be JSON-encodable; localTaskID is set only for
// CREATE_TASK operations.
func (q *Queue) Enqueue(kind Kind, payload any, localTaskID ident.TaskID) (Operation, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Operation{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}

	op := Operation{
		ID:          newOperationID(),
		Kind:        kind,
		Payload:     data,
		Timestamp:   time.Now().UnixMilli(),
		LocalTaskID: localTaskID,
	}

	ops, err := q.load()
	if err != nil {
		return Operation{}, err
	}
	if err := q.save(append(ops, op)); err != nil {
		return Operation{}, err
	}
	return op, nil
}

// Dequeue removes the operation with the given ID. Removing an unknown ID
// is a no-op.
func (q *Queue) Dequeue(id string) error {
	ops, err := q.load()
	if err != nil {
		return err
	}
	filtered := ops[:0]
	for _, op := range ops {
		if op.ID != id {
			filtered = append(filtered, op)
		}
	}
	if len(filtered) == len(ops) {
		return nil
	}
	return q.save(filtered)
}

// PeekAll returns the full ordered queue as a snapshot. Replay iterates
// this snapshot, so operations enqueued mid-replay wait for the next pass.
func (q *Queue) PeekAll() ([]Operation, error) {
	return q.load()
}

// Len returns the number of pending operations.
func (q *Queue) Len() (int, error) {
	ops, err := q.load()
	if err != nil {
		return 0, err
	}
	return len(ops), nil
}

// IsEmpty reports whether the queue has no pending operations. Read
// failures count as empty; this feeds an indicator, not a decision that
// can lose data.
func (q *Queue) IsEmpty() bool {
	n, err := q.Len()
	return err != nil || n == 0
}

// Clear wipes the queue.
func (q *Queue) Clear() error {
	return q.save([]Operation{})
}

// newOperationID builds an identifier that sorts roughly by enqueue time.
func newOperationID() string {
	buf := make([]byte, 5)
	rand.Read(buf)
	return fmt.Sprintf("op_%d_%s", time.Now().UnixMilli(), hex.EncodeToString(buf))
}
