// Package store implements the local cache for the active user: tasks,
// progress, the pending-operation queue, the identifier map, and sync
// bookkeeping, all persisted through an injected key-value medium.
//
// Every method returns an explicit error. The read helpers also return a
// usable default alongside the error, so callers can apply the "treat
// failure as empty" policy themselves while tests still see the failure.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hazel/sprout/internal/ident"
	"github.com/hazel/sprout/internal/kv"
	"github.com/hazel/sprout/internal/models"
)

// Base key names. All but currentUserKey are namespaced by user.
const (
	tasksKey       = "tasks"
	progressKey    = "progress"
	queueKey       = "sync_queue"
	lastSyncKey    = "last_sync"
	idMapKey       = "id_map"
	currentUserKey = "current_user"

	anonymousUser = "anonymous"
)

// Store is the local cache. It owns all persisted state for the active
// user; other components read and mutate only through its accessors.
type Store struct {
	kv kv.KV
}

// New creates a Store over the given backing medium.
func New(backing kv.KV) *Store {
	return &Store{kv: backing}
}

// UserKey returns base namespaced to the active user, falling back to the
// anonymous namespace when nobody is logged in.
func (s *Store) UserKey(base string) string {
	user, err := s.CurrentUser()
	if err != nil || user == "" {
		user = anonymousUser
	}
	return base + "_" + user
}

// Get decodes the JSON value at key into v. ok is false when the key is
// absent or the stored data is malformed; err carries the cause when the
// miss was not a plain absence.
func (s *Store) Get(key string, v any) (ok bool, err error) {
	data, found, err := s.kv.Get(key)
	if err != nil {
		return false, fmt.Errorf("read %q: %w", key, err)
	}
	if !found {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

// Set encodes v as JSON and writes it at key.
func (s *Store) Set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	if err := s.kv.Set(key, data); err != nil {
		return fmt.Errorf("write %q: %w", key, err)
	}
	return nil
}

// Delete removes the value at key.
func (s *Store) Delete(key string) error {
	return s.kv.Delete(key)
}

// --- Active user marker ---

// CurrentUser returns the active user ID, or "" when nobody is logged in.
func (s *Store) CurrentUser() (string, error) {
	data, found, err := s.kv.Get(currentUserKey)
	if err != nil {
		return "", fmt.Errorf("read current user: %w", err)
	}
	if !found {
		return "", nil
	}
	return string(data), nil
}

// SetCurrentUser records the active user ID.
func (s *Store) SetCurrentUser(userID string) error {
	return s.kv.Set(currentUserKey, []byte(userID))
}

// ClearCurrentUser removes the active user marker.
func (s *Store) ClearCurrentUser() error {
	return s.kv.Delete(currentUserKey)
}

// --- Tasks ---

// Tasks returns the cached task collection. Absent or unreadable data
// yields an empty slice; the error reports the latter case.
func (s *Store) Tasks() ([]models.Task, error) {
	var tasks []models.Task
	ok, err := s.Get(s.UserKey(tasksKey), &tasks)
	if err != nil {
		return []models.Task{}, err
	}
	if !ok || tasks == nil {
		return []models.Task{}, nil
	}
	return tasks, nil
}

// SetTasks replaces the whole cached task collection.
func (s *Store) SetTasks(tasks []models.Task) error {
	return s.Set(s.UserKey(tasksKey), tasks)
}

// AddTask appends a task to the cache.
func (s *Store) AddTask(task models.Task) error {
	tasks, err := s.Tasks()
	if err != nil {
		return err
	}
	return s.SetTasks(append(tasks, task))
}

// FindTask returns the cached task with the given ID, or nil.
func (s *Store) FindTask(id ident.TaskID) (*models.Task, error) {
	tasks, err := s.Tasks()
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i], nil
		}
	}
	return nil, nil
}

// MutateTask applies fn to the cached task with the given ID and writes the
// collection back. Returns the mutated task, or nil when no task matched.
func (s *Store) MutateTask(id ident.TaskID, fn func(*models.Task)) (*models.Task, error) {
	tasks, err := s.Tasks()
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if tasks[i].ID == id {
			fn(&tasks[i])
			if err := s.SetTasks(tasks); err != nil {
				return nil, err
			}
			out := tasks[i]
			return &out, nil
		}
	}
	return nil, nil
}

// RewriteTaskID replaces a cached task's identifier, used after a create
// operation is acknowledged and the server ID becomes known.
func (s *Store) RewriteTaskID(oldID, newID ident.TaskID) error {
	_, err := s.MutateTask(oldID, func(t *models.Task) { t.ID = newID })
	return err
}

// RemoveTask deletes the task from the cache. Reports whether a task was
// actually removed.
func (s *Store) RemoveTask(id ident.TaskID) (bool, error) {
	tasks, err := s.Tasks()
	if err != nil {
		return false, err
	}
	filtered := tasks[:0]
	for _, t := range tasks {
		if t.ID != id {
			filtered = append(filtered, t)
		}
	}
	if len(filtered) == len(tasks) {
		return false, nil
	}
	return true, s.SetTasks(filtered)
}

// --- Progress ---

// Progress returns the cached progress snapshot, or the zero snapshot when
// none is cached or the cached data is unreadable.
func (s *Store) Progress() (models.UserProgress, error) {
	var p models.UserProgress
	ok, err := s.Get(s.UserKey(progressKey), &p)
	if err != nil || !ok {
		return models.DefaultProgress(), err
	}
	if p.UnlockedStickers == nil {
		p.UnlockedStickers = []string{}
	}
	return p, nil
}

// SetProgress replaces the cached progress snapshot.
func (s *Store) SetProgress(p models.UserProgress) error {
	return s.Set(s.UserKey(progressKey), p)
}

// --- Identifier map ---

// IDMap returns the local-to-server identifier map.
func (s *Store) IDMap() (map[string]string, error) {
	m := map[string]string{}
	if _, err := s.Get(s.UserKey(idMapKey), &m); err != nil {
		return map[string]string{}, err
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}

// SetIDMap replaces the identifier map.
func (s *Store) SetIDMap(m map[string]string) error {
	return s.Set(s.UserKey(idMapKey), m)
}

// ClearIDMap wipes the identifier map, used on logout.
func (s *Store) ClearIDMap() error {
	return s.Delete(s.UserKey(idMapKey))
}

// --- Sync bookkeeping ---

// LastSync returns the time of the last successful sync, or the zero time.
func (s *Store) LastSync() (time.Time, error) {
	var ms int64
	ok, err := s.Get(s.UserKey(lastSyncKey), &ms)
	if err != nil || !ok {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}

// SetLastSync records the time of a successful sync.
func (s *Store) SetLastSync(t time.Time) error {
	return s.Set(s.UserKey(lastSyncKey), t.UnixMilli())
}

// QueueKey returns the namespaced pending-operation queue key. The queue
// component owns the record format; the store owns the medium.
func (s *Store) QueueKey() string {
	return s.UserKey(queueKey)
}
