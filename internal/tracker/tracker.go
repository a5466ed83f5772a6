// Package tracker is the offline-aware surface the UI layer talks to.
// Every mutation applies to the local cache first; when the device is
// offline the mutation is also queued as a durable intent for the sync
// engine to replay.
package tracker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazel/sprout/internal/apiclient"
	"github.com/hazel/sprout/internal/connectivity"
	"github.com/hazel/sprout/internal/ident"
	"github.com/hazel/sprout/internal/models"
	"github.com/hazel/sprout/internal/opqueue"
	"github.com/hazel/sprout/internal/remap"
	"github.com/hazel/sprout/internal/store"
	syncengine "github.com/hazel/sprout/internal/sync"
)

// Tracker bundles the cache, queue, and sync engine behind optimistic
// offline-aware operations.
type Tracker struct {
	store   *store.Store
	queue   *opqueue.Queue
	remap   *remap.Remapper
	api     syncengine.API
	engine  *syncengine.Engine
	monitor *connectivity.Monitor

	// now is swapped in tests for deterministic timestamps.
	now func() time.Time
}

// New wires a tracker over the given store, server API, and connectivity
// monitor.
func New(s *store.Store, api syncengine.API, monitor *connectivity.Monitor) *Tracker {
	q := opqueue.New(s)
	r := remap.New(s)
	return &Tracker{
		store:   s,
		queue:   q,
		remap:   r,
		api:     api,
		engine:  syncengine.NewEngine(s, q, r, api),
		monitor: monitor,
		now:     time.Now,
	}
}

// Engine exposes the sync engine, mainly for refresh-notification wiring.
func (t *Tracker) Engine() *syncengine.Engine { return t.engine }

// Online reports the monitor's current reachability level.
func (t *Tracker) Online() bool {
	return t.monitor != nil && t.monitor.Online()
}

// CreateTask creates a task. Online, the server's canonical record is
// cached and returned; offline, a local-ID task is cached and a create
// intent is queued.
func (t *Tracker) CreateTask(insert models.InsertTask) (models.Task, error) {
	if t.Online() {
		task, err := t.api.CreateTask(insert)
		if err != nil {
			return models.Task{}, fmt.Errorf("create task: %w", err)
		}
		t.persist(t.store.AddTask(*task))
		return *task, nil
	}

	created := insert.ScheduledDate
	if created == "" {
		created = t.now().Format("2006-01-02")
	}
	recurring := insert.Recurring
	if recurring == "" {
		recurring = models.RecurrenceNone
	}
	task := models.Task{
		ID:              ident.NewLocal(),
		Title:           insert.Title,
		Description:     insert.Description,
		ScheduledTime:   insert.ScheduledTime,
		DurationMinutes: insert.DurationMinutes,
		StickerID:       insert.StickerID,
		CreatedAt:       created,
		Recurring:       recurring,
	}
	t.persist(t.store.AddTask(task))
	if _, err := t.queue.Enqueue(opqueue.KindCreateTask, insert, task.ID); err != nil {
		slog.Warn("tracker: queue create", "err", err)
	}
	return task, nil
}

// UpdateTask applies field updates. Returns nil when no cached task
// matches.
func (t *Tracker) UpdateTask(id ident.TaskID, updates models.TaskUpdate) (*models.Task, error) {
	if t.Online() {
		resolved, _ := t.remap.Resolve(id)
		if !resolved.IsLocal() {
			if _, err := t.api.UpdateTask(resolved, updates); err != nil {
				return nil, fmt.Errorf("update task: %w", err)
			}
			updated, err := t.store.MutateTask(id, func(task *models.Task) { updates.Apply(task) })
			t.persist(err)
			return updated, nil
		}
		// Created offline and not yet synced: fall through to the queue.
	}

	updated, err := t.store.MutateTask(id, func(task *models.Task) { updates.Apply(task) })
	t.persist(err)
	if updated == nil {
		return nil, nil
	}
	if _, err := t.queue.Enqueue(opqueue.KindUpdateTask, opqueue.UpdatePayload{ID: id, Updates: updates}, ident.TaskID{}); err != nil {
		slog.Warn("tracker: queue update", "err", err)
	}
	return updated, nil
}

// CompleteTask marks a task done. The cache flips immediately either way;
// online the server also awards points and the cached progress refreshes.
func (t *Tracker) CompleteTask(id ident.TaskID) (*models.Task, error) {
	completedAt := t.now().UTC().Format(time.RFC3339)
	markDone := func(task *models.Task) {
		task.Completed = true
		task.CompletedAt = completedAt
	}

	if t.Online() {
		resolved, _ := t.remap.Resolve(id)
		if !resolved.IsLocal() {
			if _, err := t.api.CompleteTask(resolved); err != nil {
				return nil, fmt.Errorf("complete task: %w", err)
			}
			updated, err := t.store.MutateTask(id, markDone)
			t.persist(err)
			t.refreshProgress()
			return updated, nil
		}
	}

	updated, err := t.store.MutateTask(id, markDone)
	t.persist(err)
	if updated == nil {
		return nil, nil
	}
	if _, err := t.queue.Enqueue(opqueue.KindCompleteTask, opqueue.TaskRef{ID: id}, ident.TaskID{}); err != nil {
		slog.Warn("tracker: queue complete", "err", err)
	}
	return updated, nil
}

// DeleteTask removes a task locally and, online, remotely. Reports whether
// a cached task was removed.
func (t *Tracker) DeleteTask(id ident.TaskID) (bool, error) {
	if t.Online() {
		resolved, _ := t.remap.Resolve(id)
		if !resolved.IsLocal() {
			err := t.api.DeleteTask(resolved)
			if err != nil && !isNotFound(err) {
				return false, fmt.Errorf("delete task: %w", err)
			}
			removed, err := t.store.RemoveTask(id)
			t.persist(err)
			return removed, nil
		}
	}

	removed, err := t.store.RemoveTask(id)
	t.persist(err)
	if !removed {
		return false, nil
	}
	if _, err := t.queue.Enqueue(opqueue.KindDeleteTask, opqueue.TaskRef{ID: id}, ident.TaskID{}); err != nil {
		slog.Warn("tracker: queue delete", "err", err)
	}
	return true, nil
}

// CompleteTimer reports a finished focus-timer run. Online it returns the
// session and refreshed progress; offline it queues the report and returns
// nil.
func (t *Tracker) CompleteTimer(insert models.InsertTimerSession) (*apiclient.TimerCompleteResponse, error) {
	if t.Online() {
		resp, err := t.api.CompleteTimer(insert)
		if err != nil {
			return nil, fmt.Errorf("complete timer: %w", err)
		}
		t.persist(t.store.SetProgress(resp.Progress))
		return resp, nil
	}

	if _, err := t.queue.Enqueue(opqueue.KindTimerComplete, insert, ident.TaskID{}); err != nil {
		slog.Warn("tracker: queue timer", "err", err)
	}
	return nil, nil
}

// --- Read accessors (cached data, failure treated as empty) ---

// CachedTasks returns the cached task list.
func (t *Tracker) CachedTasks() []models.Task {
	tasks, err := t.store.Tasks()
	if err != nil {
		slog.Warn("tracker: read cached tasks", "err", err)
	}
	return tasks
}

// CachedProgress returns the cached progress snapshot.
func (t *Tracker) CachedProgress() models.UserProgress {
	p, err := t.store.Progress()
	if err != nil {
		slog.Warn("tracker: read cached progress", "err", err)
	}
	return p
}

// PendingCount returns the number of queued, unacknowledged operations.
func (t *Tracker) PendingCount() int {
	n, err := t.queue.Len()
	if err != nil {
		slog.Warn("tracker: read queue", "err", err)
	}
	return n
}

// LastSync returns the time of the last successful sync, zero when never
// synced.
func (t *Tracker) LastSync() time.Time {
	ts, err := t.store.LastSync()
	if err != nil {
		slog.Warn("tracker: read last sync", "err", err)
	}
	return ts
}

// --- Sync passthrough ---

// SyncPendingOperations replays the queue once.
func (t *Tracker) SyncPendingOperations() syncengine.Summary {
	return t.engine.ReplayQueue()
}

// FetchAndCacheServerData refreshes the cache from the server.
func (t *Tracker) FetchAndCacheServerData() error {
	return t.engine.FetchAndReplaceCache()
}

// FullSync replays the queue, then refreshes the cache.
func (t *Tracker) FullSync() (syncengine.Summary, error) {
	return t.engine.FullSync()
}

type healthChecker interface {
	HealthCheck() (*apiclient.HealthResponse, error)
}

// Probe re-checks server reachability and feeds the result to the
// connectivity monitor. An offline-to-online edge fires its callback.
func (t *Tracker) Probe() bool {
	hc, ok := t.api.(healthChecker)
	if !ok {
		return t.monitor.Online()
	}
	_, err := hc.HealthCheck()
	online := err == nil
	t.monitor.SetOnline(online)
	return online
}

// refreshProgress best-effort updates the cached progress after a
// server-side completion.
func (t *Tracker) refreshProgress() {
	p, err := t.api.Progress()
	if err != nil {
		slog.Debug("tracker: refresh progress", "err", err)
		return
	}
	t.persist(t.store.SetProgress(*p))
}

// persist applies the storage write policy: failures are logged, never
// surfaced to the UI.
func (t *Tracker) persist(err error) {
	if err != nil {
		slog.Warn("tracker: cache write", "err", err)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, apiclient.ErrNotFound)
}
