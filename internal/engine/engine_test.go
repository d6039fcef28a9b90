package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tock/internal/domain/task"
	"tock/internal/logging"
	"tock/internal/store/sqlite"
)

// newTestEngine opens a fresh store in a temp dir and wires an engine with
// the default 30s micro threshold.
func newTestEngine(t *testing.T, opts ...Option) (*Engine, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "tock.db"))
	require.NoError(t, err)
	require.NoError(t, store.EnsureSchema(context.Background()))
	t.Cleanup(func() { _ = store.Close() })

	opts = append([]Option{WithLogger(logging.Nop())}, opts...)
	return New(store, opts...), store
}

func addTask(t *testing.T, e *Engine, desc string) int64 {
	t.Helper()
	id, err := e.Add(context.Background(), &task.Task{Description: desc})
	require.NoError(t, err)
	return id
}

func addQueued(t *testing.T, e *Engine, desc string) int64 {
	t.Helper()
	id := addTask(t, e, desc)
	require.NoError(t, e.Enqueue(context.Background(), id))
	return id
}

// queueIDs reads the queued task ids in position order.
func queueIDs(t *testing.T, e *Engine) []int64 {
	t.Helper()
	var ids []int64
	err := e.store.View(context.Background(), func(tx task.Tx) error {
		queued, err := tx.Queued()
		if err != nil {
			return err
		}
		for _, q := range queued {
			ids = append(ids, q.ID)
		}
		return nil
	})
	require.NoError(t, err)
	return ids
}

func position(t *testing.T, e *Engine, id int64) *int {
	t.Helper()
	var pos *int
	err := e.store.View(context.Background(), func(tx task.Tx) error {
		tk, err := tx.Task(id)
		if err != nil {
			return err
		}
		pos = tk.QueuePosition
		return nil
	})
	require.NoError(t, err)
	return pos
}

func sessionsOf(t *testing.T, e *Engine, id int64) []*task.Session {
	t.Helper()
	sessions, err := e.Sessions(context.Background(), id)
	require.NoError(t, err)
	return sessions
}

// at builds deterministic timestamps offset from a fixed base.
var testBase = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func at(offset time.Duration) time.Time {
	return testBase.Add(offset)
}
