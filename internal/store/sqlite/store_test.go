package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tock/internal/domain/task"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tock.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.EnsureSchema(context.Background()))
	return s
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.EnsureSchema(context.Background()))
}

func TestTaskRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	due := now.Add(48 * time.Hour)
	pos := 0
	in := &task.Task{
		Description:   "write the quarterly report",
		Project:       "reporting",
		Tags:          []string{"writing", "deep-work"},
		Due:           &due,
		Allocation:    2 * time.Hour,
		Lifecycle:     task.LifecycleOpen,
		QueuePosition: &pos,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var id int64
	require.NoError(t, s.Update(ctx, func(tx task.Tx) error {
		var err error
		id, err = tx.CreateTask(in)
		return err
	}))
	require.NotZero(t, id)

	require.NoError(t, s.View(ctx, func(tx task.Tx) error {
		got, err := tx.Task(id)
		require.NoError(t, err)
		assert.Equal(t, in.Description, got.Description)
		assert.Equal(t, in.Project, got.Project)
		assert.Equal(t, in.Tags, got.Tags)
		require.NotNil(t, got.Due)
		assert.True(t, got.Due.Equal(due))
		assert.Nil(t, got.Scheduled)
		assert.Equal(t, 2*time.Hour, got.Allocation)
		assert.Equal(t, task.LifecycleOpen, got.Lifecycle)
		require.NotNil(t, got.QueuePosition)
		assert.Equal(t, 0, *got.QueuePosition)
		return nil
	}))
}

func TestTaskNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.View(context.Background(), func(tx task.Tx) error {
		_, err := tx.Task(99)
		return err
	})
	require.Error(t, err)
	assert.Equal(t, task.FaultNoSuchTask, task.KindOf(err))
}

func TestUpdateRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.Update(ctx, func(tx task.Tx) error {
		if _, err := tx.CreateTask(&task.Task{
			Description: "doomed",
			Lifecycle:   task.LifecycleOpen,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, s.View(ctx, func(tx task.Tx) error {
		tasks, err := tx.Tasks()
		require.NoError(t, err)
		assert.Empty(t, tasks)
		return nil
	}))
}

func TestUpdateTaskStampsStructAndRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	in := &task.Task{
		Description: "t", Lifecycle: task.LifecycleOpen,
		CreatedAt: created, UpdatedAt: created,
	}
	require.NoError(t, s.Update(ctx, func(tx task.Tx) error {
		_, err := tx.CreateTask(in)
		return err
	}))

	require.NoError(t, s.Update(ctx, func(tx task.Tx) error {
		in.Description = "renamed"
		return tx.UpdateTask(in)
	}))
	// UpdateTask stamps the struct, and the row carries the same instant.
	assert.True(t, in.UpdatedAt.After(created))

	require.NoError(t, s.View(ctx, func(tx task.Tx) error {
		got, err := tx.Task(in.ID)
		require.NoError(t, err)
		assert.Equal(t, "renamed", got.Description)
		assert.True(t, got.UpdatedAt.Equal(in.UpdatedAt))
		return nil
	}))
}

func TestQueuedOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now()
	require.NoError(t, s.Update(ctx, func(tx task.Tx) error {
		for i, pos := range []int{2, 0, 1} {
			p := pos
			if _, err := tx.CreateTask(&task.Task{
				Description:   "task",
				Lifecycle:     task.LifecycleOpen,
				QueuePosition: &p,
				CreatedAt:     base.Add(time.Duration(i) * time.Second),
				UpdatedAt:     base,
			}); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, s.View(ctx, func(tx task.Tx) error {
		queued, err := tx.Queued()
		require.NoError(t, err)
		require.Len(t, queued, 3)
		for i, q := range queued {
			assert.Equal(t, i, *q.QueuePosition)
		}
		return nil
	}))
}

func TestLatestClosedSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	var taskID int64
	require.NoError(t, s.Update(ctx, func(tx task.Tx) error {
		var err error
		taskID, err = tx.CreateTask(&task.Task{
			Description: "t", Lifecycle: task.LifecycleOpen,
			CreatedAt: base, UpdatedAt: base,
		})
		if err != nil {
			return err
		}
		// No closed sessions yet.
		latest, err := tx.LatestClosedSession()
		require.NoError(t, err)
		assert.Nil(t, latest)

		early := base.Add(10 * time.Minute)
		late := base.Add(30 * time.Minute)
		for _, end := range []time.Time{late, early} {
			e := end
			if _, err := tx.CreateSession(&task.Session{
				TaskID: taskID, Start: end.Add(-5 * time.Minute), End: &e,
			}); err != nil {
				return err
			}
		}
		// An open session must not count as latest closed.
		_, err = tx.CreateSession(&task.Session{TaskID: taskID, Start: base.Add(time.Hour)})
		return err
	}))

	require.NoError(t, s.View(ctx, func(tx task.Tx) error {
		latest, err := tx.LatestClosedSession()
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.True(t, latest.End.Equal(base.Add(30*time.Minute)))
		return nil
	}))
}

func TestSessionsOverlapping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Update(ctx, func(tx task.Tx) error {
		id, err := tx.CreateTask(&task.Task{
			Description: "t", Lifecycle: task.LifecycleOpen,
			CreatedAt: base, UpdatedAt: base,
		})
		if err != nil {
			return err
		}
		spans := [][2]time.Duration{
			{0, 10 * time.Minute},                // before the probe window
			{20 * time.Minute, 40 * time.Minute}, // overlaps
			{50 * time.Minute, 60 * time.Minute}, // inside
			{90 * time.Minute, 2 * time.Hour},    // after
		}
		for _, sp := range spans {
			end := base.Add(sp[1])
			if _, err := tx.CreateSession(&task.Session{
				TaskID: id, Start: base.Add(sp[0]), End: &end,
			}); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, s.View(ctx, func(tx task.Tx) error {
		got, err := tx.SessionsOverlapping(base.Add(30*time.Minute), base.Add(70*time.Minute))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.True(t, got[0].Start.Equal(base.Add(20*time.Minute)))
		assert.True(t, got[1].Start.Equal(base.Add(50*time.Minute)))
		return nil
	}))

	// Touching endpoints do not overlap.
	require.NoError(t, s.View(ctx, func(tx task.Tx) error {
		got, err := tx.SessionsOverlapping(base.Add(10*time.Minute), base.Add(20*time.Minute))
		require.NoError(t, err)
		assert.Empty(t, got)
		return nil
	}))
}

func TestWaitingRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	var id int64
	require.NoError(t, s.Update(ctx, func(tx task.Tx) error {
		var err error
		id, err = tx.CreateTask(&task.Task{
			Description: "t", Lifecycle: task.LifecycleOpen,
			CreatedAt: base, UpdatedAt: base,
		})
		if err != nil {
			return err
		}
		return tx.CreateWaiting(&task.Handoff{
			TaskID: id, Recipient: "legal", Note: "contract review", SentAt: base,
		})
	}))

	require.NoError(t, s.View(ctx, func(tx task.Tx) error {
		h, err := tx.Waiting(id)
		require.NoError(t, err)
		require.NotNil(t, h)
		assert.Equal(t, "legal", h.Recipient)
		assert.Equal(t, "contract review", h.Note)

		all, err := tx.WaitingAll()
		require.NoError(t, err)
		assert.Len(t, all, 1)
		return nil
	}))

	require.NoError(t, s.Update(ctx, func(tx task.Tx) error {
		return tx.DeleteWaiting(id)
	}))
	require.NoError(t, s.View(ctx, func(tx task.Tx) error {
		h, err := tx.Waiting(id)
		require.NoError(t, err)
		assert.Nil(t, h)
		return nil
	}))
}

func TestAnnotationsOrderedByTime(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	var id int64
	require.NoError(t, s.Update(ctx, func(tx task.Tx) error {
		var err error
		id, err = tx.CreateTask(&task.Task{
			Description: "t", Lifecycle: task.LifecycleOpen,
			CreatedAt: base, UpdatedAt: base,
		})
		if err != nil {
			return err
		}
		for _, offset := range []time.Duration{time.Hour, 0} {
			if err := tx.AddAnnotation(&task.Annotation{
				TaskID: id, At: base.Add(offset), Body: offset.String(),
			}); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, s.View(ctx, func(tx task.Tx) error {
		notes, err := tx.Annotations(id)
		require.NoError(t, err)
		require.Len(t, notes, 2)
		assert.True(t, notes[0].At.Before(notes[1].At))
		return nil
	}))
}

func TestOpenExpandsDataDir(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "nested", "deeper", "tock.db"))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.EnsureSchema(context.Background()))
}
