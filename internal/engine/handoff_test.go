package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tock/internal/classify"
	"tock/internal/domain/task"
)

func TestSendTakesTaskOffQueue(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	a := addQueued(t, e, "a")
	b := addQueued(t, e, "b")

	require.NoError(t, e.Send(ctx, a, "alice", "needs review", at(0)))
	assert.Nil(t, position(t, e, a))
	assert.Equal(t, []int64{b}, queueIDs(t, e))

	status, err := e.Classify(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, classify.StatusExternal, status)
}

func TestSendTwiceRejected(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	a := addTask(t, e, "a")

	require.NoError(t, e.Send(ctx, a, "alice", "", at(0)))
	err := e.Send(ctx, a, "bob", "", at(time.Minute))
	require.Error(t, err)
	assert.Equal(t, task.FaultInvariantViolation, task.KindOf(err))
}

func TestSendTerminalTaskRejected(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	a := addTask(t, e, "a")
	_, err := e.Cancel(ctx, a, at(0))
	require.NoError(t, err)

	err = e.Send(ctx, a, "alice", "", at(time.Minute))
	require.Error(t, err)
	assert.Equal(t, task.FaultTerminalLifecycle, task.KindOf(err))
}

func TestSendWhileTimingKeepsQueueUntilStop(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	a := addQueued(t, e, "a")
	_, err := e.StartFor(ctx, a, at(0))
	require.NoError(t, err)

	require.NoError(t, e.Send(ctx, a, "alice", "", at(time.Minute)))
	// Queue membership untouched while the timer runs.
	assert.Equal(t, []int64{a}, queueIDs(t, e))

	_, err = e.Stop(ctx, at(10*time.Minute))
	require.NoError(t, err)
	assert.Nil(t, position(t, e, a))
}

// Full handoff round-trip: send makes the task external; starting it puts
// it at the queue front as active; stopping returns it to external, unqueued.
func TestHandoffRoundTrip(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	addQueued(t, e, "other")
	three := addTask(t, e, "three")

	require.NoError(t, e.Send(ctx, three, "alice", "", at(0)))
	status, err := e.Classify(ctx, three)
	require.NoError(t, err)
	assert.Equal(t, classify.StatusExternal, status)

	_, err = e.StartFor(ctx, three, at(time.Minute))
	require.NoError(t, err)
	status, err = e.Classify(ctx, three)
	require.NoError(t, err)
	assert.Equal(t, classify.StatusActive, status)
	pos := position(t, e, three)
	require.NotNil(t, pos)
	assert.Equal(t, 0, *pos)

	_, err = e.Stop(ctx, at(10*time.Minute))
	require.NoError(t, err)
	status, err = e.Classify(ctx, three)
	require.NoError(t, err)
	assert.Equal(t, classify.StatusExternal, status)
	assert.Nil(t, position(t, e, three))
}

func TestRecallRequeuesAtFront(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	a := addQueued(t, e, "a")
	b := addTask(t, e, "b")

	require.NoError(t, e.Send(ctx, b, "bob", "", at(0)))
	require.NoError(t, e.Recall(ctx, b, 0))

	assert.Equal(t, []int64{b, a}, queueIDs(t, e))
	status, err := e.Classify(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, classify.StatusPlanned, status)
}

func TestRecallAtPositionClamps(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	a := addQueued(t, e, "a")
	b := addQueued(t, e, "b")
	c := addTask(t, e, "c")

	require.NoError(t, e.Send(ctx, c, "carol", "", at(0)))
	require.NoError(t, e.Recall(ctx, c, 99))
	assert.Equal(t, []int64{a, b, c}, queueIDs(t, e))
}

func TestRecallWithoutRecord(t *testing.T) {
	e, _ := newTestEngine(t)
	a := addTask(t, e, "a")
	err := e.Recall(context.Background(), a, 0)
	require.Error(t, err)
	assert.Equal(t, task.FaultNoWaitingRecord, task.KindOf(err))
}
