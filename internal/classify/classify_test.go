package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tock/internal/domain/task"
)

func TestClassifyPrecedence(t *testing.T) {
	table := DefaultTable()

	cases := []struct {
		name  string
		facts Facts
		want  Status
	}{
		{"closed wins over everything", Facts{Lifecycle: task.LifecycleClosed, TimerOn: true, Waiting: true, Queued: true, HasHistory: true}, StatusCompleted},
		{"cancelled wins over everything", Facts{Lifecycle: task.LifecycleCancelled, TimerOn: true, Waiting: true}, StatusCancelled},
		{"timer beats waiting", Facts{Lifecycle: task.LifecycleOpen, TimerOn: true, Waiting: true, Queued: true}, StatusActive},
		{"waiting beats queue facts", Facts{Lifecycle: task.LifecycleOpen, Waiting: true, Queued: true, HasHistory: true}, StatusExternal},
		{"fresh and unqueued", Facts{Lifecycle: task.LifecycleOpen}, StatusProposed},
		{"queued without history", Facts{Lifecycle: task.LifecycleOpen, Queued: true}, StatusPlanned},
		{"queued with history", Facts{Lifecycle: task.LifecycleOpen, Queued: true, HasHistory: true}, StatusInProgress},
		{"history but off the queue", Facts{Lifecycle: task.LifecycleOpen, HasHistory: true}, StatusSuspended},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, table.Classify(tc.facts))
		})
	}
}

// Classification must be total: every reachable fact combination resolves
// without error to a non-empty status.
func TestClassifyTotality(t *testing.T) {
	table := DefaultTable()
	bools := []bool{false, true}
	for _, lc := range []task.Lifecycle{task.LifecycleOpen, task.LifecycleClosed, task.LifecycleCancelled} {
		for _, timer := range bools {
			for _, waiting := range bools {
				for _, queued := range bools {
					for _, history := range bools {
						got := table.Classify(Facts{
							Lifecycle:  lc,
							TimerOn:    timer,
							Waiting:    waiting,
							Queued:     queued,
							HasHistory: history,
						})
						assert.NotEmpty(t, got)
					}
				}
			}
		}
	}
}

func TestTableWithOverrides(t *testing.T) {
	table, err := TableWithOverrides(map[string]string{
		"active":    "doing",
		"suspended": "parked",
		"External":  "delegated",
	})
	require.NoError(t, err)

	assert.Equal(t, Status("doing"),
		table.Classify(Facts{Lifecycle: task.LifecycleOpen, TimerOn: true}))
	assert.Equal(t, Status("parked"),
		table.Classify(Facts{Lifecycle: task.LifecycleOpen, HasHistory: true}))
	assert.Equal(t, Status("delegated"),
		table.Classify(Facts{Lifecycle: task.LifecycleOpen, Waiting: true}))
	// Untouched coordinates keep their defaults.
	assert.Equal(t, StatusPlanned,
		table.Classify(Facts{Lifecycle: task.LifecycleOpen, Queued: true}))
}

func TestTableWithOverridesRejectsUnknownKey(t *testing.T) {
	_, err := TableWithOverrides(map[string]string{"blocked": "x"})
	require.Error(t, err)
}

func TestTableWithOverridesRejectsEmptyStatus(t *testing.T) {
	_, err := TableWithOverrides(map[string]string{"active": "  "})
	require.Error(t, err)
}
