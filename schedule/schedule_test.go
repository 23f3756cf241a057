package schedule

import (
	"math"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bnbsched/instance"
)

func exampleTasks() instance.TaskList {
	return instance.TaskList{
		{Id: 0, ProcessTime: 3, ReleaseTime: 0, Deadline: 10},
		{Id: 1, ProcessTime: 2, ReleaseTime: 2, Deadline: 8},
		{Id: 2, ProcessTime: 4, ReleaseTime: 0, Deadline: 20},
	}
}

func assertPartition(t *testing.T, s *Schedule, n int) {
	t.Helper()
	all := append(s.Scheduled(), s.Unscheduled()...)
	sort.Ints(all)
	want := make([]int, n)
	for i := range want {
		want[i] = i
	}
	if diff := cmp.Diff(want, all); diff != "" {
		t.Fatalf("scheduled and unscheduled do not partition the tasks (-want +got):\n%s", diff)
	}
}

func TestExtendLength(t *testing.T) {
	tasks := exampleTasks()
	s := Root(tasks)
	assert.Equal(t, 0, s.Length())
	assertPartition(t, s, 3)

	prev := s.Length()
	for _, idx := range []int{1, 0, 2} {
		next := s.Extend(idx)
		task := tasks[idx]
		assert.Equal(t, max(s.Length(), task.ReleaseTime)+task.ProcessTime, next.Length())
		assert.GreaterOrEqual(t, next.Length(), prev)
		assertPartition(t, next, 3)
		prev = next.Length()
		s = next
	}
	assert.Equal(t, []int{1, 0, 2}, s.Scheduled())
	assert.Equal(t, 11, s.Length())
}

func TestExtendDoesNotMutateParent(t *testing.T) {
	parent := Single(exampleTasks(), 0)
	a := parent.Extend(1)
	b := parent.Extend(2)

	assert.Equal(t, []int{0}, parent.Scheduled())
	assert.Equal(t, []int{1, 2}, parent.Unscheduled())
	assert.Equal(t, []int{0, 1}, a.Scheduled())
	assert.Equal(t, []int{0, 2}, b.Scheduled())
}

func TestExtendPanicsOnScheduledTask(t *testing.T) {
	s := Single(exampleTasks(), 0)
	assert.Panics(t, func() { s.Extend(0) })
}

func TestChildrenOrder(t *testing.T) {
	children := Single(exampleTasks(), 1).Children()
	require.Len(t, children, 2)
	assert.Equal(t, []int{1, 0}, children[0].Scheduled())
	assert.Equal(t, []int{1, 2}, children[1].Scheduled())
}

func TestCheck(t *testing.T) {
	tasks := exampleTasks()
	testCases := []struct {
		name  string
		order []int
		ub    int
		want  Verdict
	}{
		{name: "root unbounded", order: nil, ub: math.MaxInt, want: V_Valid},
		{name: "feasible prefix", order: []int{0}, ub: math.MaxInt, want: V_Valid},
		{name: "deadline slip", order: []int{0, 2}, ub: math.MaxInt, want: V_Deadline},
		{name: "bound prune", order: []int{1}, ub: 9, want: V_Bound},
		{name: "bound equal prunes", order: []int{2}, ub: 9, want: V_Bound},
		{name: "solution ignores bound", order: []int{0, 1, 2}, ub: 9, want: V_Valid},
		{name: "late task", order: []int{2, 0, 1}, ub: math.MaxInt, want: V_Late},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := FromOrder(tasks, tc.order)
			require.NoError(t, err)
			assert.Equal(t, tc.want, s.Check(tc.ub))
			assert.Equal(t, tc.want == V_Valid, s.Validate(tc.ub))
		})
	}
}

func TestSingleLateTaskIsInvalid(t *testing.T) {
	tasks := instance.TaskList{{Id: 0, ProcessTime: 5, ReleaseTime: 0, Deadline: 3}}
	s := Single(tasks, 0)
	assert.True(t, s.IsSolution())
	assert.Equal(t, V_Late, s.Check(math.MaxInt))
}

// A node that passes the deadline test keeps every unscheduled deadline
// reachable for the shorter prefix, and longer prefixes only get worse.
func TestDeadlineMonotone(t *testing.T) {
	tasks := exampleTasks()
	s := Single(tasks, 0)
	require.Equal(t, V_Valid, s.Check(math.MaxInt))

	for _, child := range s.Children() {
		assert.GreaterOrEqual(t, child.Length(), s.Length())
		for _, idx := range child.Unscheduled() {
			task := tasks[idx]
			assert.GreaterOrEqual(t,
				max(child.Length(), task.ReleaseTime)+task.ProcessTime,
				max(s.Length(), task.ReleaseTime)+task.ProcessTime)
		}
	}
}

func TestIsOptimalPrefix(t *testing.T) {
	tasks := instance.TaskList{
		{Id: 0, ProcessTime: 1, ReleaseTime: 0, Deadline: 100},
		{Id: 1, ProcessTime: 1, ReleaseTime: 10, Deadline: 100},
	}
	assert.True(t, Root(tasks).IsOptimalPrefix())
	assert.True(t, Single(tasks, 0).IsOptimalPrefix())
	assert.False(t, Single(tasks, 1).IsOptimalPrefix())
	assert.False(t, Single(tasks, 0).Extend(1).IsOptimalPrefix())
}

func TestSupersededBy(t *testing.T) {
	tasks := instance.TaskList{
		{Id: 0, ProcessTime: 1, ReleaseTime: 0, Deadline: 100},
		{Id: 1, ProcessTime: 1, ReleaseTime: 10, Deadline: 100},
		{Id: 2, ProcessTime: 1, ReleaseTime: 10, Deadline: 100},
	}
	below := Single(tasks, 0).Extend(1)
	assert.True(t, below.Extends([]int{0}))
	assert.False(t, below.Extends([]int{0, 2}))

	assert.False(t, below.SupersededBy([]int{0}))
	assert.False(t, below.SupersededBy([]int{0, 1}))
	// [0] was an optimal prefix of its own, unrelated to [1]
	assert.False(t, below.SupersededBy([]int{1}))
	// a deeper optimal prefix under the same ancestor wins
	assert.True(t, below.SupersededBy([]int{0, 2}))

	assert.True(t, Single(tasks, 1).SupersededBy([]int{0}))
	assert.True(t, Single(tasks, 1).Extend(0).SupersededBy([]int{2}))
}

func TestStartTimes(t *testing.T) {
	tasks := exampleTasks()
	s, err := FromOrder(tasks, []int{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 5}, s.StartTimes())
	assert.Equal(t, 9, s.Length())

	// idle gap before a late release
	gap := instance.TaskList{
		{Id: 0, ProcessTime: 1, ReleaseTime: 0, Deadline: 100},
		{Id: 1, ProcessTime: 2, ReleaseTime: 10, Deadline: 100},
	}
	s, err = FromOrder(gap, []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 10}, s.StartTimes())
	assert.Equal(t, 12, s.Length())

	assert.Equal(t, []int{-1, -1}, Root(gap).StartTimes())
}
