package schedule

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"bnbsched/instance"
)

// A Schedule is a node of the search tree: an ordered prefix of scheduled
// task indices plus the remaining unscheduled indices. It is a value;
// Extend returns a new Schedule and never modifies the receiver. Task data
// is only borrowed from the shared TaskList.
type Schedule struct {
	tasks       instance.TaskList
	scheduled   []int
	unscheduled []int
	length      int
	late        bool
}

// Root returns the empty schedule with every task unscheduled.
func Root(tasks instance.TaskList) *Schedule {
	s := &Schedule{
		tasks:       tasks,
		scheduled:   []int{},
		unscheduled: make([]int, len(tasks)),
	}
	for i := range tasks {
		s.unscheduled[i] = i
	}
	return s
}

// Single returns the schedule whose prefix is the single task first.
func Single(tasks instance.TaskList, first int) *Schedule {
	return Root(tasks).Extend(first)
}

// Extend appends task idx to the prefix. idx must be unscheduled.
func (s *Schedule) Extend(idx int) *Schedule {
	pos := -1
	for i, u := range s.unscheduled {
		if u == idx {
			pos = i
			break
		}
	}
	if pos < 0 {
		panic(fmt.Sprintf("schedule: task %d is not unscheduled in %v", idx, s))
	}

	t := &s.tasks[idx]
	child := &Schedule{
		tasks:       s.tasks,
		scheduled:   make([]int, len(s.scheduled)+1),
		unscheduled: make([]int, 0, len(s.unscheduled)-1),
		length:      max(s.length, t.ReleaseTime) + t.ProcessTime,
		late:        s.late,
	}
	copy(child.scheduled, s.scheduled)
	child.scheduled[len(s.scheduled)] = idx
	child.unscheduled = append(child.unscheduled, s.unscheduled[:pos]...)
	child.unscheduled = append(child.unscheduled, s.unscheduled[pos+1:]...)
	if child.length > t.Deadline {
		child.late = true
	}
	return child
}

// Children returns one child per unscheduled task, in unscheduled order.
func (s *Schedule) Children() []*Schedule {
	children := make([]*Schedule, 0, len(s.unscheduled))
	for _, idx := range s.unscheduled {
		children = append(children, s.Extend(idx))
	}
	return children
}

// Length is the completion time of the scheduled prefix.
func (s *Schedule) Length() int {
	return s.length
}

func (s *Schedule) Scheduled() []int {
	return append([]int(nil), s.scheduled...)
}

func (s *Schedule) Unscheduled() []int {
	return append([]int(nil), s.unscheduled...)
}

func (s *Schedule) IsSolution() bool {
	return len(s.unscheduled) == 0
}

// Check runs the pruning tests against the upper bound ub and reports the
// first one that fails.
func (s *Schedule) Check(ub int) Verdict {
	if s.late {
		return V_Late
	}
	if len(s.unscheduled) == 0 {
		return V_Valid
	}

	minRelease := s.tasks[s.unscheduled[0]].ReleaseTime
	sumProc := 0
	for _, idx := range s.unscheduled {
		t := &s.tasks[idx]
		if max(s.length, t.ReleaseTime)+t.ProcessTime > t.Deadline {
			return V_Deadline
		}
		minRelease = min(minRelease, t.ReleaseTime)
		sumProc += t.ProcessTime
	}

	if max(s.length, minRelease)+sumProc >= ub {
		return V_Bound
	}
	return V_Valid
}

func (s *Schedule) Validate(ub int) bool {
	return s.Check(ub) == V_Valid
}

// IsOptimalPrefix reports whether the machine already waits for the
// earliest release among the unscheduled tasks. Solutions never qualify.
func (s *Schedule) IsOptimalPrefix() bool {
	if len(s.unscheduled) == 0 {
		return false
	}
	minRelease := s.tasks[s.unscheduled[0]].ReleaseTime
	for _, idx := range s.unscheduled[1:] {
		minRelease = min(minRelease, s.tasks[idx].ReleaseTime)
	}
	return s.length <= minRelease
}

// Extends reports whether prefix is a prefix of s's scheduled tasks.
func (s *Schedule) Extends(prefix []int) bool {
	return len(prefix) <= len(s.scheduled) && slices.Equal(s.scheduled[:len(prefix)], prefix)
}

// shortcutDepths lists the depths k, 0 < k < len(scheduled), at which the
// first k scheduled tasks formed an optimal prefix.
func (s *Schedule) shortcutDepths() []int {
	n := len(s.scheduled)
	if n < 2 {
		return nil
	}
	// suffix[k] is the earliest release among scheduled[k:] and the
	// unscheduled tasks
	suffix := make([]int, n+1)
	suffix[n] = math.MaxInt
	for _, idx := range s.unscheduled {
		suffix[n] = min(suffix[n], s.tasks[idx].ReleaseTime)
	}
	for k := n - 1; k >= 0; k-- {
		suffix[k] = min(suffix[k+1], s.tasks[s.scheduled[k]].ReleaseTime)
	}

	var depths []int
	length := 0
	for k := 1; k < n; k++ {
		t := &s.tasks[s.scheduled[k-1]]
		length = max(length, t.ReleaseTime) + t.ProcessTime
		if length <= suffix[k] {
			depths = append(depths, k)
		}
	}
	return depths
}

// SupersededBy reports whether an optimal prefix found elsewhere makes s
// redundant. s survives if it extends prefix, or if it descends from an
// optimal prefix that is not an ancestor of prefix.
func (s *Schedule) SupersededBy(prefix []int) bool {
	if s.Extends(prefix) {
		return false
	}
	for _, k := range s.shortcutDepths() {
		if k > len(prefix) || !slices.Equal(s.scheduled[:k], prefix[:k]) {
			return false
		}
	}
	return true
}

// StartTimes returns the start time of every task, indexed by task id, when
// the prefix is executed in order. Unscheduled tasks get -1.
func (s *Schedule) StartTimes() []int {
	starts := make([]int, len(s.tasks))
	for i := range starts {
		starts[i] = -1
	}
	offset := 0
	for _, idx := range s.scheduled {
		t := &s.tasks[idx]
		starts[idx] = max(offset, t.ReleaseTime)
		offset = starts[idx] + t.ProcessTime
	}
	return starts
}

func (s *Schedule) String() string {
	var sb strings.Builder
	sb.WriteString("scheduled:")
	for _, idx := range s.scheduled {
		fmt.Fprintf(&sb, " T%d", idx)
	}
	sb.WriteString(" not scheduled:")
	for _, idx := range s.unscheduled {
		fmt.Fprintf(&sb, " T%d", idx)
	}
	fmt.Fprintf(&sb, " length: %d", s.length)
	return sb.String()
}
