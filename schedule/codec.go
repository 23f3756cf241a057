package schedule

import (
	"errors"
	"fmt"

	"bnbsched/instance"
)

var ErrCorrupt = errors.New("corrupt schedule encoding")

// Encode flattens the schedule as the scheduled indices, Separator, then
// the unscheduled indices.
func (s *Schedule) Encode() []int {
	seq := make([]int, 0, len(s.scheduled)+len(s.unscheduled)+1)
	seq = append(seq, s.scheduled...)
	seq = append(seq, Separator)
	seq = append(seq, s.unscheduled...)
	return seq
}

// Decode rebuilds a Schedule from its flat encoding, recomputing the length
// by replaying the prefix. The two halves must partition the task list.
func Decode(tasks instance.TaskList, seq []int) (*Schedule, error) {
	split := -1
	for i, v := range seq {
		if v == Separator {
			split = i
			break
		}
	}
	if split < 0 {
		return nil, fmt.Errorf("%w: missing separator", ErrCorrupt)
	}
	if len(seq)-1 != len(tasks) {
		return nil, fmt.Errorf("%w: %d indices for %d tasks", ErrCorrupt, len(seq)-1, len(tasks))
	}

	s, err := FromOrder(tasks, seq[:split])
	if err != nil {
		return nil, err
	}

	rest := make(map[int]bool, len(s.unscheduled))
	for _, idx := range s.unscheduled {
		rest[idx] = true
	}
	for _, idx := range seq[split+1:] {
		if !rest[idx] {
			return nil, fmt.Errorf("%w: unscheduled index %d is scheduled, repeated or out of range", ErrCorrupt, idx)
		}
		delete(rest, idx)
	}
	return s, nil
}

// FromOrder builds the schedule obtained by appending order to the root.
func FromOrder(tasks instance.TaskList, order []int) (*Schedule, error) {
	s := Root(tasks)
	seen := make([]bool, len(tasks))
	for _, idx := range order {
		if idx < 0 || idx >= len(tasks) {
			return nil, fmt.Errorf("%w: task index %d out of range", ErrCorrupt, idx)
		}
		if seen[idx] {
			return nil, fmt.Errorf("%w: task %d scheduled twice", ErrCorrupt, idx)
		}
		seen[idx] = true
		s = s.Extend(idx)
	}
	return s, nil
}
