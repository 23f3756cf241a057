package worker

import "bnbsched/schedule"

// Deque is a rank's backlog. The owner pushes and pops at the back, which
// gives depth-first order. Steals are served from the front, handing out
// the oldest, shallowest entries.
type Deque struct {
	items []*schedule.Schedule
	head  int
}

func (d *Deque) Len() int {
	return len(d.items) - d.head
}

func (d *Deque) PushBack(s *schedule.Schedule) {
	d.items = append(d.items, s)
}

func (d *Deque) PopBack() *schedule.Schedule {
	if d.Len() == 0 {
		return nil
	}
	last := len(d.items) - 1
	s := d.items[last]
	d.items[last] = nil
	d.items = d.items[:last]
	d.reset()
	return s
}

func (d *Deque) PopFront() *schedule.Schedule {
	if d.Len() == 0 {
		return nil
	}
	s := d.items[d.head]
	d.items[d.head] = nil
	d.head++
	d.reset()
	return s
}

// Discard removes every entry for which drop is true, keeping the order of
// the rest, and returns how many were removed.
func (d *Deque) Discard(drop func(*schedule.Schedule) bool) int {
	kept := d.items[:d.head]
	for _, s := range d.items[d.head:] {
		if !drop(s) {
			kept = append(kept, s)
		}
	}
	removed := len(d.items) - len(kept)
	clear(d.items[len(kept):])
	d.items = kept
	d.reset()
	return removed
}

// reset reclaims the consumed front once it dominates the slice.
func (d *Deque) reset() {
	if d.Len() == 0 {
		d.items = d.items[:0]
		d.head = 0
		return
	}
	if d.head > 32 && d.head > len(d.items)/2 {
		n := copy(d.items, d.items[d.head:])
		clear(d.items[n:])
		d.items = d.items[:n]
		d.head = 0
	}
}
