package instance

// A Task is one job of the single-machine instance. Tasks are identified by
// their position in the TaskList and never change after loading.
type Task struct {
	Id          int
	ProcessTime int
	ReleaseTime int
	Deadline    int
}

// TaskList is the immutable, shared task table. Schedules refer to tasks
// by index into it.
type TaskList []Task

// Flatten returns the task table as `processTime releaseTime deadline`
// triples, in id order. Used to broadcast the instance to every rank.
func (tl TaskList) Flatten() []int {
	flat := make([]int, 0, 3*len(tl))
	for _, t := range tl {
		flat = append(flat, t.ProcessTime, t.ReleaseTime, t.Deadline)
	}
	return flat
}

// FromFlat rebuilds a TaskList from the triples produced by Flatten.
func FromFlat(flat []int) (TaskList, error) {
	if len(flat)%3 != 0 {
		return nil, malformed("task table of %d integers is not a list of triples", len(flat))
	}
	tl := make(TaskList, 0, len(flat)/3)
	for i := 0; i < len(flat); i += 3 {
		t := Task{
			Id:          i / 3,
			ProcessTime: flat[i],
			ReleaseTime: flat[i+1],
			Deadline:    flat[i+2],
		}
		if err := t.check(); err != nil {
			return nil, err
		}
		tl = append(tl, t)
	}
	return tl, nil
}

func (t Task) check() error {
	if t.ProcessTime < 0 {
		return malformed("task %d: negative process time %d", t.Id, t.ProcessTime)
	}
	if t.ReleaseTime < 0 {
		return malformed("task %d: negative release time %d", t.Id, t.ReleaseTime)
	}
	return nil
}
