package worker

import (
	"context"
	"fmt"

	"bnbsched/comm"
	"bnbsched/instance"
	"bnbsched/schedule"
	"bnbsched/wire"
)

// ShareInstance gives every rank the same task table. Rank 0 passes the
// loaded tasks and sends them to everyone; the other ranks pass nil and
// block until the table arrives.
func ShareInstance(ctx context.Context, tr comm.Transport, tasks instance.TaskList) (instance.TaskList, error) {
	if tr.Rank() == 0 {
		flat := tasks.Flatten()
		for r := 1; r < tr.Size(); r++ {
			if err := tr.Send(r, wire.TasksBroadcast{Triples: flat}); err != nil {
				return nil, fmt.Errorf("broadcast instance to rank %d: %w", r, err)
			}
		}
		return tasks, nil
	}

	env, err := tr.Recv(ctx, wire.MK_TasksBroadcast, 0)
	if err != nil {
		return nil, fmt.Errorf("receive instance: %w", err)
	}
	return instance.FromFlat(env.Msg.(wire.TasksBroadcast).Triples)
}

// Distribute hands out the initial jobs: one single-task schedule per
// task, task i going to rank i mod N. Every rank other than 0 receives
// exactly one batch, possibly empty, and waits for it here so that no
// initial work is still in flight once the event loop starts.
func (w *Worker) Distribute(ctx context.Context) error {
	if w.me != 0 {
		env, err := w.tr.Recv(ctx, wire.MK_SchedulesSend, 0)
		if err != nil {
			return fmt.Errorf("receive initial jobs: %w", err)
		}
		w.receiveBatch(env)
		return nil
	}

	slices := make([][]*schedule.Schedule, w.size)
	if len(w.tasks) == 0 {
		slices[0] = append(slices[0], schedule.Root(w.tasks))
	}
	for i := range w.tasks {
		dest := i % w.size
		slices[dest] = append(slices[dest], schedule.Single(w.tasks, i))
	}

	for r := 1; r < w.size; r++ {
		seqs := make([][]int, 0, len(slices[r]))
		for _, s := range slices[r] {
			seqs = append(seqs, s.Encode())
		}
		if err := w.tr.Send(r, wire.SchedulesSend{Seqs: seqs}); err != nil {
			return fmt.Errorf("send initial jobs to rank %d: %w", r, err)
		}
	}
	w.pushAll(slices[0])
	return nil
}
