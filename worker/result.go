package worker

import (
	"context"
	"fmt"
	"math"

	"github.com/golang/glog"

	"bnbsched/schedule"
	"bnbsched/wire"
)

// Result is the outcome of a run. On rank 0 it is the global optimum; on
// other ranks it only reflects the best solution that rank found itself.
type Result struct {
	Feasible bool
	Makespan int
	Order    []int // task ids in execution order
	Starts   []int // start time per task id
}

func resultOf(s *schedule.Schedule) Result {
	if s == nil {
		return Result{}
	}
	return Result{
		Feasible: true,
		Makespan: s.Length(),
		Order:    s.Scheduled(),
		Starts:   s.StartTimes(),
	}
}

// gather runs after termination. Every other rank reports its best local
// solution to rank 0, which keeps the one with the smallest makespan.
func (w *Worker) gather(ctx context.Context) (Result, error) {
	if w.me != 0 {
		var order []int
		if w.best != nil {
			order = w.best.Scheduled()
		}
		if err := w.tr.Send(0, wire.Result{Order: order}); err != nil {
			return Result{}, fmt.Errorf("report result: %w", err)
		}
		return resultOf(w.best), nil
	}

	best := w.best
	for r := 1; r < w.size; r++ {
		env, err := w.tr.Recv(ctx, wire.MK_Result, r)
		if err != nil {
			return Result{}, fmt.Errorf("gather result from rank %d: %w", r, err)
		}
		order := env.Msg.(wire.Result).Order
		if len(order) == 0 {
			glog.V(1).Infof("[%v] rank [%v] found no solution", w.me, r)
			continue
		}
		s, err := schedule.FromOrder(w.tasks, order)
		if err != nil || !s.IsSolution() || !s.Validate(math.MaxInt) {
			glog.Errorf("[%v] drop invalid result from [%v]: %v", w.me, r, order)
			continue
		}
		glog.V(1).Infof("[%v] rank [%v] best: %v", w.me, r, s)
		if best == nil || s.Length() < best.Length() {
			best = s
		}
	}

	res := resultOf(best)
	if res.Feasible {
		glog.Infof("[%v] optimal makespan %v", w.me, res.Makespan)
	} else {
		glog.Infof("[%v] instance is infeasible", w.me)
	}
	return res, nil
}
