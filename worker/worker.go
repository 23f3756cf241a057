// Package worker runs one rank of the distributed branch-and-bound search.
//
// A rank alternates between working (expanding the newest schedule of its
// backlog) and idling (servicing protocol messages, asking peers for work
// and taking part in termination detection) until rank 0 declares that
// every rank ran out of work. All state below is owned by the single
// goroutine running Run; peers only ever see it through messages.
package worker

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/golang/glog"

	"bnbsched/comm"
	"bnbsched/instance"
	"bnbsched/schedule"
	"bnbsched/wire"
)

type Worker struct {
	me    int
	size  int
	tr    comm.Transport
	tasks instance.TaskList
	cfg   Config
	state workerState

	backlog Deque
	ub      int
	best    *schedule.Schedule

	// termination detection
	dirty        bool // work done or schedules moved since the token was last passed on
	holdingToken bool
	tokenColor   wire.Color
	tokenStarted bool // rank 0 only

	requestPending bool
	rng            *rand.Rand

	metrics *Metrics
}

// Make creates the worker of rank tr.Rank(). metrics may be nil.
func Make(tr comm.Transport, tasks instance.TaskList, cfg Config, metrics *Metrics) *Worker {
	w := &Worker{
		me:    tr.Rank(),
		size:  tr.Size(),
		tr:    tr,
		tasks: tasks,
		cfg:   cfg,
		state: WS_Idling,
		ub:    math.MaxInt,
	}
	if cfg.InitialBound > 0 {
		w.ub = cfg.InitialBound
	}
	if metrics == nil {
		metrics = NewMetrics(nil, w.me)
	}
	w.metrics = metrics
	if w.ub != math.MaxInt {
		w.metrics.Bound.Set(float64(w.ub))
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	w.rng = rand.New(rand.NewSource(seed + int64(w.me)))

	// rank 0 owns the token before the first lap
	w.holdingToken = w.me == 0
	return w
}

// Solve runs one rank from start to finish: share the instance, hand out
// the initial jobs, search, and gather. Rank 0 passes the loaded tasks;
// other ranks pass nil. Only rank 0's Result is the global answer.
func Solve(ctx context.Context, tr comm.Transport, tasks instance.TaskList, cfg Config, metrics *Metrics) (Result, error) {
	tasks, err := ShareInstance(ctx, tr, tasks)
	if err != nil {
		return Result{}, err
	}
	w := Make(tr, tasks, cfg, metrics)
	if err := w.Distribute(ctx); err != nil {
		return Result{}, err
	}
	return w.Run(ctx)
}

// Run drives the event loop until termination, then gathers results.
func (w *Worker) Run(ctx context.Context) (Result, error) {
	glog.Infof("[%v] start searching %v tasks with %v schedules in backlog", w.me, len(w.tasks), w.backlog.Len())

	for w.state != WS_Terminated {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if w.backlog.Len() > 0 {
			w.setState(WS_Working)
			w.work()
			continue
		}
		w.setState(WS_Idling)
		if err := w.idle(ctx); err != nil {
			return Result{}, fmt.Errorf("rank %d idle: %w", w.me, err)
		}
	}

	glog.Infof("[%v] terminated, local bound %v", w.me, w.boundString())
	return w.gather(ctx)
}

func (w *Worker) setState(state workerState) {
	if w.state != state {
		glog.V(2).Infof("[%v] %v -> %v", w.me, w.state, state)
		w.state = state
	}
}

// work expands the newest schedule of the backlog.
func (w *Worker) work() {
	w.drainControl()
	if w.backlog.Len() == 0 {
		return
	}
	w.process(w.backlog.PopBack())
	w.serveJobRequests()
}

func (w *Worker) process(s *schedule.Schedule) {
	if verdict := s.Check(w.ub); verdict != schedule.V_Valid {
		w.metrics.Pruned.WithLabelValues(verdict.String()).Inc()
		return
	}
	w.dirty = true

	if s.IsSolution() {
		if s.Length() < w.ub {
			w.ub = s.Length()
			w.best = s
			w.metrics.Solutions.Inc()
			w.metrics.Bound.Set(float64(w.ub))
			glog.V(1).Infof("[%v] new solution with length %v: %v", w.me, w.ub, s)
			w.broadcast(wire.BoundUpdate{Bound: w.ub})
		}
		return
	}

	w.metrics.Expanded.Inc()
	children := s.Children()
	if w.cfg.PrefixPruning && s.IsOptimalPrefix() {
		prefix := s.Scheduled()
		dropped := w.discardSuperseded(prefix)
		glog.V(1).Infof("[%v] optimal prefix %v, discarded %v queued schedules", w.me, s, dropped)
		w.metrics.Prefixes.Inc()
		w.broadcast(wire.OptimalPrefix{Prefix: prefix})
	}
	w.pushAll(children)
}

// pushAll pushes schedules so that the first one is popped first.
func (w *Worker) pushAll(list []*schedule.Schedule) {
	for i := len(list) - 1; i >= 0; i-- {
		w.backlog.PushBack(list[i])
	}
}

// discardSuperseded drops the queued schedules an optimal prefix makes
// redundant. Descendants of the prefix and of unrelated optimal prefixes
// are kept.
func (w *Worker) discardSuperseded(prefix []int) int {
	return w.backlog.Discard(func(s *schedule.Schedule) bool {
		return s.SupersededBy(prefix)
	})
}

// drainControl applies pending bound updates and backlog invalidations.
func (w *Worker) drainControl() bool {
	handled := false
	for {
		env, ok := w.tr.Poll(wire.MK_BoundUpdate)
		if !ok {
			break
		}
		handled = true
		if bound := env.Msg.(wire.BoundUpdate).Bound; bound < w.ub {
			glog.V(2).Infof("[%v] bound %v -> %v from [%v]", w.me, w.boundString(), bound, env.From)
			w.ub = bound
			w.metrics.Bound.Set(float64(bound))
		}
	}
	for {
		env, ok := w.tr.Poll(wire.MK_OptimalPrefix)
		if !ok {
			break
		}
		handled = true
		prefix := env.Msg.(wire.OptimalPrefix).Prefix
		dropped := w.discardSuperseded(prefix)
		glog.V(1).Infof("[%v] optimal prefix %v found by [%v], discarded %v queued schedules", w.me, prefix, env.From, dropped)
	}
	return handled
}

func (w *Worker) send(to int, msg wire.Message) {
	if err := w.tr.Send(to, msg); err != nil {
		glog.Warningf("[%v] fail to send %v to [%v]: %v", w.me, msg.Kind(), to, err)
	}
}

func (w *Worker) broadcast(msg wire.Message) {
	for r := 0; r < w.size; r++ {
		if r != w.me {
			w.send(r, msg)
		}
	}
}

func (w *Worker) boundString() string {
	if w.ub == math.MaxInt {
		return "inf"
	}
	return fmt.Sprint(w.ub)
}
