package worker

import (
	"context"
	"fmt"

	"github.com/golang/glog"

	"bnbsched/schedule"
	"bnbsched/wire"
)

// kinds an idle rank reacts to
var idleKinds = []wire.Kind{
	wire.MK_End,
	wire.MK_TokenPass,
	wire.MK_SchedulesSend,
	wire.MK_JobRequest,
	wire.MK_JobResponse,
	wire.MK_BoundUpdate,
	wire.MK_OptimalPrefix,
}

// idle runs one idle cycle: service messages, pass the token on if held,
// then ask a random peer for work. It blocks only when nothing happened
// and a job request is already outstanding.
func (w *Worker) idle(ctx context.Context) error {
	handled, err := w.dispatch(ctx)
	if err != nil || w.state == WS_Terminated {
		return err
	}
	if w.backlog.Len() > 0 {
		return nil
	}

	// a rank waiting on a job response may still be handed work, so it
	// keeps the token until the response is in
	if w.holdingToken && !w.requestPending {
		w.passToken()
		if w.state == WS_Terminated {
			return nil
		}
		handled = true
	}

	if w.size > 1 && !w.requestPending {
		w.requestJob()
		return nil
	}
	if !handled {
		return w.tr.WaitFor(ctx, idleKinds...)
	}
	return nil
}

// dispatch services pending messages in fixed priority order: end, bound
// updates and invalidations, token, schedule batches, job requests, job
// responses. Each kind is drained before the next is looked at.
// Invalidations go before incoming schedules: a peer's OPTIMAL_PREFIX is
// queued ahead of anything it sends afterwards, and must not touch it.
func (w *Worker) dispatch(ctx context.Context) (bool, error) {
	if env, ok := w.tr.Poll(wire.MK_End); ok {
		glog.V(1).Infof("[%v] end received from [%v]", w.me, env.From)
		w.setState(WS_Terminated)
		return true, nil
	}

	handled := w.drainControl()
	if env, ok := w.tr.Poll(wire.MK_TokenPass); ok {
		w.receiveToken(env)
		handled = true
	}
	for {
		env, ok := w.tr.Poll(wire.MK_SchedulesSend)
		if !ok {
			break
		}
		w.receiveBatch(env)
		handled = true
	}
	if w.serveJobRequests() {
		handled = true
	}
	if env, ok := w.tr.Poll(wire.MK_JobResponse); ok {
		if err := w.receiveJobResponse(ctx, env); err != nil {
			return handled, err
		}
		handled = true
	}
	return handled, nil
}

func (w *Worker) requestJob() {
	victim := w.rng.Intn(w.size - 1)
	if victim >= w.me {
		victim++
	}
	glog.V(2).Infof("[%v] ask [%v] for work", w.me, victim)
	w.requestPending = true
	w.metrics.JobRequests.Inc()
	w.send(victim, wire.JobRequest{})
}

// serveJobRequests answers every pending job request. Each accepted
// request gets the oldest schedule of the backlog.
func (w *Worker) serveJobRequests() bool {
	served := false
	for {
		env, ok := w.tr.Poll(wire.MK_JobRequest)
		if !ok {
			return served
		}
		served = true

		if w.backlog.Len() == 0 {
			w.send(env.From, wire.JobResponse{Accept: false})
			continue
		}
		s := w.backlog.PopFront()
		w.dirty = true
		w.metrics.StealsServed.Inc()
		glog.V(2).Infof("[%v] give %v to [%v]", w.me, s, env.From)
		w.send(env.From, wire.JobResponse{Accept: true})
		w.send(env.From, wire.ScheduleSend{Seq: s.Encode()})
	}
}

// receiveJobResponse settles the outstanding job request. On "yes" the
// promised schedule is already on its way and is waited for.
func (w *Worker) receiveJobResponse(ctx context.Context, env wire.Envelope) error {
	w.requestPending = false
	if !env.Msg.(wire.JobResponse).Accept {
		return nil
	}

	transfer, err := w.tr.Recv(ctx, wire.MK_ScheduleSend, env.From)
	if err != nil {
		return fmt.Errorf("wait for schedule from rank %d: %w", env.From, err)
	}
	s, err := schedule.Decode(w.tasks, transfer.Msg.(wire.ScheduleSend).Seq)
	if err != nil {
		glog.Errorf("[%v] drop schedule from [%v]: %v", w.me, env.From, err)
		return nil
	}
	w.dirty = true
	w.metrics.StealsReceived.Inc()
	glog.V(2).Infof("[%v] got %v from [%v]", w.me, s, env.From)
	w.backlog.PushBack(s)
	return nil
}

// receiveBatch pushes a batch so that its first schedule is expanded first.
func (w *Worker) receiveBatch(env wire.Envelope) {
	seqs := env.Msg.(wire.SchedulesSend).Seqs
	list := make([]*schedule.Schedule, 0, len(seqs))
	for _, seq := range seqs {
		s, err := schedule.Decode(w.tasks, seq)
		if err != nil {
			glog.Errorf("[%v] drop schedule from [%v]: %v", w.me, env.From, err)
			continue
		}
		list = append(list, s)
	}
	if len(list) > 0 {
		w.dirty = true
	}
	glog.V(1).Infof("[%v] received %v schedules from [%v]", w.me, len(list), env.From)
	w.pushAll(list)
}
