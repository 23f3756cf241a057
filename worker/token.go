package worker

import (
	"github.com/golang/glog"

	"bnbsched/wire"
)

// Termination detection runs a colored token around the ring 0..N-1. A
// rank passes the token on only while idle with no job request
// outstanding, turning it red if it has done work or moved schedules since
// it last passed it. When the token comes back to rank 0 green and rank 0
// itself stayed clean, a full lap saw every rank idle and no schedule in
// flight, so rank 0 broadcasts END. Otherwise rank 0 starts a new lap.

func (w *Worker) next() int {
	return (w.me + 1) % w.size
}

func (w *Worker) receiveToken(env wire.Envelope) {
	w.holdingToken = true
	w.tokenColor = env.Msg.(wire.TokenPass).Color
	glog.V(2).Infof("[%v] received %v token from [%v]", w.me, w.tokenColor, env.From)
}

func (w *Worker) passToken() {
	w.holdingToken = false

	if w.me != 0 {
		color := w.tokenColor
		if w.dirty {
			color = wire.TC_Red
		}
		w.dirty = false
		glog.V(2).Infof("[%v] pass %v token to [%v]", w.me, color, w.next())
		w.send(w.next(), wire.TokenPass{Color: color})
		return
	}

	if w.size == 1 {
		w.declareEnd()
		return
	}
	if w.tokenStarted {
		w.metrics.TokenLaps.Inc()
		if w.tokenColor == wire.TC_Green && !w.dirty {
			w.declareEnd()
			return
		}
	}
	w.tokenStarted = true
	w.dirty = false
	glog.V(2).Infof("[%v] start token lap", w.me)
	w.send(w.next(), wire.TokenPass{Color: wire.TC_Green})
}

func (w *Worker) declareEnd() {
	glog.V(1).Infof("[%v] clean token lap, declare end", w.me)
	w.broadcast(wire.End{})
	w.setState(WS_Terminated)
}
