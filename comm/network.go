package comm

import (
	"context"
	"fmt"
	"sync/atomic"

	"bnbsched/wire"
)

// Network connects n in-process ranks. Every message is encoded to a
// frame and decoded on delivery, so ranks never share payload memory.
type Network struct {
	boxes []*Mailbox
}

func MakeNetwork(n int) *Network {
	net := &Network{boxes: make([]*Mailbox, n)}
	for i := range net.boxes {
		net.boxes[i] = NewMailbox()
	}
	return net
}

// End returns the transport of rank me.
func (net *Network) End(me int) Transport {
	return &endpoint{net: net, me: me}
}

func (net *Network) Mailbox(rank int) *Mailbox {
	return net.boxes[rank]
}

func (net *Network) Close() {
	for _, mb := range net.boxes {
		mb.Close()
	}
}

type endpoint struct {
	net    *Network
	me     int
	closed atomic.Bool
}

func (e *endpoint) Rank() int { return e.me }
func (e *endpoint) Size() int { return len(e.net.boxes) }

func (e *endpoint) Send(to int, msg wire.Message) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if to < 0 || to >= len(e.net.boxes) {
		return fmt.Errorf("send %v to rank %d: no such rank", msg.Kind(), to)
	}
	env, err := wire.Unmarshal(wire.Marshal(wire.Envelope{From: e.me, Msg: msg}))
	if err != nil {
		return err
	}
	e.net.boxes[to].Put(env)
	return nil
}

func (e *endpoint) Poll(kind wire.Kind) (wire.Envelope, bool) {
	return e.net.boxes[e.me].Poll(kind)
}

func (e *endpoint) Recv(ctx context.Context, kind wire.Kind, from int) (wire.Envelope, error) {
	return e.net.boxes[e.me].Recv(ctx, kind, from)
}

func (e *endpoint) WaitFor(ctx context.Context, kinds ...wire.Kind) error {
	return e.net.boxes[e.me].WaitFor(ctx, kinds...)
}

func (e *endpoint) Close() error {
	e.closed.Store(true)
	return nil
}
