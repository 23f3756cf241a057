package comm

import (
	"context"
	"sync"

	"bnbsched/wire"
)

// Mailbox is the receive side of a rank: one FIFO queue per message kind.
// Messages from one sender keep their arrival order within a kind.
type Mailbox struct {
	mu     sync.Mutex
	queues map[wire.Kind][]wire.Envelope
	notify chan struct{} // closed and replaced on every Put
	closed bool
}

func NewMailbox() *Mailbox {
	return &Mailbox{
		queues: make(map[wire.Kind][]wire.Envelope),
		notify: make(chan struct{}),
	}
}

func (mb *Mailbox) Put(env wire.Envelope) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if mb.closed {
		return
	}
	kind := env.Msg.Kind()
	mb.queues[kind] = append(mb.queues[kind], env)
	close(mb.notify)
	mb.notify = make(chan struct{})
}

func (mb *Mailbox) Poll(kind wire.Kind) (wire.Envelope, bool) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	return mb.take(kind, AnySource)
}

func (mb *Mailbox) Pending(kind wire.Kind) int {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	return len(mb.queues[kind])
}

// should hold mb.mu
func (mb *Mailbox) take(kind wire.Kind, from int) (wire.Envelope, bool) {
	queue := mb.queues[kind]
	for i, env := range queue {
		if from != AnySource && env.From != from {
			continue
		}
		copy(queue[i:], queue[i+1:])
		queue[len(queue)-1] = wire.Envelope{}
		mb.queues[kind] = queue[:len(queue)-1]
		return env, true
	}
	return wire.Envelope{}, false
}

func (mb *Mailbox) Recv(ctx context.Context, kind wire.Kind, from int) (wire.Envelope, error) {
	for {
		mb.mu.Lock()
		if env, ok := mb.take(kind, from); ok {
			mb.mu.Unlock()
			return env, nil
		}
		if mb.closed {
			mb.mu.Unlock()
			return wire.Envelope{}, ErrClosed
		}
		wake := mb.notify
		mb.mu.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			return wire.Envelope{}, ctx.Err()
		}
	}
}

func (mb *Mailbox) WaitFor(ctx context.Context, kinds ...wire.Kind) error {
	for {
		mb.mu.Lock()
		for _, kind := range kinds {
			if len(mb.queues[kind]) > 0 {
				mb.mu.Unlock()
				return nil
			}
		}
		if mb.closed {
			mb.mu.Unlock()
			return ErrClosed
		}
		wake := mb.notify
		mb.mu.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close wakes every waiter. Pending messages can still be taken.
func (mb *Mailbox) Close() {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if !mb.closed {
		mb.closed = true
		close(mb.notify)
	}
}
