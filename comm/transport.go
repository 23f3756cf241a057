// Package comm moves wire messages between ranks.
//
// Sends never block the caller and are delivered in send order per
// destination. Receives are either non-blocking polls for one message kind
// or blocking waits for a kind from a given sender.
package comm

import (
	"context"
	"errors"

	"bnbsched/wire"
)

var ErrClosed = errors.New("transport closed")

// AnySource matches a message from any rank in Recv.
const AnySource = -1

type Transport interface {
	Rank() int
	Size() int

	// Send queues msg for rank to and returns immediately.
	Send(to int, msg wire.Message) error

	// Poll removes and returns the oldest pending message of the given kind.
	Poll(kind wire.Kind) (wire.Envelope, bool)

	// Recv blocks until a message of the given kind from rank from (or
	// AnySource) is available.
	Recv(ctx context.Context, kind wire.Kind, from int) (wire.Envelope, error)

	// WaitFor blocks until a message of any of the given kinds is pending.
	WaitFor(ctx context.Context, kinds ...wire.Kind) error

	Close() error
}
