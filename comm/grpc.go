package comm

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"bnbsched/rpcwrapper"
	"bnbsched/wire"
)

// time allowed for queued frames to reach their peers on Close
const drainTimeout = 5 * time.Second

// keepOnClose reports whether frames of kind are still delivered once the
// transport is closing. Everything else only matters to a running search,
// and its peer may already have stopped listening.
func keepOnClose(kind wire.Kind) bool {
	return kind == wire.MK_End || kind == wire.MK_Result
}

// GRPCTransport connects one rank to its peers over gRPC. Each peer gets an
// outbox drained by a single goroutine issuing Deliver calls one at a time,
// which keeps frames to that peer in send order.
type GRPCTransport struct {
	me       int
	peers    []*rpcwrapper.ClientEnd
	mailbox  *Mailbox
	server   *grpc.Server
	outboxes []*outbox

	ctx    context.Context
	cancel context.CancelFunc
	serveG errgroup.Group
	sendG  errgroup.Group

	closeOnce sync.Once
	closeErr  error
}

// NewGRPCTransport serves rank me's mailbox on lis and dials peers lazily.
// peers is indexed by rank; peers[me] is not dialed.
func NewGRPCTransport(me int, lis net.Listener, peers []*rpcwrapper.ClientEnd) *GRPCTransport {
	ctx, cancel := context.WithCancel(context.Background())
	t := &GRPCTransport{
		me:       me,
		peers:    peers,
		mailbox:  NewMailbox(),
		server:   grpc.NewServer(),
		outboxes: make([]*outbox, len(peers)),
		ctx:      ctx,
		cancel:   cancel,
	}
	rpcwrapper.RegisterMailboxServer(t.server, t)

	t.serveG.Go(func() error {
		return t.server.Serve(lis)
	})
	for i, peer := range peers {
		if i == me {
			continue
		}
		ob := newOutbox(ctx, me, i, peer)
		t.outboxes[i] = ob
		t.sendG.Go(func() error {
			ob.run(t.ctx)
			return nil
		})
	}
	glog.V(1).Infof("[%v] mailbox listening on %v", me, lis.Addr())
	return t
}

// Deliver implements rpcwrapper.MailboxServer.
func (t *GRPCTransport) Deliver(ctx context.Context, frame *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	env, err := wire.Unmarshal(frame.GetValue())
	if err != nil {
		glog.Warningf("[%v] drop undecodable frame: %v", t.me, err)
		return &emptypb.Empty{}, nil
	}
	t.mailbox.Put(env)
	return &emptypb.Empty{}, nil
}

func (t *GRPCTransport) Rank() int { return t.me }
func (t *GRPCTransport) Size() int { return len(t.peers) }

func (t *GRPCTransport) Send(to int, msg wire.Message) error {
	if to < 0 || to >= len(t.peers) {
		return fmt.Errorf("send %v to rank %d: no such rank", msg.Kind(), to)
	}
	if to == t.me {
		t.mailbox.Put(wire.Envelope{From: t.me, Msg: msg})
		return nil
	}
	if !t.outboxes[to].push(msg.Kind(), wire.Marshal(wire.Envelope{From: t.me, Msg: msg})) {
		return ErrClosed
	}
	return nil
}

func (t *GRPCTransport) Poll(kind wire.Kind) (wire.Envelope, bool) {
	return t.mailbox.Poll(kind)
}

func (t *GRPCTransport) Recv(ctx context.Context, kind wire.Kind, from int) (wire.Envelope, error) {
	return t.mailbox.Recv(ctx, kind, from)
}

func (t *GRPCTransport) WaitFor(ctx context.Context, kinds ...wire.Kind) error {
	return t.mailbox.WaitFor(ctx, kinds...)
}

// Close flushes END and RESULT frames still queued (bounded by
// drainTimeout) and drops the rest, then stops the server and closes the
// peer connections.
func (t *GRPCTransport) Close() error {
	t.closeOnce.Do(func() {
		for _, ob := range t.outboxes {
			if ob != nil {
				ob.close()
			}
		}

		drained := make(chan struct{})
		go func() {
			t.sendG.Wait()
			close(drained)
		}()
		select {
		case <-drained:
		case <-time.After(drainTimeout):
			glog.Warningf("[%v] outboxes not drained after %v, dropping queued frames", t.me, drainTimeout)
		}
		t.cancel()
		<-drained

		t.server.GracefulStop()
		t.mailbox.Close()
		for i, peer := range t.peers {
			if i != t.me {
				peer.Close()
			}
		}
		t.closeErr = t.serveG.Wait()
	})
	return t.closeErr
}

type queuedFrame struct {
	kind  wire.Kind
	frame []byte
}

type outbox struct {
	me   int
	to   int
	end  *rpcwrapper.ClientEnd
	mu   sync.Mutex
	cond *sync.Cond

	queue  []queuedFrame
	closed bool

	// canceled on close; bounds deliveries of frames dropped on close
	lossy     context.Context
	dropLossy context.CancelFunc
}

func newOutbox(ctx context.Context, me int, to int, end *rpcwrapper.ClientEnd) *outbox {
	ob := &outbox{me: me, to: to, end: end}
	ob.cond = sync.NewCond(&ob.mu)
	ob.lossy, ob.dropLossy = context.WithCancel(ctx)
	return ob
}

func (ob *outbox) push(kind wire.Kind, frame []byte) bool {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	if ob.closed {
		return false
	}
	ob.queue = append(ob.queue, queuedFrame{kind: kind, frame: frame})
	ob.cond.Signal()
	return true
}

// close stops accepting frames and drops the queued ones not kept on close.
func (ob *outbox) close() {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	ob.closed = true
	kept := ob.queue[:0]
	for _, qf := range ob.queue {
		if keepOnClose(qf.kind) {
			kept = append(kept, qf)
		}
	}
	if dropped := len(ob.queue) - len(kept); dropped > 0 {
		glog.V(1).Infof("[%v] drop %v queued frames to [%v] on close", ob.me, dropped, ob.to)
	}
	clear(ob.queue[len(kept):])
	ob.queue = kept
	ob.dropLossy()
	ob.cond.Broadcast()
}

// next blocks until a frame is queued; false once closed and empty.
func (ob *outbox) next() (queuedFrame, bool) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	for len(ob.queue) == 0 && !ob.closed {
		ob.cond.Wait()
	}
	if len(ob.queue) == 0 {
		return queuedFrame{}, false
	}
	qf := ob.queue[0]
	ob.queue[0] = queuedFrame{}
	ob.queue = ob.queue[1:]
	return qf, true
}

func (ob *outbox) run(ctx context.Context) {
	defer ob.dropLossy()
	for {
		qf, ok := ob.next()
		if !ok {
			return
		}
		deliverCtx := ctx
		if !keepOnClose(qf.kind) {
			deliverCtx = ob.lossy
		}
		if deliverCtx.Err() != nil {
			continue
		}
		if err := ob.end.Deliver(deliverCtx, qf.frame); err != nil {
			glog.Warningf("[%v] fail to deliver %v to [%v](%v): %v", ob.me, qf.kind, ob.to, ob.end.GetAddrAndPort(), err)
		}
	}
}
