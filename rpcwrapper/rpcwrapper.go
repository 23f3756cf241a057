package rpcwrapper

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type ClientEnd struct {
	mu   sync.Mutex
	rc   *grpc.ClientConn
	addr string
	port int
}

func MakeClient(addr string, port int) *ClientEnd {
	return &ClientEnd{addr: addr, port: port}
}

func (e *ClientEnd) GetConnection() (*grpc.ClientConn, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rc == nil {
		conn, err := grpc.NewClient(e.GetAddrAndPort(), grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, err
		}
		e.rc = conn
	}
	return e.rc, nil
}

// Deliver hands one frame to the peer's mailbox. It waits for the peer to
// come up instead of failing fast, so ranks may start in any order.
func (e *ClientEnd) Deliver(ctx context.Context, frame []byte) error {
	conn, err := e.GetConnection()
	if err != nil {
		return fmt.Errorf("connect %v: %w", e.GetAddrAndPort(), err)
	}
	in := wrapperspb.Bytes(frame)
	out := new(emptypb.Empty)
	return conn.Invoke(ctx, Mailbox_Deliver_FullMethodName, in, out, grpc.WaitForReady(true))
}

func (e *ClientEnd) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rc != nil {
		e.rc.Close()
		e.rc = nil
	}
}

func (e *ClientEnd) GetAddrAndPort() string {
	return fmt.Sprintf("%s:%d", e.addr, e.port)
}
