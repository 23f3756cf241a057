package comm

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bnbsched/rpcwrapper"
	"bnbsched/wire"
)

// startGRPCRanks starts n transports on loopback listeners.
func startGRPCRanks(t *testing.T, n int) []*GRPCTransport {
	t.Helper()
	listeners := make([]net.Listener, n)
	ports := make([]int, n)
	for i := range listeners {
		lis, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		listeners[i] = lis
		ports[i] = lis.Addr().(*net.TCPAddr).Port
	}

	transports := make([]*GRPCTransport, n)
	for i := range transports {
		peers := make([]*rpcwrapper.ClientEnd, n)
		for j, port := range ports {
			peers[j] = rpcwrapper.MakeClient("127.0.0.1", port)
		}
		transports[i] = NewGRPCTransport(i, listeners[i], peers)
	}
	t.Cleanup(func() {
		for _, tr := range transports {
			tr.Close()
		}
	})
	return transports
}

func TestGRPCTransportOrdered(t *testing.T) {
	ranks := startGRPCRanks(t, 3)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for b := 10; b > 0; b-- {
		require.NoError(t, ranks[0].Send(2, wire.BoundUpdate{Bound: b}))
	}
	for b := 10; b > 0; b-- {
		env, err := ranks[2].Recv(ctx, wire.MK_BoundUpdate, 0)
		require.NoError(t, err)
		assert.Equal(t, wire.BoundUpdate{Bound: b}, env.Msg)
	}
}

func TestGRPCTransportBatchAndSelf(t *testing.T) {
	ranks := startGRPCRanks(t, 2)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	batch := wire.SchedulesSend{Seqs: [][]int{{0, -1, 1}, {1, -1, 0}}}
	require.NoError(t, ranks[1].Send(0, batch))
	env, err := ranks[0].Recv(ctx, wire.MK_SchedulesSend, 1)
	require.NoError(t, err)
	assert.Equal(t, batch, env.Msg)

	require.NoError(t, ranks[1].Send(1, wire.End{}))
	require.NoError(t, ranks[1].WaitFor(ctx, wire.MK_End))
}

func TestGRPCTransportFlushOnClose(t *testing.T) {
	ranks := startGRPCRanks(t, 2)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, ranks[1].Send(0, wire.Result{Order: []int{1, 0}}))
	require.NoError(t, ranks[1].Close())
	require.ErrorIs(t, ranks[1].Send(0, wire.End{}), ErrClosed)

	env, err := ranks[0].Recv(ctx, wire.MK_Result, 1)
	require.NoError(t, err)
	assert.Equal(t, wire.Result{Order: []int{1, 0}}, env.Msg)
}

func TestGRPCTransportCloseDropsSearchTraffic(t *testing.T) {
	gone, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	gonePort := gone.Addr().(*net.TCPAddr).Port
	require.NoError(t, gone.Close())

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	peers := []*rpcwrapper.ClientEnd{
		rpcwrapper.MakeClient("127.0.0.1", lis.Addr().(*net.TCPAddr).Port),
		rpcwrapper.MakeClient("127.0.0.1", gonePort),
	}
	tr := NewGRPCTransport(0, lis, peers)

	// rank 1 has already stopped listening
	require.NoError(t, tr.Send(1, wire.BoundUpdate{Bound: 3}))
	require.NoError(t, tr.Send(1, wire.JobRequest{}))
	require.NoError(t, tr.Send(1, wire.OptimalPrefix{Prefix: []int{0}}))

	start := time.Now()
	tr.Close()
	assert.Less(t, time.Since(start), drainTimeout)
}
