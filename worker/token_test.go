package worker

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bnbsched/comm"
	"bnbsched/wire"
)

func tokenAt(t *testing.T, net *comm.Network, rank int) wire.Color {
	t.Helper()
	env, ok := net.Mailbox(rank).Poll(wire.MK_TokenPass)
	require.True(t, ok, "no token at rank %d", rank)
	return env.Msg.(wire.TokenPass).Color
}

func TestTokenColor(t *testing.T) {
	for _, dirty := range []bool{false, true} {
		net := comm.MakeNetwork(3)
		w := Make(net.End(1), exampleTasks(), DefaultConfig(), nil)
		w.dirty = dirty

		require.NoError(t, net.End(0).Send(1, wire.TokenPass{Color: wire.TC_Green}))
		require.NoError(t, w.idle(testContext(t)))

		want := wire.TC_Green
		if dirty {
			want = wire.TC_Red
		}
		assert.Equal(t, want, tokenAt(t, net, 2))
		assert.False(t, w.holdingToken)
		assert.False(t, w.dirty)
		net.Close()
	}
}

func TestRedTokenStaysRed(t *testing.T) {
	net := comm.MakeNetwork(3)
	defer net.Close()

	w := Make(net.End(2), exampleTasks(), DefaultConfig(), nil)
	require.NoError(t, net.End(1).Send(2, wire.TokenPass{Color: wire.TC_Red}))
	require.NoError(t, w.idle(testContext(t)))
	assert.Equal(t, wire.TC_Red, tokenAt(t, net, 0))
}

func TestTokenHeldWhileRequestPending(t *testing.T) {
	net := comm.MakeNetwork(3)
	defer net.Close()

	w := Make(net.End(1), exampleTasks(), DefaultConfig(), nil)
	w.requestPending = true
	require.NoError(t, net.End(0).Send(1, wire.TokenPass{Color: wire.TC_Green}))
	require.NoError(t, w.idle(testContext(t)))
	assert.True(t, w.holdingToken)
	assert.Zero(t, net.Mailbox(2).Pending(wire.MK_TokenPass))

	require.NoError(t, net.End(2).Send(1, wire.JobResponse{Accept: false}))
	require.NoError(t, w.idle(testContext(t)))
	assert.False(t, w.holdingToken)
	assert.Equal(t, wire.TC_Green, tokenAt(t, net, 2))
}

func TestTokenHeldWhileWorking(t *testing.T) {
	net := comm.MakeNetwork(3)
	defer net.Close()
	tasks := exampleTasks()

	w := Make(net.End(1), tasks, DefaultConfig(), nil)
	w.requestPending = true
	require.NoError(t, net.End(0).Send(1, wire.TokenPass{Color: wire.TC_Green}))
	require.NoError(t, net.End(2).Send(1, wire.SchedulesSend{Seqs: [][]int{{0, -1, 1, 2}}}))

	require.NoError(t, w.idle(testContext(t)))
	assert.Equal(t, 1, w.backlog.Len())
	assert.True(t, w.holdingToken)
	assert.True(t, w.dirty)
	assert.Zero(t, net.Mailbox(2).Pending(wire.MK_TokenPass))
}

func TestRankZeroStartsFirstLap(t *testing.T) {
	net := comm.MakeNetwork(3)
	defer net.Close()

	w := Make(net.End(0), exampleTasks(), DefaultConfig(), nil)
	require.True(t, w.holdingToken)
	require.NoError(t, w.idle(testContext(t)))

	assert.Equal(t, wire.TC_Green, tokenAt(t, net, 1))
	assert.True(t, w.tokenStarted)
	assert.Zero(t, testutil.ToFloat64(w.metrics.TokenLaps))
	assert.NotEqual(t, WS_Terminated, w.state)
}

func TestRankZeroEndsOnCleanLap(t *testing.T) {
	net := comm.MakeNetwork(3)
	defer net.Close()

	w := Make(net.End(0), exampleTasks(), DefaultConfig(), nil)
	w.holdingToken = false
	w.tokenStarted = true
	require.NoError(t, net.End(2).Send(0, wire.TokenPass{Color: wire.TC_Green}))
	require.NoError(t, w.idle(testContext(t)))

	assert.Equal(t, WS_Terminated, w.state)
	assert.Equal(t, float64(1), testutil.ToFloat64(w.metrics.TokenLaps))
	for _, r := range []int{1, 2} {
		assert.Equal(t, 1, net.Mailbox(r).Pending(wire.MK_End))
		assert.Zero(t, net.Mailbox(r).Pending(wire.MK_TokenPass))
	}
}

func TestRankZeroRestartsLap(t *testing.T) {
	cases := []struct {
		name  string
		color wire.Color
		dirty bool
	}{
		{"red token", wire.TC_Red, false},
		{"dirty root", wire.TC_Green, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			net := comm.MakeNetwork(3)
			defer net.Close()

			w := Make(net.End(0), exampleTasks(), DefaultConfig(), nil)
			w.holdingToken = false
			w.tokenStarted = true
			w.dirty = c.dirty
			require.NoError(t, net.End(2).Send(0, wire.TokenPass{Color: c.color}))
			require.NoError(t, w.idle(testContext(t)))

			assert.NotEqual(t, WS_Terminated, w.state)
			assert.Equal(t, wire.TC_Green, tokenAt(t, net, 1))
			assert.False(t, w.dirty)
			assert.Zero(t, net.Mailbox(1).Pending(wire.MK_End))
		})
	}
}

func TestSingleRankEndsAlone(t *testing.T) {
	net := comm.MakeNetwork(1)
	defer net.Close()

	w := Make(net.End(0), exampleTasks(), DefaultConfig(), nil)
	require.NoError(t, w.idle(testContext(t)))
	assert.Equal(t, WS_Terminated, w.state)
	assert.Zero(t, net.Mailbox(0).Pending(wire.MK_TokenPass))
}

func TestEndTerminates(t *testing.T) {
	net := comm.MakeNetwork(2)
	defer net.Close()

	w := Make(net.End(1), exampleTasks(), DefaultConfig(), nil)
	require.NoError(t, net.End(0).Send(1, wire.End{}))
	require.NoError(t, w.idle(testContext(t)))
	assert.Equal(t, WS_Terminated, w.state)
	assert.Zero(t, net.Mailbox(0).Pending(wire.MK_JobRequest))
}
