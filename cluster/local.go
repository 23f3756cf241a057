// Package cluster runs every rank of a search inside one process.
package cluster

import (
	"context"
	"fmt"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"bnbsched/comm"
	"bnbsched/instance"
	"bnbsched/worker"
)

// RunLocal solves tasks with n ranks connected by an in-process network
// and returns rank 0's result. Per-rank metrics are registered on reg
// unless it is nil.
func RunLocal(ctx context.Context, tasks instance.TaskList, n int, cfg worker.Config, reg prometheus.Registerer) (worker.Result, error) {
	if n < 1 {
		return worker.Result{}, fmt.Errorf("cluster: need at least one rank, got %d", n)
	}

	net := comm.MakeNetwork(n)
	defer net.Close()

	results := make([]worker.Result, n)
	g, ctx := errgroup.WithContext(ctx)
	for r := 0; r < n; r++ {
		var input instance.TaskList
		if r == 0 {
			input = tasks
		}
		metrics := worker.NewMetrics(reg, r)
		r := r // per-iteration copy (Go 1.21 loop semantics)
		g.Go(func() error {
			res, err := worker.Solve(ctx, net.End(r), input, cfg, metrics)
			if err != nil {
				return fmt.Errorf("rank %d: %w", r, err)
			}
			results[r] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return worker.Result{}, err
	}

	glog.V(1).Infof("local run with %v ranks done", n)
	return results[0], nil
}
