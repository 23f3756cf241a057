package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bnbsched/instance"
	"bnbsched/worker"
)

var (
	boldGreen = color.New(color.Bold, color.FgGreen).SprintFunc()
	boldRed   = color.New(color.Bold, color.FgRed).SprintFunc()
	dim       = color.New(color.Faint).SprintFunc()
)

// writeResult writes the start times, or -1 for an infeasible instance,
// to path or to stdout when path is empty.
func writeResult(path string, res worker.Result) error {
	w := io.Writer(os.Stdout)
	if path != "" {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}
	return formatResult(w, res)
}

func formatResult(w io.Writer, res worker.Result) error {
	if !res.Feasible {
		return instance.WriteInfeasible(w)
	}
	return instance.WriteStarts(w, res.Starts)
}

func printSummary(w io.Writer, res worker.Result, ranks int, elapsed time.Duration) {
	if !res.Feasible {
		fmt.Fprintf(w, "%s no schedule meets every deadline %s\n", boldRed("infeasible"), dim(fmt.Sprintf("(%d ranks, %v)", ranks, elapsed.Round(time.Millisecond))))
		return
	}
	fmt.Fprintf(w, "%s makespan %d, order %v %s\n", boldGreen("optimal"), res.Makespan, res.Order, dim(fmt.Sprintf("(%d ranks, %v)", ranks, elapsed.Round(time.Millisecond))))
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			glog.Errorf("metrics server on %v: %v", addr, err)
		}
	}()
	glog.Infof("serving metrics on %v/metrics", addr)
	return srv
}
