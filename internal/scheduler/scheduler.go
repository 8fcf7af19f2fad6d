// Package scheduler drives a set of test instance creators to completion:
// it fans dispatches out across a local worker pool and, when enabled, a
// remote-execution bridge, multiplexes results back through a single
// channel, and owns the retry/timeout bookkeeping.
package scheduler

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/phaseq/mwtest/internal/bridge"
	"github.com/phaseq/mwtest/internal/runner"
)

// idleTimeout is the watchdog: if no result arrives on the result channel
// for this long, the run is declared failed rather than hanging forever.
const idleTimeout = 6 * time.Minute

// Config enumerates the knobs a single run can be tuned with.
type Config struct {
	Verbose       bool
	Parallel      bool
	XGE           bool
	Repeat        int
	RerunIfFailed int

	// HelperPath and HelperArgs locate the remote-execution helper binary.
	// Only consulted when XGE is set.
	HelperPath string
	HelperArgs []string
}

func (c Config) workerCount() int {
	switch {
	case c.XGE:
		return runtime.NumCPU() + 2
	case c.Parallel:
		return runtime.NumCPU()
	default:
		return 1
	}
}

// Run dispatches every creator in tests Repeat times, drives the worker
// pool and (if enabled) the remote bridge concurrently, and feeds every
// result to sink in arrival order. It returns true iff every uid finished
// with at least one success and the watchdog never fired.
func Run(ctx context.Context, tests []*runner.TestInstanceCreator, sink runner.Sink, config Config, logger *zap.SugaredLogger) bool {
	defer sink.Close()

	repeat := config.Repeat
	if repeat < 1 {
		repeat = 1
	}
	retries := config.RerunIfFailed
	if retries < 0 {
		retries = 0
	}

	// Every dispatch (initial or retry) happens synchronously from this
	// goroutine, including the retry dispatches issued from inside the
	// result-processing loop below. The task channels must therefore hold
	// the entire live work set without blocking, or a worker finishing its
	// task and trying to send its result would deadlock against a main
	// goroutine still trying to send the next task. len(tests)*repeat*
	// (1+retries) is the maximum number of dispatches this run can ever
	// make, so sizing the buffers to that bound guarantees no send here
	// ever blocks on a reader.
	maxDispatches := len(tests) * repeat * (1 + retries)
	if maxDispatches < 1 {
		maxDispatches = 1
	}

	local := make(chan runner.TestInstance, maxDispatches)
	remote := make(chan runner.TestInstance, maxDispatches)
	results := make(chan runner.ResultMessage, maxDispatches)

	pool := newWorkerPool(config.workerCount(), local, results, logger)
	pool.start()
	defer pool.wait()
	defer close(local)

	var br *bridge.Bridge
	if config.XGE {
		var err error
		br, err = bridge.Launch(ctx, config.HelperPath, config.HelperArgs, logger)
		if err != nil {
			logger.Errorw("failed to launch remote execution bridge", "error", err)
			close(remote)
			return false
		}
		bridgeDone := make(chan error, 1)
		go func() { bridgeDone <- br.Run(remote, results) }()
		defer func() {
			close(remote)
			if err := <-bridgeDone; err != nil {
				logger.Errorw("remote execution bridge failed", "error", err)
			}
		}()
	} else {
		close(remote)
	}

	dispatch := func(creator *runner.TestInstanceCreator) bool {
		instance, err := creator.Instantiate()
		if err != nil {
			logger.Errorw("failed to instantiate test", "app", creator.AppName, "test", creator.TestID.ID, "error", err)
			return false
		}
		if config.XGE && instance.AllowXGE {
			remote <- instance
		} else {
			local <- instance
		}
		return true
	}

	runCounts := make(map[runner.Uid]*runner.RunCount)
	expected := 0
	for _, creator := range tests {
		runCounts[creator.Uid()] = &runner.RunCount{}
		for i := 0; i < repeat; i++ {
			if dispatch(creator) {
				expected++
			}
		}
	}

	received := 0
	success := true
	for received < expected {
		select {
		case msg, ok := <-results:
			if !ok {
				logger.Errorw("result channel closed unexpectedly")
				return false
			}
			received++
			id := msg.Instance.Uid()
			count, ok := runCounts[id]
			if !ok {
				count = &runner.RunCount{}
				runCounts[id] = count
			}
			count.Attempts++

			if msg.Result.Success() {
				count.Successes++
			} else if count.Attempts <= retries {
				expected++
				if creator := findCreator(tests, msg.Instance); creator == nil || !dispatch(creator) {
					expected--
				}
			}

			sink.Add(received, expected, msg.Instance, msg.Result)

		case <-time.After(idleTimeout):
			logger.Errorw("watchdog timeout: no result received", "timeout", idleTimeout, "received", received, "expected", expected)
			return false
		}
	}

	for _, count := range runCounts {
		if count.Failed() {
			success = false
		}
	}
	return success
}

func findCreator(tests []*runner.TestInstanceCreator, instance runner.TestInstance) *runner.TestInstanceCreator {
	for _, creator := range tests {
		if creator.AppName == instance.AppName && creator.TestID.ID == instance.TestID.ID {
			return creator
		}
	}
	return nil
}
