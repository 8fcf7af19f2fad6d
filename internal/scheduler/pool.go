package scheduler

import (
	"sync"

	"go.uber.org/zap"

	"github.com/phaseq/mwtest/internal/runner"
)

// workerPool runs a fixed number of goroutines, each executing one local
// command at a time and publishing its result to a shared channel.
type workerPool struct {
	size    int
	tasks   <-chan runner.TestInstance
	results chan<- runner.ResultMessage
	logger  *zap.SugaredLogger
	wg      sync.WaitGroup
}

func newWorkerPool(size int, tasks <-chan runner.TestInstance, results chan<- runner.ResultMessage, logger *zap.SugaredLogger) *workerPool {
	if size < 1 {
		size = 1
	}
	return &workerPool{size: size, tasks: tasks, results: results, logger: logger}
}

func (p *workerPool) start() {
	p.wg.Add(p.size)
	for i := 0; i < p.size; i++ {
		go func() {
			defer p.wg.Done()
			p.run()
		}()
	}
}

func (p *workerPool) run() {
	for instance := range p.tasks {
		result := runner.Execute(instance, p.logger)
		p.results <- runner.ResultMessage{Instance: instance, Result: result}
		if err := instance.Cleanup(); err != nil {
			p.logger.Warnw("failed to clean up scratch directory after local run",
				"scratch_dir", instance.Command.ScratchDir, "error", err)
		}
	}
}

func (p *workerPool) wait() {
	p.wg.Wait()
}
