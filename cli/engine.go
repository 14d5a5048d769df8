package cli

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/santiagomed/edpgen/core"
	"github.com/santiagomed/edpgen/fs"
	"github.com/santiagomed/edpgen/logger"
)

// ErrEngineStopped is returned for requests added after Shutdown.
var ErrEngineStopped = errors.New("engine is shut down")

// ExecutionRequest is one unit of remote work run off the UI loop.
type ExecutionRequest struct {
	Name       string
	Run        func(ctx context.Context) error
	ResultChan chan error
	CreatedAt  time.Time
}

// Engine runs agent calls on a small worker pool so the TUI never blocks.
type Engine struct {
	pub          core.StepPublisher
	logger       logger.Logger
	requests     chan ExecutionRequest
	workers      int
	workerWG     sync.WaitGroup
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	fs           *fs.FileSystem
}

func NewEngine(pub core.StepPublisher, l logger.Logger, workers int, fs *fs.FileSystem) (*Engine, error) {
	if l == nil {
		l = logger.NewNullLogger()
	}
	if workers <= 0 {
		return nil, errors.New("engine needs at least one worker")
	}
	return &Engine{
		pub:          pub,
		logger:       l,
		requests:     make(chan ExecutionRequest, 100),
		workers:      workers,
		shutdownChan: make(chan struct{}),
		fs:           fs,
	}, nil
}

func (e *Engine) Start(ctx context.Context) {
	for i := 0; i < e.workers; i++ {
		e.workerWG.Add(1)
		go e.worker(ctx)
	}
}

func (e *Engine) worker(ctx context.Context) {
	defer e.workerWG.Done()
	for {
		select {
		case req := <-e.requests:
			started := time.Now()
			e.logger.Debug("Running " + req.Name)
			err := req.Run(ctx)
			e.logger.WithField("took", time.Since(started).String()).Debug("Finished " + req.Name)
			req.ResultChan <- err
			close(req.ResultChan)
		case <-ctx.Done():
			return
		case <-e.shutdownChan:
			return
		}
	}
}

// AddRequest queues fn and returns a channel that yields its result once.
func (e *Engine) AddRequest(name string, fn func(ctx context.Context) error) chan error {
	resultChan := make(chan error, 1)
	select {
	case <-e.shutdownChan:
		resultChan <- ErrEngineStopped
		close(resultChan)
		return resultChan
	default:
	}
	e.requests <- ExecutionRequest{
		Name:       name,
		Run:        fn,
		ResultChan: resultChan,
		CreatedAt:  time.Now(),
	}
	return resultChan
}

// AddPipeline queues a full non-interactive generation run.
func (e *Engine) AddPipeline(r *core.Request, w *core.Wizard) (*core.Pipeline, chan error) {
	pipeline, err := core.NewPipeline(r, w, e.fs, nil, e.pub, e.logger)
	if err != nil {
		resultChan := make(chan error, 1)
		resultChan <- err
		close(resultChan)
		return nil, resultChan
	}
	return pipeline, e.AddRequest("pipeline", pipeline.Execute)
}

func (e *Engine) Shutdown(timeout time.Duration) {
	e.shutdownOnce.Do(func() { close(e.shutdownChan) })

	done := make(chan struct{})
	go func() {
		e.workerWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("All workers shut down gracefully")
	case <-time.After(timeout):
		e.logger.Warn("Shutdown timed out, some workers may still be running")
	}
}
