// pkg/engine/engine.go
package engine

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"
)

// InitError reports that the table engine could not be started.
type InitError struct {
	Mode string
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("engine init failed for mode %q: %v", e.Mode, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// Engine is the handle to the in-process table engine. It owns the arrow
// allocator shared by every table transformation and the worker parallelism
// used for partitioned writes.
type Engine struct {
	mode        string
	appName     string
	parallelism int
	alloc       memory.Allocator
	logger      *zap.Logger
}

var (
	mu      sync.Mutex
	current *Engine
)

// Get returns the process-wide engine, initializing it on first call and
// reusing it on every call after that. The mode string follows the
// "local[N]" convention: N worker slots, "local[*]" meaning one per CPU.
// An unparseable mode fails with *InitError; the error is logged and
// returned, never swallowed.
func Get(mode, appName string) (*Engine, error) {
	mu.Lock()
	defer mu.Unlock()

	if current != nil {
		return current, nil
	}

	logger := zap.L().Named("engine")

	parallelism, err := parseMode(mode)
	if err != nil {
		initErr := &InitError{Mode: mode, Err: err}
		logger.Error("Failed to initialize engine", zap.String("mode", mode), zap.Error(err))
		return nil, initErr
	}

	current = &Engine{
		mode:        mode,
		appName:     appName,
		parallelism: parallelism,
		alloc:       memory.NewGoAllocator(),
		logger:      logger,
	}

	logger.Info("Engine initialized",
		zap.String("mode", mode),
		zap.String("appName", appName),
		zap.Int("parallelism", parallelism))

	return current, nil
}

// Reset drops the cached engine so the next Get call rebuilds it. Intended
// for tests.
func Reset() {
	mu.Lock()
	current = nil
	mu.Unlock()
}

// Allocator returns the arrow allocator backing every table built on this
// engine.
func (e *Engine) Allocator() memory.Allocator {
	return e.alloc
}

// Mode returns the execution mode string the engine was created with.
func (e *Engine) Mode() string {
	return e.mode
}

// AppName returns the job display name.
func (e *Engine) AppName() string {
	return e.appName
}

// Parallelism returns the number of worker slots parsed from the mode string.
func (e *Engine) Parallelism() int {
	return e.parallelism
}

// RunParallel executes fn for every index in [0, n) on the engine's worker
// slots and returns the first error encountered. It blocks until all workers
// finish or the context is canceled.
func (e *Engine) RunParallel(ctx context.Context, n int, fn func(i int) error) error {
	if n == 0 {
		return nil
	}

	workers := e.parallelism
	if workers > n {
		workers = n
	}

	jobs := make(chan int, n)
	errs := make(chan error, n)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				default:
				}
				if err := fn(i); err != nil {
					errs <- err
				}
			}
		}()
	}

	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// parseMode extracts the worker count from a "local[N]" mode descriptor.
func parseMode(mode string) (int, error) {
	if mode == "local" {
		return 1, nil
	}

	if !strings.HasPrefix(mode, "local[") || !strings.HasSuffix(mode, "]") {
		return 0, fmt.Errorf("unsupported mode descriptor %q", mode)
	}

	spec := mode[len("local[") : len(mode)-1]
	if spec == "*" {
		return runtime.NumCPU(), nil
	}

	n, err := strconv.Atoi(spec)
	if err != nil {
		return 0, fmt.Errorf("invalid worker count %q: %w", spec, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("worker count must be at least 1, got %d", n)
	}

	return n, nil
}
