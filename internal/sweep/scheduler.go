// Package sweep runs the engine's periodic jobs on fixed intervals.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/room-reservation-engine/internal/logging"
)

var (
	ErrAlreadyRunning  = errors.New("sweep is already running")
	ErrUnknownTask     = errors.New("unknown sweep")
	ErrDuplicateTask   = errors.New("sweep already registered")
	ErrInvalidInterval = errors.New("sweep interval must be positive")
	ErrStarted         = errors.New("scheduler already started")
)

// Func is one sweep iteration.
type Func func(ctx context.Context) error

type task struct {
	name     string
	interval time.Duration
	fn       Func
	running  atomic.Bool
}

// Scheduler runs each registered task immediately on Start and then on its
// interval. A task never overlaps with itself; ticks that arrive while it is
// still running are dropped.
type Scheduler struct {
	logger *zap.Logger

	mu      sync.Mutex
	tasks   map[string]*task
	order   []string
	started bool

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		logger:   logging.OrNop(logger),
		tasks:    make(map[string]*task),
		stopChan: make(chan struct{}),
	}
}

// Register adds a task. It must be called before Start.
func (s *Scheduler) Register(name string, interval time.Duration, fn Func) error {
	if interval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrStarted
	}
	if _, ok := s.tasks[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, name)
	}
	s.tasks[name] = &task{name: name, interval: interval, fn: fn}
	s.order = append(s.order, name)
	return nil
}

// Names lists the registered tasks in registration order.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order)
}

// RunOnce runs the named task now, outside its schedule.
func (s *Scheduler) RunOnce(ctx context.Context, name string) error {
	s.mu.Lock()
	t, ok := s.tasks[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return s.run(ctx, t)
}

func (s *Scheduler) run(ctx context.Context, t *task) (err error) {
	if !t.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer t.running.Store(false)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sweep %s panicked: %v", t.name, r)
			s.logger.Error("sweep panicked", zap.String("sweep", t.name), zap.Any("panic", r))
		}
	}()

	start := time.Now()
	err = t.fn(ctx)
	if err != nil {
		s.logger.Error("sweep failed", zap.String("sweep", t.name), zap.Duration("duration", time.Since(start)), zap.Error(err))
		return err
	}
	s.logger.Debug("sweep completed", zap.String("sweep", t.name), zap.Duration("duration", time.Since(start)))
	return nil
}

// Start launches one goroutine per task and returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	tasks := make([]*task, 0, len(s.order))
	for _, name := range s.order {
		tasks = append(tasks, s.tasks[name])
	}
	s.mu.Unlock()

	s.logger.Info("starting sweep scheduler", zap.Strings("sweeps", s.Names()))
	for _, t := range tasks {
		s.wg.Add(1)
		go s.loop(ctx, t)
	}
}

func (s *Scheduler) loop(ctx context.Context, t *task) {
	defer s.wg.Done()

	_ = s.run(ctx, t)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.run(ctx, t); errors.Is(err, ErrAlreadyRunning) {
				s.logger.Warn("sweep still running, tick skipped", zap.String("sweep", t.name))
			}
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop ends every loop and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("stopping sweep scheduler")
		close(s.stopChan)
	})
	s.wg.Wait()
}
