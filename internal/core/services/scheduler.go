package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jbogarthyde/backstage/internal/core/domain"
	"github.com/jbogarthyde/backstage/internal/core/ports/driven"
	"github.com/jbogarthyde/backstage/internal/core/ports/driving"
	"github.com/jbogarthyde/backstage/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// historyKeep is how many task results are retained per task.
const historyKeep = 100

// Scheduler drives periodic provider refreshes. It carries no domain
// logic: a registered provider's Refresh is invoked on its interval, with
// failures logged at this boundary and retried on the next tick. At most
// one execution per task id runs at a time.
type Scheduler struct {
	store driven.SchedulerStore

	mu        sync.Mutex
	providers map[string]registration // keyed by task ID
	inFlight  map[string]bool
	running   bool
	stopCh    chan struct{}
	wg        sync.WaitGroup

	// tickInterval is how often due tasks are checked. Tests shorten it.
	tickInterval time.Duration
}

type registration struct {
	provider driving.Refreshable
	interval time.Duration
}

// NewScheduler creates a scheduler backed by the given store.
func NewScheduler(store driven.SchedulerStore) *Scheduler {
	return &Scheduler{
		store:        store,
		providers:    make(map[string]registration),
		inFlight:     make(map[string]bool),
		tickInterval: time.Minute,
	}
}

// Register adds a provider's refresh task. A zero interval falls back to
// domain.DefaultRefreshInterval. Must be called before Start.
func (s *Scheduler) Register(provider driving.Refreshable, interval time.Duration) {
	if interval <= 0 {
		interval = domain.DefaultRefreshInterval
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[provider.TaskID()] = registration{provider: provider, interval: interval}
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		logger.Error("scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	// Wait for running tasks to complete
	s.wg.Wait()

	return nil
}

// initialiseTasks ensures every registered provider has a task in the
// store, due immediately so a fresh daemon refreshes on startup.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	s.mu.Lock()
	regs := make(map[string]registration, len(s.providers))
	for id, reg := range s.providers {
		regs[id] = reg
	}
	s.mu.Unlock()

	for taskID, reg := range regs {
		task, err := s.store.GetTask(ctx, taskID)
		if err != nil {
			return err
		}

		if task == nil {
			task = &domain.ScheduledTask{
				ID:       taskID,
				Name:     reg.provider.ProviderName() + " full refresh",
				Interval: reg.interval,
				Enabled:  true,
				NextRun:  time.Now(),
			}
		} else if task.Interval != reg.interval {
			task.Interval = reg.interval
			task.NextRun = time.Now().Add(reg.interval)
		}

		if err := s.store.SaveTask(ctx, task); err != nil {
			return err
		}
	}
	return nil
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	// Check for due tasks immediately on startup
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Error("scheduler: failed to list tasks: %v", err)
		return
	}

	now := time.Now()
	for i := range tasks {
		task := &tasks[i]
		if !task.Enabled {
			continue
		}
		if task.NextRun.After(now) {
			continue
		}
		s.runTask(ctx, task)
	}
}

// runTask executes a single task unless the same task id is already in
// flight.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.mu.Lock()
	reg, known := s.providers[task.ID]
	if !known {
		s.mu.Unlock()
		logger.Warn("scheduler: no provider registered for task %s", task.ID)
		return
	}
	if s.inFlight[task.ID] {
		s.mu.Unlock()
		return
	}
	s.inFlight[task.ID] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.inFlight, task.ID)
			s.mu.Unlock()
		}()

		result := &domain.TaskResult{
			ID:        uuid.NewString(),
			TaskID:    task.ID,
			StartedAt: time.Now(),
		}

		items, err := reg.provider.Refresh(ctx)

		result.EndedAt = time.Now()
		result.ItemsProcessed = items
		if err != nil {
			result.Success = false
			result.Error = err.Error()
			task.LastError = err.Error()
			logger.Error("scheduler: task %s failed: %v", task.ID, err)
		} else {
			result.Success = true
			task.LastError = ""
			task.LastSuccess = result.EndedAt
		}

		// Update task state
		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(task.Interval)

		if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
			logger.Error("scheduler: failed to save task %s: %v", task.ID, saveErr)
		}

		// Record result for history
		if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
			logger.Error("scheduler: failed to record result for %s: %v", task.ID, recordErr)
		}

		if pruneErr := s.store.PruneHistory(ctx, historyKeep); pruneErr != nil {
			logger.Error("scheduler: failed to prune history: %v", pruneErr)
		}
	}()
}
