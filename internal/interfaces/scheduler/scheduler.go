package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Scheduler runs periodic sweeps: on every cron tick it asks the job
// provider for the current batch of jobs and fans them out across the
// worker pool.
type Scheduler struct {
	workerPool   *WorkerPool
	cron         *cron.Cron
	cronSpec     string
	runOnStartup bool
	jobProvider  func(context.Context) ([]Job, error)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
}

// Config holds configuration for the scheduler.
type Config struct {
	CronSpec     string
	WorkerCount  int
	JobDelay     time.Duration
	QueueSize    int
	RunOnStartup bool
	JobProvider  func(context.Context) ([]Job, error)
}

// NewScheduler creates a new scheduler with the given configuration. The
// cron spec is validated up front so a bad cadence fails at startup, not at
// the first tick.
func NewScheduler(config Config) (*Scheduler, error) {
	if _, err := cron.ParseStandard(config.CronSpec); err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", config.CronSpec, err)
	}

	workerPool := NewWorkerPool(config.WorkerCount, config.JobDelay, config.QueueSize)
	ctx, cancel := context.WithCancel(context.Background())

	log.Printf("Scheduler initialized with cadence %q", config.CronSpec)
	log.Printf("Worker pool: %d workers, %v delay between jobs", config.WorkerCount, config.JobDelay)

	return &Scheduler{
		workerPool:   workerPool,
		cron:         cron.New(),
		cronSpec:     config.CronSpec,
		runOnStartup: config.RunOnStartup,
		jobProvider:  config.JobProvider,
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// Start launches the worker pool and the cron loop. Calling Start on a
// scheduler that is already running is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		log.Println("Scheduler: Start called while already running, ignoring")
		return nil
	}

	log.Println("Starting scheduler...")

	s.workerPool.Start()

	if _, err := s.cron.AddFunc(s.cronSpec, s.runSweep); err != nil {
		return fmt.Errorf("failed to register cron entry: %w", err)
	}
	s.cron.Start()
	s.started = true

	if s.runOnStartup {
		log.Println("Scheduler: Running initial sweep on startup")
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runSweep()
		}()
	}

	log.Println("Scheduler started")
	return nil
}

// runSweep executes the job provider and submits jobs to the worker pool.
// Each sweep gets an ID so its log lines can be correlated.
func (s *Scheduler) runSweep() {
	if s.jobProvider == nil {
		log.Println("Scheduler: No job provider configured")
		return
	}

	sweepID := uuid.NewString()
	log.Printf("Scheduler: Sweep %s fetching jobs...", sweepID)

	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	jobs, err := s.jobProvider(ctx)
	if err != nil {
		log.Printf("Scheduler: Sweep %s failed to fetch jobs: %v", sweepID, err)
		return
	}

	if len(jobs) == 0 {
		log.Printf("Scheduler: Sweep %s found no jobs to process", sweepID)
		return
	}

	log.Printf("Scheduler: Sweep %s submitting %d jobs to worker pool", sweepID, len(jobs))
	s.workerPool.SubmitBatch(jobs)
}

// TriggerNow manually triggers a sweep immediately.
func (s *Scheduler) TriggerNow() {
	log.Println("Scheduler: Manual trigger")
	go s.runSweep()
}

// NextRun returns the time of the next scheduled sweep, or the zero time
// when the scheduler is not running.
func (s *Scheduler) NextRun() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Shutdown gracefully stops the scheduler and worker pool.
func (s *Scheduler) Shutdown(timeout time.Duration) {
	log.Println("Scheduler: Initiating graceful shutdown...")

	s.cancel()
	cronCtx := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronCtx.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Scheduler: Cron loop stopped gracefully")
	case <-time.After(timeout):
		log.Println("Scheduler: Timeout waiting for cron loop to stop")
	}

	s.workerPool.ShutdownWithTimeout(timeout)

	log.Println("Scheduler: Shutdown complete")
}
