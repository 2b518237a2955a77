package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ontime/internal/interfaces/scheduler"
	"ontime/internal/shared/config"
	"ontime/internal/shared/telemetry"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize telemetry (if enabled)
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Init(context.Background(), telemetry.Config{
			ServiceName:  cfg.Telemetry.ServiceName,
			Environment:  os.Getenv("ENVIRONMENT"),
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			MetricsPort:  cfg.Telemetry.MetricsPort,
		})
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				log.Printf("Error shutting down telemetry: %v", err)
			}
		}()
	}

	// Initialize dependencies
	deps, err := NewDependencies(cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	// Apply schema on startup; every statement is idempotent
	if err := deps.DB.Migrate(context.Background()); err != nil {
		return err
	}

	// Initialize scheduler (if enabled)
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		log.Println("Initializing scheduler...")
		sched, err = scheduler.NewScheduler(scheduler.Config{
			CronSpec:     cfg.Scheduler.CronSpec,
			WorkerCount:  cfg.Scheduler.WorkerCount,
			JobDelay:     cfg.Scheduler.JobDelay,
			QueueSize:    cfg.Scheduler.QueueSize,
			RunOnStartup: cfg.Scheduler.RunOnStartup,
			JobProvider:  canvasJobProvider(deps),
		})
		if err != nil {
			return err
		}
		if err := sched.Start(); err != nil {
			return err
		}
	} else {
		log.Println("Scheduler is disabled")
	}

	// Build routes and start serving
	handler := SetupRoutes(deps, cfg)
	srv := StartServer(cfg.Server.Host+":"+cfg.Server.Port, handler)

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	GracefulShutdown(srv, sched, 30*time.Second)
	return nil
}

// canvasJobProvider enumerates every stored Canvas connection and builds one
// sync job per user. A user whose sync fails only affects their own job.
func canvasJobProvider(deps *Dependencies) func(ctx context.Context) ([]scheduler.Job, error) {
	return func(ctx context.Context) ([]scheduler.Job, error) {
		conns, err := deps.ConnectionRepo.List(ctx)
		if err != nil {
			return nil, err
		}

		jobs := make([]scheduler.Job, 0, len(conns))
		for _, conn := range conns {
			jobs = append(jobs, scheduler.NewCanvasSyncJob(conn.UserID, conn.FeedURL, deps.SyncService))
		}
		return jobs, nil
	}
}
