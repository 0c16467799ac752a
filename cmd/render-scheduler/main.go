package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	apiserver "github.com/ilyi1116/auto-video-generation-fold6-sub001/internal/api_server"
	"github.com/ilyi1116/auto-video-generation-fold6-sub001/internal/config"
	"github.com/ilyi1116/auto-video-generation-fold6-sub001/internal/events"
	"github.com/ilyi1116/auto-video-generation-fold6-sub001/internal/jobs"
	"github.com/ilyi1116/auto-video-generation-fold6-sub001/internal/service"
	"github.com/ilyi1116/auto-video-generation-fold6-sub001/internal/store"
	"github.com/ilyi1116/auto-video-generation-fold6-sub001/internal/workloads"
	"github.com/ilyi1116/auto-video-generation-fold6-sub001/pkg/log"
)

const stopTimeout = 30 * time.Second

func main() {
	cfg, err := config.New()
	if err != nil {
		panic(err)
	}

	logger := log.InitLog(log.AtomicLevel(cfg.Service.LogLevel))
	defer func() { _ = logger.Sync() }()
	undo := zap.ReplaceGlobals(logger)
	defer undo()

	zap.S().Info("Starting render scheduler")
	defer zap.S().Info("Render scheduler stopped")

	snapshotStore, err := store.New(cfg)
	if err != nil {
		zap.S().Fatalf("initializing snapshot store: %v", err)
	}
	defer snapshotStore.Close()

	producer := events.NewEventProducer(&events.StdoutWriter{})
	defer producer.Close()

	handlers := jobs.NewHandlerRegistry()
	if err := workloads.RegisterAll(handlers); err != nil {
		zap.S().Fatalf("registering workloads: %v", err)
	}

	scheduler := jobs.New(jobs.Options{
		Workers:          cfg.Scheduler.MaxConcurrentJobs,
		QueueSize:        cfg.Scheduler.MaxQueueSize,
		JobTimeout:       cfg.Scheduler.JobTimeout,
		MaxRetries:       cfg.Scheduler.MaxRetries,
		Backoff:          jobs.BackoffFromConfig(cfg.Scheduler.RetryBackoff, cfg.Scheduler.RetryDelay),
		BlockOnFullQueue: cfg.Scheduler.BlockOnFullQueue,
		SnapshotInterval: cfg.Scheduler.SnapshotInterval,
		RetentionAge:     cfg.Scheduler.RetentionAge,
	}, handlers, snapshotStore, producer)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	if err := scheduler.Start(ctx); err != nil {
		zap.S().Fatalf("starting scheduler: %v", err)
	}

	jobSvc := service.NewJobService(scheduler)

	go func() {
		listener, err := newListener(cfg.Service.Address)
		if err != nil {
			zap.S().Fatalf("creating listener: %s", err)
		}

		server := apiserver.New(cfg, jobSvc, listener)
		if err := server.Run(ctx); err != nil {
			zap.S().Fatalf("Error running api server: %s", err)
		}
		cancel()
	}()

	go func() {
		listener, err := newListener(cfg.Service.MetricsAddress)
		if err != nil {
			zap.S().Fatalf("creating metrics listener: %s", err)
		}

		metricsServer := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener)
		if err := metricsServer.Run(ctx); err != nil {
			zap.S().Fatalf("Error running metrics server: %s", err)
		}
		cancel()
	}()

	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	defer stopCancel()
	if err := scheduler.Stop(stopCtx); err != nil {
		zap.S().Errorf("stopping scheduler: %v", err)
	}
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
