package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"nryli/cmd/buildCFG"
	"nryli/internal/api/api"
	rabbitReader "nryli/internal/consumerWorker"
	"nryli/internal/dashboard"
	"nryli/internal/metrics"
	"nryli/internal/rabbit"
	"nryli/internal/registration"
	"nryli/internal/repo"
	"nryli/internal/service"
	"nryli/internal/tracing"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()
	log := a.log

	if err := repo.MigrateUp(a.db.Master, &log); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	serverCfg := buildCFG.BuildServerConfig(a.cfg, &log)
	eventCfg := buildCFG.BuildEventConfig(a.cfg)
	exportCfg, err := buildCFG.BuildExportConfig(a.cfg)
	if err != nil {
		return err
	}
	notifyMode, err := buildCFG.BuildNotifyMode(a.cfg)
	if err != nil {
		return err
	}

	tp, err := tracing.NewProvider(a.cfg.GetBool("tracing.stdout"))
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to flush traces")
		}
	}()

	countCtx, cancelCount := a.storeContext(ctx)
	total, err := a.repo.CountAll(countCtx)
	cancelCount()
	if err != nil {
		return fmt.Errorf("failed to count registrations: %w", err)
	}
	log.Info().Int("registrations", total).Msg("Record store ready")

	notifier, err := a.notifier()
	if err != nil {
		return err
	}
	m := metrics.New(prometheus.DefaultRegisterer)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	var hook service.PostCommitHook
	var reader *rabbitReader.Reader
	switch notifyMode {
	case buildCFG.NotifyDirect:
		hook = service.NewNotifyHook(notifier, m)
	case buildCFG.NotifyQueue:
		rabbitCfg, err := buildCFG.BuildRabbitConfig(a.cfg, &log)
		if err != nil {
			return fmt.Errorf("failed to load RabbitMQ config: %w", err)
		}
		rmq, err := rabbit.NewRabbit(rabbitCfg.Url, rabbitCfg.Exchange, rabbitCfg.Queue)
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		defer rmq.Close()

		hook = service.NewQueueHook(rmq, m, &log)
		reader = rabbitReader.NewReader(rmq, a.repo, notifier, &log)
		reader.Start(workerCtx)
	default:
		hook = service.NoopHook()
	}
	log.Info().Str("notify_mode", notifyMode).Msg("confirmation email mode")

	serviceInstance := service.NewService(a.repo, &log, service.Options{
		IDs:       registration.NewIDGenerator(eventCfg.Prefix, time.Now),
		Hook:      hook,
		Notifier:  notifier,
		Exporter:  dashboard.NewExporter(exportCfg.Location),
		Metrics:   m,
		Timeout:   serverCfg.RequestTimeout,
		EventName: eventCfg.Name,
	})
	app := api.NewRouters(&api.Routers{
		Service: serviceInstance,
		Metrics: m,
		Mode:    serverCfg.Mode,
	})

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting server on %s", serverCfg.Port)
		if err := app.Run(":" + serverCfg.Port); err != nil {
			serverErrChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-signalChan:
		log.Info().Msgf("Received signal %s. Initiating shutdown...", sig)
	case err := <-serverErrChan:
		log.Error().Msgf("Server error: %v", err)
		runErr = err
	case <-ctx.Done():
	}

	cancelWorkers()
	if reader != nil {
		reader.Stop()
	}

	log.Info().Msg("Shutdown complete")
	return runErr
}
