package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chattydoc/chattydoc/internal/bootstrap"
	"github.com/chattydoc/chattydoc/internal/config"
	"github.com/chattydoc/chattydoc/internal/core/domain"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewWorker(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: app.Metrics.Handler(),
	}
	go func() {
		app.Logger.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("worker metrics server error: %v", err)
		}
	}()

	errCh := make(chan error, 2)

	go func() {
		errCh <- app.Queue.SubscribeBatchIngested(ctx, func(handlerCtx context.Context, record domain.BatchRecord) error {
			return handleEvent(handlerCtx, app, cfg.NATSBatchSubject, record.CreatedAt, func(saveCtx context.Context) error {
				return app.History.SaveBatch(saveCtx, &record)
			})
		})
	}()

	go func() {
		errCh <- app.Queue.SubscribeQuestionAnswered(ctx, func(handlerCtx context.Context, record domain.AnswerRecord) error {
			return handleEvent(handlerCtx, app, cfg.NATSAnswerSubject, record.CreatedAt, func(saveCtx context.Context) error {
				return app.History.SaveAnswer(saveCtx, &record)
			})
		})
	}()

	app.Logger.Info("worker_subscribed",
		"batch_subject", cfg.NATSBatchSubject,
		"answer_subject", cfg.NATSAnswerSubject,
	)

	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			app.Logger.Error("worker_subscription_error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error("worker_metrics_shutdown_error", "error", err)
	}
}

func handleEvent(ctx context.Context, app *bootstrap.WorkerApp, subject string, createdAt time.Time, save func(context.Context) error) error {
	start := time.Now()
	app.Metrics.StartEvent()
	app.Metrics.ObserveEventLag("worker", subject, start.Sub(createdAt))

	saveCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err := save(saveCtx)
	app.Metrics.FinishEvent("worker", subject, time.Since(start), err)
	return err
}
