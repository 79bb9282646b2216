package scheduler

import (
	"context"
	"fmt"
	"time"

	"smartlead_backend/platform/config"
	"smartlead_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// StaleRescorer rescores leads last scored before a cutoff.
type StaleRescorer interface {
	RescoreStale(ctx context.Context, tenantID *uuid.UUID, staleBefore time.Time, limit int) (int, error)
}

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	rescorer StaleRescorer
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, rescorer StaleRescorer, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newWorker(rescorer, log)
	w.server = server
	return w, nil
}

func newWorker(rescorer StaleRescorer, log *logger.Logger) *Worker {
	if log == nil {
		log = logger.Discard()
	}
	mux := asynq.NewServeMux()
	w := &Worker{mux: mux, rescorer: rescorer, log: log}
	mux.HandleFunc(TaskLeadRescore, w.handleLeadRescore)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleLeadRescore(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadRescorePayload(task)
	if err != nil {
		return fmt.Errorf("parse %s payload: %v: %w", TaskLeadRescore, err, asynq.SkipRetry)
	}
	if payload.StaleBefore.IsZero() {
		return fmt.Errorf("%s payload without staleBefore: %w", TaskLeadRescore, asynq.SkipRetry)
	}

	var tenantID *uuid.UUID
	if payload.TenantID != "" {
		id, err := uuid.Parse(payload.TenantID)
		if err != nil {
			return fmt.Errorf("parse tenant id: %v: %w", err, asynq.SkipRetry)
		}
		tenantID = &id
	}

	start := time.Now()
	count, err := w.rescorer.RescoreStale(ctx, tenantID, payload.StaleBefore, payload.Limit)
	if err != nil {
		w.log.Error("stale lead rescore failed", "tenantId", payload.TenantID, "rescored", count, "error", err)
		return err
	}

	w.log.Info("stale leads rescored",
		"tenantId", payload.TenantID,
		"rescored", count,
		"staleBefore", payload.StaleBefore,
		"durationMs", time.Since(start).Milliseconds())
	return nil
}
