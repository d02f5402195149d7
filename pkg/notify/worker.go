package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Sender delivers a single notification to the user-facing channel
// (email, in-app, webhook). The worker retries on error up to
// Config.MaxAttempts.
type Sender interface {
	Send(ctx context.Context, rec *NotificationRecord) error
}

// LogSender logs notifications instead of delivering them. It is the
// default sender in deployments without an outbound channel configured.
type LogSender struct {
	Logger *slog.Logger
}

// Send implements Sender.
func (s LogSender) Send(_ context.Context, rec *NotificationRecord) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification delivered",
		"userID", rec.UserID,
		"type", rec.Type,
		"title", rec.Title,
		"referenceID", rec.ReferenceID)
	return nil
}

// QueueDispatcher implements Dispatcher by writing to the queue store.
type QueueDispatcher struct {
	store  *Store
	logger *slog.Logger
}

// NewQueueDispatcher creates a store-backed dispatcher.
func NewQueueDispatcher(store *Store, logger *slog.Logger) *QueueDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueueDispatcher{store: store, logger: logger}
}

// Dispatch enqueues the notification. Errors are logged and returned,
// but callers treat dispatch as fire-and-forget.
func (d *QueueDispatcher) Dispatch(n Notification) error {
	if _, err := d.store.Enqueue(n); err != nil {
		d.logger.Error("failed to enqueue notification",
			"userID", n.UserID, "type", n.Type, "error", err)
		return fmt.Errorf("dispatch notification: %w", err)
	}
	return nil
}

// Worker polls the queue and delivers notifications using a pool of
// goroutines.
type Worker struct {
	store  *Store
	sender Sender
	cfg    Config
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewWorker creates a worker pool over the given store and sender.
func NewWorker(store *Store, sender Sender, cfg Config, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		store:  store,
		sender: sender,
		cfg:    cfg.withDefaults(),
		logger: logger,
	}
}

// Run starts the worker goroutines and blocks until the context is
// cancelled, then waits for in-flight deliveries to finish.
func (w *Worker) Run(ctx context.Context) {
	if !w.cfg.Enabled {
		w.logger.Info("notification worker disabled")
		return
	}

	w.logger.Info("notification worker starting",
		"concurrency", w.cfg.Concurrency,
		"pollInterval", w.cfg.PollInterval.String())

	for i := 0; i < w.cfg.Concurrency; i++ {
		w.wg.Add(1)
		go func(workerID int) {
			defer w.wg.Done()
			w.loop(ctx, workerID)
		}(i)
	}

	<-ctx.Done()
	w.wg.Wait()
	w.logger.Info("notification worker stopped")
}

func (w *Worker) loop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.deliverOne(ctx, workerID)
		}
	}
}

func (w *Worker) deliverOne(ctx context.Context, workerID int) {
	rec, err := w.store.Claim()
	if err != nil {
		w.logger.Error("failed to claim notification", "workerID", workerID, "error", err)
		return
	}
	if rec == nil {
		return
	}

	if err := w.sender.Send(ctx, rec); err != nil {
		w.logger.Error("notification delivery failed",
			"workerID", workerID, "notificationID", rec.ID, "error", err)
		if failErr := w.store.MarkFailed(rec.ID, err.Error(), w.cfg.MaxAttempts); failErr != nil {
			w.logger.Error("failed to record delivery failure",
				"notificationID", rec.ID, "error", failErr)
		}
		return
	}

	if err := w.store.MarkSent(rec.ID); err != nil {
		w.logger.Error("failed to mark notification sent",
			"notificationID", rec.ID, "error", err)
	}
}
