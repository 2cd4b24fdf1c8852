package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// NotificationRetrier re-sends failed notifications and reports how many went out
type NotificationRetrier interface {
	RetryFailed(ctx context.Context, maxAttempts, limit int) (int, error)
}

// RetryWorkerConfig holds configuration for the notification retry worker
type RetryWorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
}

// DefaultRetryWorkerConfig returns default configuration
func DefaultRetryWorkerConfig() RetryWorkerConfig {
	return RetryWorkerConfig{
		PollInterval: time.Minute,
		BatchSize:    20,
		MaxAttempts:  5,
	}
}

// RetryStats is a snapshot of the worker's counters
type RetryStats struct {
	Runs      int
	Delivered int
	LastRun   time.Time
	LastError error
}

// NotificationRetryWorker periodically re-sends FAILED notifications
type NotificationRetryWorker struct {
	config  RetryWorkerConfig
	retrier NotificationRetrier
	logger  *zap.Logger

	mu        sync.RWMutex
	cancel    context.CancelFunc
	done      chan struct{}
	isRunning bool
	stats     RetryStats
}

// NewNotificationRetryWorker creates a new retry worker
func NewNotificationRetryWorker(config RetryWorkerConfig, retrier NotificationRetrier, logger *zap.Logger) *NotificationRetryWorker {
	defaults := DefaultRetryWorkerConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	return &NotificationRetryWorker{
		config:  config,
		retrier: retrier,
		logger:  logger,
	}
}

// Start begins the worker polling loop
func (w *NotificationRetryWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isRunning {
		return fmt.Errorf("notification retry worker already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.isRunning = true

	w.logger.Info("NotificationRetryWorker started",
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Int("batch_size", w.config.BatchSize),
		zap.Int("max_attempts", w.config.MaxAttempts))

	go w.pollLoop(loopCtx, w.done)
	return nil
}

// Stop cancels the loop and waits for an in-flight batch to finish
func (w *NotificationRetryWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done

	stats := w.Stats()
	w.logger.Info("NotificationRetryWorker stopped",
		zap.Int("runs", stats.Runs),
		zap.Int("delivered", stats.Delivered))
	return nil
}

// Name returns the worker name for identification
func (w *NotificationRetryWorker) Name() string {
	return "NotificationRetryWorker"
}

// Stats returns a snapshot of the counters
func (w *NotificationRetryWorker) Stats() RetryStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

func (w *NotificationRetryWorker) pollLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// runOnce processes one batch of failed notifications
func (w *NotificationRetryWorker) runOnce(ctx context.Context) {
	delivered, err := w.retrier.RetryFailed(ctx, w.config.MaxAttempts, w.config.BatchSize)

	w.mu.Lock()
	w.stats.Runs++
	w.stats.Delivered += delivered
	w.stats.LastRun = time.Now()
	w.stats.LastError = err
	w.mu.Unlock()

	if err != nil && ctx.Err() == nil {
		w.logger.Error("Notification retry batch failed", zap.Error(err))
		return
	}
	if delivered > 0 {
		w.logger.Info("Re-sent failed notifications", zap.Int("delivered", delivered))
	}
}
