// Package cron runs the background jobs: replay of bookings queued while the
// store was unreachable, and the periodic completion sweep.
package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"bookly/config"
	"bookly/models"
	"bookly/services/scheduling"

	"github.com/hibiken/asynq"
	"github.com/juju/clock"
	"go.uber.org/zap"
)

// LocalSweepInterval is the completion sweep period when no Redis is configured.
const LocalSweepInterval = 5 * time.Minute

// Jobs is the part of the scheduler the worker drives.
type Jobs interface {
	ReplaySubmission(ctx context.Context, p models.PendingSubmission) (*models.Booking, error)
	CompleteElapsed(ctx context.Context) (int, error)
}

// RedisOpt is the asynq connection for the queue database.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// NewMux routes the task types to their handlers.
func NewMux(jobs Jobs, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(scheduling.TypeBookingSubmit, handleSubmissionTask(jobs, logger))
	mux.HandleFunc(scheduling.TypeCompleteSweep, handleSweepTask(jobs, logger))
	return mux
}

// InitWorker runs the async worker in background and returns the server so
// the caller can shut it down.
func InitWorker(jobs Jobs, logger *zap.Logger) *asynq.Server {
	srv := asynq.NewServer(
		RedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: logger.Sugar().Named("asynq"),
		},
	)
	mux := NewMux(jobs, logger)

	go func() {
		log.Println("[BookingWorker] starting async worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Run(mux)
			if err == nil {
				return
			}
			log.Printf("[BookingWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)
			if attempts == maxAttempts {
				log.Fatal("[BookingWorker] max retry attempts reached, exiting")
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return srv
}

// InitSweepScheduler enqueues the completion sweep on spec, a cron
// expression or "@every <duration>".
func InitSweepScheduler(spec string, loc *time.Location) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(RedisOpt(), &asynq.SchedulerOpts{Location: loc})
	task := asynq.NewTask(scheduling.TypeCompleteSweep, nil)
	if _, err := scheduler.Register(spec, task, asynq.MaxRetry(1), asynq.Timeout(time.Minute)); err != nil {
		return nil, fmt.Errorf("failed to register completion sweep %q: %w", spec, err)
	}
	if err := scheduler.Start(); err != nil {
		return nil, fmt.Errorf("failed to start sweep scheduler: %w", err)
	}
	log.Printf("[SweepScheduler] completion sweep registered (%s)", spec)
	return scheduler, nil
}

// StartLocalSweep runs the completion sweep in-process every interval until
// ctx is done.
func StartLocalSweep(ctx context.Context, clk clock.Clock, interval time.Duration, jobs Jobs, logger *zap.Logger) {
	if interval <= 0 {
		interval = LocalSweepInterval
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-clk.After(interval):
				if _, err := jobs.CompleteElapsed(ctx); err != nil {
					logger.Warn("completion sweep failed", zap.Error(err))
				}
			}
		}
	}()
}

// handleSubmissionTask makes the single deferred attempt for a queued booking.
// Failures are final: the client sees the booking missing and books again.
func handleSubmissionTask(jobs Jobs, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := scheduling.ParseSubmission(task)
		if err != nil {
			logger.Error("dropping submission task", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		b, err := jobs.ReplaySubmission(ctx, p)
		if err != nil {
			return fmt.Errorf("replay of booking %s failed: %v: %w", p.BookingID, err, asynq.SkipRetry)
		}
		logger.Info("queued booking stored",
			zap.String("bookingID", b.ID), zap.Duration("delay", b.CreatedAt.Sub(p.QueuedAt)))
		return nil
	}
}

func handleSweepTask(jobs Jobs, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		n, err := jobs.CompleteElapsed(ctx)
		if err != nil {
			logger.Warn("completion sweep finished with errors", zap.Int("completed", n), zap.Error(err))
			return err
		}
		logger.Debug("completion sweep finished", zap.Int("completed", n))
		return nil
	}
}
