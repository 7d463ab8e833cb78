package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookly/models"

	"github.com/hibiken/asynq"
)

// Task types served by the worker.
const (
	TypeBookingSubmit  = "booking:submit"
	TypeCompleteSweep  = "booking:complete-sweep"
	DefaultReplayDelay = 30 * time.Second
)

//go:generate mockgen -typed=false -package mocks -destination mocks/queue_mock.go bookly/services/scheduling OfflineQueue
//go:generate mockgen -typed=false -package mocks -destination mocks/booking_repo_mock.go bookly/database/repository/booking BookingRepository

// OfflineQueue holds booking attempts the store could not acknowledge.
type OfflineQueue interface {
	Enqueue(ctx context.Context, p models.PendingSubmission) error
}

// NewSubmissionTask builds the replay task for p. The booking id is the task
// id, so a submission is queued at most once, and the task is never retried:
// a replay that fails is reported, not repeated.
func NewSubmissionTask(p models.PendingSubmission, delay time.Duration) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeBookingSubmit, b)
	opts := []asynq.Option{
		asynq.TaskID(p.BookingID),
		asynq.MaxRetry(0),
		asynq.ProcessIn(delay),
	}
	return task, opts, nil
}

// ParseSubmission decodes a replay task payload.
func ParseSubmission(task *asynq.Task) (models.PendingSubmission, error) {
	var p models.PendingSubmission
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid submission payload: %w", err)
	}
	if p.BookingID == "" {
		return p, errors.New("invalid submission payload: missing booking id")
	}
	return p, nil
}

// AsynqQueue enqueues replay tasks on Redis.
type AsynqQueue struct {
	Client *asynq.Client
	Delay  time.Duration
}

func NewAsynqQueue(client *asynq.Client, delay time.Duration) *AsynqQueue {
	if delay <= 0 {
		delay = DefaultReplayDelay
	}
	return &AsynqQueue{Client: client, Delay: delay}
}

func (q *AsynqQueue) Enqueue(ctx context.Context, p models.PendingSubmission) error {
	task, opts, err := NewSubmissionTask(p, q.Delay)
	if err != nil {
		return fmt.Errorf("failed to build submission task: %w", err)
	}
	_, err = q.Client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue submission %s: %w", p.BookingID, err)
	}
	return nil
}
