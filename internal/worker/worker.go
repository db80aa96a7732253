package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
)

type JobType string

const (
	JobTypeEmailNotification JobType = "email_notification"
	JobTypeTaskReminder      JobType = "task_reminder"
	JobTypeDataExport        JobType = "data_export"
	JobTypeCleanup           JobType = "cleanup"
)

const (
	RetryQueue = "retry_queue"
	DeadQueue  = "dead_queue"

	defaultMaxTries = 3
)

type Job struct {
	ID        string                 `json:"id"`
	Type      JobType                `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	Attempts  int                    `json:"attempts"`
	MaxTries  int                    `json:"max_tries"`
	CreatedAt time.Time              `json:"created_at"`
	ProcessAt time.Time              `json:"process_at"`
}

type JobHandler func(ctx context.Context, job *Job) error

type WorkerConfig struct {
	RedisClient  *redis.Client
	Concurrency  int
	PollInterval time.Duration
	Queues       []string
}

// Worker polls redis list queues and dispatches jobs to registered handlers.
// Failed jobs are pushed to the retry queue until MaxTries is exhausted, then
// to the dead queue.
type Worker struct {
	client       *redis.Client
	handlers     map[JobType]JobHandler
	queues       []string
	pollInterval time.Duration
	concurrency  int
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.RWMutex
}

func NewWorker(config WorkerConfig) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	pollInterval := config.PollInterval
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	concurrency := config.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Worker{
		client:       config.RedisClient,
		handlers:     make(map[JobType]JobHandler),
		queues:       config.Queues,
		pollInterval: pollInterval,
		concurrency:  concurrency,
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (w *Worker) RegisterHandler(jobType JobType, handler JobHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = handler
}

func (w *Worker) Start(workers int) {
	if workers <= 0 {
		workers = w.concurrency
	}

	for i := 0; i < workers; i++ {
		w.wg.Add(1)
		go w.run(i)
	}
}

func (w *Worker) Stop() {
	w.cancel()
	w.wg.Wait()
}

func (w *Worker) run(id int) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			if err := w.processNextJob(); err != nil {
				log.Printf("worker %d: failed to process job: %v", id, err)
			}
		}
	}
}

// processNextJob pops at most one job across the configured queues. An empty
// queue set is not an error.
func (w *Worker) processNextJob() error {
	for _, queue := range w.queues {
		data, err := w.client.LPop(w.ctx, queue).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to pop from queue %s: %w", queue, err)
		}

		var job Job
		if err := json.Unmarshal([]byte(data), &job); err != nil {
			return fmt.Errorf("failed to unmarshal job from queue %s: %w", queue, err)
		}

		// Not due yet: put it back.
		if job.ProcessAt.After(time.Now()) {
			return w.push(queue, &job)
		}

		if job.Attempts >= job.MaxTries {
			return w.push(DeadQueue, &job)
		}

		w.mu.RLock()
		handler, ok := w.handlers[job.Type]
		w.mu.RUnlock()
		if !ok {
			return fmt.Errorf("no handler registered for job type %s", job.Type)
		}

		if err := handler(w.ctx, &job); err != nil {
			job.Attempts++
			if job.Attempts >= job.MaxTries {
				return w.push(DeadQueue, &job)
			}
			return w.push(RetryQueue, &job)
		}

		return nil
	}

	return nil
}

func (w *Worker) push(queue string, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return w.client.RPush(w.ctx, queue, data).Err()
}

// JobQueue is the producer side of the worker queues.
type JobQueue struct {
	client *redis.Client
}

func NewJobQueue(client *redis.Client) *JobQueue {
	return &JobQueue{client: client}
}

func (q *JobQueue) Enqueue(queue string, jobType JobType, payload map[string]interface{}) error {
	return q.EnqueueAt(queue, jobType, payload, time.Now())
}

func (q *JobQueue) EnqueueAt(queue string, jobType JobType, payload map[string]interface{}, processAt time.Time) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("failed to generate job id: %w", err)
	}

	job := Job{
		ID:        id.String(),
		Type:      jobType,
		Payload:   payload,
		Attempts:  0,
		MaxTries:  defaultMaxTries,
		CreatedAt: time.Now(),
		ProcessAt: processAt,
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	return q.client.RPush(context.Background(), queue, data).Err()
}

func (q *JobQueue) GetQueueSize(queue string) (int64, error) {
	return q.client.LLen(context.Background(), queue).Result()
}
