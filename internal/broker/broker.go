// Package broker is a thin client for the background-task broker. The API
// process owns the client's lifecycle; worker processes manage their own
// connection, so the startup and shutdown hooks are gated on the worker flag.
// The broker protocol itself (consumption, acknowledgement, retries) lives
// with the workers, not here.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/anomaly/labs-api/internal/config"
)

// Task is the record pushed onto the queue for background workers.
type Task struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Payload    map[string]string `json:"payload,omitempty"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
}

// Broker wraps a Redis connection used as the task transport.
type Broker struct {
	rdb    *redis.Client
	queue  string
	worker bool
}

// New constructs an unconnected broker client. Startup must be called before
// the first Enqueue.
func New(cfg config.BrokerConfig) *Broker {
	return &Broker{
		rdb: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		queue:  cfg.Queue,
		worker: cfg.WorkerProcess,
	}
}

// IsWorkerProcess reports whether this process is a background worker rather
// than the API server.
func (b *Broker) IsWorkerProcess() bool {
	return b.worker
}

// Startup verifies connectivity to the broker backend.
func (b *Broker) Startup(ctx context.Context) error {
	if err := b.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connecting to broker: %w", err)
	}
	return nil
}

// Shutdown releases the broker connection.
func (b *Broker) Shutdown(_ context.Context) error {
	if err := b.rdb.Close(); err != nil {
		return fmt.Errorf("closing broker connection: %w", err)
	}
	return nil
}

// Enqueue schedules a named task for the background workers and returns its
// identifier. None of the diagnostic routes defer work today; this is the
// client surface endpoints use when they do, with consumption handled by the
// worker processes outside this repository.
func (b *Broker) Enqueue(ctx context.Context, name string, payload map[string]string) (string, error) {
	task := newTask(name, payload)
	data, err := json.Marshal(task)
	if err != nil {
		return "", fmt.Errorf("encoding task: %w", err)
	}
	if err := b.rdb.LPush(ctx, b.queue, data).Err(); err != nil {
		return "", fmt.Errorf("enqueuing task %s: %w", name, err)
	}
	return task.ID, nil
}

func newTask(name string, payload map[string]string) Task {
	return Task{
		ID:         uuid.NewString(),
		Name:       name,
		Payload:    payload,
		EnqueuedAt: time.Now().UTC(),
	}
}
