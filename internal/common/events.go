package common

import (
	"context"

	"go.uber.org/zap"
)

// Emitter records a named observability event with a key-value payload.
// Handlers receive an Emitter handle rather than reaching for a global so
// tests can substitute a recording double.
type Emitter interface {
	Emit(ctx context.Context, event string, payload map[string]string)
}

type zapEmitter struct {
	log *zap.Logger
}

// NewEmitter returns an Emitter backed by the process-wide logger. Each call
// to Emit produces exactly one structured log entry.
func NewEmitter() Emitter {
	return &zapEmitter{log: Logger()}
}

func (e *zapEmitter) Emit(_ context.Context, event string, payload map[string]string) {
	fields := make([]zap.Field, 0, len(payload)+1)
	fields = append(fields, zap.String("event", event))
	for k, v := range payload {
		fields = append(fields, zap.String(k, v))
	}
	e.log.Info("event emitted", fields...)
}
