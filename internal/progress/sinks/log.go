package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/mkedev/planning-sync/internal/progress"
)

// LogSink emits structured logs for debugging progress streams. It is useful
// during development or audits where no metrics backend is scraped.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch using structured fields.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.String("run_id", evt.RunUUID().String()),
			zap.String("stage", string(evt.Stage)),
		}
		if evt.Scope != "" {
			fields = append(fields, zap.String("scope", evt.Scope))
		}
		if evt.SourceID != "" {
			fields = append(fields,
				zap.String("source_id", evt.SourceID),
				zap.String("kind", evt.Kind),
			)
		}
		if evt.Action != "" {
			fields = append(fields, zap.String("action", evt.Action))
		}
		if evt.Note != "" {
			fields = append(fields, zap.String("note", evt.Note))
		}
		if evt.Dur > 0 {
			fields = append(fields, zap.Duration("dur", evt.Dur))
		}
		if evt.Stage == progress.StageRunDone {
			fields = append(fields,
				zap.Int64("total", evt.Total),
				zap.Int64("created", evt.Created),
				zap.Int64("updated", evt.Updated),
				zap.Int64("skipped", evt.Skipped),
				zap.Int64("failed", evt.Failed),
			)
		}
		s.logger.Info("progress event", fields...)
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
