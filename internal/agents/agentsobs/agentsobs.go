package agentsobs

import (
	"context"
	"time"

	"trading-bots/internal/interfaces"
	"trading-bots/internal/logger"
	"trading-bots/internal/trace"
)

type observableAgent[In, Out any] struct {
	name  string
	inner interfaces.Agent[In, Out]
}

// Wrap adds a span and timing logs around every call of a.
func Wrap[In, Out any](name string, a interfaces.Agent[In, Out]) interfaces.Agent[In, Out] {
	return &observableAgent[In, Out]{name: name, inner: a}
}

func (o *observableAgent[In, Out]) Analyze(ctx context.Context, in In) (Out, error) {
	ctx, span := trace.StartSpan(ctx, "agents."+o.name)
	defer span.End()

	start := time.Now()
	logger.DebugSkip(ctx, 1, "Agent started", "agent", o.name)

	out, err := o.inner.Analyze(ctx, in)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Agent failed", err, "agent", o.name, "duration_ms", time.Since(start).Milliseconds())
		return out, err
	}
	logger.InfoSkip(ctx, 1, "Agent completed", "agent", o.name, "duration_ms", time.Since(start).Milliseconds())
	return out, nil
}
