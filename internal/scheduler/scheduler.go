// Package scheduler evaluates every active bot on a fixed interval.
package scheduler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"trading-bots/internal/interfaces"
	"trading-bots/internal/logger"
	"trading-bots/internal/models"
	"trading-bots/internal/types"
)

type BotLister interface {
	ListActiveBots(ctx context.Context) ([]models.Bot, error)
}

type Options struct {
	Interval    time.Duration
	Concurrency int
	// OnOutcome is called for every finished evaluation. It may be called concurrently.
	OnOutcome func(*types.EvaluationOutcome)
}

type Scheduler struct {
	bots      BotLister
	evaluator interfaces.BotEvaluator
	opts      Options
}

func New(bots BotLister, evaluator interfaces.BotEvaluator, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Scheduler{bots: bots, evaluator: evaluator, opts: opts}
}

// Run evaluates immediately and then on every tick until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	tick := time.NewTicker(s.opts.Interval)
	defer tick.Stop()

	logger.Info(ctx, "Scheduler started", "interval", s.opts.Interval.String(), "concurrency", s.opts.Concurrency)
	for {
		if _, err := s.RunOnce(ctx); err != nil {
			logger.ErrorWithErr(ctx, "Scheduled cycle failed", err)
		}

		select {
		case <-ctx.Done():
			logger.Info(ctx, "Scheduler stopped")
			return nil
		case <-tick.C:
		}
	}
}

// RunOnce evaluates every active bot once. Failed evaluations are reported in their outcome, not as an error.
func (s *Scheduler) RunOnce(ctx context.Context) ([]*types.EvaluationOutcome, error) {
	bots, err := s.bots.ListActiveBots(ctx)
	if err != nil {
		return nil, err
	}
	if len(bots) == 0 {
		logger.Debug(ctx, "No active bots to evaluate")
		return nil, nil
	}

	var (
		mu       sync.Mutex
		outcomes = make([]*types.EvaluationOutcome, 0, len(bots))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for _, bot := range bots {
		botID := bot.ID
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			out := s.evaluator.Evaluate(gctx, botID)
			if s.opts.OnOutcome != nil {
				s.opts.OnOutcome(out)
			}
			mu.Lock()
			outcomes = append(outcomes, out)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	logger.Info(ctx, "Scheduled cycle finished", "bots", len(bots), "evaluated", len(outcomes))
	return outcomes, nil
}
