package metrics

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"trading-bots/internal/interfaces"
	"trading-bots/internal/logger"
	"trading-bots/internal/types"
)

const measurement = "bot_evaluation"

type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Influx writes one point per evaluation to InfluxDB.
type Influx struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	done     chan struct{}
}

var _ interfaces.MetricsRecorder = (*Influx)(nil)

// NewInflux connects to InfluxDB and checks its health.
func NewInflux(ctx context.Context, cfg Config) (*Influx, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("influxdb health check: %w", err)
	}
	if health == nil || health.Status != "pass" {
		client.Close()
		return nil, fmt.Errorf("influxdb not healthy: %+v", health)
	}

	in := &Influx{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		done:     make(chan struct{}),
	}
	go in.drainErrors()
	return in, nil
}

func (in *Influx) drainErrors() {
	errs := in.writeAPI.Errors()
	for {
		select {
		case err, ok := <-errs:
			if !ok {
				return
			}
			logger.Warn(context.Background(), "Failed to write evaluation metrics", "error", err)
		case <-in.done:
			return
		}
	}
}

func (in *Influx) RecordEvaluation(ctx context.Context, out *types.EvaluationOutcome, took time.Duration) {
	in.writeAPI.WritePoint(Point(out, took, time.Now()))
}

// Close flushes pending points and closes the client.
func (in *Influx) Close() {
	in.writeAPI.Flush()
	close(in.done)
	in.client.Close()
}

// Point converts an outcome to an InfluxDB point.
func Point(out *types.EvaluationOutcome, took time.Duration, at time.Time) *write.Point {
	decision, confidence := "NONE", 0.0
	if out.Data != nil && out.Data.Analysis != nil {
		decision = string(out.Data.Analysis.Decision)
		confidence = out.Data.Analysis.Confidence
	}
	return influxdb2.NewPoint(
		measurement,
		map[string]string{
			"bot_id":   out.BotID,
			"decision": decision,
			"success":  fmt.Sprintf("%t", out.Success),
		},
		map[string]interface{}{
			"confidence":     confidence,
			"trade_executed": out.TradeExecuted,
			"duration_ms":    took.Milliseconds(),
		},
		at,
	)
}

// Nop discards samples.
type Nop struct{}

func (Nop) RecordEvaluation(context.Context, *types.EvaluationOutcome, time.Duration) {}
func (Nop) Close() {}
