package journal

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"trading-bots/internal/interfaces"
	"trading-bots/internal/models"
	"trading-bots/internal/types"
)

const (
	decisionsFile = "decisions.jsonl"
	tradesFile    = "trades.jsonl"
)

// Journal appends decisions and trades as JSON lines, one file per kind.
type Journal struct {
	decisions *zap.Logger
	trades    *zap.Logger
	files     []*os.File
}

var _ interfaces.Journal = (*Journal)(nil)

// Open creates dir if needed and opens both journal files for appending.
func Open(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	decisions, err := openFile(filepath.Join(dir, decisionsFile))
	if err != nil {
		return nil, err
	}
	trades, err := openFile(filepath.Join(dir, tradesFile))
	if err != nil {
		decisions.Close()
		return nil, err
	}
	return &Journal{
		decisions: newLogger(decisions),
		trades:    newLogger(trades),
		files:     []*os.File{decisions, trades},
	}, nil
}

func openFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

func newLogger(f *os.File) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.LevelKey = ""
	encoderConfig.CallerKey = ""
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(f), zapcore.InfoLevel)
	return zap.New(core)
}

func (j *Journal) RecordDecision(botID string, a *types.AnalysisResult, evaluationID string) {
	if j == nil || a == nil {
		return
	}
	fields := []zap.Field{
		zap.String("bot_id", botID),
		zap.String("evaluation_id", evaluationID),
		zap.String("symbol", a.Symbol),
		zap.String("timeframe", a.Timeframe),
		zap.String("decision", string(a.Decision)),
		zap.Float64("confidence", a.Confidence),
		zap.String("reasoning", a.Reasoning),
		zap.Float64("market_price", a.MarketPrice),
	}
	fields = appendOptional(fields, "risk_score", a.RiskScore)
	fields = appendOptional(fields, "position_size", a.RecommendedPositionSize)
	fields = appendOptional(fields, "stop_loss", a.StopLoss)
	fields = appendOptional(fields, "take_profit", a.TakeProfit)
	j.decisions.Info("decision", fields...)
}

func (j *Journal) RecordTrade(botID string, t *models.Trade) {
	if j == nil || t == nil {
		return
	}
	fields := []zap.Field{
		zap.String("bot_id", botID),
		zap.String("trade_id", t.ID),
		zap.String("symbol", t.Symbol),
		zap.String("side", t.Side),
		zap.Float64("size", t.Size),
		zap.String("status", t.Status),
		zap.String("broker_order_id", t.BrokerOrderID),
		zap.String("broker_trade_id", t.BrokerTradeID),
		zap.Float64("confidence", t.Confidence),
		zap.String("reason", t.Reason),
	}
	if t.EvaluationID != nil {
		fields = append(fields, zap.String("evaluation_id", *t.EvaluationID))
	}
	if t.OpenedAt != nil {
		fields = append(fields, zap.Time("opened_at", t.OpenedAt.UTC().Truncate(time.Millisecond)))
	}
	fields = appendOptional(fields, "entry_price", t.EntryPrice)
	j.trades.Info("trade", fields...)
}

func appendOptional(fields []zap.Field, key string, v *float64) []zap.Field {
	if v == nil {
		return fields
	}
	return append(fields, zap.Float64(key, *v))
}

// Close flushes and closes the journal files.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	_ = j.decisions.Sync()
	_ = j.trades.Sync()
	var firstErr error
	for _, f := range j.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Nop is a journal that records nothing.
type Nop struct{}

func (Nop) RecordDecision(string, *types.AnalysisResult, string) {}
func (Nop) RecordTrade(string, *models.Trade) {}
func (Nop) Close() error { return nil }
