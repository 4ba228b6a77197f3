package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/inventory-ds/inventory-ds/internal/inventory"
	jobmetrics "github.com/inventory-ds/inventory-ds/internal/jobs"
)

// LowStockReader lists products below a stock threshold.
type LowStockReader interface {
	LowStock(ctx context.Context, threshold int) ([]inventory.Product, error)
}

// LowStockScanJob logs every product under the threshold and publishes the count.
type LowStockScanJob struct {
	Reader    LowStockReader
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	Threshold int
}

// NewLowStockScanJob initialises the low-stock scan handler.
func NewLowStockScanJob(reader LowStockReader, logger *slog.Logger, metrics *jobmetrics.Metrics, threshold int) *LowStockScanJob {
	if threshold <= 0 {
		threshold = inventory.DefaultLowStockThreshold
	}
	return &LowStockScanJob{Reader: reader, Logger: logger, Metrics: metrics, Threshold: threshold}
}

// Handle executes one scan.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Reader == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("low stock scan: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	threshold := payload.Threshold
	if threshold <= 0 {
		threshold = j.Threshold
	}

	tracker := j.Metrics.Track(TaskLowStockScan)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	start := time.Now()
	logger := j.logger().With(slog.Int("threshold", threshold))
	products, err := j.Reader.LowStock(ctx, threshold)
	if err != nil {
		logger.Error("low stock scan failed", slog.Any("error", err))
		return err
	}
	for _, p := range products {
		logger.Warn("product below stock threshold",
			slog.Int64("product_id", p.ID),
			slog.String("name", p.Name),
			slog.String("category", p.Category),
			slog.Int("stock", p.Stock),
		)
	}
	j.Metrics.SetLowStock(len(products))
	logger.Info("completed low stock scan",
		slog.Int("products", len(products)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
