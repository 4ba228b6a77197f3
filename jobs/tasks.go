package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLowStockScan reports products whose stock fell under the threshold.
	TaskLowStockScan = "inventory:low_stock_scan"
)

// LowStockScanPayload carries the threshold for one scan. Zero uses the job default.
type LowStockScanPayload struct {
	Threshold int `json:"threshold"`
}

// NewLowStockScanTask constructs an Asynq task for the low-stock scan.
func NewLowStockScanTask(threshold int) (*asynq.Task, error) {
	if threshold < 0 {
		return nil, fmt.Errorf("jobs: negative threshold %d", threshold)
	}
	body, err := json.Marshal(LowStockScanPayload{Threshold: threshold})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, body, asynq.Queue(QueueDefault)), nil
}
