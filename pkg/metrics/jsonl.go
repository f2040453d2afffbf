package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// RunRecord is the JSONL shape one completed evaluation produces, one line
// per run. The elastic indexer consumes these files verbatim.
type RunRecord struct {
	Model       string             `json:"model"`
	Task        string             `json:"task"`
	SeqLength   int                `json:"seq_length"`
	Quantized   bool               `json:"quantized"`
	NNCFConfig  string             `json:"nncf_config,omitempty"`
	MetricName  string             `json:"metric_name"`
	MetricValue float64            `json:"metric_value"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	Duration    float64            `json:"duration_seconds"`
	Timestamp   time.Time          `json:"timestamp"`
}

func AppendRecord(filename string, record RunRecord) error {
	file, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open records file: %w", err)
	}
	defer file.Close()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write run record: %w", err)
	}

	return nil
}
