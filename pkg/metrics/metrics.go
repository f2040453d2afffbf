package metrics

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var DebugLog func(string, ...interface{})

// Collect reads the metrics the evaluator left behind in the run output dir.
// Recent evaluator versions write all_results.json; older ones only write
// eval_results.json or log `  key = value` lines, so both are fallbacks.
func Collect(outputDir, logPath string) (map[string]float64, error) {
	for _, name := range []string{"all_results.json", "eval_results.json"} {
		path := filepath.Join(outputDir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}

		values, err := readResultsJSON(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if len(values) > 0 {
			if DebugLog != nil {
				DebugLog("collected %d metrics from %s", len(values), name)
			}
			return values, nil
		}
	}

	values, err := scanLogMetrics(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to scan log for metrics: %w", err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no metrics found in %s or %s", outputDir, logPath)
	}

	if DebugLog != nil {
		DebugLog("collected %d metrics from log %s", len(values), logPath)
	}
	return values, nil
}

func readResultsJSON(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	values := make(map[string]float64)
	for key, value := range raw {
		if num, ok := value.(float64); ok {
			values[key] = num
		}
	}

	return values, nil
}

// scanLogMetrics pulls `  eval_accuracy = 0.9172` style trainer lines out
// of the redirected evaluator log.
func scanLogMetrics(logPath string) (map[string]float64, error) {
	file, err := os.Open(logPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	values := make(map[string]float64)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "eval_") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			continue
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// Primary picks a task's headline metric out of a collected metric map.
func Primary(values map[string]float64, primaryKey string) (float64, bool) {
	value, ok := values[primaryKey]
	return value, ok
}
