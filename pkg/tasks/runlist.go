package tasks

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// RunEntry is one line of a run-list file: "model task [seq_length]".
type RunEntry struct {
	Model     string
	Task      Task
	SeqLength int
}

func ReadRunList(filename string) ([]RunEntry, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var entries []RunEntry
	scanner := bufio.NewScanner(file)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected 'model task [seq_length]', got %q", lineNo, line)
		}

		task, ok := Get(fields[1])
		if !ok {
			return nil, fmt.Errorf("line %d: unknown task %q", lineNo, fields[1])
		}

		entry := RunEntry{Model: fields[0], Task: task}

		if len(fields) >= 3 {
			seq, err := strconv.Atoi(fields[2])
			if err != nil || seq <= 0 {
				return nil, fmt.Errorf("line %d: invalid seq_length %q", lineNo, fields[2])
			}
			entry.SeqLength = seq
		}

		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("no valid run entries found in file")
	}

	return entries, nil
}
