package monitor

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// PerformanceSample is one appended line in the monitor's timing log.
type PerformanceSample struct {
	Timestamp  string `json:"timestamp"`
	Trades     int    `json:"trades"`
	DurationMS int64  `json:"duration_ms"`
	Exits      int    `json:"exits"`
}

// perfLog appends one JSON line per completed cycle, same append-mode
// discipline as the alert journal. Missing parent directories are
// created on the first append.
type perfLog struct {
	path string
}

func (p *perfLog) append(sample PerformanceSample) error {
	if dir := filepath.Dir(p.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("prepare performance log directory: %w", err)
		}
	}

	f, err := os.OpenFile(p.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open performance log: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("encode performance sample: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append performance sample: %w", err)
	}
	return nil
}

// ReadSamples loads every performance sample from a timing log. Lines
// that fail to parse are skipped rather than aborting the read.
func ReadSamples(path string) ([]PerformanceSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open performance log: %w", err)
	}
	defer f.Close()

	samples := make([]PerformanceSample, 0)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var sample PerformanceSample
		if err := json.Unmarshal(scanner.Bytes(), &sample); err != nil {
			continue
		}
		samples = append(samples, sample)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read performance log: %w", err)
	}
	return samples, nil
}
