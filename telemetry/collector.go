// Package telemetry records per-frame simulation statistics and writes them
// as CSV for offline analysis.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gocarina/gocsv"
)

// FrameRecord is one row of the frames.csv output.
type FrameRecord struct {
	Frame             uint64  `csv:"frame"`
	DT                float64 `csv:"dt"`
	Splats            int     `csv:"splats"`
	StepMicros        int64   `csv:"step_us"`
	TotalDye          float64 `csv:"total_dye"`
	MaxVelocity       float64 `csv:"max_velocity"`
	MeanAbsDivergence float64 `csv:"mean_abs_divergence"`
}

// Collector accumulates frame records and streams them to frames.csv in an
// output directory. A nil Collector is a no-op, so hosts can write
// `collector.Record(...)` unconditionally and enable output with a flag.
//
// Collector is safe for concurrent use.
type Collector struct {
	mu sync.Mutex

	dir           string
	file          *os.File
	headerWritten bool
}

// NewCollector creates the output directory and opens frames.csv.
// Returns nil if dir is empty (output disabled).
func NewCollector(dir string) (*Collector, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, "frames.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating frames.csv: %w", err)
	}

	return &Collector{dir: dir, file: f}, nil
}

// Record appends one frame record to frames.csv.
func (c *Collector) Record(rec FrameRecord) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.file == nil {
		return nil
	}

	records := []FrameRecord{rec}
	if !c.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, c.file); err != nil {
			return fmt.Errorf("writing frame record: %w", err)
		}
		c.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, c.file); err != nil {
		return fmt.Errorf("writing frame record: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (c *Collector) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

// Close flushes and closes the output file.
func (c *Collector) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	return err
}
