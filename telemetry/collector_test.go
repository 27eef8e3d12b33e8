package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	if err := c.Record(FrameRecord{Frame: 1}); err != nil {
		t.Errorf("nil Record = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("nil Close = %v", err)
	}
	if c.Dir() != "" {
		t.Errorf("nil Dir = %q", c.Dir())
	}
}

func TestNewCollectorEmptyDirDisabled(t *testing.T) {
	c, err := NewCollector("")
	if err != nil {
		t.Fatal(err)
	}
	if c != nil {
		t.Error("empty dir should disable output")
	}
}

func TestCollectorWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run1")
	c, err := NewCollector(dir)
	if err != nil {
		t.Fatal(err)
	}

	records := []FrameRecord{
		{Frame: 1, DT: 0.016, Splats: 2, TotalDye: 12.5},
		{Frame: 2, DT: 0.016, Splats: 0, TotalDye: 12.1},
		{Frame: 3, DT: 0.010, Splats: 1, TotalDye: 13.0},
	}
	for _, r := range records {
		if err := c.Record(r); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "frames.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + 3 rows:\n%s", len(lines), data)
	}
	if !strings.Contains(lines[0], "frame") || !strings.Contains(lines[0], "total_dye") {
		t.Errorf("header missing expected columns: %q", lines[0])
	}
	if strings.Contains(lines[2], "frame") {
		t.Errorf("header repeated in data rows: %q", lines[2])
	}
	if !strings.HasPrefix(lines[1], "1,") || !strings.HasPrefix(lines[3], "3,") {
		t.Errorf("rows out of order:\n%s", data)
	}
}

func TestCollectorRecordAfterClose(t *testing.T) {
	c, err := NewCollector(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Record(FrameRecord{Frame: 1}); err != nil {
		t.Errorf("Record after Close = %v, want nil", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("double Close = %v", err)
	}
}
