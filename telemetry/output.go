package telemetry

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

// FrameRecord is one line of the per-frame CSV file.
type FrameRecord struct {
	Frame      uint64  `csv:"frame"`
	Slot       int     `csv:"slot"`
	Image      uint32  `csv:"image"`
	DeltaTime  float32 `csv:"delta_time"`
	DurationMS float64 `csv:"duration_ms"`
	Timeline   uint64  `csv:"timeline"`
}

// FrameWriter appends frame records to a CSV file. A nil writer discards
// everything.
type FrameWriter struct {
	file          *os.File
	headerWritten bool
}

// NewFrameWriter creates the file at path. Returns nil if path is empty
// (output disabled).
func NewFrameWriter(path string) (*FrameWriter, error) {
	if path == "" {
		return nil, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}

	return &FrameWriter{file: f}, nil
}

// Write appends one record. The header is written with the first record.
func (w *FrameWriter) Write(record FrameRecord) error {
	if w == nil {
		return nil
	}

	records := []FrameRecord{record}

	if !w.headerWritten {
		if err := gocsv.Marshal(records, w.file); err != nil {
			return fmt.Errorf("writing frame: %w", err)
		}
		w.headerWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, w.file); err != nil {
			return fmt.Errorf("writing frame: %w", err)
		}
	}

	return nil
}

// Close closes the file.
func (w *FrameWriter) Close() error {
	if w == nil {
		return nil
	}
	return w.file.Close()
}
