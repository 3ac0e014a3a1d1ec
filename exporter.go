package gosam

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Exporter defines an export interface for optimization traces.
type Exporter interface {
	Write(IterationEstimate) error
	Close() error
}

// CSVExporter writes one line per iteration to a CSV file.
type CSVExporter struct {
	delimiter string
	hdlr      *os.File
}

// NewCSVExporter initializes a new CSV export.
func NewCSVExporter(path, filename string) (*CSVExporter, error) {
	f, err := os.Create(filepath.Join(path, filename))
	if err != nil {
		return nil, err
	}
	delimiter := ","
	hdr := strings.Join([]string{"iteration", "error", "deltaNorm"}, delimiter)
	if _, err := f.WriteString(fmt.Sprintf("# Creation date (UTC): %s\n%s\n", time.Now().UTC(), hdr)); err != nil {
		return nil, err
	}
	return &CSVExporter{delimiter, f}, nil
}

// Write writes the estimate to the CSV file.
func (e *CSVExporter) Write(est IterationEstimate) error {
	vals := []string{
		fmt.Sprintf("%d", est.Iteration),
		fmt.Sprintf("%.12g", est.Error),
		fmt.Sprintf("%.12g", est.DeltaNorm),
	}
	_, err := e.hdlr.WriteString(strings.Join(vals, e.delimiter) + "\n")
	return err
}

// WriteRawLn writes a raw line to the CSV file.
func (e *CSVExporter) WriteRawLn(s string) error {
	_, err := e.hdlr.WriteString(s + "\n")
	return err
}

// Close closes the file.
func (e *CSVExporter) Close() error {
	if err := e.WriteRawLn(fmt.Sprintf("# Closing date (UTC): %s", time.Now().UTC())); err != nil {
		return err
	}
	return e.hdlr.Close()
}
