package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/liftsim/liftsim/pkg/core"
)

// ExportVersion is bumped whenever RunExport changes shape.
const ExportVersion = 1

// RunExport is the root JSON structure
type RunExport struct {
	Version         int                   `json:"version"`
	Run             core.Run              `json:"run"`
	Passengers      []core.Passenger      `json:"passengers"`
	Visits          []core.Visit          `json:"visits"`
	PassengerEvents []core.PassengerEvent `json:"passengerEvents"`
	Sweeps          []core.Sweep          `json:"sweeps"`
}

// Export returns the current run data. Must not be called with b.mu held.
func (b *Backend) Export() RunExport {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.buildExport()
}

func (b *Backend) buildExport() RunExport {
	export := RunExport{
		Version:         ExportVersion,
		Passengers:      nonNil(b.passengers),
		Visits:          nonNil(b.visits),
		PassengerEvents: nonNil(b.passengerEvents),
		Sweeps:          nonNil(b.sweeps),
	}
	if b.run != nil {
		export.Run = *b.run
	}
	return export
}

// nonNil keeps empty lists as [] instead of null in the JSON.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// exportFileName builds run_<seed>_<start>.json[.gz].
func exportFileName(run core.Run, compress bool) string {
	timestamp := run.StartTime.Format("20060102_150405")
	name := fmt.Sprintf("run_%d_%s.json", run.Seed, timestamp)
	if compress {
		name += ".gz"
	}
	return name
}

// exportJSON writes the run data to the output directory. Called with b.mu held.
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, exportFileName(export.Run, b.cfg.CompressOutput))

	var err error
	if b.cfg.CompressOutput {
		err = writeGzipJSON(outputPath, export)
	} else {
		err = writeJSON(outputPath, export)
	}
	if err != nil {
		return err
	}

	b.exportedPath = outputPath
	return nil
}

func writeJSON(path string, data RunExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return f.Close()
}

func writeGzipJSON(path string, data RunExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if err := json.NewEncoder(gz).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return f.Close()
}

// ReadExport loads an export written by this backend. Files ending in .gz
// are decompressed.
func ReadExport(path string) (RunExport, error) {
	f, err := os.Open(path)
	if err != nil {
		return RunExport{}, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return RunExport{}, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	var export RunExport
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return RunExport{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if export.Version != ExportVersion {
		return RunExport{}, fmt.Errorf("unsupported export version %d", export.Version)
	}
	return export, nil
}
