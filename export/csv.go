// Package export writes harvested comments to delivery artifacts.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/researchaccelerator-hub/comment-harvester/model/youtube"
	"github.com/rs/zerolog"
)

// RunDirPrefix names every per-run working directory under the work root.
const RunDirPrefix = "run_"

// CSVExtension is appended to artifact names.
const CSVExtension = ".csv"

// Header is the first row of every export.
var Header = []string{"Comment", "Video Title", "Author"}

// Artifact is an export file owned by one run. Close removes it together with
// its working directory.
type Artifact struct {
	Path string
	Name string
	dir  string
}

// Close releases the artifact's working directory.
func (a *Artifact) Close() error {
	if a == nil || a.dir == "" {
		return nil
	}
	return os.RemoveAll(a.dir)
}

// CSVExporter writes comment records as UTF-8 CSV.
type CSVExporter struct {
	workRoot string
	logger   zerolog.Logger
}

// NewCSVExporter creates an exporter placing run directories under workRoot.
func NewCSVExporter(workRoot string, logger zerolog.Logger) *CSVExporter {
	return &CSVExporter{workRoot: workRoot, logger: logger}
}

// Export writes records to a fresh run directory as name. The caller owns the
// returned artifact and must Close it.
func (e *CSVExporter) Export(runID, name string, records []youtube.CommentRecord) (*Artifact, error) {
	if err := os.MkdirAll(e.workRoot, 0755); err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	dir, err := os.MkdirTemp(e.workRoot, RunDirPrefix+runID+"_")
	if err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	artifact := &Artifact{Path: filepath.Join(dir, name), Name: name, dir: dir}
	if err := WriteCSVFile(artifact.Path, records); err != nil {
		_ = artifact.Close()
		return nil, err
	}

	e.logger.Info().Str("file", artifact.Path).Int("rows", len(records)).Msg("Comments successfully saved to file")
	return artifact, nil
}

// WriteCSVFile writes records to path, replacing any existing file.
func WriteCSVFile(path string, records []youtube.CommentRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	if err := writeCSV(file, records); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}
	return nil
}

func writeCSV(f *os.File, records []youtube.CommentRecord) error {
	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range records {
		if err := w.Write([]string{r.Text, r.VideoTitle, r.Author}); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
