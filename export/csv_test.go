package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/researchaccelerator-hub/comment-harvester/model/youtube"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVExporterExport(t *testing.T) {
	root := filepath.Join(t.TempDir(), "exports")
	exporter := NewCSVExporter(root, zerolog.Nop())

	records := []youtube.CommentRecord{
		{Text: "plain", VideoTitle: "Video A", Author: "alice"},
		{Text: "has, comma and \"quotes\"", VideoTitle: "Video A", Author: "bob"},
		{Text: "multi\nline", VideoTitle: "Видео Б", Author: "карл"},
	}

	artifact, err := exporter.Export("20240101120000-abcd1234", "Chan_comments_UC1.csv", records)
	require.NoError(t, err)

	assert.Equal(t, "Chan_comments_UC1.csv", artifact.Name)
	assert.Equal(t, "Chan_comments_UC1.csv", filepath.Base(artifact.Path))
	runDir := filepath.Base(filepath.Dir(artifact.Path))
	assert.True(t, strings.HasPrefix(runDir, RunDirPrefix+"20240101120000-abcd1234_"), runDir)

	rows := readCSV(t, artifact.Path)
	assert.Equal(t, [][]string{
		Header,
		{"plain", "Video A", "alice"},
		{"has, comma and \"quotes\"", "Video A", "bob"},
		{"multi\nline", "Видео Б", "карл"},
	}, rows)

	require.NoError(t, artifact.Close())
	_, err = os.Stat(filepath.Dir(artifact.Path))
	assert.True(t, os.IsNotExist(err), "run directory is removed on close")
}

func TestCSVExporterSeparateRunDirectories(t *testing.T) {
	exporter := NewCSVExporter(t.TempDir(), zerolog.Nop())
	records := []youtube.CommentRecord{{Text: "x", VideoTitle: "y", Author: "z"}}

	first, err := exporter.Export("same-run", "a.csv", records)
	require.NoError(t, err)
	defer first.Close()
	second, err := exporter.Export("same-run", "a.csv", records)
	require.NoError(t, err)
	defer second.Close()

	assert.NotEqual(t, first.Path, second.Path)
}

func TestWriteCSVFileHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, WriteCSVFile(path, nil))
	assert.Equal(t, [][]string{Header}, readCSV(t, path))
}

func TestWriteCSVFileBadPath(t *testing.T) {
	err := WriteCSVFile(filepath.Join(t.TempDir(), "missing", "out.csv"), nil)
	assert.Error(t, err)
}

func TestArtifactCloseNil(t *testing.T) {
	var a *Artifact
	assert.NoError(t, a.Close())
}
