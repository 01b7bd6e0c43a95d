package archive

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/grouplab-go-api/internal/rules"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for name, content := range files {
		entry, err := writer.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	return buf.Bytes()
}

func TestInspectListsFilesAndExtractsExcerpts(t *testing.T) {
	data := buildZip(t, map[string]string{
		"README.md":   "# Project\nusage notes",
		"src/main.go": "package main",
	})

	inspector := NewInspector()
	artifact, err := inspector.Inspect(bytes.NewReader(data), int64(len(data)), []string{"README.md"})
	require.NoError(t, err)

	require.Equal(t, rules.ArtifactArchive, artifact.Kind)
	require.Equal(t, int64(len(data)), artifact.SizeBytes)
	require.ElementsMatch(t, []string{"README.md", "src/main.go"}, artifact.Files)
	require.Equal(t, "# Project\nusage notes", artifact.Excerpts["README.md"])
	require.NotContains(t, artifact.Excerpts, "src/main.go")
}

func TestInspectLimitsExcerptSize(t *testing.T) {
	long := strings.Repeat("a", 100)
	data := buildZip(t, map[string]string{"notes.txt": long})

	inspector := &Inspector{ExcerptLimit: 10}
	artifact, err := inspector.Inspect(bytes.NewReader(data), int64(len(data)), []string{"notes.txt"})
	require.NoError(t, err)
	require.Len(t, artifact.Excerpts["notes.txt"], 10)
}

func TestInspectRejectsCorruptArchive(t *testing.T) {
	inspector := NewInspector()
	_, err := inspector.Inspect(bytes.NewReader([]byte("not a zip")), 9, nil)
	require.Error(t, err)
}

func TestCheckArchiveType(t *testing.T) {
	data := buildZip(t, map[string]string{"a.txt": "hello"})
	require.NoError(t, CheckArchiveType(bytes.NewReader(data)))
	require.Error(t, CheckArchiveType(strings.NewReader("plain text payload")))
}
