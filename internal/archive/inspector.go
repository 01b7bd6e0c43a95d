// Package archive inspects submitted zip archives and produces the artifact
// metadata the rule evaluator consumes: a file listing and byte-limited
// content excerpts for the paths that content rules reference.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/noah-isme/grouplab-go-api/internal/rules"
)

// DefaultExcerptLimit bounds how many bytes of a file are read for content
// rules.
const DefaultExcerptLimit = 64 * 1024

// Inspector lists an archive's tree and extracts excerpts.
type Inspector struct {
	ExcerptLimit int
}

// NewInspector builds an inspector with the default excerpt limit.
func NewInspector() *Inspector {
	return &Inspector{ExcerptLimit: DefaultExcerptLimit}
}

// CheckArchiveType verifies the uploaded payload is a zip archive.
func CheckArchiveType(reader io.Reader) error {
	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect archive type: %w", err)
	}

	if !mime.Is("application/zip") && !mime.Is("application/x-zip-compressed") {
		return fmt.Errorf("unsupported archive type: %s", mime.String())
	}

	return nil
}

// Inspect reads the zip archive and returns the artifact metadata.
// excerptPaths names the files whose content should be extracted.
func (i *Inspector) Inspect(readerAt io.ReaderAt, size int64, excerptPaths []string) (rules.Artifact, error) {
	zipReader, err := zip.NewReader(readerAt, size)
	if err != nil {
		return rules.Artifact{}, fmt.Errorf("failed to open archive: %w", err)
	}

	wanted := make(map[string]bool, len(excerptPaths))
	for _, path := range excerptPaths {
		wanted[path] = true
	}

	artifact := rules.Artifact{
		Kind:      rules.ArtifactArchive,
		SizeBytes: size,
		Excerpts:  make(map[string]string),
	}

	for _, entry := range zipReader.File {
		name := strings.TrimPrefix(entry.Name, "./")
		if entry.FileInfo().IsDir() {
			continue
		}
		artifact.Files = append(artifact.Files, name)

		if !wanted[name] {
			continue
		}

		excerpt, err := i.readExcerpt(entry)
		if err != nil {
			return rules.Artifact{}, err
		}
		artifact.Excerpts[name] = excerpt
	}

	return artifact, nil
}

func (i *Inspector) readExcerpt(entry *zip.File) (string, error) {
	limit := i.ExcerptLimit
	if limit <= 0 {
		limit = DefaultExcerptLimit
	}

	reader, err := entry.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", entry.Name, err)
	}
	defer reader.Close()

	content, err := io.ReadAll(io.LimitReader(reader, int64(limit)))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", entry.Name, err)
	}

	return string(content), nil
}
