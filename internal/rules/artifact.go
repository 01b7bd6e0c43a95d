package rules

import (
	"path"
	"strings"
)

// ArtifactKind mirrors the deliverable submission kinds.
type ArtifactKind string

const (
	// ArtifactArchive is a materialized archive whose tree can be inspected.
	ArtifactArchive ArtifactKind = "archive"
	// ArtifactGit is a repository reference; no archive tree is available.
	ArtifactGit ArtifactKind = "git_repository"
)

// Artifact is the inspected metadata of a submitted payload, supplied by an
// archive-inspection collaborator. Content excerpts are byte-limited and
// keyed by file path.
type Artifact struct {
	Kind      ArtifactKind
	SizeBytes int64
	Files     []string
	Excerpts  map[string]string
}

// MatchesAny reports whether the pattern matches at least one file in the
// listing. Patterns use path.Match globbing; a pattern that is not valid
// glob syntax falls back to exact comparison.
func (a Artifact) MatchesAny(pattern string) bool {
	for _, file := range a.Files {
		if matched, err := path.Match(pattern, file); err == nil && matched {
			return true
		}
		if file == pattern {
			return true
		}
	}
	return false
}

// ContainsDir reports whether at least one file lives under the directory.
func (a Artifact) ContainsDir(dir string) bool {
	dir = strings.TrimSuffix(dir, "/")
	for _, file := range a.Files {
		if strings.HasPrefix(file, dir+"/") {
			return true
		}
	}
	return false
}
