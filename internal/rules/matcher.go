package rules

import (
	"fmt"
	"strings"
)

// StructureMatcher decides whether an artifact's tree satisfies a required
// shape. Matching semantics are supplied by the caller; the evaluator only
// orchestrates the check and reports the structured outcome.
type StructureMatcher interface {
	Matches(required []string, artifact Artifact) (ok bool, detail string)
}

// PrefixMatcher is the default matcher: every required directory must be
// present as a path prefix of at least one file in the artifact.
type PrefixMatcher struct{}

// Matches implements StructureMatcher.
func (PrefixMatcher) Matches(required []string, artifact Artifact) (bool, string) {
	var missing []string
	for _, dir := range required {
		if !artifact.ContainsDir(dir) {
			missing = append(missing, dir)
		}
	}

	if len(missing) > 0 {
		return false, fmt.Sprintf("missing directories: %s", strings.Join(missing, ", "))
	}

	return true, "required structure present"
}
