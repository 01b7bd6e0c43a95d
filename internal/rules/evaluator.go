package rules

import (
	"fmt"
	"strings"
)

// Outcome is the structured result of one rule evaluation.
type Outcome struct {
	Rule        Kind   `json:"rule"`
	Description string `json:"description,omitempty"`
	Valid       bool   `json:"valid"`
	Message     string `json:"message"`
}

// Result aggregates per-rule outcomes. Valid is the logical AND of every
// outcome; evaluation order never affects it.
type Result struct {
	Valid    bool      `json:"valid"`
	Details  []Outcome `json:"details"`
	Warnings []string  `json:"warnings,omitempty"`
}

// Limits carries deliverable-level constraints that tighten rule parameters.
type Limits struct {
	MaxFileSizeBytes *int64
}

// Evaluator executes validation rules against artifact metadata. It holds no
// state beyond the structure matcher and is safe for concurrent use.
type Evaluator struct {
	matcher StructureMatcher
}

// NewEvaluator builds an evaluator. A nil matcher falls back to the default
// directory-prefix matcher.
func NewEvaluator(matcher StructureMatcher) *Evaluator {
	if matcher == nil {
		matcher = PrefixMatcher{}
	}
	return &Evaluator{matcher: matcher}
}

// Evaluate runs every rule independently against the artifact and reports
// the combined result. Identical inputs always produce identical results.
func (e *Evaluator) Evaluate(list []Rule, limits Limits, artifact Artifact) Result {
	result := Result{Valid: true, Details: make([]Outcome, 0, len(list))}

	for _, rule := range list {
		outcome := e.evaluateRule(rule, limits, artifact)
		if !outcome.Valid {
			result.Valid = false
		}
		if artifact.Kind == ArtifactGit && outcome.Valid && isArchiveOnly(rule.Kind) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s rule not checked for git repository submission", rule.Kind))
		}
		result.Details = append(result.Details, outcome)
	}

	return result
}

func isArchiveOnly(kind Kind) bool {
	switch kind {
	case KindFileSize, KindFilePresence, KindFolderStructure, KindFileContent:
		return true
	}
	return false
}

func (e *Evaluator) evaluateRule(rule Rule, limits Limits, artifact Artifact) Outcome {
	outcome := Outcome{Rule: rule.Kind, Description: rule.Description}

	// Archive-only rules cannot be checked against a repository reference.
	// They pass with a note rather than failing the submission on grounds
	// the evaluator cannot verify.
	if artifact.Kind == ArtifactGit && isArchiveOnly(rule.Kind) {
		outcome.Valid = true
		outcome.Message = "not applicable to git repository submissions"
		return outcome
	}

	switch rule.Kind {
	case KindFileSize:
		return e.evaluateFileSize(rule, limits, artifact)
	case KindFilePresence:
		return e.evaluateFilePresence(rule, artifact)
	case KindFolderStructure:
		return e.evaluateFolderStructure(rule, artifact)
	case KindFileContent:
		return e.evaluateFileContent(rule, artifact)
	default:
		// Fail closed: an unrecognized kind must not be silently skipped.
		outcome.Valid = false
		outcome.Message = fmt.Sprintf("unknown rule kind %q", rule.Kind)
		return outcome
	}
}

func (e *Evaluator) evaluateFileSize(rule Rule, limits Limits, artifact Artifact) Outcome {
	outcome := Outcome{Rule: rule.Kind, Description: rule.Description}
	if rule.FileSize == nil {
		outcome.Message = "file_size rule has no parameters"
		return outcome
	}

	max := rule.FileSize.MaxBytes
	if limits.MaxFileSizeBytes != nil && (max <= 0 || *limits.MaxFileSizeBytes < max) {
		max = *limits.MaxFileSizeBytes
	}

	if max <= 0 {
		outcome.Valid = true
		outcome.Message = "no size limit configured"
		return outcome
	}

	if artifact.SizeBytes > max {
		outcome.Message = fmt.Sprintf("artifact size %d bytes exceeds limit of %d bytes", artifact.SizeBytes, max)
		return outcome
	}

	outcome.Valid = true
	outcome.Message = fmt.Sprintf("artifact size %d bytes within limit of %d bytes", artifact.SizeBytes, max)
	return outcome
}

func (e *Evaluator) evaluateFilePresence(rule Rule, artifact Artifact) Outcome {
	outcome := Outcome{Rule: rule.Kind, Description: rule.Description}
	if rule.FilePresence == nil {
		outcome.Message = "file_presence rule has no parameters"
		return outcome
	}

	var missing []string
	for _, pattern := range rule.FilePresence.Paths {
		if !artifact.MatchesAny(pattern) {
			missing = append(missing, pattern)
		}
	}

	if len(missing) > 0 {
		outcome.Message = fmt.Sprintf("required files missing: %s", strings.Join(missing, ", "))
		return outcome
	}

	outcome.Valid = true
	outcome.Message = "all required files present"
	return outcome
}

func (e *Evaluator) evaluateFolderStructure(rule Rule, artifact Artifact) Outcome {
	outcome := Outcome{Rule: rule.Kind, Description: rule.Description}
	if rule.FolderStructure == nil {
		outcome.Message = "folder_structure rule has no parameters"
		return outcome
	}

	ok, detail := e.matcher.Matches(rule.FolderStructure.RequiredDirs, artifact)
	outcome.Valid = ok
	outcome.Message = detail
	return outcome
}

func (e *Evaluator) evaluateFileContent(rule Rule, artifact Artifact) Outcome {
	outcome := Outcome{Rule: rule.Kind, Description: rule.Description}
	if rule.FileContent == nil {
		outcome.Message = "file_content rule has no parameters"
		return outcome
	}

	excerpt, ok := artifact.Excerpts[rule.FileContent.Path]
	if !ok {
		outcome.Message = fmt.Sprintf("no content available for %s", rule.FileContent.Path)
		return outcome
	}

	for _, pattern := range rule.FileContent.MustContain {
		if !strings.Contains(excerpt, pattern) {
			outcome.Message = fmt.Sprintf("%s does not contain required pattern %q", rule.FileContent.Path, pattern)
			return outcome
		}
	}

	for _, pattern := range rule.FileContent.MustNotContain {
		if strings.Contains(excerpt, pattern) {
			outcome.Message = fmt.Sprintf("%s contains forbidden pattern %q", rule.FileContent.Path, pattern)
			return outcome
		}
	}

	outcome.Valid = true
	outcome.Message = "content constraints satisfied"
	return outcome
}
