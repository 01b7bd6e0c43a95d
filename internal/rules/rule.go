package rules

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind identifies a validation rule variant.
type Kind string

const (
	// KindFileSize bounds the declared size of the submitted archive.
	KindFileSize Kind = "file_size"
	// KindFilePresence requires path patterns to exist in the archive listing.
	KindFilePresence Kind = "file_presence"
	// KindFolderStructure requires the archive tree to match a configured shape.
	KindFolderStructure Kind = "folder_structure"
	// KindFileContent constrains the content of designated files.
	KindFileContent Kind = "file_content"
)

// ErrUnknownKind indicates a deliverable references a rule kind the
// evaluator cannot interpret. Evaluation still completes; the rule itself
// fails closed.
var ErrUnknownKind = errors.New("unknown validation rule kind")

// FileSizeParams configures a file_size rule.
type FileSizeParams struct {
	MaxBytes int64 `json:"max_bytes"`
}

// FilePresenceParams configures a file_presence rule.
type FilePresenceParams struct {
	Paths []string `json:"paths"`
}

// FolderStructureParams configures a folder_structure rule.
type FolderStructureParams struct {
	RequiredDirs []string `json:"required_dirs"`
}

// FileContentParams configures a file_content rule.
type FileContentParams struct {
	Path           string   `json:"path"`
	MustContain    []string `json:"must_contain"`
	MustNotContain []string `json:"must_not_contain"`
}

// Rule is the tagged variant over the supported rule kinds. Exactly one of
// the parameter pointers is set for a recognized kind; none for an unknown
// one, which the evaluator treats as a failed outcome.
type Rule struct {
	Kind        Kind
	Description string

	FileSize        *FileSizeParams
	FilePresence    *FilePresenceParams
	FolderStructure *FolderStructureParams
	FileContent     *FileContentParams
}

// Decode builds a Rule from a raw kind and its JSON parameters document.
// Unknown kinds still yield a Rule carrying the kind so evaluation can fail
// closed; the returned error surfaces the configuration problem to callers
// that validate deliverable setup.
func Decode(kind, description string, parameters []byte) (Rule, error) {
	rule := Rule{Kind: Kind(kind), Description: description}
	if len(parameters) == 0 {
		parameters = []byte("{}")
	}

	switch rule.Kind {
	case KindFileSize:
		params := &FileSizeParams{}
		if err := json.Unmarshal(parameters, params); err != nil {
			return rule, fmt.Errorf("decode file_size parameters: %w", err)
		}
		rule.FileSize = params
	case KindFilePresence:
		params := &FilePresenceParams{}
		if err := json.Unmarshal(parameters, params); err != nil {
			return rule, fmt.Errorf("decode file_presence parameters: %w", err)
		}
		rule.FilePresence = params
	case KindFolderStructure:
		params := &FolderStructureParams{}
		if err := json.Unmarshal(parameters, params); err != nil {
			return rule, fmt.Errorf("decode folder_structure parameters: %w", err)
		}
		rule.FolderStructure = params
	case KindFileContent:
		params := &FileContentParams{}
		if err := json.Unmarshal(parameters, params); err != nil {
			return rule, fmt.Errorf("decode file_content parameters: %w", err)
		}
		rule.FileContent = params
	default:
		return rule, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	return rule, nil
}
