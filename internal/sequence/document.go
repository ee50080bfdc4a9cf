// Package sequence implements the Sequence Runner: it loads a JSON(C)
// sequence document, drives the Progress Tracker while iterating steps in
// order, and dispatches each step through the platform Registry and the
// Subprocess Supervisor.
package sequence

import (
	"encoding/json"

	"github.com/emichael72/auto-forge/internal/forgeerr"
	"github.com/emichael72/auto-forge/internal/jsonc"
)

// ErrorPolicy is a step's action_on_error value.
type ErrorPolicy string

const (
	PolicyDefault ErrorPolicy = "default"
	PolicyBreak   ErrorPolicy = "break"
	PolicyResume  ErrorPolicy = "resume"
)

// Step is one entry of a sequence document's "steps" array.
type Step struct {
	Description      string          `json:"description"`
	Method           string          `json:"method"`
	Arguments        map[string]any  `json:"arguments"`
	ResponseStoreKey string          `json:"response_store_key"`
	ActionOnError    ErrorPolicy     `json:"action_on_error"`
	StatusNewLine    *bool           `json:"status_new_line"`
	StatusOnError    json.RawMessage `json:"status_on_error"`
	Disabled         bool            `json:"disabled"`
}

// ConditionalArguments is the shape of Arguments when Method ==
// "conditional".
type ConditionalArguments struct {
	Condition Step   `json:"condition"`
	IfTrue    []Step `json:"if_true"`
	IfFalse   []Step `json:"if_false"`
}

// Document is a full sequence file.
type Document struct {
	StatusTitleLength   int    `json:"status_title_length"`
	StatusAddTimePrefix *bool  `json:"status_add_time_prefix"`
	StatusNewLine       bool   `json:"status_new_line"`
	StatusPreMessage    string `json:"status_pre_message"`
	StatusPostMessage   string `json:"status_post_message"`
	Steps               []Step `json:"steps"`
}

// Load parses raw JSONC bytes into a Document, applying the documented
// defaults (title length 80, add_time_prefix true) and rejecting an empty
// steps array as a schema violation.
func Load(raw []byte) (*Document, error) {
	clean := jsonc.Strip(raw)

	var doc Document
	if err := json.Unmarshal(clean, &doc); err != nil {
		return nil, forgeerr.Wrap(forgeerr.ErrSchemaViolation, "parse sequence document: %v", err)
	}

	if doc.StatusTitleLength <= 0 {
		doc.StatusTitleLength = 80
	}
	if doc.StatusAddTimePrefix == nil {
		t := true
		doc.StatusAddTimePrefix = &t
	}
	if len(doc.Steps) == 0 {
		return nil, forgeerr.Wrap(forgeerr.ErrSchemaViolation, "sequence document has no steps")
	}

	return &doc, nil
}

// ParseConditional decodes a conditional step's Arguments into its
// condition/if_true/if_false shape.
func (s Step) ParseConditional() (ConditionalArguments, error) {
	raw, err := json.Marshal(s.Arguments)
	if err != nil {
		return ConditionalArguments{}, forgeerr.Wrap(forgeerr.ErrSchemaViolation, "re-encode conditional arguments: %v", err)
	}
	var cond ConditionalArguments
	if err := json.Unmarshal(raw, &cond); err != nil {
		return ConditionalArguments{}, forgeerr.Wrap(forgeerr.ErrSchemaViolation, "decode conditional arguments: %v", err)
	}
	return cond, nil
}

// statusOnErrorFor resolves the status_on_error field, which may be
// either a flat string or a map keyed by distro id with a "default"
// fallback, mirroring validate_prerequisite's per-distro argument shape.
func statusOnErrorFor(raw json.RawMessage, distroID string) string {
	if len(raw) == 0 {
		return ""
	}

	var flat string
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat
	}

	var perDistro map[string]string
	if err := json.Unmarshal(raw, &perDistro); err == nil {
		if distroID != "" {
			if v, ok := perDistro[distroID]; ok {
				return v
			}
		}
		return perDistro["default"]
	}
	return ""
}
