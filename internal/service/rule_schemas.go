package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Per-kind JSON Schemas for validation rule parameters. Misconfigured rules
// are rejected at deliverable-configuration time instead of failing closed
// on every submission.
var ruleParameterSchemas = map[string]string{
	"file_size": `{
		"type": "object",
		"properties": {
			"max_bytes": {"type": "integer", "minimum": 1}
		},
		"required": ["max_bytes"],
		"additionalProperties": false
	}`,
	"file_presence": `{
		"type": "object",
		"properties": {
			"paths": {
				"type": "array",
				"items": {"type": "string", "minLength": 1},
				"minItems": 1
			}
		},
		"required": ["paths"],
		"additionalProperties": false
	}`,
	"folder_structure": `{
		"type": "object",
		"properties": {
			"required_dirs": {
				"type": "array",
				"items": {"type": "string", "minLength": 1},
				"minItems": 1
			}
		},
		"required": ["required_dirs"],
		"additionalProperties": false
	}`,
	"file_content": `{
		"type": "object",
		"properties": {
			"path": {"type": "string", "minLength": 1},
			"must_contain": {"type": "array", "items": {"type": "string"}},
			"must_not_contain": {"type": "array", "items": {"type": "string"}}
		},
		"required": ["path"],
		"additionalProperties": false
	}`,
}

func compileRuleSchemas() (map[string]*jsonschema.Schema, error) {
	compiled := make(map[string]*jsonschema.Schema, len(ruleParameterSchemas))

	for kind, source := range ruleParameterSchemas {
		compiler := jsonschema.NewCompiler()
		name := kind + ".schema.json"
		if err := compiler.AddResource(name, strings.NewReader(source)); err != nil {
			return nil, fmt.Errorf("failed to register %s schema: %w", kind, err)
		}
		schema, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s schema: %w", kind, err)
		}
		compiled[kind] = schema
	}

	return compiled, nil
}

func validateRuleParameters(schemas map[string]*jsonschema.Schema, kind string, parameters json.RawMessage) error {
	schema, ok := schemas[kind]
	if !ok {
		return fmt.Errorf("unknown rule kind %q", kind)
	}

	if len(parameters) == 0 {
		parameters = json.RawMessage("{}")
	}

	var document interface{}
	decoder := json.NewDecoder(bytes.NewReader(parameters))
	decoder.UseNumber()
	if err := decoder.Decode(&document); err != nil {
		return fmt.Errorf("rule parameters are not valid JSON: %w", err)
	}

	if err := schema.Validate(document); err != nil {
		return fmt.Errorf("invalid %s parameters: %w", kind, err)
	}

	return nil
}
