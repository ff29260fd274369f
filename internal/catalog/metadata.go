package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// MetadataFilename is the optional metadata file looked up in an import
// source directory. It is validated but never copied into the canonical
// template directory.
const MetadataFilename = "template.json"

// Metadata carries import-time extras a source directory may ship:
// a template description, UI parameter groups, and per-file default
// worklist quantities keyed by filename.
type Metadata struct {
	Description string          `json:"description,omitempty"`
	Groups      []MetadataGroup `json:"groups,omitempty"`
	Quantities  map[string]int  `json:"quantities,omitempty"`
}

type MetadataGroup struct {
	Name       string   `json:"name"`
	Parameters []string `json:"parameters"`
}

const metadataSchema = `{
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"description": {"type": "string"},
		"groups": {
			"type": "array",
			"items": {
				"type": "object",
				"additionalProperties": false,
				"required": ["name"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"parameters": {"type": "array", "items": {"type": "string"}}
				}
			}
		},
		"quantities": {
			"type": "object",
			"additionalProperties": {"type": "integer", "minimum": 1}
		}
	}
}`

// LoadMetadata reads and validates dir/template.json. A missing file is
// not an error: it returns (nil, nil).
func LoadMetadata(dir string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, MetadataFilename))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", MetadataFilename, err)
	}
	if err := validateMetadata(data); err != nil {
		return nil, err
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", MetadataFilename, err)
	}
	return &m, nil
}

// validateMetadata validates data against the embedded schema.
func validateMetadata(data []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("template.schema.json", bytes.NewReader([]byte(metadataSchema))); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("template.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", MetadataFilename, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%s does not match schema: %w", MetadataFilename, err)
	}
	return nil
}
