package content

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const moduleSchemaURL = "schema://stepwise-module.json"

// ModuleSchema is the JSON Schema a module document must satisfy before it
// is decoded. It checks shape only; cross-references are checked by Validate.
var ModuleSchema = map[string]any{
	"type":     "object",
	"required": []any{"id"},
	"properties": map[string]any{
		"id":          map[string]any{"type": "string", "minLength": 1},
		"title":       map[string]any{"type": "string"},
		"description": map[string]any{"type": "string"},
		"pages": map[string]any{
			"type":  "array",
			"items": map[string]any{"$ref": "#/$defs/page"},
		},
	},
	"$defs": map[string]any{
		"page": map[string]any{
			"type":     "object",
			"required": []any{"sections"},
			"properties": map[string]any{
				"id":   map[string]any{"type": "string"},
				"name": map[string]any{"type": "string"},
				"sections": map[string]any{
					"type":  "array",
					"items": map[string]any{"$ref": "#/$defs/section"},
				},
			},
		},
		"section": map[string]any{
			"type":     "object",
			"required": []any{"id", "type"},
			"properties": map[string]any{
				"id":    map[string]any{"type": "string", "minLength": 1},
				"type":  map[string]any{"type": "string"},
				"title": map[string]any{"type": "string"},
				"items": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type":     "object",
						"required": []any{"text"},
					},
				},
				"cards": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type":     "object",
						"required": []any{"front", "back"},
					},
				},
				"questions": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "object"},
				},
				"settings": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"passingScore":       map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
						"allowRetake":        map[string]any{"type": "boolean"},
						"showCorrectAnswers": map[string]any{"type": "boolean"},
						"timeLimit":          map[string]any{"type": "integer", "minimum": 0},
					},
				},
			},
		},
	},
}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func moduleSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		// The compiler wants a plain decoded JSON value.
		raw, err := json.Marshal(ModuleSchema)
		if err != nil {
			schemaErr = fmt.Errorf("marshal module schema: %w", err)
			return
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			schemaErr = fmt.Errorf("parse module schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(moduleSchemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(moduleSchemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// ValidateDocument checks a decoded JSON document against ModuleSchema.
func ValidateDocument(doc any) error {
	s, err := moduleSchema()
	if err != nil {
		return err
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
