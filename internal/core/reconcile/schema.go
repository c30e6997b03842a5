package reconcile

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// exportSchemaJSON constrains the field types of export-shape descriptors.
// Unknown descriptor fields are allowed and ignored.
const exportSchemaJSON = `{
  "type": "object",
  "required": ["tasks"],
  "properties": {
    "tasks": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "properties": {
          "title":            {"type": ["string", "null"]},
          "due":              {"type": ["string", "null"]},
          "quadrant":         {"enum": ["backlog", "Q1", "Q2", "Q3", "Q4"]},
          "done":             {"type": "boolean"},
          "createdAt":        {"type": ["string", "null"]},
          "completedAt":      {"type": ["string", "null"]},
          "timeSpentSeconds": {"type": "number", "minimum": 0},
          "tag":              {"enum": [null, "", "work", "personal", "health", "learning"]},
          "imported":         {"type": "boolean"}
        }
      }
    }
  }
}`

var exportSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(exportSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal export schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("export.json", doc); err != nil {
		return nil, fmt.Errorf("add export schema resource: %w", err)
	}
	return c.Compile("export.json")
})

func validateExport(root map[string]any) error {
	schema, err := exportSchema()
	if err != nil {
		return fmt.Errorf("failed to compile export schema: %w", err)
	}
	if err := schema.Validate(root); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return &ValidationError{Key: exportKey(verr), Reason: leafMessage(verr)}
		}
		return &ValidationError{Reason: err.Error()}
	}
	return nil
}

// exportKey extracts the task id from a /tasks/<id>/... instance location.
func exportKey(verr *jsonschema.ValidationError) string {
	leaf := deepest(verr)
	if len(leaf.InstanceLocation) >= 2 && leaf.InstanceLocation[0] == "tasks" {
		return leaf.InstanceLocation[1]
	}
	return ""
}

func leafMessage(verr *jsonschema.ValidationError) string {
	leaf := deepest(verr)
	msg := leaf.ErrorKind.LocalizedString(message.NewPrinter(language.English))
	if len(leaf.InstanceLocation) > 2 {
		return strings.Join(leaf.InstanceLocation[2:], "/") + ": " + msg
	}
	return msg
}

func deepest(verr *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(verr.Causes) > 0 {
		verr = verr.Causes[0]
	}
	return verr
}
