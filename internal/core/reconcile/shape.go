package reconcile

import (
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/example/eisen/internal/models"
)

// Shape identifies one of the recognized top-level import structures.
type Shape int

const (
	// ShapeFlat is {"Title": "due"}; the legacy default.
	ShapeFlat Shape = iota + 1
	// ShapeGrouped is {"Q1": {"Title": "due"}, ...}.
	ShapeGrouped
	// ShapeExport is {"tasks": {"<id>": {...descriptor}}}.
	ShapeExport
)

func (s Shape) String() string {
	switch s {
	case ShapeFlat:
		return "flat"
	case ShapeGrouped:
		return "grouped"
	case ShapeExport:
		return "export"
	}
	return "unknown"
}

// Payload is a classified import. Exactly one of the per-shape fields is
// populated, selected by Shape.
type Payload struct {
	Shape Shape

	// ShapeExport: id -> descriptor object (keys present are keys supplied).
	Descriptors map[string]map[string]any

	// ShapeGrouped: quadrant -> title -> due string.
	Groups map[models.Quadrant]map[string]string

	// ShapeFlat: title -> due string ("" for null).
	Entries map[string]string
}

// Len returns the number of identities in the payload.
func (p Payload) Len() int {
	switch p.Shape {
	case ShapeExport:
		return len(p.Descriptors)
	case ShapeGrouped:
		n := 0
		for _, g := range p.Groups {
			n += len(g)
		}
		return n
	}
	return len(p.Entries)
}

// Decode repairs trailing commas in raw and parses it into a generic tree.
// Numbers are kept as json.Number.
func Decode(raw string) (any, error) {
	tree, err := jsonschema.UnmarshalJSON(strings.NewReader(RepairTrailingCommas(raw)))
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return tree, nil
}

// Classify determines the shape of a decoded tree. Detection is ordered:
// export, then grouped, then flat. It is total over objects; any other top
// level value yields a ShapeError.
func Classify(tree any) (Payload, error) {
	obj, ok := tree.(map[string]any)
	if !ok {
		return Payload{}, &ShapeError{Got: kindOf(tree)}
	}

	if tasks, ok := obj["tasks"].(map[string]any); ok {
		return classifyExport(obj, tasks)
	}

	if groups, ok := asGrouped(obj); ok {
		return Payload{Shape: ShapeGrouped, Groups: groups}, nil
	}

	return classifyFlat(obj)
}

func classifyExport(root map[string]any, tasks map[string]any) (Payload, error) {
	if err := validateExport(root); err != nil {
		return Payload{}, err
	}

	descriptors := make(map[string]map[string]any, len(tasks))
	for id, v := range tasks {
		// Shape already enforced by the schema.
		descriptors[id] = v.(map[string]any)
	}
	return Payload{Shape: ShapeExport, Descriptors: descriptors}, nil
}

// asGrouped recognizes the grouped shape only when every key is a quadrant
// and every value is an object of strings.
func asGrouped(obj map[string]any) (map[models.Quadrant]map[string]string, bool) {
	if len(obj) == 0 {
		return nil, false
	}

	groups := make(map[models.Quadrant]map[string]string, len(obj))
	for key, v := range obj {
		q := models.Quadrant(key)
		if !q.Valid() {
			return nil, false
		}
		inner, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		group := make(map[string]string, len(inner))
		for title, due := range inner {
			s, ok := due.(string)
			if !ok {
				return nil, false
			}
			group[title] = s
		}
		groups[q] = group
	}
	return groups, true
}

func classifyFlat(obj map[string]any) (Payload, error) {
	entries := make(map[string]string, len(obj))
	for title, v := range obj {
		switch due := v.(type) {
		case string:
			entries[title] = due
		case nil:
			entries[title] = ""
		default:
			return Payload{}, &ValidationError{
				Key:    title,
				Reason: "due date must be a string, got " + kindOf(v),
			}
		}
	}
	return Payload{Shape: ShapeFlat, Entries: entries}, nil
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64, int, int64:
		return "number"
	}
	return "unknown"
}
