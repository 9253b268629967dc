package schemagen

import (
	"slices"

	"github.com/google/jsonschema-go/jsonschema"

	"go.jacobcolvin.com/docannot/analyser"
)

const (
	typeString  = "string"
	typeBoolean = "boolean"
	typeInteger = "integer"
	typeNumber  = "number"
	typeArray   = "array"
	typeObject  = "object"
)

// inferSchema returns the schema of a single annotation field value.
// Nested annotations are described the way [analyser.Definition.Validate]
// sees them. A nil value carries no constraint.
func inferSchema(v any) *jsonschema.Schema {
	switch v := v.(type) {
	case nil:
		return &jsonschema.Schema{}
	case string:
		return &jsonschema.Schema{Type: typeString}
	case bool:
		return &jsonschema.Schema{Type: typeBoolean}
	case int, int64:
		return &jsonschema.Schema{Type: typeInteger}
	case float64:
		return &jsonschema.Schema{Type: typeNumber}
	case []any:
		s := &jsonschema.Schema{Type: typeArray}
		for _, elem := range v {
			s.Items = mergeSchemas(s.Items, inferSchema(elem))
		}

		return s
	case map[string]any:
		return objectSchema(v)
	case *analyser.Annotation:
		return &jsonschema.Schema{
			Type: typeObject,
			Properties: map[string]*jsonschema.Schema{
				"name":   {Type: typeString},
				"fields": objectSchema(v.Fields),
			},
		}
	default:
		return &jsonschema.Schema{}
	}
}

func objectSchema(m map[string]any) *jsonschema.Schema {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	s := &jsonschema.Schema{
		Type:          typeObject,
		Properties:    make(map[string]*jsonschema.Schema, len(keys)),
		PropertyOrder: keys,
	}

	for _, k := range keys {
		s.Properties[k] = inferSchema(m[k])
	}

	return s
}

// widenType returns the widened type when merging two type strings.
// Returns empty string (no constraint) for incompatible types.
func widenType(a, b string) string {
	if a == b {
		return a
	}

	if (a == typeInteger && b == typeNumber) || (a == typeNumber && b == typeInteger) {
		return typeNumber
	}

	return ""
}
