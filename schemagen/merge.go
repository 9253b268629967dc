package schemagen

import (
	"github.com/google/jsonschema-go/jsonschema"
)

// mergeSchemas merges two schemas using union semantics.
// Properties from both schemas are included. Conflicting types are widened.
func mergeSchemas(a, b *jsonschema.Schema) *jsonschema.Schema {
	if a == nil {
		return b
	}

	if b == nil {
		return a
	}

	// An unconstrained side (a null value) merges transparently.
	if isTrueSchema(a) {
		return b
	}

	if isTrueSchema(b) {
		return a
	}

	result := &jsonschema.Schema{
		Type: widenType(schemaType(a), schemaType(b)),
	}

	if a.Properties != nil || b.Properties != nil {
		mergeProperties(result, a, b)
	}

	result.AdditionalProperties = mergeAdditionalProperties(a.AdditionalProperties, b.AdditionalProperties)
	result.Required = intersectStrings(a.Required, b.Required)

	switch {
	case a.Items != nil && b.Items != nil:
		result.Items = mergeSchemas(a.Items, b.Items)
	case a.Items != nil:
		result.Items = a.Items
	default:
		result.Items = b.Items
	}

	if result.Type != typeArray {
		result.Items = nil
	}

	return result
}

func schemaType(s *jsonschema.Schema) string {
	if s.Type != "" {
		return s.Type
	}

	if len(s.Types) == 1 {
		return s.Types[0]
	}

	return ""
}

// mergeAdditionalProperties merges two additionalProperties values. If
// either side allows additional properties, so does the result.
func mergeAdditionalProperties(a, b *jsonschema.Schema) *jsonschema.Schema {
	if a == nil || b == nil {
		return nil
	}

	if isTrueSchema(a) || isTrueSchema(b) {
		return &jsonschema.Schema{}
	}

	return a
}

// isTrueSchema reports whether s validates everything.
func isTrueSchema(s *jsonschema.Schema) bool {
	if s == nil {
		return false
	}

	return s.Not == nil &&
		s.Type == "" &&
		len(s.Types) == 0 &&
		s.Properties == nil &&
		s.Items == nil &&
		s.AdditionalProperties == nil &&
		len(s.Required) == 0
}

// intersectStrings returns the strings of a that are also in b, keeping
// the order of a.
func intersectStrings(a, b []string) []string {
	if a == nil || b == nil {
		return nil
	}

	set := make(map[string]bool, len(b))
	for _, s := range b {
		set[s] = true
	}

	var result []string

	for _, s := range a {
		if set[s] {
			result = append(result, s)
		}
	}

	return result
}

// propertyKeys returns property keys in PropertyOrder, then any remaining
// keys in an undefined order.
func propertyKeys(s *jsonschema.Schema) []string {
	if s.Properties == nil {
		return nil
	}

	seen := make(map[string]bool, len(s.PropertyOrder))
	keys := make([]string, 0, len(s.Properties))

	for _, k := range s.PropertyOrder {
		if _, ok := s.Properties[k]; ok && !seen[k] {
			keys = append(keys, k)
			seen[k] = true
		}
	}

	for k := range s.Properties {
		if !seen[k] {
			keys = append(keys, k)
		}
	}

	return keys
}

// mergeProperties merges properties from a and b into result using union
// semantics.
func mergeProperties(result, a, b *jsonschema.Schema) {
	result.Properties = make(map[string]*jsonschema.Schema)

	var order []string

	for _, k := range propertyKeys(a) {
		result.Properties[k] = a.Properties[k]
		order = append(order, k)
	}

	for _, k := range propertyKeys(b) {
		if existing, ok := result.Properties[k]; ok {
			result.Properties[k] = mergeSchemas(existing, b.Properties[k])
		} else {
			result.Properties[k] = b.Properties[k]
			order = append(order, k)
		}
	}

	result.PropertyOrder = order
}
