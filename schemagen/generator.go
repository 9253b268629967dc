package schemagen

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"go.jacobcolvin.com/docannot/analyser"
)

// Generator accumulates annotation schemas. It is not safe for concurrent
// use.
type Generator struct {
	schemas  map[string]*jsonschema.Schema
	names    map[string]string
	strict   bool
	required bool
}

// Option configures a [Generator].
type Option func(*Generator)

// NewGenerator creates a new [Generator].
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		schemas: make(map[string]*jsonschema.Schema),
		names:   make(map[string]string),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// WithStrict sets additionalProperties to false on annotation schemas, so
// fields never observed fail validation.
func WithStrict(strict bool) Option {
	return func(g *Generator) {
		g.strict = strict
	}
}

// WithRequired marks fields present on every observed occurrence of an
// annotation as required.
func WithRequired(required bool) Option {
	return func(g *Generator) {
		g.required = required
	}
}

// Add observes annotations, including any nested in their fields. Names are
// matched case-insensitively; the first spelling seen is kept.
func (g *Generator) Add(anns ...*analyser.Annotation) {
	for _, ann := range anns {
		if ann == nil || ann.Name == "" {
			continue
		}

		key := strings.ToLower(ann.Name)
		if _, ok := g.names[key]; !ok {
			g.names[key] = ann.Name
		}

		s := objectSchema(ann.Fields)
		if g.required {
			s.Required = slices.Clone(s.PropertyOrder)
		}

		if g.strict {
			s.AdditionalProperties = &jsonschema.Schema{Not: &jsonschema.Schema{}}
		}

		g.schemas[key] = mergeSchemas(g.schemas[key], s)

		for _, v := range ann.Fields {
			g.addNested(v)
		}
	}
}

func (g *Generator) addNested(v any) {
	switch v := v.(type) {
	case *analyser.Annotation:
		g.Add(v)
	case []any:
		for _, elem := range v {
			g.addNested(elem)
		}
	case map[string]any:
		for _, elem := range v {
			g.addNested(elem)
		}
	}
}

// Names returns the observed annotation names in sorted order.
func (g *Generator) Names() []string {
	names := make([]string, 0, len(g.names))
	for _, name := range g.names {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Schema returns the schema inferred for the named annotation, or nil if it
// was never observed.
func (g *Generator) Schema(name string) *jsonschema.Schema {
	return g.schemas[strings.ToLower(strings.TrimPrefix(name, `\`))]
}

// Registry returns the inferred schemas as an [analyser.Registry].
func (g *Generator) Registry() (analyser.Registry, error) {
	r := make(analyser.Registry, len(g.schemas))

	for key, s := range g.schemas {
		err := r.Add(&analyser.Definition{Name: g.names[key], Schema: s})
		if err != nil {
			return nil, err
		}
	}

	return r, nil
}

// MarshalJSON encodes the inferred schemas as a registry document.
func (g *Generator) MarshalJSON() ([]byte, error) {
	doc := struct {
		Annotations map[string]*jsonschema.Schema `json:"annotations"`
	}{
		Annotations: make(map[string]*jsonschema.Schema, len(g.schemas)),
	}

	for key, s := range g.schemas {
		doc.Annotations[g.names[key]] = s
	}

	return json.Marshal(doc)
}
