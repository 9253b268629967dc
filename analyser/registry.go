package analyser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
	"github.com/google/jsonschema-go/jsonschema"
)

// Definition describes an annotation that may be constructed. Schema, if
// set, validates the annotation's fields as a JSON object.
type Definition struct {
	Schema   *jsonschema.Schema
	resolved *jsonschema.Resolved
	Name     string
}

// Validate checks fields against the definition's schema. Nested
// annotations are validated as {"name": ..., "fields": {...}} objects.
func (d *Definition) Validate(fields map[string]any) error {
	if d.resolved == nil {
		return nil
	}

	instance, err := toJSONValue(fields)
	if err != nil {
		return err
	}

	return d.resolved.Validate(instance)
}

// Registry holds annotation definitions keyed by lower-cased
// fully-qualified name. It is read-only once populated and may be shared
// between parsers.
type Registry map[string]*Definition

// Add resolves each definition's schema and stores it, replacing any
// definition with the same name.
func (r Registry) Add(defs ...*Definition) error {
	for _, def := range defs {
		name := strings.TrimPrefix(def.Name, `\`)
		if name == "" {
			return fmt.Errorf("%w: definition without a name", ErrInvalidOption)
		}

		def.Name = name

		if def.Schema != nil {
			resolved, err := def.Schema.Resolve(nil)
			if err != nil {
				return fmt.Errorf("%w: schema of %s: %w", ErrInvalidOption, name, err)
			}

			def.resolved = resolved
		}

		r[strings.ToLower(name)] = def
	}

	return nil
}

// Lookup returns the definition for the fully-qualified name, or nil.
func (r Registry) Lookup(name string) *Definition {
	return r[strings.ToLower(strings.TrimPrefix(name, `\`))]
}

// Names returns the defined names in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for _, def := range r {
		names = append(names, def.Name)
	}

	slices.Sort(names)

	return names
}

// registryFile is the on-disk registry layout:
//
//	annotations:
//	  Acme\Route:
//	    type: object
//	    required: [path]
type registryFile struct {
	Annotations map[string]any `json:"annotations" toml:"annotations" yaml:"annotations"`
}

// LoadRegistry reads a registry from path. Files ending in .toml are
// decoded as TOML; anything else as YAML (which includes JSON).
func LoadRegistry(path string) (Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadRegistry, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseRegistryTOML(data)
	}

	return ParseRegistryYAML(data)
}

// ParseRegistryYAML decodes a YAML or JSON registry document.
func ParseRegistryYAML(data []byte) (Registry, error) {
	var doc registryFile

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadRegistry, err)
	}

	return doc.registry()
}

// ParseRegistryTOML decodes a TOML registry document.
func ParseRegistryTOML(data []byte) (Registry, error) {
	var doc registryFile

	err := toml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadRegistry, err)
	}

	return doc.registry()
}

func (f registryFile) registry() (Registry, error) {
	names := make([]string, 0, len(f.Annotations))
	for name := range f.Annotations {
		names = append(names, name)
	}

	slices.Sort(names)

	r := make(Registry, len(names))

	for _, name := range names {
		def := &Definition{Name: name}

		if raw := f.Annotations[name]; raw != nil {
			schema, err := toSchema(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: schema of %s: %w", ErrReadRegistry, name, err)
			}

			def.Schema = schema
		}

		err := r.Add(def)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadRegistry, err)
		}
	}

	return r, nil
}

// toSchema converts a decoded document value to a [*jsonschema.Schema] by
// marshaling through JSON.
func toSchema(v any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var schema jsonschema.Schema

	err = json.Unmarshal(b, &schema)
	if err != nil {
		return nil, err
	}

	return &schema, nil
}

// toJSONValue converts v to the generic form produced by [json.Unmarshal].
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var out any

	err = json.Unmarshal(b, &out)
	if err != nil {
		return nil, err
	}

	return out, nil
}

// DefaultRegistry returns definitions for the common Swagger\Annotations
// names. Every annotation accepts arbitrary fields; a few well-known fields
// are type checked.
func DefaultRegistry() Registry {
	typed := map[string][]string{
		"Swagger":               {"swagger", "host", "basePath"},
		"Info":                  {"title", "version", "description", "termsOfService"},
		"Contact":               {"email", "name", "url"},
		"License":               {"name", "url"},
		"Tag":                   {"name", "description"},
		"ExternalDocumentation": {"url", "description"},
		"Get":                   operationFields,
		"Post":                  operationFields,
		"Put":                   operationFields,
		"Patch":                 operationFields,
		"Delete":                operationFields,
		"Head":                  operationFields,
		"Options":               operationFields,
		"Parameter":             {"name", "in", "type", "description"},
		"Response":              {"description"},
		"Definition":            {"definition"},
		"Schema":                {"type", "ref"},
		"Property":              {"property", "type", "format", "description"},
		"Items":                 {"type", "ref"},
		"Header":                {"header", "type"},
		"Xml":                   {"name"},
		"SecurityScheme":        {"securityDefinition", "type"},
	}

	r := make(Registry, len(typed))

	for name, fields := range typed {
		props := make(map[string]*jsonschema.Schema, len(fields))
		for _, field := range fields {
			props[field] = &jsonschema.Schema{Type: "string"}
		}

		switch name {
		case "Parameter":
			props["required"] = &jsonschema.Schema{Type: "boolean"}
			props["in"].Enum = []any{"query", "header", "path", "formData", "body"}
		case "Response":
			props["response"] = &jsonschema.Schema{Types: []string{"string", "integer"}}
		case "Xml":
			props["wrapped"] = &jsonschema.Schema{Type: "boolean"}
		}

		if slices.Equal(fields, operationFields) {
			props["deprecated"] = &jsonschema.Schema{Type: "boolean"}
			props["tags"] = &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string"}}
		}

		err := r.Add(&Definition{
			Name:   `Swagger\Annotations\` + name,
			Schema: &jsonschema.Schema{Type: "object", Properties: props},
		})
		if err != nil {
			panic(err)
		}
	}

	return r
}

var operationFields = []string{"path", "summary", "description", "operationId"}
