package analyser

import "strings"

// Annotation is a parsed "@Name(...)" marker.
//
// Fields holds named values. Positional values are stored under "value", as
// a single value or, when there are several, as a []any. Values are string,
// int64, float64, bool, nil, []any, map[string]any or nested *Annotation.
type Annotation struct {
	Fields map[string]any `json:"fields,omitempty" yaml:"fields,omitempty"`
	// Context is the context the annotation was constructed under.
	Context *Context `json:"-" yaml:"-"`
	// Name is the fully-qualified name, e.g. Swagger\Annotations\Info.
	Name string `json:"name" yaml:"name"`
	// Alias is the name as written in the comment, e.g. SWG\Info.
	Alias string `json:"alias,omitempty" yaml:"alias,omitempty"`
}

// ShortName returns the last namespace segment of the annotation name.
func (a *Annotation) ShortName() string {
	i := strings.LastIndexByte(a.Name, '\\')

	return a.Name[i+1:]
}

// Value returns the named field and whether it was set.
func (a *Annotation) Value(name string) (any, bool) {
	v, ok := a.Fields[name]

	return v, ok
}
