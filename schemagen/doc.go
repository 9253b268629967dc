// Package schemagen infers annotation registry schemas from extracted
// annotations.
//
// A [Generator] observes annotations and builds one JSON Schema per
// annotation name, describing the fields seen on it. The result marshals to
// the registry document read by [analyser.LoadRegistry], which makes it a
// starting point for a hand-maintained registry:
//
//	gen := schemagen.NewGenerator()
//	for _, r := range results {
//	    gen.Add(r.Annotations...)
//	}
//	out, err := json.MarshalIndent(gen, "", "  ")
//
// # Fail open
//
// Generated schemas describe what was seen, not everything that is allowed.
// Additional fields are permitted unless [WithStrict] is set, and fields are
// only required with [WithRequired], in which case a field must appear on
// every observed occurrence of the annotation.
//
// # Union semantics
//
// Occurrences of the same annotation are merged. Properties are unioned and
// conflicting types widen: integer and number become number, and any other
// conflict removes the type constraint.
package schemagen
