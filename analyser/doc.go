// Package analyser extracts annotations from PHPDoc comments and reports
// malformed ones at their position in the original source.
//
// An [Analyser] normalizes a comment (see [Normalize]), hands it to a
// [Parser] together with a [Context] describing where the comment came from,
// and returns the parsed [Annotation] values:
//
//	a := analyser.New(analyser.WithLogger(logger))
//	c := analyser.NewContext("src/Controller.php", 12)
//	annotations := a.Extract(ctx, comment, c)
//
// [Analyser.Extract] never fails. When the parser rejects a comment the
// fault is sent to a [Warner] and an empty list is returned, so one bad
// comment does not stop a scan of a whole code base. Faults that carry an
// offset ([*SyntaxError], or plain errors ending in
// "at position N in <context>.") are moved to the exact line and column in
// the original comment and reported as an [*AnnotationError]:
//
//	[Syntax Error] Expected PlainValue, got ')' in src/Controller.php on line 13
//
// # Parsing
//
// The default parser is a [DocParser], which reads Doctrine-style
// annotations such as @SWG\Get(path="/pets", tags={"pets"}). Names are
// resolved through the PHP use statements recorded in [Context.Uses] and
// then the parser's import table ([DefaultImports] maps "swg" to
// Swagger\Annotations). Names that resolve to nothing are skipped, as are
// plain PHPDoc tags like @param and @return.
//
// A whitelist of namespaces ([DefaultWhitelist]) and an optional [Registry]
// decide which resolved names may be constructed. Registry entries carry a
// JSON Schema for the annotation's fields, loaded from YAML, JSON or TOML
// with [LoadRegistry].
//
// # Active context
//
// While a comment is parsed, its [Context] is attached to the
// [context.Context] handed to the parser. Code constructing annotations can
// ask [ActiveContext] which file and line it is working on. The value lives
// only in the derived context of one [Analyser.Extract] call, so concurrent
// calls never observe each other.
//
// # Configuration
//
// [Config] binds the import table, whitelist and registry to CLI flags:
//
//	cfg := analyser.NewConfig()
//	cfg.RegisterFlags(rootCmd.Flags())
//	cfg.RegisterCompletions(rootCmd)
//
//	a, err := cfg.NewAnalyser(logger)
package analyser
