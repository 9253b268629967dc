package analyser

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

var (
	// DefaultImports maps annotation aliases to namespaces. It lets comments
	// use @SWG\Info for Swagger\Annotations\Info without a use statement.
	// Treat as read-only; parsers copy it at construction.
	DefaultImports = map[string]string{
		"swg": `Swagger\Annotations`,
	}

	// DefaultWhitelist lists the namespaces whose annotations may be
	// constructed by the default [Analyser]. Treat as read-only.
	DefaultWhitelist = []string{
		`Swagger\Annotations\`,
	}

	// DefaultIgnoredNames are standard PHPDoc tags that are never parsed as
	// annotations.
	DefaultIgnoredNames = []string{
		"Annotation", "Attribute", "Attributes", "Required", "Target",
		"abstract", "access", "api", "author", "category", "code",
		"codeCoverageIgnore", "codeCoverageIgnoreEnd", "codeCoverageIgnoreStart",
		"copyright", "deprec", "deprecated", "endcode", "enduml", "example",
		"exception", "filesource", "final", "fix", "fixme", "global", "ignore",
		"ingroup", "inheritDoc", "inheritdoc", "internal", "license", "link",
		"magic", "method", "name", "noinspection", "override", "package",
		"package_version", "param", "private", "property", "return", "see",
		"since", "source", "startuml", "static", "staticVar", "staticvar",
		"subpackage", "SuppressWarnings", "throw", "throws", "toc", "todo",
		"TODO", "tutorial", "usedby", "uses", "var", "version",
	}
)

// DocParser parses Doctrine-style annotations:
//
//	@Name
//	@Alias\Name(positional, key="value", list={1, 2}, map={"a": true})
//	@Outer(inner=@Inner(1))
//
// Offsets in the [*SyntaxError] values it returns count bytes from the
// first "@" of the comment. A DocParser is safe for concurrent use.
//
// Create instances with [NewDocParser].
type DocParser struct {
	imports           map[string]string
	ignored           map[string]struct{}
	registry          Registry
	whitelist         []string
	ignoreNotImported bool
}

// DocParserOption configures a [DocParser].
type DocParserOption func(*DocParser)

// WithImports adds alias to namespace mappings. Aliases are matched
// case-insensitively.
func WithImports(imports map[string]string) DocParserOption {
	return func(p *DocParser) {
		for alias, ns := range imports {
			p.imports[strings.ToLower(alias)] = strings.TrimPrefix(ns, `\`)
		}
	}
}

// IgnoreNotImported skips annotations whose names cannot be resolved
// instead of failing.
func IgnoreNotImported(ignore bool) DocParserOption {
	return func(p *DocParser) {
		p.ignoreNotImported = ignore
	}
}

// WithWhitelist restricts constructible annotations to names under the
// given namespace prefixes. A nil whitelist means no restriction.
func WithWhitelist(namespaces []string) DocParserOption {
	return func(p *DocParser) {
		if namespaces == nil {
			p.whitelist = nil

			return
		}

		p.whitelist = make([]string, 0, len(namespaces))
		for _, ns := range namespaces {
			p.whitelist = append(p.whitelist, strings.ToLower(strings.TrimPrefix(ns, `\`)))
		}
	}
}

// WithRegistry restricts constructible annotations to those defined in r
// and validates their fields. A nil registry accepts any name.
func WithRegistry(r Registry) DocParserOption {
	return func(p *DocParser) {
		p.registry = r
	}
}

// WithIgnoredNames adds names that are never parsed as annotations.
func WithIgnoredNames(names ...string) DocParserOption {
	return func(p *DocParser) {
		for _, name := range names {
			p.ignored[name] = struct{}{}
		}
	}
}

// NewDocParser creates a [DocParser] with the given options. By default
// nothing is imported, unresolved names are errors, and
// [DefaultIgnoredNames] are skipped.
func NewDocParser(opts ...DocParserOption) *DocParser {
	p := &DocParser{
		imports: make(map[string]string),
		ignored: make(map[string]struct{}, len(DefaultIgnoredNames)),
	}

	for _, name := range DefaultIgnoredNames {
		p.ignored[name] = struct{}{}
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Parse implements [Parser].
func (p *DocParser) Parse(ctx context.Context, comment string, c *Context) ([]*Annotation, error) {
	start := findInitialTokenPosition(comment)
	if start < 0 {
		return nil, nil
	}

	input := strings.TrimRight(comment[start:], "* /")

	st := &parseState{
		ctx:      ctx,
		parser:   p,
		c:        c,
		tokens:   lex(input),
		inputLen: len(input),
		// Offsets are reported relative to the first "@" of the comment,
		// which may precede the first annotation (e.g. in an e-mail address).
		base: start - max(strings.IndexByte(comment, '@'), 0),
	}

	return st.annotations()
}

// findInitialTokenPosition returns the index of the first "@" that is at
// the start of comment or follows whitespace or "*", or -1.
func findInitialTokenPosition(comment string) int {
	pos := 0
	for {
		i := strings.IndexByte(comment[pos:], '@')
		if i < 0 {
			return -1
		}

		pos += i
		if pos == 0 {
			return pos
		}

		switch comment[pos-1] {
		case ' ', '\t', '\n', '\r', '*':
			return pos
		}

		pos++
	}
}

// constructible reports whether an annotation with the fully-qualified name
// may be built.
func (p *DocParser) constructible(name string) bool {
	if p.whitelist != nil {
		lower := strings.ToLower(name)
		allowed := false

		for _, ns := range p.whitelist {
			if strings.HasPrefix(lower, ns) {
				allowed = true

				break
			}
		}

		if !allowed {
			return false
		}
	}

	if p.registry == nil {
		return true
	}

	return p.registry.Lookup(name) != nil
}

func (p *DocParser) isIgnored(name string) bool {
	_, ok := p.ignored[name]

	return ok
}

// parseState holds the state of one Parse call.
type parseState struct {
	ctx      context.Context
	parser   *DocParser
	c        *Context
	tokens   []token
	i        int
	inputLen int
	base     int
}

func (s *parseState) lookahead() *token {
	if s.i < len(s.tokens) {
		return &s.tokens[s.i]
	}

	return nil
}

func (s *parseState) glimpse() *token {
	if s.i+1 < len(s.tokens) {
		return &s.tokens[s.i+1]
	}

	return nil
}

func (s *parseState) previous() *token {
	if s.i > 0 && s.i-1 < len(s.tokens) {
		return &s.tokens[s.i-1]
	}

	return nil
}

func (s *parseState) isNext(typ tokenType) bool {
	t := s.lookahead()

	return t != nil && t.typ == typ
}

func (s *parseState) match(typ tokenType) (*token, error) {
	t := s.lookahead()
	if t == nil || t.typ != typ {
		return nil, s.syntaxError(typ.describe())
	}

	s.i++

	return t, nil
}

func (s *parseState) syntaxError(expected string) error {
	t := s.lookahead()
	if t == nil {
		return &SyntaxError{
			Message: fmt.Sprintf("[Syntax Error] Expected %s, got end of string", expected),
			Offset:  s.base + s.inputLen,
			Context: s.c.String(),
		}
	}

	return &SyntaxError{
		Message: fmt.Sprintf("[Syntax Error] Expected %s, got '%s'", expected, t.value),
		Offset:  s.base + t.pos,
		Context: s.c.String(),
	}
}

// annotations scans the token stream for annotations. An "@" counts only
// when it is separated from the previous token and immediately followed by
// a name.
func (s *parseState) annotations() ([]*Annotation, error) {
	var result []*Annotation

	for t := s.lookahead(); t != nil; t = s.lookahead() {
		if t.typ != tokAt {
			s.i++

			continue
		}

		if prev := s.previous(); prev != nil && prev.end == t.pos {
			s.i++

			continue
		}

		next := s.glimpse()
		if next == nil || !isNameToken(next.typ) || next.pos != t.end {
			s.i++

			continue
		}

		ann, err := s.annotation()
		if err != nil {
			return nil, err
		}

		if ann != nil {
			result = append(result, ann)
		}
	}

	return result, nil
}

func isNameToken(typ tokenType) bool {
	return typ == tokIdentifier || typ == tokTrue || typ == tokFalse || typ == tokNull
}

// annotation parses "@Name[(values)]". It returns nil for names that are
// ignored.
func (s *parseState) annotation() (*Annotation, error) {
	_, err := s.match(tokAt)
	if err != nil {
		return nil, err
	}

	nameTok := s.lookahead()
	if nameTok == nil || !isNameToken(nameTok.typ) {
		return nil, s.syntaxError("namespace separator or identifier")
	}

	s.i++

	alias := nameTok.value

	name, ok, err := s.resolve(alias)
	if err != nil {
		return nil, err
	}

	if !ok {
		s.skipArguments()

		return nil, nil
	}

	fields, err := s.methodCall()
	if err != nil {
		return nil, err
	}

	if def := s.parser.registry.Lookup(name); def != nil {
		verr := def.Validate(fields)
		if verr != nil {
			return nil, fmt.Errorf("%w: attribute of @%s declared on %s: %w", ErrType, alias, s.c, verr)
		}
	}

	owner, ok := ActiveContext(s.ctx)
	if !ok {
		owner = s.c
	}

	ann := &Annotation{
		Name:    name,
		Alias:   alias,
		Fields:  fields,
		Context: owner,
	}
	s.c.Annotations = append(s.c.Annotations, ann)

	return ann, nil
}

// resolve turns the name written after "@" into a fully-qualified name.
// The boolean is false when the annotation should be skipped.
func (s *parseState) resolve(written string) (string, bool, error) {
	p := s.parser

	if strings.HasPrefix(written, `\`) {
		name := strings.TrimPrefix(written, `\`)
		if !p.constructible(name) {
			return "", false, fmt.Errorf("%w: the annotation \"@%s\" in %s does not exist, or could not be auto-loaded",
				ErrSemantic, name, s.c)
		}

		return name, true, nil
	}

	aliasPart, rest, hasNS := strings.Cut(written, `\`)
	lowered := strings.ToLower(aliasPart)

	var (
		name  string
		found bool
	)

	if ns, ok := s.lookupImport(lowered); ok {
		name = ns
		if hasNS {
			name = ns + `\` + rest
		}

		found = p.constructible(name)
	} else if p.registry != nil && !p.isIgnored(written) {
		// With a registry, "exists" is meaningful: try the current
		// namespace, then the name as a global one.
		if s.c.Namespace != "" && p.constructible(s.c.Namespace+`\`+written) {
			name, found = s.c.Namespace+`\`+written, true
		} else if p.constructible(written) {
			name, found = written, true
		}
	} else if !p.ignoreNotImported && !p.isIgnored(written) {
		name, found = written, p.constructible(written)
	}

	if found {
		return name, true, nil
	}

	if p.ignoreNotImported || p.isIgnored(written) {
		return "", false, nil
	}

	return "", false, fmt.Errorf("%w: the annotation \"@%s\" in %s was never imported, did you forget a use statement",
		ErrSemantic, written, s.c)
}

func (s *parseState) lookupImport(alias string) (string, bool) {
	if ns, ok := s.c.Uses[alias]; ok {
		return strings.TrimPrefix(ns, `\`), true
	}

	ns, ok := s.parser.imports[alias]

	return ns, ok
}

// skipArguments consumes a parenthesized argument list directly following
// an ignored annotation name.
func (s *parseState) skipArguments() {
	if !s.isNext(tokOpenParen) {
		return
	}

	depth := 0
	for t := s.lookahead(); t != nil; t = s.lookahead() {
		s.i++

		switch t.typ {
		case tokOpenParen:
			depth++
		case tokCloseParen:
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

// methodCall parses an optional "(values)" argument list.
func (s *parseState) methodCall() (map[string]any, error) {
	fields := make(map[string]any)

	if !s.isNext(tokOpenParen) {
		return fields, nil
	}

	s.i++

	if s.isNext(tokCloseParen) {
		s.i++

		return fields, nil
	}

	err := s.values(fields)
	if err != nil {
		return nil, err
	}

	_, err = s.match(tokCloseParen)
	if err != nil {
		return nil, err
	}

	return fields, nil
}

// values parses a comma-separated list of values into fields. Positional
// values are collected under "value".
func (s *parseState) values(fields map[string]any) error {
	var positional []any

	for {
		key, val, err := s.value()
		if err != nil {
			return err
		}

		if key != "" {
			fields[key] = val
		} else {
			positional = append(positional, val)
		}

		if !s.isNext(tokComma) {
			break
		}

		s.i++

		if s.isNext(tokCloseParen) {
			break
		}
	}

	switch len(positional) {
	case 0:
	case 1:
		fields["value"] = positional[0]
	default:
		fields["value"] = positional
	}

	return nil
}

// value parses "name=plainValue" or a plain value. The key is empty for
// plain values.
func (s *parseState) value() (string, any, error) {
	t := s.lookahead()
	if peek := s.glimpse(); t != nil && t.typ == tokIdentifier && peek != nil && peek.typ == tokEquals {
		s.i += 2

		v, err := s.plainValue()

		return t.value, v, err
	}

	v, err := s.plainValue()

	return "", v, err
}

func (s *parseState) plainValue() (any, error) {
	t := s.lookahead()
	if t == nil {
		return nil, s.syntaxError("PlainValue")
	}

	switch t.typ {
	case tokOpenBrace:
		return s.array()

	case tokAt:
		ann, err := s.annotation()
		if err != nil {
			return nil, err
		}

		if ann == nil {
			return nil, nil
		}

		return ann, nil

	case tokIdentifier:
		return nil, fmt.Errorf("%w: couldn't find constant %s, annotation in %s", ErrSemantic, t.value, s.c)

	case tokString:
		s.i++

		return t.value, nil

	case tokInteger:
		s.i++

		n, err := strconv.ParseInt(t.value, 10, 64)
		if err != nil {
			// Out of int64 range.
			f, _ := strconv.ParseFloat(t.value, 64)

			return f, nil
		}

		return n, nil

	case tokFloat:
		f, err := strconv.ParseFloat(t.value, 64)
		if err != nil {
			return nil, s.syntaxError("PlainValue")
		}

		s.i++

		return f, nil

	case tokTrue:
		s.i++

		return true, nil

	case tokFalse:
		s.i++

		return false, nil

	case tokNull:
		s.i++

		return nil, nil
	}

	return nil, s.syntaxError("PlainValue")
}

type arrayEntry struct {
	value  any
	key    string
	hasKey bool
}

// array parses "{entry, ...}". Entries are plain values or key=value /
// key: value pairs; a trailing comma is allowed. The result is a []any when
// no entry has a key and a map[string]any otherwise, with unkeyed entries
// stored under their index.
func (s *parseState) array() (any, error) {
	_, err := s.match(tokOpenBrace)
	if err != nil {
		return nil, err
	}

	var entries []arrayEntry

	if !s.isNext(tokCloseBrace) {
		for {
			entry, err := s.arrayEntry()
			if err != nil {
				return nil, err
			}

			entries = append(entries, entry)

			if !s.isNext(tokComma) {
				break
			}

			s.i++

			if s.isNext(tokCloseBrace) {
				break
			}
		}
	}

	_, err = s.match(tokCloseBrace)
	if err != nil {
		return nil, err
	}

	keyed := false

	for _, e := range entries {
		if e.hasKey {
			keyed = true

			break
		}
	}

	if !keyed {
		list := make([]any, 0, len(entries))
		for _, e := range entries {
			list = append(list, e.value)
		}

		return list, nil
	}

	m := make(map[string]any, len(entries))
	next := 0

	for _, e := range entries {
		if e.hasKey {
			m[e.key] = e.value

			if n, err := strconv.Atoi(e.key); err == nil && n >= next {
				next = n + 1
			}

			continue
		}

		m[strconv.Itoa(next)] = e.value
		next++
	}

	return m, nil
}

func (s *parseState) arrayEntry() (arrayEntry, error) {
	t := s.lookahead()
	peek := s.glimpse()

	if t != nil && peek != nil && (peek.typ == tokEquals || peek.typ == tokColon) {
		switch t.typ {
		case tokIdentifier, tokString, tokInteger:
		default:
			return arrayEntry{}, s.syntaxError("integer or string")
		}

		s.i += 2

		v, err := s.plainValue()
		if err != nil {
			return arrayEntry{}, err
		}

		return arrayEntry{key: t.value, value: v, hasKey: true}, nil
	}

	v, err := s.plainValue()
	if err != nil {
		return arrayEntry{}, err
	}

	return arrayEntry{value: v}, nil
}
