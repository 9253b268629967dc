package phpscan

import (
	"bytes"
	"strings"
)

// Comment is a doc comment found in PHP source.
type Comment struct {
	// Uses maps lower-cased aliases to the names imported by the use
	// statements of the enclosing namespace.
	Uses map[string]string
	// Text is the comment including its "/**" and "*/" delimiters.
	Text string
	// Namespace is the namespace the comment appears in.
	Namespace string
	// Line is the one-based line the comment starts on.
	Line int
	// Offset is the byte offset of the comment in the source.
	Offset int
}

// File is the result of [Scan].
type File struct {
	// Uses holds the imports of the last namespace in the file.
	Uses map[string]string
	// Namespace is the last namespace declared in the file.
	Namespace string
	Comments  []Comment
}

// Scan finds the doc comments, namespace declarations and use statements in
// PHP source. It recognizes just enough of the language to not mistake
// strings, heredocs and ordinary comments for doc comments; it never fails.
func Scan(src []byte) *File {
	s := &scanner{
		src:  src,
		line: 1,
		uses: make(map[string]string),
	}

	s.inlineHTML()

	for s.pos < len(s.src) {
		s.step()
	}

	return &File{
		Namespace: s.namespace,
		Uses:      s.uses,
		Comments:  s.comments,
	}
}

type scanner struct {
	uses      map[string]string
	namespace string
	src       []byte
	comments  []Comment
	pos       int
	line      int
	depth     int
	// nsDepth is the brace depth of the body of a braced namespace
	// declaration, or 0. Use statements at this depth are imports.
	nsDepth int
	// prev is the last significant code byte.
	prev byte
}

func (s *scanner) peek(n int) byte {
	if s.pos+n < len(s.src) {
		return s.src[s.pos+n]
	}

	return 0
}

func (s *scanner) step() {
	c := s.src[s.pos]

	switch {
	case c == '\n':
		s.line++
		s.pos++

	case c == ' ' || c == '\t' || c == '\r':
		s.pos++

	case c == '?' && s.peek(1) == '>':
		s.pos += 2
		s.prev = ';'
		s.inlineHTML()

	case c == '/' && s.peek(1) == '/', c == '#' && s.peek(1) != '[':
		s.lineComment()

	case c == '/' && s.peek(1) == '*':
		s.blockComment()

	case c == '\'' || c == '"' || c == '`':
		s.quoted(c)

	case c == '<' && bytes.HasPrefix(s.src[s.pos:], []byte("<<<")):
		if !s.heredoc() {
			s.prev = c
			s.pos++
		}

	case isWordByte(c):
		s.word()

	case c == '{':
		s.depth++
		s.prev = c
		s.pos++

	case c == '}':
		s.depth = max(s.depth-1, 0)
		if s.nsDepth > 0 && s.depth < s.nsDepth {
			s.enterNamespace("", 0)
		}

		s.prev = c
		s.pos++

	default:
		s.prev = c
		s.pos++
	}
}

// advanceTo moves to end, counting the lines passed.
func (s *scanner) advanceTo(end int) {
	s.line += bytes.Count(s.src[s.pos:end], []byte{'\n'})
	s.pos = end
}

// inlineHTML skips text outside of PHP tags.
func (s *scanner) inlineHTML() {
	i := bytes.Index(s.src[s.pos:], []byte("<?"))
	if i < 0 {
		s.advanceTo(len(s.src))

		return
	}

	end := s.pos + i + 2
	switch {
	case end < len(s.src) && s.src[end] == '=':
		end++
	case len(s.src)-end >= 3 && strings.EqualFold(string(s.src[end:end+3]), "php"):
		end += 3
	}

	s.advanceTo(end)
}

func (s *scanner) lineComment() {
	for s.pos < len(s.src) && s.src[s.pos] != '\n' {
		if s.src[s.pos] == '?' && s.peek(1) == '>' {
			return
		}

		s.pos++
	}
}

func (s *scanner) blockComment() {
	start, line := s.pos, s.line

	end := len(s.src)
	if i := bytes.Index(s.src[start+2:], []byte("*/")); i >= 0 {
		end = start + 2 + i + 2
	}

	s.advanceTo(end)

	// "/**/" is an ordinary comment; a doc comment needs whitespace after
	// the opening "/**".
	if start+3 < len(s.src) && s.src[start+2] == '*' && isSpace(s.src[start+3]) {
		s.comments = append(s.comments, Comment{
			Text:      string(s.src[start:end]),
			Line:      line,
			Offset:    start,
			Namespace: s.namespace,
			Uses:      s.uses,
		})
	}
}

func (s *scanner) quoted(q byte) {
	s.pos++

	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case '\\':
			s.advanceTo(min(s.pos+2, len(s.src)))

			continue
		case q:
			s.pos++
			s.prev = q

			return
		case '\n':
			s.line++
		}

		s.pos++
	}
}

// heredoc skips a heredoc or nowdoc starting at "<<<". It reports false
// when the text is not a heredoc opener.
func (s *scanner) heredoc() bool {
	i := s.pos + 3
	for i < len(s.src) && (s.src[i] == ' ' || s.src[i] == '\t') {
		i++
	}

	var quote byte
	if i < len(s.src) && (s.src[i] == '\'' || s.src[i] == '"') {
		quote = s.src[i]
		i++
	}

	idStart := i
	for i < len(s.src) && isIdentByte(s.src[i]) {
		i++
	}

	if i == idStart || isDigit(s.src[idStart]) {
		return false
	}

	id := s.src[idStart:i]

	if quote != 0 {
		if i >= len(s.src) || s.src[i] != quote {
			return false
		}

		i++
	}

	if i < len(s.src) && s.src[i] == '\r' {
		i++
	}

	if i >= len(s.src) || s.src[i] != '\n' {
		return false
	}

	s.advanceTo(i + 1)

	for s.pos < len(s.src) {
		j := s.pos
		for j < len(s.src) && (s.src[j] == ' ' || s.src[j] == '\t') {
			j++
		}

		if bytes.HasPrefix(s.src[j:], id) {
			k := j + len(id)
			if k >= len(s.src) || !isIdentByte(s.src[k]) {
				s.advanceTo(k)
				s.prev = ';'

				return true
			}
		}

		nl := bytes.IndexByte(s.src[s.pos:], '\n')
		if nl < 0 {
			s.advanceTo(len(s.src))

			break
		}

		s.advanceTo(s.pos + nl + 1)
	}

	return true
}

func (s *scanner) readWord() string {
	start := s.pos
	for s.pos < len(s.src) && isWordByte(s.src[s.pos]) {
		s.pos++
	}

	return string(s.src[start:s.pos])
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) && isSpace(s.src[s.pos]) {
		if s.src[s.pos] == '\n' {
			s.line++
		}

		s.pos++
	}
}

func (s *scanner) statementStart() bool {
	switch s.prev {
	case 0, ';', '{', '}':
		return true
	}

	return false
}

func (s *scanner) word() {
	atStart := s.statementStart()
	w := s.readWord()

	s.prev = 'a'

	if !atStart {
		return
	}

	switch strings.ToLower(w) {
	case "namespace":
		s.namespaceDecl()
	case "use":
		if s.depth == s.nsDepth {
			s.useStatement()
		}
	}
}

func (s *scanner) namespaceDecl() {
	s.skipSpace()

	name := strings.TrimPrefix(s.readWord(), `\`)

	s.skipSpace()

	switch s.peek(0) {
	case ';':
		s.enterNamespace(name, s.nsDepth)
	case '{':
		s.enterNamespace(name, s.depth+1)
	}
}

func (s *scanner) enterNamespace(name string, depth int) {
	s.namespace = name
	s.nsDepth = depth
	s.uses = make(map[string]string)
}

func (s *scanner) useStatement() {
	end := bytes.IndexByte(s.src[s.pos:], ';')
	if end < 0 {
		end = len(s.src) - s.pos
	}

	stmt := string(s.src[s.pos : s.pos+end])

	s.advanceTo(min(s.pos+end+1, len(s.src)))
	s.prev = ';'

	addUses(s.uses, stmt)
}

// addUses records the class imports of a use statement body, e.g.
// "Foo\Bar as Baz, Foo\{Qux, Quux as Q}". Function and constant imports are
// ignored.
func addUses(uses map[string]string, stmt string) {
	stmt = strings.TrimSpace(stmt)
	if hasKeyword(stmt, "function") || hasKeyword(stmt, "const") {
		return
	}

	for _, clause := range splitClauses(stmt) {
		prefix, group, ok := strings.Cut(clause, "{")
		if !ok {
			addUse(uses, clause)

			continue
		}

		prefix = strings.TrimSpace(prefix)
		group = strings.TrimSuffix(strings.TrimSpace(group), "}")

		for item := range strings.SplitSeq(group, ",") {
			item = strings.TrimSpace(item)
			if item == "" || hasKeyword(item, "function") || hasKeyword(item, "const") {
				continue
			}

			addUse(uses, prefix+item)
		}
	}
}

func addUse(uses map[string]string, clause string) {
	fields := strings.Fields(clause)
	if len(fields) == 0 {
		return
	}

	name := strings.Trim(fields[0], `\`)
	if name == "" {
		return
	}

	alias := name[strings.LastIndexByte(name, '\\')+1:]
	if len(fields) == 3 && strings.EqualFold(fields[1], "as") {
		alias = fields[2]
	}

	uses[strings.ToLower(alias)] = name
}

// splitClauses splits on commas outside of group braces.
func splitClauses(stmt string) []string {
	var (
		clauses []string
		depth   int
		start   int
	)

	for i := range len(stmt) {
		switch stmt[i] {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				clauses = append(clauses, stmt[start:i])
				start = i + 1
			}
		}
	}

	return append(clauses, stmt[start:])
}

func hasKeyword(s, keyword string) bool {
	fields := strings.Fields(s)

	return len(fields) > 1 && strings.EqualFold(fields[0], keyword)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentByte(c byte) bool {
	return c == '_' || isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isWordByte(c byte) bool {
	return isIdentByte(c) || c == '\\'
}
