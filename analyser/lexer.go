package analyser

import (
	"strings"
	"unicode/utf8"
)

type tokenType int

const (
	tokNone tokenType = iota
	tokIdentifier
	tokString
	tokInteger
	tokFloat
	tokTrue
	tokFalse
	tokNull
	tokAt
	tokOpenParen
	tokCloseParen
	tokOpenBrace
	tokCloseBrace
	tokEquals
	tokColon
	tokComma
)

// token is a lexeme of annotation text. Pos and end are byte offsets into
// the lexed input; value is unescaped for strings.
type token struct {
	value string
	typ   tokenType
	pos   int
	end   int
}

var punctuation = map[byte]tokenType{
	'@': tokAt,
	'(': tokOpenParen,
	')': tokCloseParen,
	'{': tokOpenBrace,
	'}': tokCloseBrace,
	'=': tokEquals,
	':': tokColon,
	',': tokComma,
}

// lex splits annotation text into tokens. Whitespace and "*" are skipped;
// characters with no meaning become tokNone.
func lex(input string) []token {
	var tokens []token

	i := 0
	for i < len(input) {
		ch := input[i]

		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '*':
			i++

		case ch == '"':
			tok, ok := lexString(input, i)
			if !ok {
				tokens = append(tokens, token{typ: tokNone, value: `"`, pos: i, end: i + 1})
				i++

				continue
			}

			tokens = append(tokens, tok)
			i = tok.end

		case isDigit(ch) || ((ch == '-' || ch == '+') && i+1 < len(input) && isDigit(input[i+1])):
			tok := lexNumber(input, i)
			tokens = append(tokens, tok)
			i = tok.end

		case isIdentStart(ch):
			tok := lexIdentifier(input, i)
			tokens = append(tokens, tok)
			i = tok.end

		default:
			if typ, ok := punctuation[ch]; ok {
				tokens = append(tokens, token{typ: typ, value: string(ch), pos: i, end: i + 1})
				i++

				continue
			}

			_, size := utf8.DecodeRuneInString(input[i:])
			tokens = append(tokens, token{typ: tokNone, value: input[i : i+size], pos: i, end: i + size})
			i += size
		}
	}

	return tokens
}

// lexString reads a double-quoted string starting at input[start]. A
// doubled quote is an escaped quote.
func lexString(input string, start int) (token, bool) {
	var sb strings.Builder

	i := start + 1
	for i < len(input) {
		if input[i] != '"' {
			sb.WriteByte(input[i])
			i++

			continue
		}

		if i+1 < len(input) && input[i+1] == '"' {
			sb.WriteByte('"')

			i += 2

			continue
		}

		return token{typ: tokString, value: sb.String(), pos: start, end: i + 1}, true
	}

	return token{}, false
}

func lexNumber(input string, start int) token {
	i := start
	if input[i] == '-' || input[i] == '+' {
		i++
	}

	isFloat := false

	for i < len(input) && isDigit(input[i]) {
		i++
	}

	for i+1 < len(input) && input[i] == '.' && isDigit(input[i+1]) {
		isFloat = true

		i++
		for i < len(input) && isDigit(input[i]) {
			i++
		}
	}

	if i < len(input) && (input[i] == 'e' || input[i] == 'E') {
		j := i + 1
		if j < len(input) && (input[j] == '-' || input[j] == '+') {
			j++
		}

		if j < len(input) && isDigit(input[j]) {
			isFloat = true

			i = j
			for i < len(input) && isDigit(input[i]) {
				i++
			}
		}
	}

	typ := tokInteger
	if isFloat {
		typ = tokFloat
	}

	return token{typ: typ, value: input[start:i], pos: start, end: i}
}

// lexIdentifier reads a possibly namespaced identifier, including a
// trailing "::CONSTANT" part.
func lexIdentifier(input string, start int) token {
	i := start
	for i < len(input) && isIdentPart(input[i]) {
		i++
	}

	if i+2 < len(input) && input[i] == ':' && input[i+1] == ':' && isIdentStart(input[i+2]) && input[i+2] != '\\' {
		i += 2
		for i < len(input) && isIdentPart(input[i]) && input[i] != '\\' {
			i++
		}
	}

	value := input[start:i]

	typ := tokIdentifier

	switch strings.ToLower(value) {
	case "true":
		typ = tokTrue
	case "false":
		typ = tokFalse
	case "null":
		typ = tokNull
	}

	return token{typ: typ, value: value, pos: start, end: i}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '\\' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

// describe renders a token type for syntax error messages.
func (t tokenType) describe() string {
	switch t {
	case tokIdentifier:
		return "identifier"
	case tokString:
		return "string"
	case tokInteger:
		return "integer"
	case tokFloat:
		return "float"
	case tokTrue:
		return "true"
	case tokFalse:
		return "false"
	case tokNull:
		return "null"
	case tokNone:
		return "none"
	}

	for ch, typ := range punctuation {
		if typ == t {
			return "'" + string(ch) + "'"
		}
	}

	return "unknown"
}
