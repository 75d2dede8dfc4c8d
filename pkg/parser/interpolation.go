package parser

import "strings"

// StringPart is one segment of a (possibly interpolated) string literal:
// either a literal run of text or an embedded expression from a #{...}
// span.
type StringPart struct {
	Literal  string
	Embedded *Expr
}

// ParseStringParts decodes escapes and splits raw (still-escaped) string
// literal text, as produced by the lexer, into literal/embedded parts. The
// evaluator calls it each time a string literal is evaluated (the result is
// not cached), keeping the lexer itself free of any expression grammar.
func ParseStringParts(filename, raw string) ([]StringPart, error) {
	var parts []StringPart
	var lit strings.Builder
	i := 0
	for i < len(raw) {
		c := raw[i]
		if c == '\\' && i+1 < len(raw) {
			lit.WriteByte(decodeEscape(raw[i+1]))
			i += 2
			continue
		}
		if c == '#' && i+1 < len(raw) && raw[i+1] == '{' {
			end, inner, err := scanInterpolationSpan(raw, i+2)
			if err != nil {
				return nil, err
			}
			if lit.Len() > 0 {
				parts = append(parts, StringPart{Literal: lit.String()})
				lit.Reset()
			}
			expr, err := ParseExpr(filename, inner)
			if err != nil {
				return nil, err
			}
			parts = append(parts, StringPart{Embedded: expr})
			i = end
			continue
		}
		lit.WriteByte(c)
		i++
	}
	if lit.Len() > 0 || len(parts) == 0 {
		parts = append(parts, StringPart{Literal: lit.String()})
	}
	return parts, nil
}

// decodeEscape translates a single character following a backslash.
func decodeEscape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '"':
		return '"'
	case '\\':
		return '\\'
	case '#':
		return '#'
	default:
		return c
	}
}

// scanInterpolationSpan finds the matching '}' for a '#{' opened at
// raw[start-2:start], accounting for nested braces and nested string
// literals the way the lexer itself does. It returns the index just past
// the closing brace and the inner (still-raw) expression text.
func scanInterpolationSpan(raw string, start int) (end int, inner string, err error) {
	depth := 1
	i := start
	for i < len(raw) {
		c := raw[i]
		switch {
		case c == '\\' && i+1 < len(raw):
			i += 2
		case c == '"':
			i++
			for i < len(raw) && raw[i] != '"' {
				if raw[i] == '\\' {
					i++
				}
				i++
			}
			if i < len(raw) {
				i++
			}
		case c == '{':
			depth++
			i++
		case c == '}':
			depth--
			i++
			if depth == 0 {
				return i, raw[start : i-1], nil
			}
		default:
			i++
		}
	}
	return 0, "", &ParseError{Message: "unterminated interpolation span"}
}
