package sqliteddl

import "strings"

type tokKind int

const (
	tokWord   tokKind = iota // bare keyword or identifier
	tokIdent                 // "quoted", `quoted` or [quoted] identifier
	tokString                // 'literal'
	tokPunct                 // any other single character
)

type token struct {
	kind       tokKind
	text       string
	start, end int // byte offsets into the statement
}

func (t token) is(punct string) bool {
	return t.kind == tokPunct && t.text == punct
}

func (t token) isWord(w string) bool {
	return t.kind == tokWord && strings.EqualFold(t.text, w)
}

// value returns an identifier without its quotes.
func (t token) value() string {
	if t.kind != tokIdent || len(t.text) < 2 {
		return t.text
	}
	inner := t.text[1 : len(t.text)-1]
	switch t.text[0] {
	case '"':
		return strings.ReplaceAll(inner, `""`, `"`)
	case '`':
		return strings.ReplaceAll(inner, "``", "`")
	}
	return inner
}

// tokenize splits a statement into tokens, dropping whitespace and comments.
// An unterminated quote or comment runs to the end of the input.
func tokenize(s string) []token {
	var toks []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f':
			i++
		case c == '-' && i+1 < len(s) && s[i+1] == '-':
			for i < len(s) && s[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				i = len(s)
			} else {
				i += end + 4
			}
		case c == '\'':
			end := quoted(s, i, '\'')
			toks = append(toks, token{kind: tokString, text: s[i:end], start: i, end: end})
			i = end
		case c == '"' || c == '`':
			end := quoted(s, i, c)
			toks = append(toks, token{kind: tokIdent, text: s[i:end], start: i, end: end})
			i = end
		case c == '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				end = len(s)
			} else {
				end += i + 1
			}
			toks = append(toks, token{kind: tokIdent, text: s[i:end], start: i, end: end})
			i = end
		case isWordByte(c):
			j := i
			for j < len(s) && isWordByte(s[j]) {
				j++
			}
			toks = append(toks, token{kind: tokWord, text: s[i:j], start: i, end: j})
			i = j
		default:
			toks = append(toks, token{kind: tokPunct, text: s[i : i+1], start: i, end: i + 1})
			i++
		}
	}
	return toks
}

// quoted returns the offset just past the quote opened at s[start]. A
// doubled quote character is an escape.
func quoted(s string, start int, q byte) int {
	for i := start + 1; i < len(s); i++ {
		if s[i] != q {
			continue
		}
		if i+1 < len(s) && s[i+1] == q {
			i++
			continue
		}
		return i + 1
	}
	return len(s)
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
		c >= 0x80
}
