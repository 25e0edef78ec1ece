package sqldump

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// insertKeyword locates candidate statements. Everything after it is read by
// the cursor below.
var insertKeyword = regexp.MustCompile(`(?i)\bINSERT\s+INTO\s+`)

// statement is one well-formed INSERT with its raw row groups.
type statement struct {
	table   string
	columns []string
	rows    []string // contents of each (...) group, parens removed
	end     int      // offset just past the terminating ';'
}

// scanStatements returns every well-formed INSERT statement in text order,
// plus the table names of statements that got as far as VALUES but never
// completed. Text that does not complete a statement is skipped and the
// search resumes just after the INSERT keyword that started it.
func scanStatements(text string) (out []statement, broken []string) {
	pos := 0
	for pos < len(text) {
		loc := insertKeyword.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, bodyStart := pos+loc[0], pos+loc[1]

		st, outcome := parseStatement(text, bodyStart)
		switch outcome {
		case parsed:
			out = append(out, st)
			pos = st.end
			continue
		case truncated:
			broken = append(broken, st.table)
		}
		pos = start + len("INSERT")
	}
	return out, broken
}

type parseOutcome int

const (
	notInsert parseOutcome = iota // no table, column list or VALUES keyword
	truncated                     // VALUES seen but the statement never closed
	parsed
)

// parseStatement reads `ident (cols) VALUES (..), (..) ;` starting at pos.
func parseStatement(text string, pos int) (statement, parseOutcome) {
	c := &cursor{s: text, i: pos}

	table, ok := c.ident()
	if !ok {
		return statement{}, notInsert
	}

	c.skipSpace()
	cols, ok := c.group()
	if !ok {
		return statement{}, notInsert
	}
	columns := splitColumns(cols)
	if len(columns) == 0 {
		return statement{}, notInsert
	}

	c.skipSpace()
	if !c.keyword("VALUES") {
		return statement{}, notInsert
	}

	var rows []string
	for {
		c.skipSpace()
		row, ok := c.group()
		if !ok {
			return statement{table: table}, truncated
		}
		rows = append(rows, row)

		c.skipSpace()
		if c.peek() != ',' {
			break
		}
		c.i++
	}

	c.skipSpace()
	if c.peek() != ';' {
		return statement{table: table}, truncated
	}
	c.i++

	return statement{table: table, columns: columns, rows: rows, end: c.i}, parsed
}

type cursor struct {
	s string
	i int
}

func (c *cursor) peek() byte {
	if c.i >= len(c.s) {
		return 0
	}
	return c.s[c.i]
}

func (c *cursor) skipSpace() {
	for c.i < len(c.s) {
		r, size := utf8.DecodeRuneInString(c.s[c.i:])
		if !unicode.IsSpace(r) {
			return
		}
		c.i += size
	}
}

// keyword consumes kw case-insensitively when it is not followed by a word character.
func (c *cursor) keyword(kw string) bool {
	end := c.i + len(kw)
	if end > len(c.s) || !strings.EqualFold(c.s[c.i:end], kw) {
		return false
	}
	if end < len(c.s) {
		if r, _ := utf8.DecodeRuneInString(c.s[end:]); isWord(r) {
			return false
		}
	}
	c.i = end
	return true
}

// ident reads a bare word or a "quoted", `quoted` or [quoted] identifier.
func (c *cursor) ident() (string, bool) {
	if c.i >= len(c.s) {
		return "", false
	}

	if closing, ok := identQuotes[c.s[c.i]]; ok {
		end := strings.IndexByte(c.s[c.i+1:], closing)
		if end <= 0 {
			return "", false
		}
		name := c.s[c.i+1 : c.i+1+end]
		c.i += end + 2
		return name, true
	}

	start := c.i
	for c.i < len(c.s) {
		r, size := utf8.DecodeRuneInString(c.s[c.i:])
		if !isWord(r) {
			break
		}
		c.i += size
	}
	return c.s[start:c.i], c.i > start
}

// group reads a balanced (...) group and returns its contents without the
// outer parens. Parens inside quoted literals do not count.
func (c *cursor) group() (string, bool) {
	if c.peek() != '(' {
		return "", false
	}
	start := c.i + 1
	depth := 0
	tokenStart := true

	for j := c.i; j < len(c.s); j++ {
		ch := c.s[j]
		if opensLiteral(ch, tokenStart) {
			end := literalEnd(c.s, j)
			if end < 0 {
				return "", false
			}
			j = end
			tokenStart = false
			continue
		}
		switch ch {
		case '(':
			depth++
			tokenStart = true
		case ')':
			depth--
			if depth == 0 {
				c.i = j + 1
				return c.s[start:j], true
			}
			tokenStart = false
		case ',':
			tokenStart = true
		case ' ', '\t', '\n', '\r':
		default:
			tokenStart = false
		}
	}
	return "", false
}

// opensLiteral reports whether ch starts a quoted literal. A single quote
// always does. A double quote only does at the start of a value, so inch
// marks like 55" stay plain text.
func opensLiteral(ch byte, tokenStart bool) bool {
	return ch == '\'' || (ch == '"' && tokenStart)
}

// literalEnd returns the index of the quote closing the literal that opens at
// s[i], or -1 when it never closes. A doubled quote stays inside the literal,
// and inside single quotes a backslash escapes the next byte.
func literalEnd(s string, i int) int {
	q := s[i]
	for j := i + 1; j < len(s); j++ {
		switch {
		case s[j] == '\\' && q == '\'':
			j++
		case s[j] == q:
			if j+1 < len(s) && s[j+1] == q {
				j++
				continue
			}
			return j
		}
	}
	return -1
}

var identQuotes = map[byte]byte{'"': '"', '`': '`', '[': ']'}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// splitTopLevel splits on commas that are outside quoted literals and nested
// parens. Literals follow the same rules as group.
func splitTopLevel(s string) []string {
	var parts []string
	last := 0
	depth := 0
	tokenStart := true

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if opensLiteral(ch, tokenStart) {
			end := literalEnd(s, i)
			if end < 0 {
				break
			}
			i = end
			tokenStart = false
			continue
		}
		switch ch {
		case '(':
			depth++
			tokenStart = true
		case ')':
			if depth > 0 {
				depth--
			}
			tokenStart = false
		case ',':
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
			tokenStart = true
		case ' ', '\t', '\n', '\r':
		default:
			tokenStart = false
		}
	}
	return append(parts, s[last:])
}

// splitValues turns a row group into cell values.
func splitValues(row string) []string {
	parts := splitTopLevel(row)
	for i, p := range parts {
		parts[i] = unquoteValue(strings.TrimSpace(p))
	}
	return parts
}

func splitColumns(cols string) []string {
	var out []string
	for _, p := range splitTopLevel(cols) {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil
		}
		if len(p) >= 2 {
			if closing, ok := identQuotes[p[0]]; ok && p[len(p)-1] == closing {
				p = p[1 : len(p)-1]
			}
		}
		out = append(out, p)
	}
	return out
}

// unquoteValue strips one layer of matching quotes. Inside a single-quoted
// literal, doubled quotes and the escapes \' and \\ become one character.
func unquoteValue(v string) string {
	if len(v) < 2 {
		return v
	}
	first, last := v[0], v[len(v)-1]
	if first != last || (first != '\'' && first != '"') {
		return v
	}
	inner := v[1 : len(v)-1]
	if first == '\'' {
		inner = singleQuoteEscapes.Replace(inner)
	}
	return inner
}

var singleQuoteEscapes = strings.NewReplacer("''", "'", `\'`, "'", `\\`, `\`)
