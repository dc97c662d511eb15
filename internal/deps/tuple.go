package deps

import (
	"unicode"
	"unicode/utf8"

	"github.com/denismitr/migraph/migration"
)

// ParseTuples reads every `"app", "name"` pair in line, in order.
// Either quote style is accepted as long as each token is closed with the
// quote that opened it, and any whitespace may surround the comma. Tokens
// are bare words: letters, digits and underscores. A `#` outside a
// tuple ends the line.
func ParseTuples(line string) []migration.Dependency {
	var result []migration.Dependency

	for pos := 0; pos < len(line); pos++ {
		if line[pos] == '#' {
			break
		}

		if !isQuote(line[pos]) {
			continue
		}

		dep, end, ok := parseTuple(line, pos)
		if !ok {
			continue
		}

		result = append(result, dep)
		pos = end - 1
	}

	return result
}

func parseTuple(s string, pos int) (migration.Dependency, int, bool) {
	var dep migration.Dependency

	app, pos, ok := parseQuoted(s, pos)
	if !ok {
		return dep, 0, false
	}

	pos = skipBlank(s, pos)
	if pos >= len(s) || s[pos] != ',' {
		return dep, 0, false
	}

	pos = skipBlank(s, pos+1)
	name, pos, ok := parseQuoted(s, pos)
	if !ok {
		return dep, 0, false
	}

	dep.App = app
	dep.Name = name

	return dep, pos, true
}

// parseQuoted reads a quoted bare word starting at pos and returns it
// without the quotes together with the offset after the closing quote.
func parseQuoted(s string, pos int) (string, int, bool) {
	if pos >= len(s) || !isQuote(s[pos]) {
		return "", 0, false
	}

	quote := s[pos]
	start := pos + 1
	end := start

	for end < len(s) {
		r, size := utf8.DecodeRuneInString(s[end:])
		if !isWordRune(r) {
			break
		}
		end += size
	}

	if end == start || end >= len(s) || s[end] != quote {
		return "", 0, false
	}

	return s[start:end], end + 1, true
}

func skipBlank(s string, pos int) int {
	for pos < len(s) {
		r, size := utf8.DecodeRuneInString(s[pos:])
		if !unicode.IsSpace(r) {
			break
		}
		pos += size
	}
	return pos
}

func isQuote(c byte) bool {
	return c == '"' || c == '\''
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
