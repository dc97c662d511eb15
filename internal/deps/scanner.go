package deps

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const (
	DefaultAssignment = "dependencies"

	maxLineLength = 1024 * 1024
)

// Block holds the raw lines of a dependency list assignment, from the line
// that opens the list up to and including the line that closes it.
type Block struct {
	Lines []string
	Found bool
}

// ScanBlock captures the first dependency list found in r. Anything after
// the closing bracket of that list is not looked at.
func ScanBlock(r io.Reader, assignment string) (Block, error) {
	var b Block

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	capturing := false
	for scanner.Scan() {
		line := scanner.Text()

		if !capturing {
			if _, ok := opensList(line, assignment); !ok {
				continue
			}

			capturing = true
			b.Found = true
		}

		b.Lines = append(b.Lines, line)

		if strings.Contains(line, "]") {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return b, errors.Wrap(err, "could not scan dependency block")
	}

	return b, nil
}

// opensList looks for `<assignment> = [` allowing any amount of horizontal
// whitespace around the equals sign, and returns the offset right after the
// opening bracket.
func opensList(line, assignment string) (int, bool) {
	offset := 0
	for {
		idx := strings.Index(line[offset:], assignment)
		if idx < 0 {
			return 0, false
		}

		start := offset + idx
		end := start + len(assignment)
		offset = end

		if start > 0 && isWordByte(line[start-1]) {
			continue
		}

		pos := skipSpaces(line, end)
		if pos >= len(line) || line[pos] != '=' {
			continue
		}

		pos = skipSpaces(line, pos+1)
		if pos >= len(line) || line[pos] != '[' {
			continue
		}

		return pos + 1, true
	}
}

func skipSpaces(s string, pos int) int {
	for pos < len(s) && (s[pos] == ' ' || s[pos] == '\t') {
		pos++
	}
	return pos
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
