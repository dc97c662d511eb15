package deps

import (
	"io"
	"os"
	"strings"

	"github.com/denismitr/migraph/migration"
	"github.com/pkg/errors"
)

type Result struct {
	Dependencies []migration.Dependency
	// Skipped holds the entries of the list that are not (app, name)
	// tuples, e.g. swappable dependency markers
	Skipped []string
}

type Extractor struct {
	assignment string
}

func NewExtractor(assignment string) *Extractor {
	if assignment == "" {
		assignment = DefaultAssignment
	}

	return &Extractor{assignment: assignment}
}

// Extract returns the dependencies declared in the source, in the order
// they appear. A source without a dependency list has none.
func (e *Extractor) Extract(r io.Reader) (Result, error) {
	var result Result

	block, err := ScanBlock(r, e.assignment)
	if err != nil {
		return result, err
	}

	if !block.Found {
		return result, nil
	}

	for i, line := range block.Lines {
		entry := line
		if i == 0 {
			offset, _ := opensList(line, e.assignment)
			entry = line[offset:]
		}

		tuples := ParseTuples(entry)
		if len(tuples) > 0 {
			result.Dependencies = append(result.Dependencies, tuples...)
			continue
		}

		if skipped := significant(entry); skipped != "" {
			result.Skipped = append(result.Skipped, skipped)
		}
	}

	return result, nil
}

func (e *Extractor) ExtractFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, errors.Wrapf(err, "could not open migration file %s", path)
	}

	defer f.Close()

	result, err := e.Extract(f)
	if err != nil {
		return result, errors.Wrapf(err, "could not extract dependencies from %s", path)
	}

	return result, nil
}

// significant strips list punctuation and comments from an entry and
// returns whatever is left.
func significant(entry string) string {
	if idx := strings.Index(entry, "#"); idx >= 0 {
		entry = entry[:idx]
	}

	return strings.Trim(entry, " \t\r[](),")
}
