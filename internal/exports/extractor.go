// Package exports extracts the export surface of an artifact's designated
// entry-point file as an ordered signature of comparable strings.
//
// The scan is a deliberate line-oriented heuristic, not a language parse:
// the decision engine only needs a stable, comparable signature, and the
// regular-expression approach survives syntax the parser of the day does
// not. A declaration line becomes one signature entry, preserving file
// order; comparison elsewhere applies set semantics.
package exports

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	relerrors "git.home.luguber.info/inful/relver/internal/errors"
)

// Signature is the ordered export surface of an entry point. Known is false
// when no entry point was configured or the file does not exist; that state
// is an explicit "unknown", never an error.
type Signature struct {
	Known   bool
	Entries []string
}

// Unknown returns the explicit unknown signature.
func Unknown() Signature {
	return Signature{}
}

// exportLine matches a statement beginning with the export keyword at column
// zero, which approximates top level for line-oriented scanning.
var exportLine = regexp.MustCompile(`^export\b`)

// Extract scans the entry point at path. An empty path or a missing file
// yields the unknown signature. An existing file that cannot be read or is
// not valid text is fatal: conflating "extraction broke" with "no entry
// point" would corrupt the bump-severity logic downstream.
func Extract(path string) (Signature, error) {
	if path == "" {
		return Unknown(), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Unknown(), nil
		}
		return Signature{}, relerrors.ExtractionError(path, err)
	}
	if !utf8.Valid(content) {
		return Signature{}, relerrors.ExtractionError(path, fmt.Errorf("entry point is not valid UTF-8 text"))
	}

	sig := Signature{Known: true}
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !exportLine.MatchString(line) {
			continue
		}
		if entry := normalizeEntry(line); entry != "" {
			sig.Entries = append(sig.Entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return Signature{}, relerrors.ExtractionError(path, err)
	}
	return sig, nil
}

// normalizeEntry reduces an export line to the minimal span that
// disambiguates it, so formatting churn inside a declaration body does not
// masquerade as a surface change.
func normalizeEntry(line string) string {
	entry := strings.TrimSpace(line)
	entry = strings.TrimSuffix(entry, ";")

	// Re-export and namespace forms carry their meaning in the whole
	// statement, so they are kept verbatim (modulo whitespace).
	if strings.HasPrefix(entry, "export {") || strings.HasPrefix(entry, "export *") {
		return collapseSpaces(entry)
	}

	// Declaration forms are cut at the first body/initializer token: the
	// head names the exported symbol, the rest is implementation.
	if idx := strings.IndexAny(entry, "({="); idx > 0 {
		entry = strings.TrimSpace(entry[:idx])
	}
	return collapseSpaces(entry)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
