package hierarchy

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// normalizeName returns the stored form of a class name.
func normalizeName(name string) string {
	return strings.TrimSpace(norm.NFKC.String(name))
}

// foldName returns the case-folded form used for searching.
func foldName(name string) string {
	return cases.Fold().String(normalizeName(name))
}
