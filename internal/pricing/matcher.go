// Package pricing matches free-form procedure queries against the price
// catalog using case- and whitespace-insensitive substring containment.
package pricing

import (
	"strings"

	"github.com/atendeai/clinicbot/internal/clinicdata"
)

// Matcher finds catalog entries by substring over a fixed catalog.
type Matcher struct {
	catalog []clinicdata.ProcedureRecord
}

// NewMatcher creates a matcher over the given catalog.
func NewMatcher(catalog []clinicdata.ProcedureRecord) *Matcher {
	return &Matcher{catalog: catalog}
}

// Find returns every catalog entry whose name contains query, comparing both
// sides trimmed and lowercased. Results keep catalog order; no match returns
// an empty slice, never an error.
func (m *Matcher) Find(query string) []clinicdata.ProcedureRecord {
	q := canonical(query)

	var results []clinicdata.ProcedureRecord
	for _, rec := range m.catalog {
		if strings.Contains(canonical(rec.Name), q) {
			results = append(results, rec)
		}
	}
	return results
}

func canonical(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
