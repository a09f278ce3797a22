package core

// validation.go is the fail-fast gate between classification and insertion.
// Classification only inspects the header; validation confirms the matched
// schema's required columns are actually present in the data columns, which
// guards against degenerate files. A validation failure rejects the entire
// file before any row is read or inserted, unlike per-row normalization
// failures, which are recoverable.

import "strings"

// ValidateColumns checks that every required column of the schema appears in
// the header index. Returns a MissingColumnsError listing the absent columns.
func ValidateColumns(schema Schema, idx HeaderIndex) error {
	var missing []string
	for _, col := range schema.Required {
		if _, ok := idx[strings.ToLower(col)]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Schema: schema.Name, Missing: missing}
	}
	return nil
}
