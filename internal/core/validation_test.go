package core

import (
	"errors"
	"testing"
)

func TestValidateColumns(t *testing.T) {
	schema := Schema{
		Name:     "Calls",
		Required: []string{"call_type", "time", "from_to"},
		Fields: []Field{
			{Column: "call_type"}, {Column: "time"}, {Column: "from_to"},
		},
	}

	t.Run("all present", func(t *testing.T) {
		idx := MakeHeaderIndex([]string{"call_type", "time", "from_to", "extra"})
		if err := ValidateColumns(schema, idx); err != nil {
			t.Errorf("ValidateColumns: %v", err)
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		idx := MakeHeaderIndex([]string{"Call_Type", "TIME", "From_To"})
		if err := ValidateColumns(schema, idx); err != nil {
			t.Errorf("ValidateColumns: %v", err)
		}
	})

	t.Run("missing columns listed", func(t *testing.T) {
		idx := MakeHeaderIndex([]string{"call_type"})
		err := ValidateColumns(schema, idx)

		var missing *MissingColumnsError
		if !errors.As(err, &missing) {
			t.Fatalf("error = %v, want MissingColumnsError", err)
		}
		if missing.Schema != "Calls" {
			t.Errorf("Schema = %q, want Calls", missing.Schema)
		}
		if len(missing.Missing) != 2 {
			t.Errorf("Missing = %v, want [time from_to]", missing.Missing)
		}
	})
}
