package schemas

import (
	"testing"

	"extractdb/internal/core"
)

func TestAllSchemasRegistered(t *testing.T) {
	want := []string{"Calls", "Messenger", "SMS", "Contacts", "InstalledApps", "Keylogs"}

	if got := core.SchemaCount(); got != len(want) {
		t.Fatalf("SchemaCount = %d, want %d", got, len(want))
	}
	for _, name := range want {
		if _, ok := core.Get(name); !ok {
			t.Errorf("schema %s not registered", name)
		}
	}
}

func TestClassifyKnownHeaders(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		want    string
	}{
		{
			name:    "calls",
			columns: []string{"call_type", "time", "from_to", "duration_sec", "location"},
			want:    "Calls",
		},
		{
			name:    "messenger",
			columns: []string{"contact_name", "message_time", "message_text"},
			want:    "Messenger",
		},
		{
			name:    "sms",
			columns: []string{"phone_number", "message_time", "message_text", "location"},
			want:    "SMS",
		},
		{
			name:    "contacts",
			columns: []string{"name", "phone_number", "email"},
			want:    "Contacts",
		},
		{
			name:    "installed apps",
			columns: []string{"app_name", "package_name", "install_date"},
			want:    "InstalledApps",
		},
		{
			name:    "keylogs",
			columns: []string{"application", "time", "text"},
			want:    "Keylogs",
		},
		{
			name:    "extra columns tolerated",
			columns: []string{"call_type", "time", "from_to", "duration_sec", "location", "export_batch"},
			want:    "Calls",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := core.Match(tt.columns)
			if err != nil {
				t.Fatalf("Match(%v): %v", tt.columns, err)
			}
			if schema.Name != tt.want {
				t.Errorf("Match(%v) = %s, want %s", tt.columns, schema.Name, tt.want)
			}
		})
	}
}

func TestRequiredSetsAreDistinct(t *testing.T) {
	// Registration would have panicked on a collision; this documents the
	// invariant against future schema additions.
	seen := map[string][]string{}
	for _, schema := range core.All() {
		for name, required := range seen {
			if sameSet(required, schema.Required) {
				t.Errorf("schemas %s and %s share a required set", name, schema.Name)
			}
		}
		seen[schema.Name] = schema.Required
	}
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		if !set[s] {
			return false
		}
	}
	return true
}
