// Package schemas registers the known device-extract record schemas with the
// core registry. Import it for side effects wherever the full schema set is
// needed. Adding a new record type is a data change here, not a code change
// in the pipeline.
package schemas

import "extractdb/internal/core"

func init() {
	core.Register(core.Schema{
		Name:     "Calls",
		IDColumn: "call_id",
		Required: []string{"call_type", "time", "from_to", "duration_sec", "location"},
		Fields: []core.Field{
			{Column: "call_type", Kind: core.KindText},
			{Column: "time", Kind: core.KindDatetime},
			{Column: "from_to", Kind: core.KindText},
			{Column: "duration_sec", Kind: core.KindDuration},
			{Column: "location", Kind: core.KindText},
		},
		OrderBy: `"time" DESC`,
	})

	core.Register(core.Schema{
		Name:     "Messenger",
		IDColumn: "message_id",
		Required: []string{"contact_name", "message_time", "message_text"},
		Fields: []core.Field{
			{Column: "contact_name", Kind: core.KindText},
			{Column: "message_time", Kind: core.KindDatetime},
			{Column: "message_text", Kind: core.KindText},
		},
		OrderBy: `"message_time" DESC`,
	})

	core.Register(core.Schema{
		Name:     "SMS",
		IDColumn: "sms_id",
		Required: []string{"phone_number", "message_time", "message_text", "location"},
		Fields: []core.Field{
			{Column: "phone_number", Kind: core.KindText},
			{Column: "message_time", Kind: core.KindDatetime},
			{Column: "message_text", Kind: core.KindText},
			{Column: "location", Kind: core.KindText},
		},
		OrderBy: `"message_time" DESC`,
	})

	core.Register(core.Schema{
		Name:     "Contacts",
		IDColumn: "contact_id",
		Required: []string{"name", "phone_number", "email"},
		Fields: []core.Field{
			{Column: "name", Kind: core.KindText},
			{Column: "phone_number", Kind: core.KindText},
			{Column: "email", Kind: core.KindText},
		},
		OrderBy: `"name" ASC`,
	})

	core.Register(core.Schema{
		Name:     "InstalledApps",
		IDColumn: "app_id",
		Required: []string{"app_name", "package_name", "install_date"},
		Fields: []core.Field{
			{Column: "app_name", Kind: core.KindText},
			{Column: "package_name", Kind: core.KindText},
			{Column: "install_date", Kind: core.KindDatetime},
		},
		OrderBy: `"install_date" DESC`,
	})

	core.Register(core.Schema{
		Name:     "Keylogs",
		IDColumn: "keylog_id",
		Required: []string{"application", "time", "text"},
		Fields: []core.Field{
			{Column: "application", Kind: core.KindText},
			{Column: "time", Kind: core.KindDatetime},
			{Column: "text", Kind: core.KindText},
		},
		OrderBy: `"time" DESC`,
	})
}
