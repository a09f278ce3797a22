package core

// convert.go provides the normalizers that turn human-authored cell values
// into the canonical types the store accepts:
//   - free-form timestamps like "Jan 1, 10:00 AM" -> TIMESTAMP
//   - durations like "5 Min & 30 Sec"            -> whole seconds
//
// All normalizers return pgtype values with Valid=false for values that
// should land as SQL NULL. A false ok return means the caller should record
// a FieldError; the row is still inserted.

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// CanonicalTimeLayout is the only time representation the store accepts.
const CanonicalTimeLayout = "2006-01-02 15:04:05"

// timestampLayout matches exports of the form "Jan 1, 10:00 AM" with the
// year prepended (either found in the input or substituted).
const timestampLayout = "2006 Jan 2, 3:04 PM"

var (
	yearRegex = regexp.MustCompile(`\b(\d{4})\b`)

	// durationRegex accepts "<N> Min & <M> Sec" with either clause optional.
	// Anchored so that arbitrary text does not silently parse as zero.
	durationRegex = regexp.MustCompile(`^(?:(\d+)\s*Min)?(?:\s*&\s*)?(?:(\d+)\s*Sec)?$`)
)

// Normalizer converts raw cell strings to canonical typed values.
// ReferenceYear is substituted when a timestamp omits its year; it is
// injected by the caller so normalization is reproducible across runs.
// The zero Normalizer treats year-less timestamps as unparseable.
type Normalizer struct {
	ReferenceYear int
}

// Time converts a free-form date/time string to a timestamp.
//
// If the string contains a 4-digit run it is taken as the year and removed
// from the string; otherwise ReferenceYear is used. The remainder must match
// "<month-abbrev> <day>, <hour>:<minute> <AM/PM>". A blank or unparseable
// input returns an invalid timestamp and ok=false.
func (n Normalizer) Time(s string) (pgtype.Timestamp, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Timestamp{}, false
	}

	year := n.ReferenceYear
	if m := yearRegex.FindString(s); m != "" {
		year, _ = strconv.Atoi(m)
		s = strings.Replace(s, m, "", 1)
	}
	if year == 0 {
		return pgtype.Timestamp{}, false
	}

	// Collapse whitespace left behind by year removal; an embedded year also
	// strands a space before the comma ("Jul 4 , 9:15 AM").
	s = strings.Join(strings.Fields(s), " ")
	s = strings.Replace(s, " ,", ",", 1)

	t, err := parseTimestamp(strconv.Itoa(year) + " " + s)
	if err != nil {
		return pgtype.Timestamp{}, false
	}
	return pgtype.Timestamp{Time: t, Valid: true}, true
}

// parseTimestamp parses "<year> <month-abbrev> <day>, <hour>:<minute> <AM/PM>",
// tolerating a lowercase meridiem.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err == nil {
		return t, nil
	}
	if n := len(s); n >= 2 {
		if suf := strings.ToUpper(s[n-2:]); suf == "AM" || suf == "PM" {
			return time.Parse(timestampLayout, s[:n-2]+suf)
		}
	}
	return time.Time{}, err
}

// Duration converts strings of the shape "<N> Min & <M> Sec" to total whole
// seconds. A missing clause defaults that component to zero. A blank input
// is a legal NULL (ok=true); a non-matching input is NULL with ok=false.
func (n Normalizer) Duration(s string) (pgtype.Int8, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Int8{}, true
	}

	m := durationRegex.FindStringSubmatch(s)
	if m == nil || (m[1] == "" && m[2] == "") {
		return pgtype.Int8{}, false
	}

	var minutes, seconds int64
	if m[1] != "" {
		minutes, _ = strconv.ParseInt(m[1], 10, 64)
	}
	if m[2] != "" {
		seconds, _ = strconv.ParseInt(m[2], 10, 64)
	}
	return pgtype.Int8{Int64: minutes*60 + seconds, Valid: true}, true
}

// Text converts a cleaned cell to pgtype.Text, NULL when blank.
func Text(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// MakeHeaderIndex creates a HeaderIndex from a CSV header row.
// Keys are lowercased for case-insensitive matching.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		idx[strings.ToLower(CleanCell(h))] = i
	}
	return idx
}

// CleanCell removes common CSV artifacts from a cell value:
// leading/trailing whitespace, a UTF-8 BOM, Excel formula prefixes (="..."),
// and surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}
