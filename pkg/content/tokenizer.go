// pkg/content/tokenizer.go
package content

import (
	"regexp"
	"strings"
)

var timeTokenPattern = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

// Entry is one key/value fragment of a content field. Value is nil when the
// fragment carried no parsable number.
type Entry struct {
	Key   string
	Value *float64
}

// Parsed is the tokenized form of one content field
type Parsed struct {
	ContentTime *string // Leading HH:MM token, not validated against a calendar
	Entries     []Entry // Fragments in order of first appearance, keyed by normalized key
	Skipped     int     // Fragments dropped for lacking a colon
}

// Lookup returns the entry stored under a normalized key
func (p Parsed) Lookup(key string) (Entry, bool) {
	for _, e := range p.Entries {
		if e.Key == key {
			return e, true
		}
	}
	return Entry{}, false
}

// Parse tokenizes a raw content string. Empty input yields no entries.
func Parse(raw string) Parsed {
	var out Parsed

	s := Normalize(raw)
	if s == "" {
		return out
	}

	var parts []string
	for _, p := range strings.Split(s, FieldSeparator) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return out
	}

	if timeTokenPattern.MatchString(parts[0]) {
		t := parts[0]
		out.ContentTime = &t
		parts = parts[1:]
	}

	index := make(map[string]int, len(parts))
	for _, p := range parts {
		key, val, ok := strings.Cut(p, ":")
		if !ok {
			out.Skipped++
			continue
		}

		entry := Entry{Key: NormalizeKey(key)}
		if v, found := ExtractNumber(val); found {
			entry.Value = &v
		}

		// later duplicates overwrite the value but keep the first position
		if i, seen := index[entry.Key]; seen {
			out.Entries[i].Value = entry.Value
			continue
		}
		index[entry.Key] = len(out.Entries)
		out.Entries = append(out.Entries, entry)
	}

	return out
}
