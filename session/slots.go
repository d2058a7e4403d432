package session

import "strings"

// Recognized slot names. RequiredSlots order is fixed: it decides which
// follow-up question the caller hears next.
var (
	RequiredSlots = []string{"cuisine", "location", "budget", "travel_mode", "travel_minutes"}
	OptionalSlots = []string{"open_now", "open_until"}
)

// Slots maps slot name to its current value. A slot is either absent from
// the map or holds a non-empty normalized string.
type Slots map[string]string

// NormalizeValue canonicalizes a raw extracted value. Empty strings and the
// literal "null" count as absent and return "".
func NormalizeValue(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" || strings.EqualFold(v, "null") {
		return ""
	}
	return v
}

// Get returns the slot value, or "" when absent.
func (s Slots) Get(key string) string {
	return s[key]
}

// Clone returns an independent copy.
func (s Slots) Clone() Slots {
	out := make(Slots, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// IsRecognized reports whether key belongs to the fixed slot schema.
func IsRecognized(key string) bool {
	for _, k := range RequiredSlots {
		if k == key {
			return true
		}
	}
	for _, k := range OptionalSlots {
		if k == key {
			return true
		}
	}
	return false
}

// Fingerprint is a canonical snapshot of all known slot values, used for
// duplicate-search detection. Values are lowercased and trimmed; absent
// slots are omitted. Iteration follows the fixed slot order, so two equal
// slot sets always produce byte-identical fingerprints regardless of map
// layout.
type Fingerprint string

// FingerprintOf builds the fingerprint for a slot set.
func FingerprintOf(s Slots) Fingerprint {
	var b strings.Builder
	for _, key := range append(append([]string{}, RequiredSlots...), OptionalSlots...) {
		value := strings.ToLower(strings.TrimSpace(s[key]))
		if value == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('|')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(value)
	}
	return Fingerprint(b.String())
}

// Empty reports whether no slot contributed to the fingerprint.
func (f Fingerprint) Empty() bool {
	return f == ""
}
