package normalization

import (
	"regexp"
	"strings"
)

func ParseInputString(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

var nonKeyChars = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeKey lowers a raw field key into snake_case: "Full Name" and
// "applicant-Name" both become "full_name" / "applicant_name".
func NormalizeKey(raw string) string {
	key := nonKeyChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(raw)), "_")
	return strings.Trim(key, "_")
}

// Values that mean "no data". They never create or overwrite a canonical
// field; absence is represented by a missing key, not a placeholder string.
var absentSentinels = map[string]struct{}{
	"":     {},
	`""`:   {},
	"''":   {},
	"n/a":  {},
	"na":   {},
	"null": {},
	"none": {},
	"nil":  {},
	"-":    {},
}

func IsAbsent(value string) bool {
	_, ok := absentSentinels[strings.ToLower(strings.TrimSpace(value))]
	return ok
}
