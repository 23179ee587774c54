package services

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationReport collects the non-fatal findings of CleanResolvedValues.
// Errors flag values that look malformed; corrections record rewrites that
// were applied. Neither aborts a fill.
type ValidationReport struct {
	Errors      []string `json:"errors"`
	Warnings    []string `json:"warnings"`
	Corrections []string `json:"corrections"`
}

var (
	emailRe   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dmyDateRe = regexp.MustCompile(`^\d{1,2}[/.\-]\d{1,2}[/.\-]\d{4}$`)
	nonPhone  = regexp.MustCompile(`[^\d+]`)
)

// CleanResolvedValues runs format cleanup over resolved form values before
// rendering: phone numbers lose separators and gain a +91 prefix when bare,
// name fields are title-cased, email and date formats are checked. Returns
// a cleaned copy and the report; never fails.
func CleanResolvedValues(values map[string]string) (map[string]string, *ValidationReport) {
	cleaned := make(map[string]string, len(values))
	report := &ValidationReport{Errors: []string{}, Warnings: []string{}, Corrections: []string{}}

	for key, value := range values {
		v := strings.TrimSpace(value)
		lower := strings.ToLower(key)

		switch {
		case v == "":
			// leave unresolved fields alone

		case strings.Contains(lower, "mobile") || strings.Contains(lower, "phone"):
			if p := cleanPhoneNumber(v); p != v {
				report.Corrections = append(report.Corrections, fmt.Sprintf("%s: %q -> %q", key, v, p))
				v = p
			}

		case strings.Contains(lower, "email"):
			if !emailRe.MatchString(v) {
				report.Errors = append(report.Errors, fmt.Sprintf("%s: invalid email format %q", key, v))
			}

		case strings.Contains(lower, "date"):
			if !isoDateRe.MatchString(v) && !dmyDateRe.MatchString(v) {
				report.Warnings = append(report.Warnings, fmt.Sprintf("%s: unrecognized date format %q", key, v))
			}

		case strings.Contains(lower, "name"):
			if len(v) < 2 {
				report.Warnings = append(report.Warnings, fmt.Sprintf("%s: value is very short", key))
			}
			if titled := titleCaseName(v); titled != v {
				report.Corrections = append(report.Corrections, fmt.Sprintf("%s: %q -> %q", key, v, titled))
				v = titled
			}
		}

		cleaned[key] = v
	}
	return cleaned, report
}

func cleanPhoneNumber(phone string) string {
	c := nonPhone.ReplaceAllString(phone, "")
	if c == "" {
		return phone
	}
	if !strings.HasPrefix(c, "+") {
		if strings.HasPrefix(c, "91") && len(c) == 12 {
			c = "+" + c
		} else {
			c = "+91" + c
		}
	}
	return c
}

// titleCaseName uppercases the first letter of each space-separated word and
// lowercases the rest. All-caps OCR output like "RAVI KUMAR" becomes
// "Ravi Kumar"; initials such as "J." keep their dot.
func titleCaseName(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		if len(runes) > 0 {
			runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
