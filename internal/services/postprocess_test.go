package services

import "testing"

func TestCleanResolvedValuesPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"98765 43210", "+919876543210"},
		{"919876543210", "+919876543210"},
		{"+91 98765-43210", "+919876543210"},
		{"+919876543210", "+919876543210"},
	}
	for _, tc := range tests {
		cleaned, _ := CleanResolvedValues(map[string]string{"mobile_number": tc.in})
		if cleaned["mobile_number"] != tc.want {
			t.Errorf("phone %q cleaned to %q, want %q", tc.in, cleaned["mobile_number"], tc.want)
		}
	}
}

func TestCleanResolvedValuesEmail(t *testing.T) {
	_, report := CleanResolvedValues(map[string]string{"email": "not-an-email"})
	if len(report.Errors) != 1 {
		t.Errorf("errors = %v, want one invalid-email error", report.Errors)
	}
	_, report = CleanResolvedValues(map[string]string{"email": "jane@example.com"})
	if len(report.Errors) != 0 {
		t.Errorf("errors = %v, want none for valid email", report.Errors)
	}
}

func TestCleanResolvedValuesName(t *testing.T) {
	cleaned, report := CleanResolvedValues(map[string]string{"full_name": "RAVI KUMAR"})
	if cleaned["full_name"] != "Ravi Kumar" {
		t.Errorf("full_name = %q, want title case", cleaned["full_name"])
	}
	if len(report.Corrections) != 1 {
		t.Errorf("corrections = %v, want one", report.Corrections)
	}
}

func TestCleanResolvedValuesDate(t *testing.T) {
	_, report := CleanResolvedValues(map[string]string{"date_of_birth": "1990-06-15"})
	if len(report.Warnings) != 0 {
		t.Errorf("warnings = %v, want none for iso date", report.Warnings)
	}
	_, report = CleanResolvedValues(map[string]string{"date_of_birth": "15/06/1990"})
	if len(report.Warnings) != 0 {
		t.Errorf("warnings = %v, want none for d/m/y date", report.Warnings)
	}
	_, report = CleanResolvedValues(map[string]string{"date_of_birth": "June of 1990"})
	if len(report.Warnings) != 1 {
		t.Errorf("warnings = %v, want one unrecognized-format warning", report.Warnings)
	}
}

func TestCleanResolvedValuesLeavesUnresolvedAlone(t *testing.T) {
	cleaned, report := CleanResolvedValues(map[string]string{"email": ""})
	if cleaned["email"] != "" {
		t.Errorf("unresolved value changed: %q", cleaned["email"])
	}
	if len(report.Errors)+len(report.Warnings)+len(report.Corrections) != 0 {
		t.Errorf("report not empty for unresolved value: %+v", report)
	}
}
