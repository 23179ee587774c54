package services

import (
	"testing"
)

func TestNormalizeExtractedFields(t *testing.T) {
	raw := map[string]string{
		"Name":          "RAVI KUMAR",
		"Father's Name": "SURESH KUMAR",
		"DOB":           "01/01/1990",
		"Aadhaar No":    "1234 5678 9012",
		"Gender":        "MALE",
		"Spouse Name":   "N/A",
		"Address":       "",
	}

	got := NormalizeExtractedFields(raw)

	want := map[string]string{
		"full_name":      "RAVI KUMAR",
		"father_name":    "SURESH KUMAR",
		"date_of_birth":  "01/01/1990",
		"aadhaar_number": "1234 5678 9012",
		"gender":         "MALE",
	}
	if len(got) != len(want) {
		t.Fatalf("field count = %d, want %d: %v", len(got), len(want), got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("field %q = %q, want %q", k, got[k], v)
		}
	}
	if _, ok := got["spouse_name"]; ok {
		t.Errorf("absent sentinel value should have been dropped")
	}
}

func TestNormalizeExtractedFieldsCollisionDeterministic(t *testing.T) {
	raw := map[string]string{
		"DOB":           "01/01/1990",
		"Date of Birth": "02/02/1992",
	}
	first := NormalizeExtractedFields(raw)
	for i := 0; i < 50; i++ {
		again := NormalizeExtractedFields(raw)
		if again["date_of_birth"] != first["date_of_birth"] {
			t.Fatalf("collision resolution not deterministic: %q vs %q", again["date_of_birth"], first["date_of_birth"])
		}
	}
	// "DOB" sorts before "Date of Birth", so its value wins the collision.
	if first["date_of_birth"] != "01/01/1990" {
		t.Errorf("date_of_birth = %q, want first sorted raw key's value %q", first["date_of_birth"], "01/01/1990")
	}
}
