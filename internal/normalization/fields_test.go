package normalization

import "testing"

func TestSemanticKey(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		label string
		want  string
	}{
		{name: "plain_name", key: "Full Name", want: "full_name"},
		{name: "applicant_name", key: "applicant_name", want: "full_name"},
		{name: "father_before_name", key: "Father's Name", want: "father_name"},
		{name: "father_after_name", key: "Name of Father", want: "father_name"},
		{name: "father_after_name_with_article", key: "Name of the Father", want: "father_name"},
		{name: "mother_label_only", key: "field_7", label: "Mother Name", want: "mother_name"},
		{name: "mother_after_name", key: "Name of Mother", want: "mother_name"},
		{name: "spouse_after_name", key: "Name of Spouse", want: "spouse_name"},
		{name: "guardian_after_name", key: "name_of_guardian", want: "guardian_name"},
		{name: "aadhaar_spelling_variant", key: "Aadhar No", want: "aadhaar_number"},
		{name: "uid_alias", key: "UID", want: "aadhaar_number"},
		{name: "pan", key: "PAN Number", want: "pan_number"},
		{name: "mobile", key: "Contact No", want: "mobile_number"},
		{name: "email_hyphenated", key: "E-Mail Address", want: "email"},
		{name: "dob_abbrev", key: "DOB", want: "date_of_birth"},
		{name: "dob_spelled", key: "Date of Birth", want: "date_of_birth"},
		{name: "district_not_sub_district", key: "District", want: "district"},
		{name: "sub_district", key: "Taluk", want: "sub_district"},
		{name: "pincode", key: "PIN Code", want: "pincode"},
		{name: "address_component_first", key: "House No", want: "house_number"},
		{name: "unknown_falls_back_snake_case", key: "Regimental Number X", want: "regimental_number_x"},
		{name: "empty_key_uses_label", key: "", label: "Blood Group", want: "blood_group"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SemanticKey(tc.key, tc.label)
			if got != tc.want {
				t.Fatalf("SemanticKey(%q, %q)=%q, want %q", tc.key, tc.label, got, tc.want)
			}
		})
	}
}

func TestSemanticKeyDeterministic(t *testing.T) {
	first := SemanticKey("Fathers Name", "name of father")
	for i := 0; i < 100; i++ {
		if got := SemanticKey("Fathers Name", "name of father"); got != first {
			t.Fatalf("SemanticKey not deterministic: %q then %q", first, got)
		}
	}
}

func TestNormalizeKey(t *testing.T) {
	cases := map[string]string{
		"Full Name":        "full_name",
		"  applicant-Name": "applicant_name",
		"PAN (Number)":     "pan_number",
		"___":              "",
	}
	for in, want := range cases {
		if got := NormalizeKey(in); got != want {
			t.Errorf("NormalizeKey(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestIsAbsent(t *testing.T) {
	absent := []string{"", "   ", "N/A", "n/a", `""`, "null", "NONE", "-", "\t"}
	for _, v := range absent {
		if !IsAbsent(v) {
			t.Errorf("IsAbsent(%q)=false, want true", v)
		}
	}
	present := []string{"0", "Jane Doe", "N/A extra", "no"}
	for _, v := range present {
		if IsAbsent(v) {
			t.Errorf("IsAbsent(%q)=true, want false", v)
		}
	}
}
