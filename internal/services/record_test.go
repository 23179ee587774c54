package services

import (
	"reflect"
	"testing"
	"time"
)

func TestMergeFieldsFirstWriteWins(t *testing.T) {
	existing := map[string]string{"full_name": "A"}
	merged, updated := MergeFields(existing, map[string]string{"full_name": "B"})

	if merged["full_name"] != "A" {
		t.Errorf("full_name = %q, want existing value %q kept", merged["full_name"], "A")
	}
	if len(updated) != 0 {
		t.Errorf("updated = %v, want no writes", updated)
	}
}

func TestMergeFieldsGapFilling(t *testing.T) {
	merged, updated := MergeFields(map[string]string{}, map[string]string{"full_name": "B"})

	if merged["full_name"] != "B" {
		t.Errorf("full_name = %q, want %q", merged["full_name"], "B")
	}
	if !reflect.DeepEqual(updated, []string{"full_name"}) {
		t.Errorf("updated = %v, want [full_name]", updated)
	}
}

func TestMergeFieldsSentinelsNeverEnter(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"empty", ""},
		{"na", "N/A"},
		{"quoted empty", `""`},
		{"null", "null"},
		{"dash", "-"},
		{"whitespace", "   "},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			merged, updated := MergeFields(map[string]string{}, map[string]string{"email": tc.value})
			if _, ok := merged["email"]; ok {
				t.Errorf("sentinel %q was merged as a value", tc.value)
			}
			if len(updated) != 0 {
				t.Errorf("updated = %v, want empty", updated)
			}
		})
	}
}

func TestMergeFieldsSentinelReplacedByRealValue(t *testing.T) {
	// A sentinel that somehow got persisted must not block a real value.
	existing := map[string]string{"email": "N/A"}
	merged, _ := MergeFields(existing, map[string]string{"email": "jane@example.com"})
	if merged["email"] != "jane@example.com" {
		t.Errorf("email = %q, want real value to replace sentinel", merged["email"])
	}
}

func TestMergeFieldsUnion(t *testing.T) {
	a, _ := MergeFields(map[string]string{}, map[string]string{"full_name": "Jane Doe", "email": ""})
	if !reflect.DeepEqual(a, map[string]string{"full_name": "Jane Doe"}) {
		t.Fatalf("after first merge: %v", a)
	}
	b, updated := MergeFields(a, map[string]string{"full_name": "J. Doe", "mobile_number": "555-0100"})
	want := map[string]string{"full_name": "Jane Doe", "mobile_number": "555-0100"}
	if !reflect.DeepEqual(b, want) {
		t.Fatalf("after second merge: %v, want %v", b, want)
	}
	if !reflect.DeepEqual(updated, []string{"mobile_number"}) {
		t.Errorf("updated = %v, want [mobile_number]", updated)
	}
}

func TestDeriveAge(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		fields  map[string]string
		wantAge string
		wantOK  bool
	}{
		{
			name:    "iso date",
			fields:  map[string]string{"date_of_birth": "1990-06-15"},
			wantAge: "34",
			wantOK:  true,
		},
		{
			name:    "day first slash",
			fields:  map[string]string{"date_of_birth": "15/06/1990"},
			wantAge: "34",
			wantOK:  true,
		},
		{
			name:    "birthday already passed this year",
			fields:  map[string]string{"date_of_birth": "2000-01-01"},
			wantAge: "25",
			wantOK:  true,
		},
		{
			name:   "unparseable date leaves age unset",
			fields: map[string]string{"date_of_birth": "sometime in 1990"},
			wantOK: false,
		},
		{
			name:    "existing age not overwritten",
			fields:  map[string]string{"date_of_birth": "1990-06-15", "age": "40"},
			wantAge: "40",
			wantOK:  false,
		},
		{
			name:   "no dob",
			fields: map[string]string{"full_name": "Jane"},
			wantOK: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			key, ok := DeriveAge(tc.fields, now)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if ok && key != "age" {
				t.Errorf("key = %q, want age", key)
			}
			if tc.wantAge != "" && tc.fields["age"] != tc.wantAge {
				t.Errorf("age = %q, want %q", tc.fields["age"], tc.wantAge)
			}
			if tc.wantAge == "" {
				if _, present := tc.fields["age"]; present {
					t.Errorf("age unexpectedly set to %q", tc.fields["age"])
				}
			}
		})
	}
}

func TestMergeFieldsIdempotent(t *testing.T) {
	extracted := map[string]string{"full_name": "Jane Doe", "gender": "female"}
	once, _ := MergeFields(map[string]string{}, extracted)
	twice, updated := MergeFields(once, extracted)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second merge changed record: %v vs %v", once, twice)
	}
	if len(updated) != 0 {
		t.Errorf("second merge reported writes: %v", updated)
	}
}
