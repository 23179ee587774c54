package services

import (
	"context"
	"strings"
	"testing"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/logger"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/types"
)

type fakeLLM struct {
	extracted map[string]string
	mapped    map[string]string
	err       error

	mapCalls     int
	lastFieldsIn string
	lastTargetIn string
}

func (f *fakeLLM) ExtractFields(ctx context.Context, documentText, languageCode string) (map[string]string, error) {
	return f.extracted, f.err
}

func (f *fakeLLM) MapFields(ctx context.Context, fieldSchemaJSON, canonicalFieldsJSON, targetLanguage string) (map[string]string, error) {
	f.mapCalls++
	f.lastFieldsIn = canonicalFieldsJSON
	f.lastTargetIn = targetLanguage
	return f.mapped, f.err
}

func testMapper(t *testing.T, llm LLMClient) *MapperService {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewMapperService(log, llm)
}

func field(name string, meta types.FieldMeta) types.FieldDef {
	return types.FieldDef{Name: name, Meta: meta}
}

func TestResolveLocalBySemanticHint(t *testing.T) {
	m := testMapper(t, nil)
	schema := types.FieldSchema{
		field("applicant", types.FieldMeta{Type: "text", SemanticHint: "full_name"}),
	}
	canonical := map[string]string{"full_name": "Jane Doe"}

	resolved, _, err := m.Resolve(context.Background(), schema, canonical, "en", "en")
	if err != nil {
		t.Fatal(err)
	}
	if resolved["applicant"] != "Jane Doe" {
		t.Errorf("applicant = %q, want Jane Doe", resolved["applicant"])
	}
}

func TestResolveLocalByNormalizedName(t *testing.T) {
	m := testMapper(t, nil)
	schema := types.FieldSchema{
		field("Date of Birth", types.FieldMeta{Type: "text", Label: "Date of Birth"}),
		field("fathersName", types.FieldMeta{Type: "text"}),
	}
	canonical := map[string]string{
		"date_of_birth": "1990-06-15",
		"father_name":   "Suresh Kumar",
	}

	resolved, _, err := m.Resolve(context.Background(), schema, canonical, "en", "en")
	if err != nil {
		t.Fatal(err)
	}
	if resolved["Date of Birth"] != "1990-06-15" {
		t.Errorf("date field = %q", resolved["Date of Birth"])
	}
	if resolved["fathersName"] != "Suresh Kumar" {
		t.Errorf("father field = %q", resolved["fathersName"])
	}
}

func TestResolveUnresolvedIsEmptyString(t *testing.T) {
	m := testMapper(t, nil)
	schema := types.FieldSchema{
		field("passport_number", types.FieldMeta{Type: "text"}),
	}

	resolved, _, err := m.Resolve(context.Background(), schema, map[string]string{"full_name": "Jane"}, "en", "en")
	if err != nil {
		t.Fatal(err)
	}
	v, present := resolved["passport_number"]
	if !present || v != "" {
		t.Errorf("unresolved field = %q (present=%v), want explicit empty string", v, present)
	}
}

func TestResolveOptionsMembership(t *testing.T) {
	m := testMapper(t, nil)
	schema := types.FieldSchema{
		field("gender", types.FieldMeta{Type: "select", Options: []string{"Male", "Female", "Other"}}),
	}

	resolved, warnings, err := m.Resolve(context.Background(), schema, map[string]string{"gender": "MALE"}, "en", "en")
	if err != nil {
		t.Fatal(err)
	}
	if resolved["gender"] != "Male" {
		t.Errorf("gender = %q, want canonical option spelling Male", resolved["gender"])
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}

	resolved, warnings, err = m.Resolve(context.Background(), schema, map[string]string{"gender": "unspecified"}, "en", "en")
	if err != nil {
		t.Fatal(err)
	}
	if resolved["gender"] != "" {
		t.Errorf("gender = %q, want discarded non-member value", resolved["gender"])
	}
	if len(warnings) == 0 {
		t.Error("expected a non-member warning")
	}
}

func TestResolveLLMNoFabrication(t *testing.T) {
	llm := &fakeLLM{mapped: map[string]string{
		"student_name":  "Jane Doe",             // traceable, accepted
		"father_income": "50000",                // fabricated, discarded
		"not_in_schema": "whatever",             // unknown field, ignored
		"blood":         "B positive maybe idk", // untraceable, discarded
	}}
	m := testMapper(t, llm)
	schema := types.FieldSchema{
		field("student_name", types.FieldMeta{Type: "text"}),
		field("father_income", types.FieldMeta{Type: "text"}),
		field("blood", types.FieldMeta{Type: "text"}),
	}
	canonical := map[string]string{"full_name": "Jane Doe", "blood_group": "B+"}

	resolved, warnings, err := m.Resolve(context.Background(), schema, canonical, "en", "en")
	if err != nil {
		t.Fatal(err)
	}
	if resolved["student_name"] != "Jane Doe" {
		t.Errorf("student_name = %q, want traceable llm value accepted", resolved["student_name"])
	}
	if resolved["father_income"] != "" {
		t.Errorf("father_income = %q, want fabricated value discarded", resolved["father_income"])
	}
	if resolved["blood"] != "" {
		t.Errorf("blood = %q, want untraceable value discarded", resolved["blood"])
	}
	if _, ok := resolved["not_in_schema"]; ok {
		t.Error("unknown llm field name written into output")
	}
	if len(warnings) < 2 {
		t.Errorf("warnings = %v, want discards reported", warnings)
	}
}

func TestResolveTranslatesLocalValues(t *testing.T) {
	llm := &fakeLLM{mapped: map[string]string{"full_name": "Jane Doe"}}
	m := testMapper(t, llm)
	schema := types.FieldSchema{
		field("full_name", types.FieldMeta{Type: "text"}),
	}
	canonical := map[string]string{"full_name": "जेन डो"}

	resolved, warnings, err := m.Resolve(context.Background(), schema, canonical, "hi", "en")
	if err != nil {
		t.Fatal(err)
	}
	if llm.mapCalls != 1 {
		t.Fatalf("mapCalls = %d, want the locally resolved value routed through the collaborator", llm.mapCalls)
	}
	if !strings.Contains(llm.lastFieldsIn, "जेन डो") {
		t.Errorf("collaborator input = %q, want the bound source value", llm.lastFieldsIn)
	}
	if llm.lastTargetIn != "en" {
		t.Errorf("target language = %q, want en", llm.lastTargetIn)
	}
	if resolved["full_name"] != "Jane Doe" {
		t.Errorf("full_name = %q, want translated value", resolved["full_name"])
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestResolveTranslationSkippedWhenLanguagesMatch(t *testing.T) {
	llm := &fakeLLM{mapped: map[string]string{"full_name": "SHOULD NOT APPEAR"}}
	m := testMapper(t, llm)
	schema := types.FieldSchema{
		field("full_name", types.FieldMeta{Type: "text"}),
	}
	canonical := map[string]string{"full_name": "Jane Doe"}

	resolved, _, err := m.Resolve(context.Background(), schema, canonical, "en", "EN")
	if err != nil {
		t.Fatal(err)
	}
	if llm.mapCalls != 0 {
		t.Errorf("mapCalls = %d, want no collaborator call for matching languages", llm.mapCalls)
	}
	if resolved["full_name"] != "Jane Doe" {
		t.Errorf("full_name = %q", resolved["full_name"])
	}
}

func TestResolveTranslationFailureKeepsOriginal(t *testing.T) {
	llm := &fakeLLM{err: context.DeadlineExceeded}
	m := testMapper(t, llm)
	schema := types.FieldSchema{
		field("full_name", types.FieldMeta{Type: "text"}),
	}
	canonical := map[string]string{"full_name": "जेन डो"}

	resolved, warnings, err := m.Resolve(context.Background(), schema, canonical, "hi", "en")
	if err != nil {
		t.Fatal(err)
	}
	if resolved["full_name"] != "जेन डो" {
		t.Errorf("full_name = %q, want untranslated value kept", resolved["full_name"])
	}
	if len(warnings) == 0 {
		t.Error("expected an untranslated-values warning")
	}
}

func TestValueTraceableRejectsPadding(t *testing.T) {
	canonical := map[string]string{"full_name": "Jane Doe", "pincode": "560001"}

	tests := []struct {
		value string
		want  bool
	}{
		{"Jane Doe", true},
		{"jane doe", true},
		{"Jane", true},
		{"Jane Doe, certified resident", false},
		{"approximately 560001", false},
		{"770012", false},
	}
	for _, tt := range tests {
		if got := valueTraceable(tt.value, canonical); got != tt.want {
			t.Errorf("valueTraceable(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestResolveLLMFailureIsNonFatal(t *testing.T) {
	llm := &fakeLLM{err: context.DeadlineExceeded}
	m := testMapper(t, llm)
	schema := types.FieldSchema{
		field("full_name", types.FieldMeta{Type: "text"}),
		field("obscure_field", types.FieldMeta{Type: "text"}),
	}
	canonical := map[string]string{"full_name": "Jane Doe"}

	resolved, warnings, err := m.Resolve(context.Background(), schema, canonical, "en", "en")
	if err != nil {
		t.Fatal(err)
	}
	if resolved["full_name"] != "Jane Doe" {
		t.Errorf("local resolution lost on llm failure: %q", resolved["full_name"])
	}
	if resolved["obscure_field"] != "" {
		t.Errorf("obscure_field = %q, want empty", resolved["obscure_field"])
	}
	if len(warnings) == 0 {
		t.Error("expected an llm-unavailable warning")
	}
}
