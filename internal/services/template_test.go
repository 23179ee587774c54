package services

import (
	"testing"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/types"
)

const sampleFormHTML = `<!DOCTYPE html>
<html>
<body>
  <form>
    <label for="name">Full Name:</label>
    <input type="text" id="name" name="full_name" required>

    <label for="email">Email:</label>
    <input type="email" id="email" name="email">

    <label for="dob">Date of Birth:</label>
    <input type="date" id="dob" name="dob">

    <label for="gender">Gender:</label>
    <select id="gender" name="gender">
      <option value="">Select</option>
      <option value="Male">Male</option>
      <option value="Female">Female</option>
      <option value="Other">Other</option>
    </select>

    <input type="radio" name="marital_status" value="Single"> Single
    <input type="radio" name="marital_status" value="Married"> Married

    <input type="checkbox" name="consent" value="yes"> I agree

    <label for="addr">Address:</label>
    <textarea id="addr" name="address"></textarea>

    <input type="hidden" name="csrf" value="token">
    <input type="submit" value="Submit">
  </form>
</body>
</html>`

func TestParseHTMLSchema(t *testing.T) {
	schema, err := ParseFieldSchema(types.TemplateKindHTML, []byte(sampleFormHTML))
	if err != nil {
		t.Fatal(err)
	}

	byName := map[string]types.FieldDef{}
	order := []string{}
	for _, def := range schema {
		byName[def.Name] = def
		order = append(order, def.Name)
	}

	wantOrder := []string{"full_name", "email", "dob", "gender", "marital_status", "consent", "address"}
	if len(order) != len(wantOrder) {
		t.Fatalf("field order = %v, want %v", order, wantOrder)
	}
	for i := range wantOrder {
		if order[i] != wantOrder[i] {
			t.Fatalf("field order = %v, want %v", order, wantOrder)
		}
	}

	name := byName["full_name"]
	if !name.Meta.Required {
		t.Error("full_name should be required")
	}
	if name.Meta.Label != "Full Name:" {
		t.Errorf("full_name label = %q", name.Meta.Label)
	}
	if name.Meta.SemanticHint != "full_name" {
		t.Errorf("full_name hint = %q", name.Meta.SemanticHint)
	}

	gender := byName["gender"]
	if gender.Meta.Type != "select" {
		t.Errorf("gender type = %q", gender.Meta.Type)
	}
	wantOpts := []string{"Male", "Female", "Other"}
	if len(gender.Meta.Options) != len(wantOpts) {
		t.Fatalf("gender options = %v, want %v", gender.Meta.Options, wantOpts)
	}
	for i := range wantOpts {
		if gender.Meta.Options[i] != wantOpts[i] {
			t.Errorf("gender options = %v, want %v", gender.Meta.Options, wantOpts)
		}
	}

	marital := byName["marital_status"]
	if marital.Meta.Type != "radio" {
		t.Errorf("marital_status type = %q", marital.Meta.Type)
	}
	if len(marital.Meta.Options) != 2 || marital.Meta.Options[0] != "Single" || marital.Meta.Options[1] != "Married" {
		t.Errorf("marital_status options = %v", marital.Meta.Options)
	}

	if byName["dob"].Meta.SemanticHint != "date_of_birth" {
		t.Errorf("dob hint = %q", byName["dob"].Meta.SemanticHint)
	}

	if _, ok := byName["csrf"]; ok {
		t.Error("hidden input should not appear in schema")
	}
}

func TestParseHTMLSchemaDataSemanticOverride(t *testing.T) {
	src := `<form><input type="text" name="applicant" data-semantic="Full Name"></form>`
	schema, err := ParseFieldSchema(types.TemplateKindHTML, []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(schema) != 1 {
		t.Fatalf("schema = %v", schema)
	}
	if schema[0].Meta.SemanticHint != "full_name" {
		t.Errorf("hint = %q, want normalized data-semantic attribute", schema[0].Meta.SemanticHint)
	}
}

func TestParseHTMLSchemaNoFields(t *testing.T) {
	if _, err := ParseFieldSchema(types.TemplateKindHTML, []byte("<html><body><p>nothing here</p></body></html>")); err == nil {
		t.Error("expected error for template without fields")
	}
}

func TestDetectTemplateKind(t *testing.T) {
	if k, err := DetectTemplateKind("form.html", []byte("<!DOCTYPE html><html></html>")); err != nil || k != types.TemplateKindHTML {
		t.Errorf("kind = %q, err = %v", k, err)
	}
	if k, err := DetectTemplateKind("form.pdf", []byte("%PDF-1.7 rest")); err != nil || k != types.TemplateKindPDF {
		t.Errorf("kind = %q, err = %v", k, err)
	}
	if _, err := DetectTemplateKind("form.xlsx", []byte{0x50, 0x4B, 0x03, 0x04}); err == nil {
		t.Error("expected error for unsupported template content")
	}
}
