package services

import (
	"strings"
	"testing"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/types"
)

func TestRenderHTML(t *testing.T) {
	values := map[string]string{
		"full_name":      "Jane Doe",
		"gender":         "Female",
		"marital_status": "Married",
		"consent":        "yes",
		"address":        "12 Main Street, Chennai",
	}

	out, err := RenderTemplate(types.TemplateKindHTML, []byte(sampleFormHTML), values)
	if err != nil {
		t.Fatal(err)
	}
	rendered := string(out)

	if !strings.Contains(rendered, `value="Jane Doe"`) {
		t.Error("text input value not set")
	}
	if !strings.Contains(rendered, `value="Female" selected="selected"`) {
		t.Error("select option not marked selected")
	}
	if strings.Contains(rendered, `value="Male" selected`) {
		t.Error("non-matching select option marked selected")
	}
	if !strings.Contains(rendered, `value="Married" checked="checked"`) {
		t.Error("matching radio not checked")
	}
	if strings.Contains(rendered, `value="Single" checked`) {
		t.Error("non-matching radio checked")
	}
	if !strings.Contains(rendered, `name="consent" value="yes" checked="checked"`) {
		t.Error("checkbox not checked")
	}
	if !strings.Contains(rendered, `>12 Main Street, Chennai</textarea>`) {
		t.Error("textarea content not inserted")
	}
}

func TestRenderHTMLLeavesUnresolvedAtDefault(t *testing.T) {
	out, err := RenderTemplate(types.TemplateKindHTML, []byte(sampleFormHTML), map[string]string{
		"full_name": "Jane Doe",
		"email":     "",
	})
	if err != nil {
		t.Fatal(err)
	}
	rendered := string(out)
	if strings.Contains(rendered, `name="email" value=`) {
		t.Error("unresolved email input should keep its template default")
	}
}

func TestRenderHTMLDoesNotMutateTemplate(t *testing.T) {
	src := []byte(sampleFormHTML)
	before := string(src)
	if _, err := RenderTemplate(types.TemplateKindHTML, src, map[string]string{"full_name": "Jane Doe"}); err != nil {
		t.Fatal(err)
	}
	if string(src) != before {
		t.Error("template bytes mutated in place")
	}
}

func TestRenderHTMLCaseInsensitiveOptionMatch(t *testing.T) {
	out, err := RenderTemplate(types.TemplateKindHTML, []byte(sampleFormHTML), map[string]string{"gender": "FEMALE"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `value="Female" selected="selected"`) {
		t.Error("case-insensitive option match failed")
	}
}

func TestRenderUnsupportedKind(t *testing.T) {
	if _, err := RenderTemplate("docx", []byte("x"), nil); err == nil {
		t.Error("expected error for unsupported kind")
	}
}
