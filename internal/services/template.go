package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	pdftypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/net/html"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/normalization"
	apperrors "github.com/SaiDhinakar/ai-powered-form-filling/internal/pkg/errors"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/types"
)

// ParseFieldSchema extracts the ordered fillable field schema from an
// uploaded template. kind is one of the template kinds; the schema is
// parsed once on upload and persisted alongside the template.
func ParseFieldSchema(kind string, data []byte) (types.FieldSchema, error) {
	switch kind {
	case types.TemplateKindHTML:
		return parseHTMLSchema(data)
	case types.TemplateKindPDF:
		return parsePDFSchema(data)
	default:
		return nil, fmt.Errorf("%w: unsupported template kind %q", apperrors.ErrInvalidArgument, kind)
	}
}

// DetectTemplateKind sniffs the template kind from content.
func DetectTemplateKind(originalName string, data []byte) (string, error) {
	if isPDF(data) {
		return types.TemplateKindPDF, nil
	}
	if looksLikeHTML(data) || strings.HasSuffix(strings.ToLower(originalName), ".html") || strings.HasSuffix(strings.ToLower(originalName), ".htm") {
		return types.TemplateKindHTML, nil
	}
	return "", fmt.Errorf("%w: template must be html or a pdf form", apperrors.ErrInvalidArgument)
}

// ------------------------
// HTML templates
// ------------------------

func parseHTMLSchema(data []byte) (types.FieldSchema, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse html template: %w", err)
	}

	labels := collectLabels(doc)
	schema := types.FieldSchema{}
	seen := map[string]int{}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "input", "select", "textarea":
				def, ok := fieldDefFromElement(n, labels)
				if ok {
					if idx, dup := seen[def.Name]; dup {
						// radio groups share a name; fold values into options
						mergeRadioOption(&schema[idx], n)
					} else {
						seen[def.Name] = len(schema)
						schema = append(schema, def)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(schema) == 0 {
		return nil, fmt.Errorf("%w: template has no fillable fields", apperrors.ErrInvalidArgument)
	}
	return schema, nil
}

func fieldDefFromElement(n *html.Node, labels map[string]string) (types.FieldDef, bool) {
	name := attrValue(n, "name")
	if name == "" {
		name = attrValue(n, "id")
	}
	if name == "" {
		return types.FieldDef{}, false
	}

	meta := types.FieldMeta{Type: "text"}
	switch n.Data {
	case "textarea":
		meta.Type = "textarea"
	case "select":
		meta.Type = "select"
		meta.Options = selectOptions(n)
	case "input":
		switch strings.ToLower(attrValue(n, "type")) {
		case "checkbox":
			meta.Type = "checkbox"
		case "radio":
			meta.Type = "radio"
			if v := attrValue(n, "value"); v != "" {
				meta.Options = []string{v}
			}
		case "hidden", "submit", "button", "reset", "file", "image":
			return types.FieldDef{}, false
		case "":
			meta.Type = "text"
		default:
			meta.Type = strings.ToLower(attrValue(n, "type"))
		}
	}

	if _, ok := attrLookup(n, "required"); ok {
		meta.Required = true
	}
	if id := attrValue(n, "id"); id != "" {
		meta.Label = labels[id]
	}
	if hint := attrValue(n, "data-semantic"); hint != "" {
		meta.SemanticHint = normalization.NormalizeKey(hint)
	} else {
		meta.SemanticHint = normalization.SemanticKey(name, meta.Label)
	}

	return types.FieldDef{Name: name, Meta: meta}, true
}

func mergeRadioOption(def *types.FieldDef, n *html.Node) {
	if def.Meta.Type != "radio" {
		return
	}
	v := attrValue(n, "value")
	if v == "" {
		return
	}
	for _, opt := range def.Meta.Options {
		if opt == v {
			return
		}
	}
	def.Meta.Options = append(def.Meta.Options, v)
}

func selectOptions(sel *html.Node) []string {
	opts := []string{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "option" {
			v := attrValue(n, "value")
			if v == "" {
				v = strings.TrimSpace(nodeText(n))
			}
			if v != "" {
				opts = append(opts, v)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(sel)
	return opts
}

// collectLabels maps element ids to their <label for=...> text.
func collectLabels(doc *html.Node) map[string]string {
	labels := map[string]string{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "label" {
			if forID := attrValue(n, "for"); forID != "" {
				labels[forID] = strings.TrimSpace(nodeText(n))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return labels
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attrValue(n *html.Node, key string) string {
	v, _ := attrLookup(n, key)
	return v
}

func attrLookup(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// ------------------------
// PDF form templates
// ------------------------

func parsePDFSchema(data []byte) (types.FieldSchema, error) {
	ctx, err := readPDFContext(data)
	if err != nil {
		return nil, err
	}

	fieldDicts, err := acroFormFieldDicts(ctx)
	if err != nil {
		return nil, err
	}
	if len(fieldDicts) == 0 {
		return nil, fmt.Errorf("%w: pdf has no acroform fields", apperrors.ErrInvalidArgument)
	}

	schema := types.FieldSchema{}
	for i, dict := range fieldDicts {
		def := pdfFieldDef(ctx, dict, i)
		if def.Name != "" {
			schema = append(schema, def)
		}
	}
	return schema, nil
}

func readPDFContext(data []byte) (*model.Context, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("read pdf pages: %w", err)
	}
	return ctx, nil
}

// acroFormFieldDicts resolves the document's AcroForm field dictionaries.
func acroFormFieldDicts(ctx *model.Context) ([]pdftypes.Dict, error) {
	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("pdf catalog: %w", err)
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return nil, nil
	}
	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return nil, fmt.Errorf("dereference acroform: %w", err)
	}
	if acroFormDict == nil {
		return nil, nil
	}

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return nil, nil
	}
	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, fmt.Errorf("dereference acroform fields: %w", err)
	}

	dicts := []pdftypes.Dict{}
	for _, fieldRef := range fieldsArray {
		dict, derr := ctx.DereferenceDict(fieldRef)
		if derr != nil || dict == nil {
			continue
		}
		dicts = append(dicts, dict)
	}
	return dicts, nil
}

func pdfFieldDef(ctx *model.Context, dict pdftypes.Dict, index int) types.FieldDef {
	meta := types.FieldMeta{Type: "text"}

	name := ""
	if nameObj, found := dict.Find("T"); found {
		if n, err := ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil); err == nil {
			name = n
		}
	}
	if name == "" {
		name = fmt.Sprintf("field_%d", index)
	}

	if labelObj, found := dict.Find("TU"); found {
		if label, err := ctx.DereferenceStringOrHexLiteral(labelObj, model.V10, nil); err == nil {
			meta.Label = label
		}
	}

	var flags int64
	if flagsObj, found := dict.Find("Ff"); found {
		if f, err := ctx.DereferenceInteger(flagsObj); err == nil && f != nil {
			flags = int64(*f)
		}
	}
	meta.Required = flags&2 != 0 // bit 2

	if ftObj, found := dict.Find("FT"); found {
		if ft, err := ctx.DereferenceName(ftObj, model.V10, nil); err == nil {
			switch ft {
			case "Tx":
				meta.Type = "text"
			case "Ch":
				meta.Type = "select"
				meta.Options = pdfFieldOptions(ctx, dict)
			case "Btn":
				if flags&(1<<15) != 0 { // bit 16: radio group
					meta.Type = "radio"
					meta.Options = pdfFieldOptions(ctx, dict)
				} else {
					meta.Type = "checkbox"
				}
			}
		}
	}

	meta.SemanticHint = normalization.SemanticKey(name, meta.Label)
	return types.FieldDef{Name: name, Meta: meta}
}

func pdfFieldOptions(ctx *model.Context, dict pdftypes.Dict) []string {
	optObj, found := dict.Find("Opt")
	if !found {
		return nil
	}
	optArray, err := ctx.DereferenceArray(optObj)
	if err != nil {
		return nil
	}
	options := []string{}
	for _, opt := range optArray {
		if s, serr := ctx.DereferenceStringOrHexLiteral(opt, model.V10, nil); serr == nil {
			options = append(options, s)
			continue
		}
		// [export_value, display_value] pairs
		if arr, aerr := ctx.DereferenceArray(opt); aerr == nil && len(arr) >= 1 {
			if s, serr := ctx.DereferenceStringOrHexLiteral(arr[0], model.V10, nil); serr == nil {
				options = append(options, s)
			}
		}
	}
	return options
}
