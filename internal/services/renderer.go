package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdftypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/net/html"

	apperrors "github.com/SaiDhinakar/ai-powered-form-filling/internal/pkg/errors"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/types"
)

// RenderTemplate produces a filled copy of the template content. The stored
// template is never mutated; every call yields a fresh artifact. Fields
// without a resolved value keep their template defaults.
func RenderTemplate(kind string, templateContent []byte, values map[string]string) ([]byte, error) {
	switch kind {
	case types.TemplateKindHTML:
		return renderHTML(templateContent, values)
	case types.TemplateKindPDF:
		return renderPDF(templateContent, values)
	default:
		return nil, fmt.Errorf("%w: unsupported template kind %q", apperrors.ErrInvalidArgument, kind)
	}
}

// ------------------------
// HTML rendering
// ------------------------

func renderHTML(templateContent []byte, values map[string]string) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(templateContent))
	if err != nil {
		return nil, fmt.Errorf("parse html template: %w", err)
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "input":
				fillInput(n, values)
			case "select":
				fillSelect(n, values)
			case "textarea":
				fillTextarea(n, values)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	var out bytes.Buffer
	if err := html.Render(&out, doc); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return out.Bytes(), nil
}

func elementValue(n *html.Node, values map[string]string) (string, bool) {
	name := attrValue(n, "name")
	if name == "" {
		name = attrValue(n, "id")
	}
	if name == "" {
		return "", false
	}
	v, ok := values[name]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

func fillInput(n *html.Node, values map[string]string) {
	v, ok := elementValue(n, values)
	if !ok {
		return
	}
	switch strings.ToLower(attrValue(n, "type")) {
	case "checkbox":
		if isAffirmative(v) {
			setAttr(n, "checked", "checked")
		} else {
			removeAttr(n, "checked")
		}
	case "radio":
		if strings.EqualFold(strings.TrimSpace(attrValue(n, "value")), strings.TrimSpace(v)) {
			setAttr(n, "checked", "checked")
		} else {
			removeAttr(n, "checked")
		}
	case "hidden", "submit", "button", "reset", "file", "image":
		// not fillable
	default:
		setAttr(n, "value", v)
	}
}

func fillSelect(n *html.Node, values map[string]string) {
	v, ok := elementValue(n, values)
	if !ok {
		return
	}
	var walk func(opt *html.Node)
	walk = func(opt *html.Node) {
		if opt.Type == html.ElementNode && opt.Data == "option" {
			optValue := attrValue(opt, "value")
			if optValue == "" {
				optValue = strings.TrimSpace(nodeText(opt))
			}
			if strings.EqualFold(strings.TrimSpace(optValue), strings.TrimSpace(v)) {
				setAttr(opt, "selected", "selected")
			} else {
				removeAttr(opt, "selected")
			}
		}
		for c := opt.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
}

func fillTextarea(n *html.Node, values map[string]string) {
	v, ok := elementValue(n, values)
	if !ok {
		return
	}
	// replace existing content
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: v})
}

func isAffirmative(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "true", "on", "1", "checked", "y":
		return true
	}
	return false
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			out = append(out, a)
		}
	}
	n.Attr = out
}

// ------------------------
// PDF rendering
// ------------------------

// renderPDF writes resolved values into the AcroForm field dictionaries and
// serializes a fresh document. NeedAppearances is set so viewers regenerate
// field appearances for the new values.
func renderPDF(templateContent []byte, values map[string]string) ([]byte, error) {
	ctx, err := readPDFContext(templateContent)
	if err != nil {
		return nil, err
	}

	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("pdf catalog: %w", err)
	}
	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return nil, fmt.Errorf("%w: pdf has no acroform", apperrors.ErrInvalidArgument)
	}
	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil || acroFormDict == nil {
		return nil, fmt.Errorf("dereference acroform: %w", err)
	}
	acroFormDict["NeedAppearances"] = pdftypes.Boolean(true)

	fieldDicts, err := acroFormFieldDicts(ctx)
	if err != nil {
		return nil, err
	}

	for i, dict := range fieldDicts {
		def := pdfFieldDef(ctx, dict, i)
		v, ok := values[def.Name]
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		switch def.Meta.Type {
		case "checkbox":
			if isAffirmative(v) {
				dict["V"] = pdftypes.Name("Yes")
				dict["AS"] = pdftypes.Name("Yes")
			}
		case "radio":
			dict["V"] = pdftypes.Name(strings.TrimSpace(v))
		default:
			dict["V"] = pdftypes.StringLiteral(v)
			// stale appearance streams would mask the new value
			delete(dict, "AP")
		}
	}

	var out bytes.Buffer
	if err := api.WriteContext(ctx, &out); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return out.Bytes(), nil
}
