package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/logger"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/normalization"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/types"
)

// MapperService resolves a template's field schema against an entity's
// canonical fields. Resolution is local first (semantic hints and
// normalized field names), then delegates the leftovers to the LLM; the
// collaborator's output is validated before any of it is accepted. Fields
// that resolve to nothing stay as explicit empty strings.
type MapperService struct {
	log *logger.Logger
	llm LLMClient
}

func NewMapperService(log *logger.Logger, llm LLMClient) *MapperService {
	return &MapperService{log: log, llm: llm}
}

// Resolve maps every schema field to a value, in schema order. The returned
// map has one entry per schema field; unresolved fields map to "".
func (s *MapperService) Resolve(ctx context.Context, schema types.FieldSchema, canonical map[string]string, recordLanguage, targetLanguage string) (map[string]string, []string, error) {
	resolved := make(map[string]string, len(schema))
	warnings := []string{}

	unresolvedDefs := []types.FieldDef{}
	localDefs := []types.FieldDef{}
	for _, def := range schema {
		value, ok := s.resolveLocal(def, canonical)
		if ok {
			if v, warn := enforceOptions(def, value); warn != "" {
				warnings = append(warnings, warn)
				resolved[def.Name] = v
				if v == "" {
					unresolvedDefs = append(unresolvedDefs, def)
				}
			} else {
				resolved[def.Name] = v
				localDefs = append(localDefs, def)
			}
			continue
		}
		resolved[def.Name] = ""
		unresolvedDefs = append(unresolvedDefs, def)
	}

	if len(unresolvedDefs) > 0 && len(canonical) > 0 && s.llm != nil {
		llmWarnings, err := s.resolveWithLLM(ctx, unresolvedDefs, canonical, targetLanguage, resolved)
		if err != nil {
			// best effort: local resolution stands, LLM failure is non-fatal
			s.log.Warn("llm field mapping failed, falling back to local resolution", "error", err)
			warnings = append(warnings, fmt.Sprintf("llm mapping unavailable: %d fields left unresolved", len(unresolvedDefs)))
		} else {
			warnings = append(warnings, llmWarnings...)
		}
	}

	if needsTranslation(recordLanguage, targetLanguage) && len(localDefs) > 0 {
		if s.llm == nil {
			warnings = append(warnings, fmt.Sprintf("record language %q differs from target %q; values passed through untranslated", recordLanguage, targetLanguage))
		} else if tw, err := s.translateResolved(ctx, localDefs, targetLanguage, resolved); err != nil {
			s.log.Warn("llm translation failed, values passed through untranslated", "error", err)
			warnings = append(warnings, fmt.Sprintf("record language %q differs from target %q; translation unavailable, values passed through untranslated", recordLanguage, targetLanguage))
		} else {
			warnings = append(warnings, tw...)
		}
	}

	return resolved, warnings, nil
}

func needsTranslation(recordLanguage, targetLanguage string) bool {
	return recordLanguage != "" && targetLanguage != "" && !strings.EqualFold(recordLanguage, targetLanguage)
}

// resolveLocal tries the field's semantic hint, then its normalized
// name/label, against the canonical fields.
func (s *MapperService) resolveLocal(def types.FieldDef, canonical map[string]string) (string, bool) {
	candidates := []string{}
	if hint := strings.TrimSpace(def.Meta.SemanticHint); hint != "" {
		candidates = append(candidates, normalization.NormalizeKey(hint))
	}
	candidates = append(candidates, normalization.SemanticKey(def.Name, def.Meta.Label))

	for _, key := range candidates {
		if key == "" {
			continue
		}
		if v, ok := canonical[key]; ok && !normalization.IsAbsent(v) {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// resolveWithLLM asks the collaborator to map the remaining fields and
// applies the post-hoc validation pass: values must be traceable to the
// canonical data (no fabrication) and constrained fields must land on a
// declared option. Accepted values are written into resolved.
func (s *MapperService) resolveWithLLM(ctx context.Context, defs []types.FieldDef, canonical map[string]string, targetLanguage string, resolved map[string]string) ([]string, error) {
	schemaJSON, err := json.Marshal(defs)
	if err != nil {
		return nil, err
	}
	canonicalJSON, err := json.Marshal(canonical)
	if err != nil {
		return nil, err
	}

	mapped, err := s.llm.MapFields(ctx, string(schemaJSON), string(canonicalJSON), targetLanguage)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]types.FieldDef, len(defs))
	for _, d := range defs {
		byName[d.Name] = d
	}

	warnings := []string{}
	for name, value := range mapped {
		def, ok := byName[name]
		if !ok {
			s.log.Warn("llm returned unknown field name", "field", name)
			continue
		}
		v := strings.TrimSpace(value)
		if normalization.IsAbsent(v) {
			continue
		}
		if !valueTraceable(v, canonical) {
			warnings = append(warnings, fmt.Sprintf("%s: discarded untraceable value %q", name, v))
			continue
		}
		if checked, warn := enforceOptions(def, v); warn != "" {
			warnings = append(warnings, warn)
			continue
		} else {
			v = checked
		}
		resolved[name] = v
	}
	return warnings, nil
}

// translateResolved re-maps values that already resolved locally when the
// record and target languages differ. Only the bound name/value pairs are
// handed to the collaborator, so every returned value is anchored to a known
// source field; option membership is still enforced, since a translation of
// a constrained value must land on a declared option. A field the
// collaborator skips, or whose translation misses its options, keeps the
// untranslated value.
func (s *MapperService) translateResolved(ctx context.Context, defs []types.FieldDef, targetLanguage string, resolved map[string]string) ([]string, error) {
	source := make(map[string]string, len(defs))
	for _, d := range defs {
		if v := resolved[d.Name]; v != "" {
			source[d.Name] = v
		}
	}
	if len(source) == 0 {
		return nil, nil
	}

	schemaJSON, err := json.Marshal(defs)
	if err != nil {
		return nil, err
	}
	sourceJSON, err := json.Marshal(source)
	if err != nil {
		return nil, err
	}
	mapped, err := s.llm.MapFields(ctx, string(schemaJSON), string(sourceJSON), targetLanguage)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]types.FieldDef, len(defs))
	for _, d := range defs {
		byName[d.Name] = d
	}

	warnings := []string{}
	for name, value := range mapped {
		def, ok := byName[name]
		if !ok {
			s.log.Warn("llm translation returned unknown field name", "field", name)
			continue
		}
		if _, sent := source[name]; !sent {
			continue
		}
		v := strings.TrimSpace(value)
		if normalization.IsAbsent(v) {
			continue
		}
		if checked, warn := enforceOptions(def, v); warn != "" {
			warnings = append(warnings, warn+" (translation kept original)")
			continue
		} else {
			v = checked
		}
		resolved[name] = v
	}
	return warnings, nil
}

// valueTraceable reports whether value plausibly derives from the canonical
// data: an exact (case-insensitive) match against some canonical value, or
// a piece of one for values the collaborator reformatted down. A value that
// merely wraps a canonical value in extra text is fabricated padding and
// does not count.
func valueTraceable(value string, canonical map[string]string) bool {
	lv := strings.ToLower(strings.TrimSpace(value))
	if lv == "" {
		return false
	}
	for _, cv := range canonical {
		lc := strings.ToLower(strings.TrimSpace(cv))
		if lc == "" {
			continue
		}
		if lc == lv || strings.Contains(lc, lv) {
			return true
		}
	}
	return false
}

// enforceOptions checks a constrained-choice field's value against its
// declared options, case-insensitively, and returns the canonical option
// spelling. Non-member values are discarded with a warning.
func enforceOptions(def types.FieldDef, value string) (string, string) {
	if len(def.Meta.Options) == 0 {
		return value, ""
	}
	for _, opt := range def.Meta.Options {
		if strings.EqualFold(strings.TrimSpace(opt), strings.TrimSpace(value)) {
			return opt, ""
		}
	}
	return "", fmt.Sprintf("%s: value %q not among declared options, left unresolved", def.Name, value)
}
