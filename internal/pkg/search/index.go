package search

import (
	"maternity-service/internal/app/models"
	"strings"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// Index holds the normalised searchable values of one resource keyed by
// parameter name.
type Index map[string][]string

// Extract derives the index of resource from its wire document.
func Extract(resource *models.Resource) (Index, error) {
	raw, err := json.Marshal(resource)
	if err != nil {
		return nil, err
	}
	return ExtractRaw(resource.ResourceType, raw), nil
}

func ExtractRaw(resourceType string, raw []byte) Index {
	index := make(Index)
	for _, definition := range Definitions(resourceType) {
		values := extractValues(definition, raw)
		if len(values) > 0 {
			index[definition.Name] = values
		}
	}
	return index
}

func extractValues(definition Definition, raw []byte) []string {
	seen := make(map[string]struct{})
	var values []string
	add := func(value string) {
		if value == "" {
			return
		}
		if _, ok := seen[value]; ok {
			return
		}
		seen[value] = struct{}{}
		values = append(values, value)
	}

	for _, path := range definition.Paths {
		result := gjson.GetBytes(raw, path)
		forEachLeaf(result, func(leaf gjson.Result) {
			switch definition.Kind {
			case KindExact:
				add(leaf.String())
			case KindReference:
				add(models.CanonicalReference(leaf.String(), definition.TargetType))
			case KindToken:
				for _, token := range tokenValues(leaf) {
					add(token)
				}
			case KindDate:
				if normalized, ok := normalizeDate(leaf.String()); ok {
					add(normalized)
				}
			case KindText:
				add(strings.ToLower(textValue(leaf)))
			}
		})
	}
	return values
}

// forEachLeaf flattens nested arrays produced by "#" paths.
func forEachLeaf(result gjson.Result, fn func(gjson.Result)) {
	if !result.Exists() {
		return
	}
	if result.IsArray() {
		result.ForEach(func(_, value gjson.Result) bool {
			forEachLeaf(value, fn)
			return true
		})
		return
	}
	if result.Type == gjson.Null {
		return
	}
	fn(result)
}

// tokenValues indexes a Coding, Identifier or plain code under the bare
// code, "system|code" and "system|".
func tokenValues(leaf gjson.Result) []string {
	if !leaf.IsObject() {
		return []string{leaf.String()}
	}
	if coding := leaf.Get("coding"); coding.Exists() {
		var tokens []string
		forEachLeaf(coding, func(nested gjson.Result) {
			tokens = append(tokens, tokenValues(nested)...)
		})
		return tokens
	}
	code := leaf.Get("code").String()
	if code == "" {
		code = leaf.Get("value").String()
	}
	if code == "" {
		return nil
	}
	tokens := []string{code}
	if system := leaf.Get("system").String(); system != "" {
		tokens = append(tokens, system+"|"+code, system+"|")
	}
	return tokens
}

// textValue flattens HumanName style objects into a single searchable line.
func textValue(leaf gjson.Result) string {
	if !leaf.IsObject() {
		return leaf.String()
	}
	if text := leaf.Get("text").String(); text != "" {
		return text
	}
	var parts []string
	for _, key := range []string{"prefix", "given", "family", "suffix"} {
		forEachLeaf(leaf.Get(key), func(part gjson.Result) {
			parts = append(parts, part.String())
		})
	}
	return strings.Join(parts, " ")
}
