package workflow

import "regexp"

// Row is one dataset row: column name to value. A nil value is a null
// cell, rendered as the literal "null" on substitution.
type Row map[string]*string

// paramPattern matches ${data.key} placeholders.
var paramPattern = regexp.MustCompile(`\$\{data\.([^}]+)\}`)

// SubstituteParams replaces every ${data.key} occurrence whose key exists
// in the row. Keys absent from the row are left byte-for-byte unchanged,
// which makes the transform idempotent on unresolved placeholders: a
// second pass over the same row yields the identical string, and a later
// pass over a richer row can still resolve them.
//
// This is a pure text transform, not a security boundary: values pass
// through unescaped.
func SubstituteParams(template string, row Row) string {
	if row == nil {
		return template
	}
	return paramPattern.ReplaceAllStringFunc(template, func(match string) string {
		// Strip "${data." prefix and "}" suffix.
		key := match[7 : len(match)-1]
		value, ok := row[key]
		if !ok {
			return match
		}
		if value == nil {
			return "null"
		}
		return *value
	})
}

// ParamRefs returns the placeholder keys referenced in a template string,
// in order of appearance.
func ParamRefs(template string) []string {
	matches := paramPattern.FindAllStringSubmatch(template, -1)
	if len(matches) == 0 {
		return nil
	}
	refs := make([]string, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, m[1])
	}
	return refs
}
