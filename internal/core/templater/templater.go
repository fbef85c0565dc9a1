// Package templater substitutes ${key} placeholders in resource files.
package templater

import (
	"fmt"
	"strings"
)

// TemplateKeyMissingError is returned when a placeholder has no value.
type TemplateKeyMissingError struct {
	File string
	Key  string
	Line int
}

func (e *TemplateKeyMissingError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("template key missing: ${%s} in %s:%d has no value", e.Key, e.File, e.Line)
	}
	return fmt.Sprintf("template key missing: ${%s} on line %d has no value", e.Key, e.Line)
}

// Expand replaces every ${key} in text with values[key]. "$$" produces a
// literal "$", and a "$" that does not start a placeholder is kept as is.
// Values that are never referenced are ignored.
func Expand(text string, values map[string]string) (string, error) {
	if !strings.Contains(text, "$") {
		return text, nil
	}

	var out strings.Builder
	out.Grow(len(text))
	line := 1
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch == '\n' {
			line++
		}
		if ch != '$' || i+1 >= len(text) {
			out.WriteByte(ch)
			continue
		}
		if text[i+1] == '$' {
			out.WriteByte('$')
			i++
			continue
		}
		key, width, ok := placeholderAt(text, i)
		if !ok {
			out.WriteByte(ch)
			continue
		}
		value, found := values[key]
		if !found {
			return "", &TemplateKeyMissingError{Key: key, Line: line}
		}
		out.WriteString(value)
		i += width - 1
	}
	return out.String(), nil
}

// Placeholders lists the distinct keys referenced by text, in order of first use.
func Placeholders(text string) []string {
	var keys []string
	seen := make(map[string]bool)
	for i := 0; i+1 < len(text); i++ {
		if text[i] != '$' {
			continue
		}
		if text[i+1] == '$' {
			i++
			continue
		}
		key, width, ok := placeholderAt(text, i)
		if !ok {
			continue
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
		i += width - 1
	}
	return keys
}

// placeholderAt parses a ${key} starting at text[i] and returns the key and
// the placeholder's total width in bytes.
func placeholderAt(text string, i int) (string, int, bool) {
	if i+1 >= len(text) || text[i] != '$' || text[i+1] != '{' {
		return "", 0, false
	}
	end := strings.IndexByte(text[i+2:], '}')
	if end == -1 {
		return "", 0, false
	}
	body := text[i+2 : i+2+end]
	if strings.ContainsAny(body, "\n{$") {
		return "", 0, false
	}
	return strings.TrimSpace(body), end + 3, true
}
