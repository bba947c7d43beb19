// Package render fills {{key}} placeholders in certificate and email templates.
package render

import (
	"fmt"
	"regexp"
)

var placeholder = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Fill replaces every {{key}} token whose key is present in vars with the
// stringified value. A key is any text without braces and is looked up
// exactly as written, spaces included. Nil values become the empty string and unknown tokens are
// left untouched. Values are inserted verbatim, without HTML escaping, so
// templates can carry markup such as the QR <img> source.
func Fill(template string, vars map[string]any) string {
	if len(vars) == 0 {
		return template
	}
	return placeholder.ReplaceAllStringFunc(template, func(token string) string {
		key := token[2 : len(token)-2]
		value, ok := vars[key]
		if !ok {
			return token
		}
		return stringify(value)
	})
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
