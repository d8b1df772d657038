package wfcontext

import (
	"fmt"
	"regexp"
)

// placeholderPattern matches `{{ path }}` with optional surrounding
// whitespace.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([\w.]+)\s*\}\}`)

// Interpolate replaces every `{{ path }}` placeholder in s with the
// resolved value from the context. A placeholder that cannot be resolved
// (missing variable, missing builtin, bad dotted path) is left unchanged,
// since a workflow author may be templating a literal the gateway itself
// understands.
func (c *Context) Interpolate(s string) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		path := placeholderPattern.FindStringSubmatch(match)[1]
		v, ok := c.Resolve(path)
		if !ok {
			return match
		}
		return fmt.Sprintf("%v", v)
	})
}

// InterpolateValue applies Interpolate to every string found in v,
// recursing into maps and slices, and leaves other types untouched. Node
// data bags commonly nest strings inside objects/arrays (e.g. basket order
// leg lists), so a shallow string-only pass would miss most placeholders.
func (c *Context) InterpolateValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		return c.Interpolate(val)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, elem := range val {
			out[k] = c.InterpolateValue(elem)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, elem := range val {
			out[i] = c.InterpolateValue(elem)
		}
		return out
	default:
		return v
	}
}
