package config

import "os"

// Interpolate substitutes ${name} and $name placeholders in a template with
// values from vars. Unknown names expand to the empty string, matching
// os.Expand semantics.
func Interpolate(template string, vars map[string]string) string {
	return os.Expand(template, func(name string) string {
		return vars[name]
	})
}
