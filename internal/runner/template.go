package runner

import "strings"

// CommandTemplate is an ordered sequence of string fragments that together
// form a command line. Fragments carry placeholders like {{exe}} or
// {{tmp_path}} that get substituted one at a time as more context about a
// particular test becomes available.
type CommandTemplate []string

// Apply returns a new template with every occurrence of placeholder
// replaced by value in every fragment. The receiver is left untouched.
// Applying the same substitution twice is a no-op after the first pass,
// since the placeholder text is gone from the result.
func (t CommandTemplate) Apply(placeholder, value string) CommandTemplate {
	out := make(CommandTemplate, len(t))
	for i, fragment := range t {
		out[i] = strings.ReplaceAll(fragment, placeholder, value)
	}
	return out
}

// HasPattern reports whether any fragment contains pattern as a substring.
func (t CommandTemplate) HasPattern(pattern string) bool {
	for _, fragment := range t {
		if strings.Contains(fragment, pattern) {
			return true
		}
	}
	return false
}

// Clone returns a copy of the template's fragment slice so callers can
// apply further substitutions without aliasing the original.
func (t CommandTemplate) Clone() CommandTemplate {
	out := make(CommandTemplate, len(t))
	copy(out, t)
	return out
}
