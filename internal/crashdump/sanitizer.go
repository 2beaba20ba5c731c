package crashdump

import (
	"os"
	"strings"
)

// Sanitizer replaces the user's home directory with ~ so dumps can be
// shared without leaking local paths.
type Sanitizer struct {
	home string
}

// NewSanitizer creates a Sanitizer for the current user.
func NewSanitizer() *Sanitizer {
	home, _ := os.UserHomeDir()

	return NewSanitizerWithHome(home)
}

// NewSanitizerWithHome creates a Sanitizer for the given home directory.
func NewSanitizerWithHome(home string) *Sanitizer {
	return &Sanitizer{home: strings.TrimRight(home, string(os.PathSeparator))}
}

// SanitizeString rewrites s when it starts with the home directory.
func (s *Sanitizer) SanitizeString(v string) string {
	if s.home == "" || v == "" {
		return v
	}

	if v == s.home {
		return "~"
	}

	if rest, ok := strings.CutPrefix(v, s.home+string(os.PathSeparator)); ok {
		return "~" + string(os.PathSeparator) + rest
	}

	return v
}

// SanitizeContext returns a copy of ctx with paths rewritten.
func (s *Sanitizer) SanitizeContext(ctx ContextInfo) ContextInfo {
	ctx.PluginsDir = s.SanitizeString(ctx.PluginsDir)

	args := make([]string, len(ctx.Args))
	for i, arg := range ctx.Args {
		args[i] = s.SanitizeString(arg)
	}

	if ctx.Args != nil {
		ctx.Args = args
	}

	return ctx
}

// SanitizeMap returns a deep copy of m with every string value rewritten.
func (s *Sanitizer) SanitizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))

	for k, v := range m {
		out[k] = s.sanitizeValue(v)
	}

	return out
}

func (s *Sanitizer) sanitizeValue(v any) any {
	switch val := v.(type) {
	case string:
		return s.SanitizeString(val)
	case map[string]any:
		return s.SanitizeMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = s.sanitizeValue(item)
		}

		return out
	case []string:
		out := make([]string, len(val))
		for i, item := range val {
			out[i] = s.SanitizeString(item)
		}

		return out
	default:
		return v
	}
}
