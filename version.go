package reactor

import (
	"context"
	"iter"
	"log/slog"
	"os"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// CIFriendlyPlaceholders lists the property names that may appear as "${name}" in a version string
// and are resolved late, at discovery time, to support CI-assigned version numbers.
var CIFriendlyPlaceholders = []string{"revision", "sha1", "changelist"}

// An Overrides is a process-wide source of placeholder values.  An override always wins over a
// property declared in the workspace.
type Overrides interface {
	Lookup(name string) (string, bool)
}

// An OverrideMap is an [Overrides] backed by a map.  The nil map has no overrides.
type OverrideMap map[string]string

func (m OverrideMap) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

type envOverrides struct{}

func (envOverrides) Lookup(name string) (string, bool) {
	return os.LookupEnv(name)
}

// EnvOverrides returns an [Overrides] that reads the process environment.
func EnvOverrides() Overrides {
	return envOverrides{}
}

type layeredOverrides []Overrides

func (l layeredOverrides) Lookup(name string) (string, bool) {
	for _, ov := range l {
		if ov == nil {
			continue
		}
		if v, ok := ov.Lookup(name); ok {
			return v, true
		}
	}
	return "", false
}

// LayeredOverrides returns an [Overrides] that consults each argument in turn and returns the first
// hit.
func LayeredOverrides(ovs ...Overrides) Overrides {
	return layeredOverrides(slices.Clone(ovs))
}

func isCIFriendly(name string) bool {
	return slices.Contains(CIFriendlyPlaceholders, name)
}

// expressions yields the name inside every "${name}" in s, in order of appearance.
func expressions(s string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			i := strings.Index(s, "${")
			if i < 0 {
				return
			}
			j := strings.IndexByte(s[i+2:], '}')
			if j < 0 {
				return
			}
			if !yield(s[i+2 : i+2+j]) {
				return
			}
			s = s[i+2+j+1:]
		}
	}
}

// interpolate replaces every "${name}" in s for which lookup returns true.  Other expressions are
// left untouched.
func interpolate(s string, lookup func(name string) (string, bool)) string {
	if !strings.Contains(s, "${") {
		return s
	}
	var b strings.Builder
	for {
		i := strings.Index(s, "${")
		if i < 0 {
			break
		}
		j := strings.IndexByte(s[i+2:], '}')
		if j < 0 {
			break
		}
		name := s[i+2 : i+2+j]
		b.WriteString(s[:i])
		if v, ok := lookup(name); ok {
			b.WriteString(v)
		} else {
			b.WriteString(s[i : i+2+j+1])
		}
		s = s[i+2+j+1:]
	}
	b.WriteString(s)
	return b.String()
}

// HasPlaceholder reports whether s still contains a "${...}" expression.
func HasPlaceholder(s string) bool {
	for range expressions(s) {
		return true
	}
	return false
}

// MissingOverrides returns the CI-friendly placeholders referenced by raw that ov does not
// override, deduplicated, in order of first appearance.  Resolving raw requires workspace
// properties if and only if the result is non-empty.
func MissingOverrides(raw string, ov Overrides) []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	var missing []string
	for name := range expressions(raw) {
		if !isCIFriendly(name) || !seen.Add(name) {
			continue
		}
		if ov != nil {
			if _, ok := ov.Lookup(name); ok {
				continue
			}
		}
		missing = append(missing, name)
	}
	return missing
}

// ResolveVersion substitutes every CI-friendly placeholder in raw.  Each placeholder independently
// takes its value from ov if overridden, otherwise from props (the workspace root's declared
// properties), otherwise the empty string.  The returned bool reports whether props had to be
// consulted.
func ResolveVersion(ctx context.Context, raw string, ov Overrides, props map[string]string) (string, bool) {
	usedProps := false
	resolved := interpolate(raw, func(name string) (string, bool) {
		if !isCIFriendly(name) {
			return "", false
		}
		if ov != nil {
			if v, ok := ov.Lookup(name); ok {
				return v, true
			}
		}
		usedProps = true
		if v, ok := props[name]; ok {
			return v, true
		}
		slog.WarnContext(ctx, "unresolved version placeholder; substituting the empty string",
			"placeholder", name, "version", raw)
		return "", true
	})
	return resolved, usedProps
}
