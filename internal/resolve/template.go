package resolve

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dmagro/netcfg/internal/env"
)

var markerRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_.]*)\}`)

// References returns the secret names referenced by a template, in order of first
// appearance.
func References(template string) []string {
	var refs []string
	seen := make(map[string]bool)
	for _, m := range markerRe.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			refs = append(refs, m[1])
		}
	}
	return refs
}

// substitution is the outcome of expanding one template.
type substitution struct {
	value   string
	missing []string // referenced keys that are unset or empty
	secrets []string // substituted values, tracked for redaction
}

// substitute replaces every ${NAME} marker with the store value. Unset and empty keys
// are collected in missing and leave the marker in place.
func substitute(template string, store env.Store) substitution {
	var s substitution
	s.value = markerRe.ReplaceAllStringFunc(template, func(marker string) string {
		name := marker[2 : len(marker)-1]
		v, ok := store.Lookup(name)
		if !ok || v == "" {
			s.missing = append(s.missing, name)
			return marker
		}
		s.secrets = append(s.secrets, v)
		return v
	})
	return s
}

// malformed reports whether a template carries marker syntax that does not form a
// well-formed ${NAME} marker, such as an unterminated "${" or an empty name.
func malformed(template string) bool {
	return strings.Contains(markerRe.ReplaceAllString(template, ""), "${")
}

func dedupSorted(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
