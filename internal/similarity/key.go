// Package similarity computes the canonical identity of an interview template.
//
// Two templates with the same role (ignoring case) and the same set of technologies share a key,
// whatever their record ids. Templates that read alike but cover different ground still collide;
// that is accepted.
package similarity

import (
	"sort"
	"strings"
)

const separator = "_"

// Key returns the similarity key for a role and tech stack.
func Key(role string, techStack []string) string {
	stack := make([]string, 0, len(techStack))
	seen := make(map[string]struct{}, len(techStack))
	for _, tech := range techStack {
		tech = strings.ToLower(strings.TrimSpace(tech))
		if tech == "" {
			continue
		}
		if _, dup := seen[tech]; dup {
			continue
		}
		seen[tech] = struct{}{}
		stack = append(stack, tech)
	}
	sort.Strings(stack)

	return strings.ToLower(strings.TrimSpace(role)) + separator + strings.Join(stack, separator)
}
