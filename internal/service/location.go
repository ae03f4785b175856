package service

import "strings"

// BuildLocation joins the non-empty parts from most to least specific.
func BuildLocation(area, city, state, country string) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{area, city, state, country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
