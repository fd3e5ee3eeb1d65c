package domain

import "strings"

const DefaultUsername = "Guest"

// DisplayName returns the name shown next to a participant's messages.
// Names are client supplied and not validated beyond trimming.
func DisplayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultUsername
	}
	return name
}
