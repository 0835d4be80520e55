package subject

import (
	"strings"
	"time"
	_ "time/tzdata" // zone lookups must not depend on the host
)

const DefaultTimezone = "America/Edmonton"

// ResolveLocation loads name, falling back to fallback and then UTC. It never
// fails: a missing or unparseable zone silently yields the fallback.
func ResolveLocation(name string, fallback *time.Location) *time.Location {
	if name = strings.TrimSpace(name); name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if fallback != nil {
		return fallback
	}
	return time.UTC
}
