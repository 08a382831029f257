// Package ambient decides whether gauges are drawn in light or dark mode.
//
// The decision follows a fixed priority: an explicit "dark" class on the
// host page's root or body element, then an explicit "light" class, then the
// operating system's color scheme preference. A Detector watches both
// signal sources and re-evaluates whenever either changes.
package ambient

import (
	"fmt"
	"strings"
)

// Mode is the resolved display mode.
type Mode int

const (
	Light Mode = iota
	Dark
)

// Marker classes looked up on the host page.
const (
	DarkClass  = "dark"
	LightClass = "light"
)

// IsDark reports whether m is Dark.
func (m Mode) IsDark() bool { return m == Dark }

func (m Mode) String() string {
	if m == Dark {
		return "dark"
	}
	return "light"
}

// ParseMode parses "light" or "dark" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light":
		return Light, nil
	case "dark":
		return Dark, nil
	}
	return Light, fmt.Errorf("ambient: unknown mode %q (want light or dark)", s)
}

// Evaluate reduces the host page classes and the OS preference to a mode.
func Evaluate(root, body []string, prefersDark bool) Mode {
	switch {
	case hasClass(root, DarkClass) || hasClass(body, DarkClass):
		return Dark
	case hasClass(root, LightClass) || hasClass(body, LightClass):
		return Light
	case prefersDark:
		return Dark
	}
	return Light
}

func hasClass(classes []string, name string) bool {
	for _, c := range classes {
		if c == name {
			return true
		}
	}
	return false
}
