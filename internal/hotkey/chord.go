// Package hotkey binds one key chord to a callback process-wide, regardless of
// which window has focus.
package hotkey

import (
	"fmt"
	"strings"
)

// Chord is a parsed key combination such as "ctrl+shift+m".
type Chord struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Key   string
}

func (c Chord) String() string {
	var parts []string
	if c.Ctrl {
		parts = append(parts, "ctrl")
	}
	if c.Shift {
		parts = append(parts, "shift")
	}
	if c.Alt {
		parts = append(parts, "alt")
	}
	return strings.Join(append(parts, c.Key), "+")
}

// ParseChord accepts modifiers ctrl, shift and alt followed by exactly one
// key: a-z, 0-9, f1-f12, space or enter. Matching is case-insensitive.
func ParseChord(s string) (Chord, error) {
	var c Chord
	fields := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			return Chord{}, fmt.Errorf("chord %q: empty component", s)
		}
		last := i == len(fields)-1
		switch f {
		case "ctrl", "control":
			c.Ctrl = true
		case "shift":
			c.Shift = true
		case "alt", "option":
			c.Alt = true
		default:
			if !last {
				return Chord{}, fmt.Errorf("chord %q: %q is not a modifier", s, f)
			}
			if !validKey(f) {
				return Chord{}, fmt.Errorf("chord %q: unsupported key %q", s, f)
			}
			c.Key = f
			continue
		}
		if last {
			return Chord{}, fmt.Errorf("chord %q: missing key", s)
		}
	}
	if !c.Ctrl && !c.Shift && !c.Alt {
		return Chord{}, fmt.Errorf("chord %q: at least one modifier is required", s)
	}
	return c, nil
}

func validKey(k string) bool {
	if len(k) == 1 {
		ch := k[0]
		return ch >= 'a' && ch <= 'z' || ch >= '0' && ch <= '9'
	}
	if k == "space" || k == "enter" {
		return true
	}
	_, ok := functionKeys[k]
	return ok
}

var functionKeys = map[string]struct{}{
	"f1": {}, "f2": {}, "f3": {}, "f4": {}, "f5": {}, "f6": {},
	"f7": {}, "f8": {}, "f9": {}, "f10": {}, "f11": {}, "f12": {},
}
