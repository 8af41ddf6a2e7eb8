package trigger

import (
	"strings"

	"github.com/pkg/errors"
)

// DefaultChord opens the gate from anywhere on the page
const DefaultChord = "ctrl+shift+G"

// KeyEvent is a key press as reported by the browser
type KeyEvent struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrlKey"`
	Shift bool   `json:"shiftKey"`
	Alt   bool   `json:"altKey"`
	Meta  bool   `json:"metaKey"`
}

// Chord is a modifier and key combination. Modifiers not named by the chord
// are not checked.
type Chord struct {
	Key   string
	Ctrl  bool
	Shift bool
	Alt   bool
	Meta  bool
}

// ParseChord parses chords like "ctrl+shift+G". The key is compared exactly,
// so with shift held it is usually upper case.
func ParseChord(s string) (Chord, error) {
	parts := strings.Split(s, "+")
	var c Chord
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if i == len(parts)-1 {
			if p == "" {
				return Chord{}, errors.Errorf("chord '%s' has no key", s)
			}
			c.Key = p
			break
		}
		switch strings.ToLower(p) {
		case "ctrl", "control":
			c.Ctrl = true
		case "shift":
			c.Shift = true
		case "alt", "option":
			c.Alt = true
		case "meta", "cmd", "super":
			c.Meta = true
		default:
			return Chord{}, errors.Errorf("unknown modifier '%s' in chord '%s'", p, s)
		}
	}
	return c, nil
}

// Matches tells if e presses the chord
func (c Chord) Matches(e KeyEvent) bool {
	if e.Key != c.Key {
		return false
	}
	return (!c.Ctrl || e.Ctrl) &&
		(!c.Shift || e.Shift) &&
		(!c.Alt || e.Alt) &&
		(!c.Meta || e.Meta)
}

// String implements fmt.Stringer
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
	if c.Meta {
		parts = append(parts, "meta")
	}
	return strings.Join(append(parts, c.Key), "+")
}
