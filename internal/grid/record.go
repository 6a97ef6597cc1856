package grid

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultBackgroundColor is the background used until the user picks one.
const DefaultBackgroundColor = "#ffffff"

// ErrInvalidColor is returned for colors that are not #RRGGBB (or #RGB).
var ErrInvalidColor = errors.New("invalid color")

// Assignments is the fixed-size checklist of one cell.
// It is an array so that copying a record copies the checklist.
type Assignments [AssignmentCount]bool

// Any reports whether at least one assignment is checked.
func (a Assignments) Any() bool {
	for _, v := range a {
		if v {
			return true
		}
	}
	return false
}

// Count returns the number of checked assignments.
func (a Assignments) Count() int {
	n := 0
	for _, v := range a {
		if v {
			n++
		}
	}
	return n
}

// CellRecord is the content of one grid slot.
type CellRecord struct {
	Subject     string
	Room        string
	Time        string
	Assignments Assignments
}

// Meaningful reports whether the record carries any non-default value.
// Records that are not meaningful must never be stored.
func (r CellRecord) Meaningful() bool {
	return r.Subject != "" || r.Room != "" || r.Time != "" || r.Assignments.Any()
}

// Trimmed returns a copy with surrounding whitespace removed from the
// descriptive fields.
func (r CellRecord) Trimmed() CellRecord {
	r.Subject = strings.TrimSpace(r.Subject)
	r.Room = strings.TrimSpace(r.Room)
	r.Time = strings.TrimSpace(r.Time)
	return r
}

// Snapshot is a full copy of the committed cells, the unit of persistence.
type Snapshot map[CellID]CellRecord

// Clone returns an independent copy.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for id, rec := range s {
		out[id] = rec
	}
	return out
}

// Preferences holds per-device display settings.
type Preferences struct {
	BackgroundColor string
}

// DefaultPreferences returns the preferences of a fresh device.
func DefaultPreferences() Preferences {
	return Preferences{BackgroundColor: DefaultBackgroundColor}
}

// NormalizeColor validates a hex color and returns it as lowercase #rrggbb.
func NormalizeColor(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") || (len(s) != 7 && len(s) != 4) || !isHex(s[1:]) {
		return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return c.Hex(), nil
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
