package grid

import (
	"errors"
	"fmt"
)

// Grid dimensions.
const (
	Periods         = 6
	Days            = 5
	AssignmentCount = 15
	CellCount       = Periods * Days
)

// ErrInvalidCell is returned for identifiers outside the fixed key space.
var ErrInvalidCell = errors.New("invalid cell identifier")

// DayLabels are the column headings, Monday through Friday.
var DayLabels = [Days]string{"月", "火", "水", "木", "金"}

// CellID addresses one (period, day) slot. Both coordinates are 1-based.
type CellID struct {
	Period int
	Day    int
}

// NewCellID returns a validated identifier.
func NewCellID(period, day int) (CellID, error) {
	id := CellID{Period: period, Day: day}
	if !id.Valid() {
		return CellID{}, fmt.Errorf("%w: period %d, day %d", ErrInvalidCell, period, day)
	}
	return id, nil
}

// MustCellID is NewCellID for literals known to be valid. It panics otherwise.
func MustCellID(period, day int) CellID {
	id, err := NewCellID(period, day)
	if err != nil {
		panic(err)
	}
	return id
}

// ParseCellID parses the canonical "r{period}-c{day}" form.
func ParseCellID(s string) (CellID, error) {
	var period, day int
	var rest string
	// Sscanf stops at the first mismatch; the trailing %s catches junk like "r1-c1x".
	n, _ := fmt.Sscanf(s, "r%d-c%d%s", &period, &day, &rest)
	if n != 2 {
		return CellID{}, fmt.Errorf("%w: %q", ErrInvalidCell, s)
	}
	id := CellID{Period: period, Day: day}
	if !id.Valid() || id.String() != s {
		return CellID{}, fmt.Errorf("%w: %q", ErrInvalidCell, s)
	}
	return id, nil
}

// Valid reports whether the identifier lies inside the 30-key space.
func (c CellID) Valid() bool {
	return c.Period >= 1 && c.Period <= Periods && c.Day >= 1 && c.Day <= Days
}

// String returns the canonical key, e.g. "r2-c3".
func (c CellID) String() string {
	return fmt.Sprintf("r%d-c%d", c.Period, c.Day)
}

// Index returns the position of the cell in AllCellIDs order.
func (c CellID) Index() int {
	return (c.Period-1)*Days + (c.Day - 1)
}

// Label returns a human-readable slot name such as "火 2限".
func (c CellID) Label() string {
	if !c.Valid() {
		return c.String()
	}
	return fmt.Sprintf("%s %d限", DayLabels[c.Day-1], c.Period)
}

// AllCellIDs returns the full key space in period-major order.
func AllCellIDs() []CellID {
	ids := make([]CellID, 0, CellCount)
	for p := 1; p <= Periods; p++ {
		for d := 1; d <= Days; d++ {
			ids = append(ids, CellID{Period: p, Day: d})
		}
	}
	return ids
}
