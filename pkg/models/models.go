package models

import (
	"encoding/json"
	"sort"
)

// Set is an unordered collection of facility names. It encodes as a sorted
// JSON list.
type Set map[string]struct{}

// NewSet builds a set from the given items, ignoring empty strings
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, it := range items {
		if it != "" {
			s[it] = struct{}{}
		}
	}
	return s
}

// Has reports whether name is in the set. A nil set contains nothing.
func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the members in ascending order
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *Set) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = NewSet(items...)
	return nil
}

// Employee is one person on the roster
type Employee struct {
	Name      string `json:"name"`
	Area      string `json:"area,omitempty"`
	Primary   Set    `json:"qualifications"`
	Secondary Set    `json:"secondary_qualifications"`
	Trainer   Set    `json:"trainer_for"`
}

// Qualified reports whether the employee holds a primary or secondary
// qualification for the facility.
func (e Employee) Qualified(facility string) bool {
	return e.Primary.Has(facility) || e.Secondary.Has(facility)
}

// QualificationCount is the total of primary and secondary qualifications
func (e Employee) QualificationCount() int {
	return len(e.Primary) + len(e.Secondary)
}

// Position is a single post within a facility
type Position struct {
	Name                  string `json:"name"`
	RequiresQualification bool   `json:"requires_qualification"`
}

// Facility is a ride or attraction with an ordered list of positions
type Facility struct {
	Name      string     `json:"name"`
	Area      string     `json:"area,omitempty"`
	Positions []Position `json:"positions"`
}

// Position looks up a position by name
func (f Facility) Position(name string) (Position, bool) {
	for _, p := range f.Positions {
		if p.Name == name {
			return p, true
		}
	}
	return Position{}, false
}

// Slot addresses one position of one facility
type Slot struct {
	Facility string `json:"facility"`
	Position string `json:"position"`
}

// Tag records how a cell was filled
type Tag string

const (
	TagNone          Tag = ""
	TagManual        Tag = "manual"
	TagPrimary       Tag = "primary"
	TagSecondary     Tag = "secondary"
	TagUnqualifiedOK Tag = "unqualified-ok"
)

const (
	// UnfilledLabel is the display value of a position nobody could take
	UnfilledLabel = "NIEMAND VERFÜGBAR"

	secondarySuffix = " (Sekundär)"
)

// Cell is the content of one plan position. A zero Cell means unfilled.
type Cell struct {
	Employee string `json:"employee,omitempty"`
	Tag      Tag    `json:"tag,omitempty"`
}

// Filled reports whether an employee occupies the cell
func (c Cell) Filled() bool {
	return c.Employee != ""
}

// Label renders the cell for display, annotating secondary placements
func (c Cell) Label() string {
	if !c.Filled() {
		return UnfilledLabel
	}
	if c.Tag == TagSecondary {
		return c.Employee + secondarySuffix
	}
	return c.Employee
}

// Plan maps facility name to position name to cell
type Plan map[string]map[string]Cell

// Cell returns the cell for a slot
func (p Plan) Cell(s Slot) Cell {
	return p[s.Facility][s.Position]
}

// Set stores a cell, creating the facility row if needed
func (p Plan) Set(s Slot, c Cell) {
	row, ok := p[s.Facility]
	if !ok {
		row = make(map[string]Cell)
		p[s.Facility] = row
	}
	row[s.Position] = c
}

// Labels flattens the plan into display strings
func (p Plan) Labels() map[string]map[string]string {
	out := make(map[string]map[string]string, len(p))
	for f, row := range p {
		labels := make(map[string]string, len(row))
		for pos, c := range row {
			labels[pos] = c.Label()
		}
		out[f] = labels
	}
	return out
}
