package servicepack

import (
	"sort"
	"time"
)

// Entry is one service pack release of a product year
type Entry struct {
	Label       string
	ReleaseDate time.Time
}

// Table maps product years to their service pack releases.
// A Table is immutable once built; accessors hand out copies.
type Table struct {
	years map[string][]Entry
}

// NewTable builds a table from a year -> entries mapping.
// The input is copied, so later changes to it do not leak into the table.
// Entry order within a year is kept as given.
func NewTable(years map[string][]Entry) *Table {
	t := &Table{years: make(map[string][]Entry, len(years))}
	for year, entries := range years {
		t.years[year] = append([]Entry(nil), entries...)
	}
	return t
}

// Entries returns a copy of the entries configured for a year, in
// configuration order, and whether the year is known.
func (t *Table) Entries(year string) ([]Entry, bool) {
	if t == nil {
		return nil, false
	}
	entries, ok := t.years[year]
	if !ok {
		return nil, false
	}
	return append([]Entry(nil), entries...), true
}

// Years returns the known product years in ascending order
func (t *Table) Years() []string {
	if t == nil {
		return nil
	}
	years := make([]string, 0, len(t.years))
	for y := range t.years {
		years = append(years, y)
	}
	sort.Strings(years)
	return years
}

// Len returns the total number of entries across all years
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, entries := range t.years {
		n += len(entries)
	}
	return n
}
