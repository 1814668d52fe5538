package servicepack

import (
	"sort"
	"strings"
	"time"
)

// Result is the outcome of a resolution: Unknown, AnySP or a label taken
// verbatim from the table.
type Result string

const (
	// Unknown means the version/date pair cannot be mapped to a service pack
	Unknown Result = "Unknown"
	// AnySP means maintenance extends past every known release for the year
	AnySP Result = "Any SP"
)

// String implements fmt.Stringer
func (r Result) String() string {
	return string(r)
}

// Kind classifies a result for metrics: "unknown", "any" or "label"
func (r Result) Kind() string {
	switch r {
	case Unknown:
		return "unknown"
	case AnySP:
		return "any"
	default:
		return "label"
	}
}

// Resolver maps (version, maintenance end) pairs to service packs.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	table *Table
}

// NewResolver creates a resolver over a table. A nil table resolves everything
// to Unknown.
func NewResolver(table *Table) *Resolver {
	return &Resolver{table: table}
}

// Table returns the table the resolver reads from
func (r *Resolver) Table() *Table {
	return r.table
}

// YearToken returns the part of a version string before the first space,
// or the whole string when there is no space.
func YearToken(version string) string {
	if i := strings.IndexByte(version, ' '); i >= 0 {
		return version[:i]
	}
	return version
}

// Resolve returns the service pack a license with the given maintenance end
// date is entitled to.
func (r *Resolver) Resolve(version string, maintenanceEnd time.Time) Result {
	entries, ok := r.table.Entries(YearToken(version))
	if !ok || len(entries) == 0 {
		return Unknown
	}

	// Newest first; equal dates keep configuration order.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ReleaseDate.After(entries[j].ReleaseDate)
	})

	if maintenanceEnd.After(entries[0].ReleaseDate) {
		return AnySP
	}

	for _, e := range entries {
		if !maintenanceEnd.Before(e.ReleaseDate) {
			return Result(e.Label)
		}
	}
	return Unknown
}

// ResolveString is Resolve for a maintenance end date still in its portal
// string form. Unparsable dates resolve to Unknown.
func (r *Resolver) ResolveString(version, maintenanceEnd string) Result {
	end, err := ParseDate(maintenanceEnd)
	if err != nil {
		return Unknown
	}
	return r.Resolve(version, end)
}
