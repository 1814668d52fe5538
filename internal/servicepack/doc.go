// Package servicepack derives a service pack label from a product version and a
// maintenance end date.
//
// # Table
//
// A Table maps a product year ("2021") to the service packs released for it,
// each with a release date:
//
//	2021:
//	  - label: SP0
//	    date: 2021-01-01
//	  - label: SP1
//	    date: 2021-04-01
//
// Tables are built once at startup, either from a YAML file (LoadFile) or from
// a Google Sheet (LoadFromSheet), and are read-only afterwards.
//
// # Resolution
//
// The year is the part of the version string before the first space. Within
// that year the newest service pack released on or before the maintenance end
// date wins. A maintenance end date past every known release resolves to
// "Any SP"; anything that cannot be resolved resolves to "Unknown":
//
//	r := servicepack.NewResolver(table)
//	r.Resolve("2021 SP1", maintEnd) // "SP1", "Any SP" or "Unknown"
//
// The resolver never returns an error and is safe for concurrent use.
package servicepack
