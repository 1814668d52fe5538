package servicepack

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// fileEntry is the on-disk form of an Entry. "version" is accepted as an
// alias of "label" for tables exported from the legacy servicePacks module.
type fileEntry struct {
	Label   string `yaml:"label"`
	Version string `yaml:"version"`
	Date    string `yaml:"date"`
}

type tableFile struct {
	ServicePacks map[string][]fileEntry `yaml:"service_packs"`
}

// LoadFile reads a YAML service pack table from disk
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read service pack table %s: %w", path, err)
	}
	table, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("service pack table %s: %w", path, err)
	}
	return table, nil
}

// Parse decodes a YAML service pack table. Every entry needs a label and a
// parsable date; anything else is a configuration error.
func Parse(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(f.ServicePacks) == 0 {
		return nil, fmt.Errorf("no service_packs defined")
	}

	years := make(map[string][]Entry, len(f.ServicePacks))
	for year, raw := range f.ServicePacks {
		year = strings.TrimSpace(year)
		entries := make([]Entry, 0, len(raw))
		for i, fe := range raw {
			e, err := fe.entry()
			if err != nil {
				return nil, fmt.Errorf("year %s entry %d: %w", year, i, err)
			}
			entries = append(entries, e)
		}
		years[year] = entries
	}
	return NewTable(years), nil
}

func (fe fileEntry) entry() (Entry, error) {
	label := strings.TrimSpace(fe.Label)
	if label == "" {
		label = strings.TrimSpace(fe.Version)
	}
	if label == "" {
		return Entry{}, fmt.Errorf("missing label")
	}
	date, err := ParseDate(fe.Date)
	if err != nil {
		return Entry{}, fmt.Errorf("label %s: %w", label, err)
	}
	return Entry{Label: label, ReleaseDate: date}, nil
}
