package servicepack

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// NewSheetsService creates a read-only Sheets client. When credentialsFile is
// empty the caller must supply authentication through opts.
func NewSheetsService(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*sheets.Service, error) {
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	opts = append(opts, option.WithScopes(sheets.SpreadsheetsReadonlyScope))

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return svc, nil
}

// LoadFromSheet reads a service pack table from a spreadsheet range laid out
// as Year | Label | Release date. A header row whose first cell is "year" is
// skipped, as are empty rows.
func LoadFromSheet(ctx context.Context, svc *sheets.Service, spreadsheetID, readRange string) (*Table, error) {
	resp, err := svc.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read service packs from sheet: %w", err)
	}

	years := make(map[string][]Entry)
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = strings.TrimSpace(fmt.Sprint(v))
		}
		if isBlankRow(cells) {
			continue
		}
		if i == 0 && strings.EqualFold(cells[0], "year") {
			continue
		}
		if len(cells) < 3 {
			return nil, fmt.Errorf("sheet row %d: expected year, label and date, got %d cells", i+1, len(cells))
		}

		e, err := fileEntry{Label: cells[1], Date: cells[2]}.entry()
		if err != nil {
			return nil, fmt.Errorf("sheet row %d: %w", i+1, err)
		}
		years[cells[0]] = append(years[cells[0]], e)
	}

	if len(years) == 0 {
		return nil, fmt.Errorf("sheet range %s contains no service packs", readRange)
	}
	return NewTable(years), nil
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
