package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/Adolanium/SWLic/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes a license check as CSV. The license fields are written as
// field,value rows, then a blank row, then the activation table with its own
// header. bom prefixes the output with a UTF-8 byte order mark.
func WriteCSV(w io.Writer, check *domain.LicenseCheck, bom bool) error {
	if bom {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"Field", "Value"}); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	values := summaryValues(check)
	for i, header := range summaryHeaders {
		if err := writer.Write([]string{header, values[i]}); err != nil {
			return fmt.Errorf("failed to write field %s: %w", header, err)
		}
	}

	// blank separator row
	if err := writer.Write([]string{""}); err != nil {
		return fmt.Errorf("failed to write separator: %w", err)
	}
	if err := writer.Write(activationHeaders); err != nil {
		return fmt.Errorf("failed to write activation headers: %w", err)
	}
	for i, a := range check.Activations {
		if err := writer.Write(activationValues(a)); err != nil {
			return fmt.Errorf("failed to write activation %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
