package exporter

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/Adolanium/SWLic/pkg/contracts/domain"
)

// Format is a download format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DefaultFormat is used when no format is requested
const DefaultFormat = FormatXLSX

// ParseFormat parses a format name; the empty string selects DefaultFormat
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultFormat, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9-]+`)

// Filename returns the download name for a check, e.g. license-9000-1234.xlsx
func (f Format) Filename(check *domain.LicenseCheck) string {
	serial := strings.Trim(unsafeFilenameChars.ReplaceAllString(check.SerialNumber, "-"), "-")
	if serial == "" {
		serial = "unknown"
	}
	return fmt.Sprintf("license-%s.%s", serial, f)
}

// Export writes check to w in the given format
func Export(w io.Writer, f Format, check *domain.LicenseCheck) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, check, true)
	case FormatXLSX:
		return WriteXLSX(w, check)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// summaryHeaders are the field labels, in the order the result page shows them
var summaryHeaders = []string{
	"Product Name",
	"Version",
	"Service Pack",
	"Serial Number",
	"Maintenance End Date",
	"Activated Machine",
	"Subscription Status",
	"Checked At",
}

var activationHeaders = []string{"Row", "Machine Name", "Activated"}

func summaryValues(check *domain.LicenseCheck) []string {
	return []string{
		check.ProductName,
		check.Version,
		check.SPVersion,
		check.SerialNumber,
		check.MaintenanceEnd,
		check.ActivatedMachineName,
		string(check.SubscriptionStatus),
		check.CheckedAt.Format("2006-01-02 15:04:05Z07:00"),
	}
}

// Field is one labelled value of a license check
type Field struct {
	Label string
	Value string
}

// Summary returns the labelled summary fields of check in display order
func Summary(check *domain.LicenseCheck) []Field {
	values := summaryValues(check)
	fields := make([]Field, len(summaryHeaders))
	for i, label := range summaryHeaders {
		fields[i] = Field{Label: label, Value: values[i]}
	}
	return fields
}

func activationValues(a domain.Activation) []string {
	return []string{formatInt(int64(a.Row)), a.MachineName, FormatActivated(a.Activated)}
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return fmt.Sprintf("%d", i)
}

// FormatActivated renders the activation flag the way the portal shows it
func FormatActivated(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}
