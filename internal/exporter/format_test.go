package exporter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adolanium/SWLic/pkg/contracts/domain"
)

func sampleCheck() *domain.LicenseCheck {
	return &domain.LicenseCheck{
		ProductName:          "SOLIDWORKS Premium",
		Version:              "2021 SP5",
		SPVersion:            "SP1",
		SerialNumber:         "9000 0000 0000 1234",
		MaintenanceEnd:       "2/1/2021",
		ActivatedMachineName: "CAD-WS01",
		SubscriptionStatus:   domain.SubscriptionInactive,
		Activations: []domain.Activation{
			{Row: 3, MachineName: "OLD-PC", Activated: false},
			{Row: 4, MachineName: "CAD-WS01", Activated: true},
		},
		CheckedAt: time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC),
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatXLSX, false},
		{"csv", FormatCSV, false},
		{"CSV", FormatCSV, false},
		{" xlsx ", FormatXLSX, false},
		{"pdf", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_ContentTypeAndFilename(t *testing.T) {
	check := sampleCheck()

	assert.Equal(t, "text/csv; charset=utf-8", FormatCSV.ContentType())
	assert.Contains(t, FormatXLSX.ContentType(), "spreadsheetml")
	assert.Equal(t, "license-9000-0000-0000-1234.csv", FormatCSV.Filename(check))
	assert.Equal(t, "license-9000-0000-0000-1234.xlsx", FormatXLSX.Filename(check))

	check.SerialNumber = "  "
	assert.Equal(t, "license-unknown.csv", FormatCSV.Filename(check))
}

func TestExport_UnknownFormat(t *testing.T) {
	err := Export(nil, Format("pdf"), sampleCheck())
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	fields := Summary(sampleCheck())

	require.Len(t, fields, 8)
	assert.Equal(t, Field{Label: "Product Name", Value: "SOLIDWORKS Premium"}, fields[0])
	assert.Equal(t, Field{Label: "Service Pack", Value: "SP1"}, fields[2])
	assert.Equal(t, "Not on subscription", fields[6].Value)
	assert.Equal(t, "2024-06-15 10:30:00Z", fields[7].Value)
}

func TestFormatActivated(t *testing.T) {
	assert.Equal(t, "Y", FormatActivated(true))
	assert.Equal(t, "N", FormatActivated(false))
}
