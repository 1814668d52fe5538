package exporter

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adolanium/SWLic/pkg/contracts/domain"
)

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleCheck(), true))

	data := buf.Bytes()
	require.True(t, bytes.HasPrefix(data, utf8BOM))

	reader := csv.NewReader(bytes.NewReader(data[len(utf8BOM):]))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	require.NoError(t, err)

	expected := [][]string{
		{"Field", "Value"},
		{"Product Name", "SOLIDWORKS Premium"},
		{"Version", "2021 SP5"},
		{"Service Pack", "SP1"},
		{"Serial Number", "9000 0000 0000 1234"},
		{"Maintenance End Date", "2/1/2021"},
		{"Activated Machine", "CAD-WS01"},
		{"Subscription Status", "Not on subscription"},
		{"Checked At", "2024-06-15 10:30:00Z"},
		{"Row", "Machine Name", "Activated"},
		{"3", "OLD-PC", "N"},
		{"4", "CAD-WS01", "Y"},
	}
	assert.Equal(t, expected, rows)
}

func TestWriteCSV_NoBOMAndNoActivations(t *testing.T) {
	check := sampleCheck()
	check.Activations = nil
	check.ProductName = `Premium, "Network"`

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, check, false))
	assert.False(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))

	reader := csv.NewReader(&buf)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"Product Name", `Premium, "Network"`}, rows[1])
	assert.Equal(t, []string{"Row", "Machine Name", "Activated"}, rows[len(rows)-1])
}

func TestExport_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatCSV, &domain.LicenseCheck{SerialNumber: "X"}))
	assert.Contains(t, buf.String(), "Serial Number,X")
}
