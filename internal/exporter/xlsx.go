package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Adolanium/SWLic/pkg/contracts/domain"
)

// Sheet names of the XLSX export
const (
	SheetLicense     = "License"
	SheetActivations = "Activations"
)

// WriteXLSX writes a license check as an XLSX workbook
func WriteXLSX(w io.Writer, check *domain.LicenseCheck) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetLicense); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetActivations); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	values := summaryValues(check)
	for i, header := range summaryHeaders {
		if err := setRow(f, SheetLicense, i+1, []interface{}{header, values[i]}); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SheetLicense, "A1", fmt.Sprintf("A%d", len(summaryHeaders)), bold); err != nil {
		return fmt.Errorf("failed to style labels: %w", err)
	}
	if err := f.SetColWidth(SheetLicense, "A", "B", 28); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	header := make([]interface{}, len(activationHeaders))
	for i, h := range activationHeaders {
		header[i] = h
	}
	if err := setRow(f, SheetActivations, 1, header); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetActivations, "A1", "C1", bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	for i, a := range check.Activations {
		row := []interface{}{a.Row, a.MachineName, FormatActivated(a.Activated)}
		if err := setRow(f, SheetActivations, i+2, row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(SheetActivations, "B", "B", 32); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}
