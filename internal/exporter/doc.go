// Package exporter writes license checks as spreadsheet downloads.
//
// Two formats are supported:
//
// CSV: a UTF-8 file with a byte order mark so Excel detects the encoding.
// The license fields come first as field,value pairs, followed by the
// activation table.
//
// XLSX: a workbook with a "License" sheet holding the fields and an
// "Activations" sheet holding one row per machine.
//
// Example usage:
//
//	format, err := exporter.ParseFormat(r.URL.Query().Get("format"))
//	if err != nil {
//		return err
//	}
//	w.Header().Set("Content-Type", format.ContentType())
//	err = exporter.Export(w, format, check)
package exporter
