// Package exporter writes the unified datasets and reports to the
// export formats consumed downstream:
//
// CSVWriter: UTF-8 CSV with BOM so Arabic text opens correctly in Excel.
//
// ExcelWriter: one workbook with a sheet per unified category plus a KPI
// summary sheet.
//
// JSONWriter: KPI, quality and insight reports as JSON documents.
//
// PDFWriter: a one-page KPI summary rendered through pdfcpu.
package exporter
