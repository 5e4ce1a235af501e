// Package export runs operator-supplied read-only SQL against the relational
// source and writes the result as CSV.
//
// Statements must begin with SELECT or WITH and may not contain data or
// schema changing keywords outside string literals. Presets cover the common
// office listings with driver-neutral SQL. CSV output can be re-encoded as
// UTF-8 with BOM or Shift_JIS for spreadsheet tools that expect them.
package export
