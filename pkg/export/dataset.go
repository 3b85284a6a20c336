package export

// Dataset is a tabular export: ordered headers, rows aligned to the headers and
// optional summary lines rendered after the table.
type Dataset struct {
	Headers []string
	Rows    [][]string
	Summary []string
}

// AddRow appends a row, padding or truncating it to the header width.
func (d *Dataset) AddRow(values ...string) {
	row := make([]string, len(d.Headers))
	copy(row, values)
	d.Rows = append(d.Rows, row)
}
