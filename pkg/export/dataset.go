package export

import "fmt"

// Dataset is a titled table of string cells in display order.
type Dataset struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Validate reports malformed tables before any bytes are produced.
func (d Dataset) Validate() error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("dataset requires at least one header")
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Headers) {
			return fmt.Errorf("row %d has %d cells, want %d", i+1, len(row), len(d.Headers))
		}
	}
	return nil
}
