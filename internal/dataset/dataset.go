package dataset

import "fmt"

// Dataset is an ordered set of uniquely named columns of equal length.
type Dataset struct {
	Columns []*Column

	index map[string]int
	rows  int
}

// New returns an empty dataset with one column per header name.
// Duplicate header names are an error.
func New(header []string) (*Dataset, error) {
	ds := &Dataset{
		Columns: make([]*Column, len(header)),
		index:   make(map[string]int, len(header)),
	}
	for i, name := range header {
		if _, dup := ds.index[name]; dup {
			return nil, fmt.Errorf("dataset: duplicate column name %q", name)
		}
		ds.index[name] = i
		ds.Columns[i] = NewColumn(name)
	}
	return ds, nil
}

// AppendRow adds one row. Rows shorter than the header are padded with
// missing cells; longer rows are an error.
func (d *Dataset) AppendRow(row []string) error {
	if len(row) > len(d.Columns) {
		return fmt.Errorf("dataset: row has %d fields, header has %d", len(row), len(d.Columns))
	}
	for i, col := range d.Columns {
		if i < len(row) {
			col.Append(row[i])
		} else {
			col.AppendMissing()
		}
	}
	d.rows++
	return nil
}

// Rows returns the number of rows appended.
func (d *Dataset) Rows() int { return d.rows }

// Names returns the column names in header order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Name
	}
	return out
}

// Column returns the named column, or nil when absent.
func (d *Dataset) Column(name string) *Column {
	i, ok := d.index[name]
	if !ok {
		return nil
	}
	return d.Columns[i]
}
