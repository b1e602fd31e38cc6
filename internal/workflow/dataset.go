package workflow

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// DataRow is one keyed dataset row.
type DataRow struct {
	Key string
	Row Row
}

// Dataset is an ordered collection of independently keyed rows, as loaded
// from a CSV file. The first column's value is each row's key.
type Dataset struct {
	columns []string
	rows    []DataRow
}

// LoadCSV loads a dataset from a CSV file with a header row.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	return ParseCSV(f)
}

// ParseCSV loads a dataset from CSV content with a header row.
func ParseCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("CSV header is empty")
	}

	ds := &Dataset{columns: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV row %d: %w", len(ds.rows)+2, err)
		}

		row := make(Row, len(header))
		for i, col := range header {
			v := record[i]
			row[col] = &v
		}
		ds.rows = append(ds.rows, DataRow{Key: record[0], Row: row})
	}

	return ds, nil
}

// Columns returns the dataset's column names in header order.
func (d *Dataset) Columns() []string {
	return d.columns
}

// Rows returns the rows in file order.
func (d *Dataset) Rows() []DataRow {
	return d.rows
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Get returns the row with the given key.
func (d *Dataset) Get(key string) (Row, bool) {
	for _, r := range d.rows {
		if r.Key == key {
			return r.Row, true
		}
	}
	return nil, false
}
