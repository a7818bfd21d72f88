package warehouse

import "fmt"

// Batch is a set of rows sharing one column list.
type Batch struct {
	Columns []string
	Rows    [][]any
}

// NewBatch creates an empty batch with the given columns.
func NewBatch(columns ...string) *Batch {
	return &Batch{Columns: columns}
}

// Append adds a row. The value count must match the column count.
func (b *Batch) Append(values ...any) error {
	if len(values) != len(b.Columns) {
		return fmt.Errorf("row has %d values, batch has %d columns", len(values), len(b.Columns))
	}
	b.Rows = append(b.Rows, values)
	return nil
}

// Len returns the number of rows.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Rows)
}

func (b *Batch) has(name string) bool {
	for _, c := range b.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// stamped returns the copy columns and rows with the insertion time
// appended when the table carries it and the batch does not.
func (b *Batch) stamped(schema TableSchema, at any, extra ...func(i int) any) ([]string, [][]any) {
	columns := append([]string(nil), b.Columns...)
	stamp := schema.Has(InsertionColumn) && !b.has(InsertionColumn)
	if stamp {
		columns = append(columns, InsertionColumn)
	}

	rows := make([][]any, len(b.Rows))
	for i, row := range b.Rows {
		out := make([]any, 0, len(columns)+len(extra))
		out = append(out, row...)
		if stamp {
			out = append(out, at)
		}
		for _, fn := range extra {
			out = append(out, fn(i))
		}
		rows[i] = out
	}
	return columns, rows
}
