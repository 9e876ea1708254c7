package engine

import (
	"sync"

	"github.com/Konsultn-Engineering/relsql/database"
)

// scanBuffers holds the destination slots a row is scanned into.
type scanBuffers struct {
	vals []any
	ptrs []any
}

// prepare sizes the buffers for n columns and points ptrs at vals.
func (sb *scanBuffers) prepare(n int) {
	if cap(sb.vals) < n {
		sb.vals = make([]any, n)
		sb.ptrs = make([]any, n)
	}
	sb.vals = sb.vals[:n]
	sb.ptrs = sb.ptrs[:n]
	for i := range sb.vals {
		sb.vals[i] = nil
		sb.ptrs[i] = &sb.vals[i]
	}
}

var scanPool = sync.Pool{
	New: func() any {
		return &scanBuffers{
			vals: make([]any, 0, 20),
			ptrs: make([]any, 0, 20),
		}
	},
}

// scanRow reads the current row into a fresh slice. Byte slices are copied
// since drivers may reuse them on the next call to Next.
func scanRow(rows database.Rows, n int) ([]any, error) {
	sb := scanPool.Get().(*scanBuffers)
	defer scanPool.Put(sb)

	sb.prepare(n)
	if err := rows.Scan(sb.ptrs...); err != nil {
		return nil, err
	}
	out := make([]any, n)
	for i, v := range sb.vals {
		if b, ok := v.([]byte); ok {
			cp := make([]byte, len(b))
			copy(cp, b)
			v = cp
		}
		out[i] = v
	}
	return out, nil
}

// collectRows drains rows into positional tuples.
func collectRows(rows database.Rows) ([][]any, error) {
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out [][]any
	for rows.Next() {
		row, err := scanRow(rows, len(cols))
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
