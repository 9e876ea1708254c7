package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/Konsultn-Engineering/relsql/ast"
	"github.com/Konsultn-Engineering/relsql/query"
	"github.com/Konsultn-Engineering/relsql/schema"
)

var ErrNoPrimaryKey = errors.New("engine: key does not cover the primary key")

// Create inserts rows into table and returns them as stored, generated
// columns and defaults included.
func (s *Session) Create(ctx context.Context, table *schema.Table, rows ...query.Values) ([]Row, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("engine: create %s: no rows", table.Name())
	}
	return s.All(ctx, query.Insert(table).Values(rows...).Returning())
}

// keyCondition matches the row identified by key, which must name every
// primary key column of table.
func keyCondition(table *schema.Table, key query.Values) (ast.Fragment, error) {
	var conds []ast.Fragment
	for _, col := range table.Columns() {
		if !col.IsPrimary {
			continue
		}
		v, ok := key[col.Key]
		if !ok {
			return ast.Fragment{}, fmt.Errorf("%w: %s.%s", ErrNoPrimaryKey, table.Name(), col.Key)
		}
		conds = append(conds, ast.Eq(col, v))
	}
	if len(conds) == 0 {
		return ast.Fragment{}, fmt.Errorf("%w: %s has none", ErrNoPrimaryKey, table.Name())
	}
	return ast.And(conds...), nil
}

// withoutPrimary drops primary key columns from values.
func withoutPrimary(table *schema.Table, values query.Values) query.Values {
	out := make(query.Values, len(values))
	for k, v := range values {
		if col, ok := table.Column(k); ok && col.IsPrimary {
			continue
		}
		out[k] = v
	}
	return out
}
