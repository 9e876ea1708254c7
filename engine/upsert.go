package engine

import (
	"context"

	"github.com/Konsultn-Engineering/relsql/query"
	"github.com/Konsultn-Engineering/relsql/schema"
)

// Upsert inserts values or, when target conflicts, updates the existing row
// with every supplied non-key value. The stored row is returned.
func (s *Session) Upsert(ctx context.Context, table *schema.Table, values query.Values, target ...*schema.Column) (Row, error) {
	set := withoutPrimary(table, values)
	for _, col := range target {
		delete(set, col.Key)
	}
	ins := query.Insert(table).Values(values)
	if len(set) == 0 {
		ins = ins.OnConflictDoNothing(target...)
	} else {
		ins = ins.OnConflictDoUpdate(target, set)
	}
	return s.Get(ctx, ins.Returning())
}
