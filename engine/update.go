package engine

import (
	"context"
	"fmt"

	"github.com/Konsultn-Engineering/relsql/query"
	"github.com/Konsultn-Engineering/relsql/schema"
)

// UpdateByKey sets values on the row identified by its primary key.
// Primary key columns in values are ignored.
func (s *Session) UpdateByKey(ctx context.Context, table *schema.Table, key, values query.Values) (RunResult, error) {
	where, err := keyCondition(table, key)
	if err != nil {
		return RunResult{}, err
	}
	set := withoutPrimary(table, values)
	if len(set) == 0 {
		return RunResult{}, fmt.Errorf("engine: update %s: no updatable fields", table.Name())
	}
	return s.Run(ctx, query.Update(table).Set(set).Where(where))
}
