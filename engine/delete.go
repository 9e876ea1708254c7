package engine

import (
	"context"
	"time"

	"github.com/Konsultn-Engineering/relsql/query"
	"github.com/Konsultn-Engineering/relsql/schema"
)

// SoftDeleteColumn is the column key DeleteByKey stamps instead of deleting.
const SoftDeleteColumn = "deletedAt"

// DeleteByKey removes the row identified by its primary key. Tables with a
// deletedAt column are soft deleted unless hard is set.
func (s *Session) DeleteByKey(ctx context.Context, table *schema.Table, key query.Values, hard bool) (RunResult, error) {
	where, err := keyCondition(table, key)
	if err != nil {
		return RunResult{}, err
	}
	if _, soft := table.Column(SoftDeleteColumn); soft && !hard {
		return s.Run(ctx, query.Update(table).
			Set(query.Values{SoftDeleteColumn: time.Now().UTC()}).
			Where(where))
	}
	return s.Run(ctx, query.Delete(table).Where(where))
}
