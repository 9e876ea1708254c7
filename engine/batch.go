package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Konsultn-Engineering/relsql/query"
)

// BatchItem is one statement of a batch.
type BatchItem struct {
	Plan       query.Plan
	Relational *query.RelationPlan
	Mode       Mode
}

// Item adds a statement plan executed in mode.
func Item(plan query.Plan, mode Mode) BatchItem {
	return BatchItem{Plan: plan, Mode: mode}
}

// RelationalItem adds an eager-load plan.
func RelationalItem(plan *query.RelationPlan) BatchItem {
	return BatchItem{Relational: plan}
}

// Batch compiles every item and executes them in order inside one
// transaction. Result i holds the output of item i, shaped as by
// PreparedQuery.Execute.
func (s *Session) Batch(ctx context.Context, items ...BatchItem) ([]any, error) {
	prepared := make([]*PreparedQuery, len(items))

	var g errgroup.Group
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			var (
				p   *PreparedQuery
				err error
			)
			if item.Relational != nil {
				p, err = s.PrepareRelational(item.Relational)
			} else {
				p, err = s.Prepare(item.Plan, item.Mode)
			}
			if err != nil {
				return err
			}
			prepared[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]any, len(prepared))
	err := s.Transaction(ctx, func(tx *Tx) error {
		for i, p := range prepared {
			out, err := p.On(tx.Session).Execute(ctx, nil)
			if err != nil {
				return err
			}
			results[i] = out
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
