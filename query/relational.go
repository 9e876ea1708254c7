package query

import (
	"github.com/Konsultn-Engineering/relsql/ast"
	"github.com/Konsultn-Engineering/relsql/schema"
)

// LoadMode says whether a relational query returns every row or the first.
type LoadMode int

const (
	LoadMany LoadMode = iota
	LoadFirst
)

// RelationalConfig selects what a relational query loads from one table.
// Where, OrderBy and Extras are written against the table's own columns.
type RelationalConfig struct {
	// Columns lists the column keys to load. A nil slice loads every column
	// not named in Exclude; an empty non-nil slice loads none.
	Columns []string
	Exclude []string
	Extras  []ast.Aliased
	With    []WithRelation
	Where   ast.Fragment
	OrderBy []ast.Fragment
	Limit   any
	Offset  any
}

// WithRelation loads the relation Key with its own configuration.
type WithRelation struct {
	Key    string
	Config RelationalConfig
}

// Rel loads a relation, optionally configured.
func Rel(key string, cfg ...RelationalConfig) WithRelation {
	w := WithRelation{Key: key}
	if len(cfg) > 0 {
		w.Config = cfg[0]
	}
	return w
}

// RelationPlan is one node of an eager-load graph, resolved against a
// registry. Alias is set by the relational compiler.
type RelationPlan struct {
	Table     *schema.Table
	Mode      LoadMode
	Columns   []*schema.Column
	Extras    []ast.Aliased
	Relations []RelationEdge
	Where     ast.Fragment
	OrderBy   []ast.Fragment
	Limit     any
	Offset    any
}

// RelationEdge connects a node to a nested node. Fields are columns of the
// parent table, References the paired columns of the nested table.
type RelationEdge struct {
	Key        string
	Relation   *schema.Relation
	Fields     []*schema.Column
	References []*schema.Column
	Plan       *RelationPlan
}

// SelectionEntry mirrors one projected value of a relational query. JSON
// entries carry the nested selection their payload is decoded with.
type SelectionEntry struct {
	DBKey            string
	Key              string
	Field            any
	IsJSON           bool
	RelationTableKey string
	Relation         *schema.Relation
	Selection        []SelectionEntry
}

// Decoder returns the codec of a non-JSON entry.
func (e SelectionEntry) Decoder() schema.Codec {
	return DecoderOf(e.Field)
}

// FindMany resolves cfg into a plan loading every matching row of table.
func FindMany(reg *schema.Registry, table *schema.Table, cfg RelationalConfig) (*RelationPlan, error) {
	return resolve(reg, table, cfg, LoadMany)
}

// FindFirst resolves cfg into a plan loading the first matching row.
func FindFirst(reg *schema.Registry, table *schema.Table, cfg RelationalConfig) (*RelationPlan, error) {
	cfg.Limit = 1
	return resolve(reg, table, cfg, LoadFirst)
}

func resolve(reg *schema.Registry, table *schema.Table, cfg RelationalConfig, mode LoadMode) (*RelationPlan, error) {
	cols, err := resolveColumns(table, cfg)
	if err != nil {
		return nil, err
	}

	plan := &RelationPlan{
		Table:   table,
		Mode:    mode,
		Columns: cols,
		Extras:  cfg.Extras,
		Where:   cfg.Where,
		OrderBy: cfg.OrderBy,
		Limit:   cfg.Limit,
		Offset:  cfg.Offset,
	}

	for _, w := range cfg.With {
		rel, ok := reg.Relation(table, w.Key)
		if !ok {
			return nil, &PlanError{Op: "with", Path: []string{w.Key}, Table: table.Name(), Err: ErrUnknownRelation}
		}
		fields, refs, err := reg.Normalize(rel)
		if err != nil {
			return nil, &PlanError{Op: "with", Path: []string{w.Key}, Table: table.Name(), Err: err}
		}

		childCfg := w.Config
		childMode := LoadMany
		if rel.Cardinality == schema.One {
			childCfg.Limit = 1
			childMode = LoadFirst
		}
		child, err := resolve(reg, rel.Target, childCfg, childMode)
		if err != nil {
			return nil, err
		}
		plan.Relations = append(plan.Relations, RelationEdge{
			Key:        w.Key,
			Relation:   rel,
			Fields:     fields,
			References: refs,
			Plan:       child,
		})
	}
	return plan, nil
}

func resolveColumns(table *schema.Table, cfg RelationalConfig) ([]*schema.Column, error) {
	if cfg.Columns != nil {
		cols := make([]*schema.Column, 0, len(cfg.Columns))
		for _, key := range cfg.Columns {
			c, ok := table.Column(key)
			if !ok {
				return nil, &PlanError{Op: "columns", Table: table.Name(), Column: key, Err: ErrUnknownColumn}
			}
			cols = append(cols, c)
		}
		return cols, nil
	}

	excluded := make(map[string]struct{}, len(cfg.Exclude))
	for _, key := range cfg.Exclude {
		if _, ok := table.Column(key); !ok {
			return nil, &PlanError{Op: "columns", Table: table.Name(), Column: key, Err: ErrUnknownColumn}
		}
		excluded[key] = struct{}{}
	}
	all := table.Columns()
	cols := make([]*schema.Column, 0, len(all))
	for _, c := range all {
		if _, skip := excluded[c.Key]; !skip {
			cols = append(cols, c)
		}
	}
	return cols, nil
}
