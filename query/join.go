package query

import (
	"github.com/Konsultn-Engineering/relsql/ast"
	"github.com/Konsultn-Engineering/relsql/schema"
)

type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	FullJoin
	CrossJoin
)

func (t JoinType) String() string {
	switch t {
	case LeftJoin:
		return "left"
	case RightJoin:
		return "right"
	case FullJoin:
		return "full"
	case CrossJoin:
		return "cross"
	default:
		return "inner"
	}
}

// Join is one join clause. Source is a *schema.Table (possibly an alias) or
// a *Subquery; Alias is the name its columns are qualified with.
type Join struct {
	Type   JoinType
	Source any
	Alias  string
	On     ast.Fragment
}

type Nullability int

const (
	NotNull Nullability = iota
	Nullable
)

func (n Nullability) String() string {
	if n == Nullable {
		return "nullable"
	}
	return "not-null"
}

// NullabilityMap records, per table alias, whether a joined table's columns
// may all be null in a result row.
type NullabilityMap map[string]Nullability

// NewNullabilityMap starts a map for a query whose base table is alias.
func NewNullabilityMap(alias string) NullabilityMap {
	if alias == "" {
		return NullabilityMap{}
	}
	return NullabilityMap{alias: NotNull}
}

// ApplyJoin returns the map after joining alias with the given join type:
//
//	left         alias nullable
//	right        every earlier alias nullable, alias not-null
//	inner, cross alias not-null
//	full         every alias nullable
func (m NullabilityMap) ApplyJoin(kind JoinType, alias string) NullabilityMap {
	out := make(NullabilityMap, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	switch kind {
	case LeftJoin:
		out[alias] = Nullable
	case RightJoin:
		for k := range out {
			out[k] = Nullable
		}
		out[alias] = NotNull
	case FullJoin:
		for k := range out {
			out[k] = Nullable
		}
		out[alias] = Nullable
	default:
		out[alias] = NotNull
	}
	return out
}

// IsNullable reports whether alias may be entirely null.
func (m NullabilityMap) IsNullable(alias string) bool {
	return m[alias] == Nullable
}

// SourceAlias returns the name a from or join source is referenced by.
func SourceAlias(src any) string {
	switch s := src.(type) {
	case *schema.Table:
		return s.Name()
	case *Subquery:
		return s.Alias()
	}
	return ""
}
