package ast

import "github.com/Konsultn-Engineering/relsql/schema"

// Comparison Operators
const (
	OpEqual              = "="
	OpNotEqual           = "<>"
	OpLessThan           = "<"
	OpLessThanOrEqual    = "<="
	OpGreaterThan        = ">"
	OpGreaterThanOrEqual = ">="
)

// Logical Operators
const (
	OpAnd = "and"
	OpOr  = "or"
	OpNot = "not"
)

// Pattern Matching
const (
	OpLike    = "like"
	OpNotLike = "not like"
)

// Set Operations
const (
	OpIn        = "in"
	OpNotIn     = "not in"
	OpExists    = "exists"
	OpNotExists = "not exists"
)

// Null Operations
const (
	OpIsNull    = "is null"
	OpIsNotNull = "is not null"
)

// Range Operations
const (
	OpBetween    = "between"
	OpNotBetween = "not between"
)

// Ordering
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// bind wraps a right-hand operand. Plain values become parameters encoded
// with the left-hand column's codec; anything SQL-shaped embeds as is.
func bind(v any, left any) Node {
	var enc schema.Codec
	if col, ok := left.(*schema.Column); ok {
		enc = col
	}
	switch val := v.(type) {
	case Placeholder:
		return Param{Value: val, Encoder: enc}
	case Node, Fragment, Aliased, *schema.Column, *schema.Table, SQLWrapper:
		return Wrap(v)
	default:
		return Param{Value: v, Encoder: enc}
	}
}

func binary(left any, op string, right any) Fragment {
	return Fragment{nodes: []Node{Wrap(left), Raw{Text: " " + op + " "}, bind(right, left)}}
}

func Eq(left, right any) Fragment  { return binary(left, OpEqual, right) }
func Ne(left, right any) Fragment  { return binary(left, OpNotEqual, right) }
func Gt(left, right any) Fragment  { return binary(left, OpGreaterThan, right) }
func Gte(left, right any) Fragment { return binary(left, OpGreaterThanOrEqual, right) }
func Lt(left, right any) Fragment  { return binary(left, OpLessThan, right) }
func Lte(left, right any) Fragment { return binary(left, OpLessThanOrEqual, right) }

func Like(left any, pattern any) Fragment    { return binary(left, OpLike, pattern) }
func NotLike(left any, pattern any) Fragment { return binary(left, OpNotLike, pattern) }

// And conjoins conditions. Empty fragments are skipped; a single condition
// renders bare and several render as (a and b and c).
func And(conditions ...Fragment) Fragment {
	return logical(OpAnd, conditions)
}

// Or disjoins conditions with the same rules as And.
func Or(conditions ...Fragment) Fragment {
	return logical(OpOr, conditions)
}

func logical(op string, conditions []Fragment) Fragment {
	kept := make([]Fragment, 0, len(conditions))
	for _, c := range conditions {
		if !c.IsEmpty() {
			kept = append(kept, c)
		}
	}
	switch len(kept) {
	case 0:
		return Fragment{}
	case 1:
		return Fragment{nodes: []Node{Nested{Fragment: kept[0]}}}
	}
	return Fragment{nodes: []Node{
		Raw{Text: "("},
		Nested{Fragment: Join(kept, RawSQL(" "+op+" "))},
		Raw{Text: ")"},
	}}
}

// Not negates a condition.
func Not(condition Fragment) Fragment {
	return Fragment{nodes: []Node{Raw{Text: OpNot + " "}, Nested{Fragment: condition}}}
}

func IsNull(v any) Fragment {
	return Fragment{nodes: []Node{Wrap(v), Raw{Text: " " + OpIsNull}}}
}

func IsNotNull(v any) Fragment {
	return Fragment{nodes: []Node{Wrap(v), Raw{Text: " " + OpIsNotNull}}}
}

// In tests membership in a list of values. An empty list is always false.
func In(left any, values []any) Fragment {
	if len(values) == 0 {
		return RawSQL("false")
	}
	return membership(left, OpIn, values)
}

// NotIn is the negation of In. An empty list is always true.
func NotIn(left any, values []any) Fragment {
	if len(values) == 0 {
		return RawSQL("true")
	}
	return membership(left, OpNotIn, values)
}

func membership(left any, op string, values []any) Fragment {
	items := make([]Node, len(values))
	for i, v := range values {
		items[i] = bind(v, left)
	}
	return Fragment{nodes: []Node{Wrap(left), Raw{Text: " " + op + " "}, List{Items: items}}}
}

// InQuery tests membership in the result of a subquery.
func InQuery(left any, sub any) Fragment {
	return SQL("? "+OpIn+" (?)", left, sub)
}

// NotInQuery is the negation of InQuery.
func NotInQuery(left any, sub any) Fragment {
	return SQL("? "+OpNotIn+" (?)", left, sub)
}

func Between(v, min, max any) Fragment {
	return Fragment{nodes: []Node{
		Wrap(v), Raw{Text: " " + OpBetween + " "}, bind(min, v), Raw{Text: " and "}, bind(max, v),
	}}
}

func NotBetween(v, min, max any) Fragment {
	return Fragment{nodes: []Node{
		Wrap(v), Raw{Text: " " + OpNotBetween + " "}, bind(min, v), Raw{Text: " and "}, bind(max, v),
	}}
}

func Exists(sub any) Fragment {
	return SQL(OpExists+" (?)", sub)
}

func NotExists(sub any) Fragment {
	return SQL(OpNotExists+" (?)", sub)
}

func Asc(v any) Fragment {
	return Fragment{nodes: []Node{Wrap(v), Raw{Text: " " + OrderAsc}}}
}

func Desc(v any) Fragment {
	return Fragment{nodes: []Node{Wrap(v), Raw{Text: " " + OrderDesc}}}
}

// =========================================================================
// Aggregates
// =========================================================================

// Count renders count(*), or count(expr) when an expression is given.
func Count(expr ...any) Fragment {
	if len(expr) == 0 {
		return RawSQL("count(*)").MapWith(schema.IntegerCodec{})
	}
	return SQL("count(?)", expr[0]).MapWith(schema.IntegerCodec{})
}

func CountDistinct(expr any) Fragment {
	return SQL("count(distinct ?)", expr).MapWith(schema.IntegerCodec{})
}

func Sum(expr any) Fragment {
	return SQL("sum(?)", expr).MapWith(decoderOf(expr))
}

func Avg(expr any) Fragment {
	return SQL("avg(?)", expr).MapWith(schema.RealCodec{})
}

func Max(expr any) Fragment {
	return SQL("max(?)", expr).MapWith(decoderOf(expr))
}

func Min(expr any) Fragment {
	return SQL("min(?)", expr).MapWith(decoderOf(expr))
}

func decoderOf(v any) schema.Codec {
	switch val := v.(type) {
	case *schema.Column:
		return val
	case Fragment:
		return val.Decoder()
	case Aliased:
		return val.Decoder()
	}
	return schema.PassthroughCodec{}
}
