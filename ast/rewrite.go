package ast

import "github.com/Konsultn-Engineering/relsql/schema"

// MapColumns returns a copy of f with every column reference replaced by
// fn's result, descending into nested fragments and lists.
func MapColumns(f Fragment, fn func(ColumnRef) Node) Fragment {
	out, changed := mapNodes(f.nodes, fn, true)
	if !changed {
		return f
	}
	return Fragment{nodes: out, decoder: f.decoder}
}

// MapTopColumns is MapColumns restricted to f's own nodes; nested fragments
// such as subqueries are left untouched.
func MapTopColumns(f Fragment, fn func(ColumnRef) Node) Fragment {
	out, changed := mapNodes(f.nodes, fn, false)
	if !changed {
		return f
	}
	return Fragment{nodes: out, decoder: f.decoder}
}

func mapNodes(nodes []Node, fn func(ColumnRef) Node, deep bool) ([]Node, bool) {
	var out []Node
	for i, n := range nodes {
		var (
			replaced Node
			changed  bool
		)
		switch v := n.(type) {
		case ColumnRef:
			replaced, changed = fn(v), true
		case Nested:
			if deep {
				if sub, ok := mapNodes(v.Fragment.nodes, fn, deep); ok {
					replaced, changed = Nested{Fragment: Fragment{nodes: sub, decoder: v.Fragment.decoder}}, true
				}
			}
		case List:
			if sub, ok := mapNodes(v.Items, fn, deep); ok {
				replaced, changed = List{Items: sub}, true
			}
		}
		if changed && out == nil {
			out = make([]Node, len(nodes))
			copy(out, nodes[:i])
		}
		if out != nil {
			if changed {
				out[i] = replaced
			} else {
				out[i] = n
			}
		}
	}
	return out, out != nil
}

// BareColumns drops the table qualifier of f's own column references.
func BareColumns(f Fragment) Fragment {
	return MapTopColumns(f, func(c ColumnRef) Node {
		return ColumnRef{Column: c.Column, Bare: true}
	})
}

// BareAll drops the table qualifier of every column reference in f.
func BareAll(f Fragment) Fragment {
	return MapColumns(f, func(c ColumnRef) Node {
		return ColumnRef{Column: c.Column, Bare: true}
	})
}

// RetargetColumns rewrites references to columns of from into the
// same-keyed columns of to, typically an alias of from.
func RetargetColumns(f Fragment, from, to *schema.Table) Fragment {
	return MapColumns(f, func(c ColumnRef) Node {
		if c.Column.Table() != from {
			return c
		}
		if col, ok := to.Column(c.Column.Key); ok {
			return ColumnRef{Column: col, Bare: c.Bare}
		}
		return c
	})
}
