package ast

import "github.com/Konsultn-Engineering/relsql/schema"

// Fragment is an immutable sequence of nodes. Every method returns a new
// fragment; children are shared, never modified.
type Fragment struct {
	nodes   []Node
	decoder schema.Codec
}

// Of builds a fragment from nodes.
func Of(nodes ...Node) Fragment {
	cp := make([]Node, len(nodes))
	copy(cp, nodes)
	return Fragment{nodes: cp}
}

// Empty returns a fragment that renders nothing.
func Empty() Fragment {
	return Fragment{}
}

// Nodes returns a copy of the fragment's nodes.
func (f Fragment) Nodes() []Node {
	cp := make([]Node, len(f.nodes))
	copy(cp, f.nodes)
	return cp
}

// Len returns the number of top-level nodes.
func (f Fragment) Len() int { return len(f.nodes) }

// IsEmpty reports whether the fragment has no nodes.
func (f Fragment) IsEmpty() bool { return len(f.nodes) == 0 }

// Decoder returns the codec used to decode the fragment's result column.
func (f Fragment) Decoder() schema.Codec {
	if f.decoder == nil {
		return schema.PassthroughCodec{}
	}
	return f.decoder
}

// HasDecoder reports whether a decoder was attached with MapWith.
func (f Fragment) HasDecoder() bool { return f.decoder != nil }

// MapWith returns a copy decoding its result with c.
func (f Fragment) MapWith(c schema.Codec) Fragment {
	f.decoder = c
	return f
}

// Append returns a fragment made of f's nodes followed by nodes.
func (f Fragment) Append(nodes ...Node) Fragment {
	out := make([]Node, 0, len(f.nodes)+len(nodes))
	out = append(out, f.nodes...)
	out = append(out, nodes...)
	return Fragment{nodes: out, decoder: f.decoder}
}

// If returns f when cond holds and an empty fragment otherwise.
func (f Fragment) If(cond bool) Fragment {
	if cond {
		return f
	}
	return Fragment{}
}

// As names the fragment's result column.
func (f Fragment) As(alias string) Aliased {
	return Aliased{Fragment: f, Alias: alias}
}

// Node embeds the fragment as a single node.
func (f Fragment) Node() Node {
	return Nested{Fragment: f}
}

// Aliased is a fragment selected under a name: expr as "alias".
type Aliased struct {
	Fragment Fragment
	Alias    string
	// SelectionField marks a field re-selected from a subquery; it renders
	// as the bare alias.
	SelectionField bool
}

// Decoder returns the decoder of the aliased fragment.
func (a Aliased) Decoder() schema.Codec {
	return a.Fragment.Decoder()
}

// SQLWrapper is implemented by values that embed into a fragment as a
// whole, such as subqueries.
type SQLWrapper interface {
	SQLFragment() Fragment
}
