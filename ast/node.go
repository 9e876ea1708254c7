package ast

import "github.com/Konsultn-Engineering/relsql/schema"

// NodeType tags the variants a Fragment is made of.
type NodeType int

const (
	NodeRaw NodeType = iota
	NodeIdentifier
	NodeParam
	NodePlaceholder
	NodeNested
	NodeColumn
	NodeList
)

func (t NodeType) String() string {
	switch t {
	case NodeRaw:
		return "raw"
	case NodeIdentifier:
		return "identifier"
	case NodeParam:
		return "param"
	case NodePlaceholder:
		return "placeholder"
	case NodeNested:
		return "nested"
	case NodeColumn:
		return "column"
	case NodeList:
		return "list"
	}
	return "unknown"
}

// Node is one part of a Fragment. The set of implementations is closed;
// the renderer switches over them.
type Node interface {
	Type() NodeType
}

// Raw is literal SQL text, emitted verbatim.
type Raw struct {
	Text string
}

// Identifier is a name quoted by the dialect.
type Identifier struct {
	Name string
}

// Param is a bound value. Encoder, when set, converts Value to its driver
// form at render time and supplies the parameter typing.
type Param struct {
	Value   any
	Encoder schema.Codec
}

// Placeholder is a named hole filled with a value at execution time.
type Placeholder struct {
	Name string
}

// Nested embeds a whole fragment.
type Nested struct {
	Fragment Fragment
}

// ColumnRef renders "table"."column", or just "column" when Bare is set.
type ColumnRef struct {
	Column *schema.Column
	Bare   bool
}

// List renders its items as a parenthesised, comma separated list.
type List struct {
	Items []Node
}

func (Raw) Type() NodeType         { return NodeRaw }
func (Identifier) Type() NodeType  { return NodeIdentifier }
func (Param) Type() NodeType       { return NodeParam }
func (Placeholder) Type() NodeType { return NodePlaceholder }
func (Nested) Type() NodeType      { return NodeNested }
func (ColumnRef) Type() NodeType   { return NodeColumn }
func (List) Type() NodeType        { return NodeList }
