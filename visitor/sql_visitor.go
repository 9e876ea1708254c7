package visitor

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Konsultn-Engineering/relsql/ast"
	"github.com/Konsultn-Engineering/relsql/cache"
	"github.com/Konsultn-Engineering/relsql/dialect"
	"github.com/Konsultn-Engineering/relsql/schema"
)

var ErrNilColumn = errors.New("visitor: nil column reference")

var visitorPool = sync.Pool{
	New: func() any {
		return &SQLVisitor{
			params:  make([]any, 0, 8),
			typings: make([]string, 0, 8),
		}
	},
}

// Query is a rendered statement. Params line up positionally with the
// placeholders in SQL; Typings carries one hint per param.
type Query struct {
	SQL     string
	Params  []any
	Typings []string
}

// HasPlaceholders reports whether some params still wait for a value.
func (q Query) HasPlaceholders() bool {
	for _, p := range q.Params {
		if _, ok := p.(ast.Param); ok {
			return true
		}
	}
	return false
}

// Options tune rendering.
type Options struct {
	// InlineParams renders bound values as escaped literals instead of
	// placeholders. Placeholders for named holes are still emitted.
	InlineParams bool
}

// SQLVisitor linearizes a fragment tree into SQL text and parameters.
type SQLVisitor struct {
	sb      strings.Builder
	params  []any
	typings []string
	dialect dialect.Dialect
	casing  *cache.CasingCache
	opts    Options
}

func NewSQLVisitor(d dialect.Dialect, casing *cache.CasingCache, opts Options) *SQLVisitor {
	v := visitorPool.Get().(*SQLVisitor)
	v.dialect = d
	v.casing = casing
	v.opts = opts
	v.Reset()
	return v
}

func (v *SQLVisitor) Release() {
	v.dialect = nil
	v.casing = nil
	v.Reset()
	visitorPool.Put(v)
}

func (v *SQLVisitor) Reset() {
	v.sb.Reset()
	v.params = v.params[:0]
	v.typings = v.typings[:0]
}

// Build renders f. The visitor can be reused after Reset.
func (v *SQLVisitor) Build(f ast.Fragment) (Query, error) {
	if err := v.visitNodes(f.Nodes()); err != nil {
		return Query{}, err
	}
	q := Query{SQL: v.sb.String()}
	if len(v.params) > 0 {
		q.Params = make([]any, len(v.params))
		copy(q.Params, v.params)
		q.Typings = make([]string, len(v.typings))
		copy(q.Typings, v.typings)
	}
	return q, nil
}

// Render is the one-shot form of NewSQLVisitor + Build.
func Render(f ast.Fragment, d dialect.Dialect, casing *cache.CasingCache, opts ...Options) (Query, error) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	v := NewSQLVisitor(d, casing, o)
	defer v.Release()
	return v.Build(f)
}

func (v *SQLVisitor) visitNodes(nodes []ast.Node) error {
	for _, n := range nodes {
		if err := v.visit(n); err != nil {
			return err
		}
	}
	return nil
}

func (v *SQLVisitor) visit(n ast.Node) error {
	switch node := n.(type) {
	case ast.Raw:
		v.sb.WriteString(node.Text)
	case ast.Identifier:
		v.sb.WriteString(v.dialect.QuoteIdentifier(node.Name))
	case ast.Param:
		return v.visitParam(node)
	case ast.Placeholder:
		v.addParam(ast.Param{Value: node}, "none")
	case ast.Nested:
		return v.visitNodes(node.Fragment.Nodes())
	case ast.ColumnRef:
		return v.visitColumn(node)
	case ast.List:
		v.sb.WriteByte('(')
		for i, item := range node.Items {
			if i > 0 {
				v.sb.WriteString(", ")
			}
			if err := v.visit(item); err != nil {
				return err
			}
		}
		v.sb.WriteByte(')')
	default:
		return fmt.Errorf("visitor: unsupported node %T", n)
	}
	return nil
}

func (v *SQLVisitor) visitParam(p ast.Param) error {
	typing := "none"
	if p.Encoder != nil {
		typing = schema.TypingOf(p.Encoder)
	}

	if _, ok := p.Value.(ast.Placeholder); ok {
		v.addParam(p, typing)
		return nil
	}

	value := p.Value
	if p.Encoder != nil {
		encoded, err := p.Encoder.ToDriver(value)
		if err != nil {
			return fmt.Errorf("visitor: encode param %d: %w", len(v.params)+1, err)
		}
		value = encoded
	}

	if v.opts.InlineParams {
		v.sb.WriteString(v.dialect.RenderValue(value))
		return nil
	}
	v.addParam(value, typing)
	return nil
}

func (v *SQLVisitor) addParam(value any, typing string) {
	v.params = append(v.params, value)
	v.typings = append(v.typings, typing)
	v.sb.WriteString(v.dialect.Placeholder(len(v.params)))
}

func (v *SQLVisitor) visitColumn(c ast.ColumnRef) error {
	if c.Column == nil {
		return ErrNilColumn
	}
	name := v.dialect.QuoteIdentifier(v.casing.ColumnCasing(c.Column))
	if c.Bare || c.Column.Table() == nil {
		v.sb.WriteString(name)
		return nil
	}
	v.sb.WriteString(v.dialect.QuoteIdentifier(c.Column.TableName()))
	v.sb.WriteByte('.')
	v.sb.WriteString(name)
	return nil
}
