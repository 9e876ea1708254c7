package engine

import (
	"context"
	"fmt"

	"github.com/Konsultn-Engineering/relsql/query"
	"github.com/Konsultn-Engineering/relsql/visitor"
)

// Mode selects how a prepared query is executed and what it returns.
type Mode int

const (
	// ModeRun executes the statement and returns a RunResult.
	ModeRun Mode = iota
	// ModeAll returns every decoded row.
	ModeAll
	// ModeGet returns the first decoded row, or nil.
	ModeGet
	// ModeValues returns the raw positional rows.
	ModeValues
)

func (m Mode) String() string {
	switch m {
	case ModeRun:
		return "run"
	case ModeAll:
		return "all"
	case ModeGet:
		return "get"
	case ModeValues:
		return "values"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// RunResult reports the outcome of a statement executed in ModeRun.
type RunResult struct {
	RowsAffected int64
	LastInsertID int64
}

// PreparedQuery is a compiled statement with the selection its rows are
// decoded with. It can be executed any number of times; named placeholders
// are filled on each execution.
type PreparedQuery struct {
	session     *Session
	query       visitor.Query
	mode        Mode
	fields      []query.SelectedField
	nullability query.NullabilityMap
	selection   []query.SelectionEntry
	relational  bool
}

// SQL returns the rendered statement.
func (p *PreparedQuery) SQL() string { return p.query.SQL }

// Query returns the rendered statement with its parameters.
func (p *PreparedQuery) Query() visitor.Query { return p.query }

func (p *PreparedQuery) Mode() Mode { return p.mode }

// Fields returns the flat selection of a statement query.
func (p *PreparedQuery) Fields() []query.SelectedField { return p.fields }

// Selection returns the selection tree of a relational query.
func (p *PreparedQuery) Selection() []query.SelectionEntry { return p.selection }

// On returns a copy of p executing through s, e.g. inside a transaction.
func (p *PreparedQuery) On(s *Session) *PreparedQuery {
	cp := *p
	cp.session = s
	return &cp
}

// Execute runs the query in its mode. The result is a RunResult, []Row,
// Row or [][]any for ModeRun, ModeAll, ModeGet and ModeValues.
func (p *PreparedQuery) Execute(ctx context.Context, placeholders map[string]any) (any, error) {
	switch p.mode {
	case ModeRun:
		return p.Run(ctx, placeholders)
	case ModeAll:
		return p.All(ctx, placeholders)
	case ModeGet:
		return p.Get(ctx, placeholders)
	case ModeValues:
		return p.Values(ctx, placeholders)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedMode, p.mode)
}

func (p *PreparedQuery) params(placeholders map[string]any) ([]any, error) {
	return FillPlaceholders(p.query.Params, placeholders)
}

// Run executes the statement without reading rows.
func (p *PreparedQuery) Run(ctx context.Context, placeholders map[string]any) (RunResult, error) {
	params, err := p.params(placeholders)
	if err != nil {
		return RunResult{}, err
	}
	res, err := p.session.execContext(ctx, p.query.SQL, params)
	if err != nil {
		return RunResult{}, err
	}
	var out RunResult
	// Drivers without these counters report an error; the zero value stands.
	if n, err := res.RowsAffected(); err == nil {
		out.RowsAffected = n
	}
	if id, err := res.LastInsertId(); err == nil {
		out.LastInsertID = id
	}
	return out, nil
}

// Values returns the raw rows, undecoded.
func (p *PreparedQuery) Values(ctx context.Context, placeholders map[string]any) ([][]any, error) {
	params, err := p.params(placeholders)
	if err != nil {
		return nil, err
	}
	rows, err := p.session.queryContext(ctx, p.query.SQL, params)
	if err != nil {
		return nil, err
	}
	values, err := collectRows(rows)
	if err != nil {
		return nil, wrapQuery(p.query.SQL, params, err)
	}
	return values, nil
}

// All returns every row decoded against the selection.
func (p *PreparedQuery) All(ctx context.Context, placeholders map[string]any) ([]Row, error) {
	values, err := p.Values(ctx, placeholders)
	if err != nil {
		return nil, err
	}
	out := make([]Row, 0, len(values))
	for _, v := range values {
		row, err := p.mapRow(v)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// Get returns the first decoded row, or nil when there are none.
func (p *PreparedQuery) Get(ctx context.Context, placeholders map[string]any) (Row, error) {
	values, err := p.Values(ctx, placeholders)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	return p.mapRow(values[0])
}

func (p *PreparedQuery) mapRow(values []any) (Row, error) {
	if p.relational {
		return MapRelationalRow(p.selection, values)
	}
	return MapResultRow(p.fields, values, p.nullability)
}
