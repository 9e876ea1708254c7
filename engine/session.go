package engine

import (
	"context"
	"time"

	"github.com/Konsultn-Engineering/relsql/database"
	"github.com/Konsultn-Engineering/relsql/query"
	"github.com/Konsultn-Engineering/relsql/schema"
)

// Session executes plans on the pool or, inside Transaction, on a pinned
// connection.
type Session struct {
	engine *Engine
	exec   database.Executor
	tx     *Tx
}

func (s *Session) Engine() *Engine { return s.engine }

// InTransaction reports whether the session runs inside a transaction.
func (s *Session) InTransaction() bool { return s.tx != nil }

// Prepare compiles plan for execution in mode.
func (s *Session) Prepare(plan query.Plan, mode Mode) (*PreparedQuery, error) {
	q, err := s.engine.compiler.Compile(plan)
	if err != nil {
		return nil, err
	}
	fields, nullability := shapeOf(plan)
	return &PreparedQuery{
		session:     s,
		query:       q,
		mode:        mode,
		fields:      fields,
		nullability: nullability,
	}, nil
}

// PrepareRelational compiles an eager-load plan. A plan built with
// query.FindFirst runs in ModeGet, any other in ModeAll.
func (s *Session) PrepareRelational(plan *query.RelationPlan) (*PreparedQuery, error) {
	rq, err := s.engine.compiler.CompileRelational(plan)
	if err != nil {
		return nil, err
	}
	mode := ModeAll
	if plan.Mode == query.LoadFirst {
		mode = ModeGet
	}
	return &PreparedQuery{
		session:    s,
		query:      rq.Query,
		mode:       mode,
		selection:  rq.Selection,
		relational: true,
	}, nil
}

// PrepareNamed compiles plan once and keeps it under name. Later calls with
// the same name return the cached query bound to s.
func (s *Session) PrepareNamed(name string, plan query.Plan, mode Mode) (*PreparedQuery, error) {
	if p, ok := s.engine.prepared.Get(name); ok {
		return p.On(s), nil
	}
	p, err := s.Prepare(plan, mode)
	if err != nil {
		return nil, err
	}
	s.engine.prepared.Set(name, p)
	return p, nil
}

// Named returns the query cached under name by PrepareNamed.
func (s *Session) Named(name string) (*PreparedQuery, bool) {
	p, ok := s.engine.prepared.Get(name)
	if !ok {
		return nil, false
	}
	return p.On(s), true
}

// Run compiles and executes plan, returning the affected row count.
func (s *Session) Run(ctx context.Context, plan query.Plan) (RunResult, error) {
	p, err := s.Prepare(plan, ModeRun)
	if err != nil {
		return RunResult{}, err
	}
	return p.Run(ctx, nil)
}

// All compiles and executes plan, returning every decoded row.
func (s *Session) All(ctx context.Context, plan query.Plan) ([]Row, error) {
	p, err := s.Prepare(plan, ModeAll)
	if err != nil {
		return nil, err
	}
	return p.All(ctx, nil)
}

// Get compiles and executes plan, returning the first decoded row or nil.
func (s *Session) Get(ctx context.Context, plan query.Plan) (Row, error) {
	p, err := s.Prepare(plan, ModeGet)
	if err != nil {
		return nil, err
	}
	return p.Get(ctx, nil)
}

// Values compiles and executes plan, returning the raw rows.
func (s *Session) Values(ctx context.Context, plan query.Plan) ([][]any, error) {
	p, err := s.Prepare(plan, ModeValues)
	if err != nil {
		return nil, err
	}
	return p.Values(ctx, nil)
}

// FindMany loads every row of table with the configured relations.
func (s *Session) FindMany(ctx context.Context, table *schema.Table, cfg query.RelationalConfig) ([]Row, error) {
	plan, err := query.FindMany(s.engine.registry, table, cfg)
	if err != nil {
		return nil, err
	}
	p, err := s.PrepareRelational(plan)
	if err != nil {
		return nil, err
	}
	return p.All(ctx, nil)
}

// FindFirst loads the first row of table with the configured relations, or
// nil when there is none.
func (s *Session) FindFirst(ctx context.Context, table *schema.Table, cfg query.RelationalConfig) (Row, error) {
	plan, err := query.FindFirst(s.engine.registry, table, cfg)
	if err != nil {
		return nil, err
	}
	p, err := s.PrepareRelational(plan)
	if err != nil {
		return nil, err
	}
	return p.Get(ctx, nil)
}

// Exec runs raw SQL text. It bypasses the compiler and is meant for DDL and
// driver pragmas.
func (s *Session) Exec(ctx context.Context, sql string, args ...any) (RunResult, error) {
	res, err := s.execContext(ctx, sql, args)
	if err != nil {
		return RunResult{}, err
	}
	var out RunResult
	if n, err := res.RowsAffected(); err == nil {
		out.RowsAffected = n
	}
	if id, err := res.LastInsertId(); err == nil {
		out.LastInsertID = id
	}
	return out, nil
}

func (s *Session) execContext(ctx context.Context, sql string, params []any) (database.Result, error) {
	start := time.Now()
	var (
		res database.Result
		err error
	)
	if stmt := s.statement(ctx, sql); stmt != nil {
		res, err = stmt.ExecContext(ctx, params...)
	} else {
		res, err = s.exec.ExecContext(ctx, sql, params...)
	}
	s.engine.record(ctx, sql, params, start, err)
	if err != nil {
		return nil, wrapQuery(sql, params, err)
	}
	return res, nil
}

func (s *Session) queryContext(ctx context.Context, sql string, params []any) (database.Rows, error) {
	start := time.Now()
	var (
		rows database.Rows
		err  error
	)
	if stmt := s.statement(ctx, sql); stmt != nil {
		rows, err = stmt.QueryContext(ctx, params...)
	} else {
		rows, err = s.exec.QueryContext(ctx, sql, params...)
	}
	s.engine.record(ctx, sql, params, start, err)
	if err != nil {
		return nil, wrapQuery(sql, params, err)
	}
	return rows, nil
}

// statement returns a cached prepared statement for sql. Transactions and
// engines without a statement cache execute the text directly.
func (s *Session) statement(ctx context.Context, sql string) database.Stmt {
	if s.tx != nil || s.engine.stmts == nil {
		return nil
	}
	stmt, err := s.engine.stmts.GetOrPrepare(ctx, s.engine.db, sql)
	if err != nil {
		s.engine.logger.DebugContext(ctx, "prepare failed, executing directly", "sql", sql, "error", err)
		return nil
	}
	return stmt
}

// shapeOf returns the flat selection and nullability a plan's rows decode with.
func shapeOf(plan query.Plan) ([]query.SelectedField, query.NullabilityMap) {
	switch p := plan.(type) {
	case query.SelectBuilder:
		sp := p.Plan()
		return sp.SelectedFields(), sp.Nullability
	case query.SelectPlan:
		return p.SelectedFields(), p.Nullability
	case query.InsertBuilder:
		return p.Plan().Returning, nil
	case query.InsertPlan:
		return p.Returning, nil
	case query.UpdateBuilder:
		return p.Plan().Returning, nil
	case query.UpdatePlan:
		return p.Returning, nil
	case query.DeleteBuilder:
		return p.Plan().Returning, nil
	case query.DeletePlan:
		return p.Returning, nil
	}
	return nil, nil
}
