package query

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnjoinedColumn     = errors.New("column references a table that is not part of the query")
	ErrEmptySetOperators  = errors.New("set operation needs a right-hand query")
	ErrSetOperationShape  = errors.New("set operation selects different fields on each side")
	ErrDuplicateAlias     = errors.New("alias is already used in this query")
	ErrEmptySelection     = errors.New("relational query selects nothing")
	ErrUnknownRelation    = errors.New("unknown relation")
	ErrUnknownColumn      = errors.New("unknown column")
	ErrInvalidPlan        = errors.New("invalid plan")
	ErrRecursiveUndefined = errors.New("recursive common table expression has no body")
)

// PlanError reports a malformed plan. It is raised before any SQL is
// produced and names the offending field path, table and column.
type PlanError struct {
	Op     string
	Path   []string
	Table  string
	Column string
	Err    error
}

func (e *PlanError) Error() string {
	var sb strings.Builder
	sb.WriteString("query: ")
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	if len(e.Path) > 0 {
		fmt.Fprintf(&sb, "field %q: ", strings.Join(e.Path, "."))
	}
	switch {
	case e.Table != "" && e.Column != "":
		fmt.Fprintf(&sb, "%q.%q: ", e.Table, e.Column)
	case e.Table != "":
		fmt.Fprintf(&sb, "%q: ", e.Table)
	case e.Column != "":
		fmt.Fprintf(&sb, "%q: ", e.Column)
	}
	sb.WriteString(e.Err.Error())
	return sb.String()
}

func (e *PlanError) Unwrap() error {
	return e.Err
}

func planError(op string, err error) *PlanError {
	return &PlanError{Op: op, Err: err}
}

// IsPlanError reports whether err is a plan error.
func IsPlanError(err error) bool {
	var pe *PlanError
	return errors.As(err, &pe)
}
