package engine

import (
	"context"
	"fmt"
	"strconv"
)

// Tx is a session bound to a transaction. Nested calls to Transaction on a
// Tx open savepoints.
type Tx struct {
	*Session
	depth int
}

// Depth returns 0 for the outermost transaction and the savepoint nesting
// level otherwise.
func (tx *Tx) Depth() int { return tx.depth }

// Rollback returns ErrRollback. Returning it from the transaction body
// rolls the transaction back, and Transaction returns it to the caller.
func (tx *Tx) Rollback() error {
	return ErrRollback
}

// TxOption configures a transaction.
type TxOption func(*txConfig)

type txConfig struct {
	behavior string
}

// WithBehavior sets the keyword after begin, e.g. deferred, immediate or
// exclusive on SQLite. It applies to the outermost transaction only.
func WithBehavior(behavior string) TxOption {
	return func(c *txConfig) { c.behavior = behavior }
}

// Transaction runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back when fn returns an error or panics. Inside an
// open transaction it runs fn in a savepoint instead.
func (s *Session) Transaction(ctx context.Context, fn func(tx *Tx) error, opts ...TxOption) error {
	cfg := txConfig{behavior: s.engine.beginMode}
	for _, opt := range opts {
		opt(&cfg)
	}
	if s.tx != nil {
		return s.savepoint(ctx, fn)
	}

	conn, err := s.engine.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("engine: begin: %w", err)
	}
	defer conn.Close()

	tx := &Tx{}
	tx.Session = &Session{engine: s.engine, exec: conn, tx: tx}

	begin := "begin"
	if cfg.behavior != "" {
		begin += " " + cfg.behavior
	}
	if _, err := tx.execContext(ctx, begin, nil); err != nil {
		return err
	}
	return tx.finish(ctx, fn, "commit", "rollback")
}

func (s *Session) savepoint(ctx context.Context, fn func(tx *Tx) error) error {
	tx := &Tx{depth: s.tx.depth + 1}
	tx.Session = &Session{engine: s.engine, exec: s.exec, tx: tx}

	name := "sp" + strconv.Itoa(tx.depth)
	if _, err := tx.execContext(ctx, "savepoint "+name, nil); err != nil {
		return err
	}
	return tx.finish(ctx, fn, "release savepoint "+name, "rollback to savepoint "+name)
}

// finish runs fn and then commit or rollback.
func (tx *Tx) finish(ctx context.Context, fn func(tx *Tx) error, commit, rollback string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			_, _ = tx.execContext(ctx, rollback, nil)
			panic(r)
		}
	}()

	if err = fn(tx); err != nil {
		if _, rbErr := tx.execContext(ctx, rollback, nil); rbErr != nil {
			return fmt.Errorf("engine: %s: %w (after %v)", rollback, rbErr, err)
		}
		if IsRollback(err) {
			tx.engine.logger.DebugContext(ctx, "transaction rolled back", "depth", tx.depth)
		}
		return err
	}
	if _, err := tx.execContext(ctx, commit, nil); err != nil {
		_, _ = tx.execContext(ctx, rollback, nil)
		return err
	}
	return nil
}
