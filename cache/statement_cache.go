package cache

import (
	"context"

	"github.com/Konsultn-Engineering/relsql/database"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// StatementCache keeps prepared statements keyed by their SQL text.
// Evicted statements are closed.
type StatementCache struct {
	cache *lru.Cache[string, database.Stmt]
	group singleflight.Group
}

// NewStatementCache creates a cache holding at most size statements.
func NewStatementCache(size int) (*StatementCache, error) {
	c, err := lru.NewWithEvict(size, func(_ string, stmt database.Stmt) {
		_ = stmt.Close()
	})
	if err != nil {
		return nil, err
	}
	return &StatementCache{cache: c}, nil
}

// Get returns the statement prepared for query, if cached.
func (s *StatementCache) Get(query string) (database.Stmt, bool) {
	return s.cache.Get(query)
}

// GetOrPrepare returns the cached statement for query or prepares it on db.
// Concurrent callers preparing the same text share one prepare call.
func (s *StatementCache) GetOrPrepare(ctx context.Context, db database.Database, query string) (database.Stmt, error) {
	if stmt, ok := s.cache.Get(query); ok {
		return stmt, nil
	}

	v, err, _ := s.group.Do(query, func() (any, error) {
		if stmt, ok := s.cache.Get(query); ok {
			return stmt, nil
		}
		stmt, err := db.PrepareContext(ctx, query)
		if err != nil {
			return nil, err
		}
		s.cache.Add(query, stmt)
		return stmt, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(database.Stmt), nil
}

// Len returns the number of cached statements.
func (s *StatementCache) Len() int {
	return s.cache.Len()
}

// Close closes and drops every cached statement.
func (s *StatementCache) Close() error {
	s.cache.Purge()
	return nil
}
