package schema

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrTableNotFound       = errors.New("table not found in registry")
	ErrAmbiguousRelation   = errors.New("ambiguous relation")
	ErrUnresolvedRelation  = errors.New("not enough information to infer relation")
	ErrMismatchedRelations = errors.New("relation fields and references differ in length")
)

// Registry holds the tables and relations a relational query can traverse.
type Registry struct {
	mu        sync.RWMutex
	tables    map[string]*Table
	order     []string
	relations map[string][]*Relation
}

func NewRegistry() *Registry {
	return &Registry{
		tables:    make(map[string]*Table),
		relations: make(map[string][]*Relation),
	}
}

// Register adds tables to the registry. Re-registering a table is a no-op.
func (r *Registry) Register(tables ...*Table) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range tables {
		key := t.UniqueName()
		if _, ok := r.tables[key]; ok {
			continue
		}
		r.tables[key] = t
		r.order = append(r.order, key)
	}
	return r
}

// Relate attaches relations to source. The source table is registered if
// it was not already.
func (r *Registry) Relate(source *Table, relations ...*Relation) error {
	r.Register(source)

	r.mu.Lock()
	defer r.mu.Unlock()
	key := source.UniqueName()
	for _, rel := range relations {
		if len(rel.Fields) != len(rel.References) {
			return fmt.Errorf("schema: relation %s.%s: %w", source.OriginalName(), rel.Key, ErrMismatchedRelations)
		}
		for _, existing := range r.relations[key] {
			if existing.Key == rel.Key {
				return fmt.Errorf("schema: relation %s.%s declared twice", source.OriginalName(), rel.Key)
			}
		}
		rel.Source = source
		r.relations[key] = append(r.relations[key], rel)
	}
	return nil
}

// Tables returns the registered tables in registration order.
func (r *Registry) Tables() []*Table {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Table, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.tables[key])
	}
	return out
}

// Table finds a table by its declared name.
func (r *Registry) Table(name string) (*Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, key := range r.order {
		if t := r.tables[key]; t.OriginalName() == name {
			return t, true
		}
	}
	return nil, false
}

// Relations returns the relations declared on t (or on the table t aliases).
func (r *Registry) Relations(t *Table) []*Relation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rels := r.relations[t.UniqueName()]
	out := make([]*Relation, len(rels))
	copy(out, rels)
	return out
}

// Relation finds the relation declared on t under key.
func (r *Registry) Relation(t *Table, key string) (*Relation, bool) {
	for _, rel := range r.Relations(t) {
		if rel.Key == key {
			return rel, true
		}
	}
	return nil, false
}

// Normalize returns the column pairs of rel. Relations without explicit
// columns take them, swapped, from the single inverse One relation on the
// target table: the one sharing rel's name, or when rel is unnamed the one
// pointing back at rel's source table.
func (r *Registry) Normalize(rel *Relation) (fields, references []*Column, err error) {
	if rel.Cardinality == One && rel.Explicit() {
		return rel.Fields, rel.References, nil
	}

	r.mu.RLock()
	_, targetOK := r.tables[rel.Target.UniqueName()]
	_, sourceOK := r.tables[rel.Source.UniqueName()]
	candidates := r.relations[rel.Target.UniqueName()]
	r.mu.RUnlock()

	if !targetOK {
		return nil, nil, fmt.Errorf("schema: %q: %w", rel.Target.OriginalName(), ErrTableNotFound)
	}
	if !sourceOK {
		return nil, nil, fmt.Errorf("schema: %q: %w", rel.Source.OriginalName(), ErrTableNotFound)
	}
	if rel.Explicit() {
		return rel.Fields, rel.References, nil
	}

	var inverse []*Relation
	for _, cand := range candidates {
		if rel.Name != "" {
			if cand != rel && cand.Name == rel.Name {
				inverse = append(inverse, cand)
			}
			continue
		}
		if SameTable(cand.Target, rel.Source) {
			inverse = append(inverse, cand)
		}
	}

	if len(inverse) > 1 {
		if rel.Name != "" {
			return nil, nil, fmt.Errorf("schema: multiple relations named %q in table %q: %w",
				rel.Name, rel.Target.OriginalName(), ErrAmbiguousRelation)
		}
		return nil, nil, fmt.Errorf("schema: multiple relations between %q and %q, set a relation name: %w",
			rel.Target.OriginalName(), rel.Source.OriginalName(), ErrAmbiguousRelation)
	}
	if len(inverse) == 1 && inverse[0].Cardinality == One && inverse[0].Explicit() {
		return inverse[0].References, inverse[0].Fields, nil
	}
	return nil, nil, fmt.Errorf("schema: relation %s.%s: %w", rel.Source.OriginalName(), rel.Key, ErrUnresolvedRelation)
}
