package schema

// Cardinality says whether a relation loads one object or a sequence.
type Cardinality int

const (
	One Cardinality = iota
	Many
)

func (c Cardinality) String() string {
	if c == Many {
		return "many"
	}
	return "one"
}

// Relation describes an association from a source table to a target table.
// Fields are columns of the source table, References the matching columns
// of the target table, paired by position. A Many relation may leave both
// empty and have them inferred from the inverse One relation.
type Relation struct {
	Key         string
	Cardinality Cardinality
	Source      *Table
	Target      *Table
	Fields      []*Column
	References  []*Column
	// Name disambiguates several relations between the same pair of tables.
	Name string
}

// RelationOption configures a relation.
type RelationOption func(*Relation)

// OnFields sets the local columns of the relation.
func OnFields(fields ...*Column) RelationOption {
	return func(r *Relation) { r.Fields = fields }
}

// References sets the referenced columns of the target table.
func References(refs ...*Column) RelationOption {
	return func(r *Relation) { r.References = refs }
}

// RelationName sets the relation name used to pair inverse relations.
func RelationName(name string) RelationOption {
	return func(r *Relation) { r.Name = name }
}

// HasOne declares a One relation. An empty key defaults to the singular
// target table name.
func HasOne(key string, target *Table, opts ...RelationOption) *Relation {
	if key == "" {
		key = ToCamelCase(Singularize(target.OriginalName()))
	}
	return newRelation(key, One, target, opts)
}

// HasMany declares a Many relation. An empty key defaults to the plural
// target table name.
func HasMany(key string, target *Table, opts ...RelationOption) *Relation {
	if key == "" {
		key = ToCamelCase(Pluralize(target.OriginalName()))
	}
	return newRelation(key, Many, target, opts)
}

func newRelation(key string, card Cardinality, target *Table, opts []RelationOption) *Relation {
	r := &Relation{Key: key, Cardinality: card, Target: target}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Explicit reports whether the relation carries its own column pairs.
func (r *Relation) Explicit() bool {
	return len(r.Fields) > 0
}
