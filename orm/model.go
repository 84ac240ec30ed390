package orm

import (
	"context"
	"fmt"
	"maps"
)

// Model is an entity bound to a Querier: the entry point for queries and
// inserts on one table.
type Model struct {
	db   Querier
	reg  *Registry
	desc *Descriptor
}

// Descriptor returns the entity metadata.
func (m *Model) Descriptor() *Descriptor { return m.desc }

// Registry returns the registry the model was resolved from.
func (m *Model) Registry() *Registry { return m.reg }

// Query starts a new query on the model's table.
func (m *Model) Query() *Query { return newQuery(m) }

// With starts a query that eager loads the given relations.
func (m *Model) With(relations ...string) *Query { return m.Query().With(relations...) }

// Where starts a query with one predicate. See Query.Where.
func (m *Model) Where(column string, args ...any) *Query { return m.Query().Where(column, args...) }

// WhereMap starts a query with one equality predicate per entry.
func (m *Model) WhereMap(values map[string]any) *Query { return m.Query().WhereMap(values) }

// WhereIn starts a query with an IN predicate.
func (m *Model) WhereIn(column string, values ...any) *Query {
	return m.Query().WhereIn(column, values...)
}

// WhereNotIn starts a query with a NOT IN predicate.
func (m *Model) WhereNotIn(column string, values ...any) *Query {
	return m.Query().WhereNotIn(column, values...)
}

// WhereNull starts a query with an IS NULL predicate.
func (m *Model) WhereNull(column string) *Query { return m.Query().WhereNull(column) }

// WhereNotNull starts a query with an IS NOT NULL predicate.
func (m *Model) WhereNotNull(column string) *Query { return m.Query().WhereNotNull(column) }

// All returns every row of the table.
func (m *Model) All(ctx context.Context) (Entities, error) { return m.Query().Get(ctx) }

// Find returns the entity with the given primary key, or nil.
func (m *Model) Find(ctx context.Context, id any) (*Entity, error) {
	return m.Where(m.desc.primaryKey, id).First(ctx)
}

// FindOrFail is like Find but returns ErrNotFound when there is no such row.
func (m *Model) FindOrFail(ctx context.Context, id any) (*Entity, error) {
	return m.Where(m.desc.primaryKey, id).FirstOrFail(ctx)
}

// New returns an unsaved entity holding a copy of attrs.
func (m *Model) New(attrs map[string]any) *Entity {
	e := &Entity{model: m, attrs: make(map[string]any, len(attrs)), original: map[string]any{}}
	maps.Copy(e.attrs, attrs)
	return e
}

// Create inserts one row and returns it as a persisted entity with its
// generated primary key set.
func (m *Model) Create(ctx context.Context, attrs map[string]any) (*Entity, error) {
	e := m.New(attrs)
	if err := e.Save(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// CreateMany inserts every row with a single INSERT statement and returns
// the number of affected rows. All rows must have the same columns.
// An empty slice returns ErrEmptyInsert without touching the database.
func (m *Model) CreateMany(ctx context.Context, rows []map[string]any) (int64, error) {
	if len(rows) == 0 {
		return 0, ErrEmptyInsert
	}
	prepared := make([]map[string]any, len(rows))
	for i, row := range rows {
		prepared[i] = m.prepareInsert(ctx, row)
	}
	n, err := insertMany(ctx, m.db, m.desc.table, prepared)
	if err != nil {
		return 0, fmt.Errorf("orm: create %s: %w", m.desc.name, err)
	}
	return n, nil
}

// Update sets values on the rows matching every equality in where and
// returns the number of affected rows.
func (m *Model) Update(ctx context.Context, values, where map[string]any) (int64, error) {
	set := maps.Clone(values)
	if col := m.desc.UpdatedAtColumn(); col != "" && len(set) > 0 {
		if _, ok := set[col]; !ok {
			set[col] = now(ctx)
		}
	}
	return update(ctx, m.db, m.desc.table, set, where)
}

// Relation returns the named relation declared on the entity.
func (m *Model) Relation(name string) (*Relation, error) {
	r, ok := m.desc.Relation(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownRelation, m.desc.name, name)
	}
	return r, nil
}

func (m *Model) relatedModel(r *Relation) *Model {
	return &Model{db: m.db, reg: m.reg, desc: r.related}
}

// hydrate wraps a fetched row into a persisted entity.
func (m *Model) hydrate(row map[string]any) *Entity {
	e := &Entity{model: m, attrs: row, exists: true}
	e.syncOriginal()
	return e
}

// prepareInsert returns the column set written for a new row: relation
// attributes are dropped, timestamps and UUID keys are filled in.
func (m *Model) prepareInsert(ctx context.Context, attrs map[string]any) map[string]any {
	row := make(map[string]any, len(attrs)+2)
	for k, v := range attrs {
		if m.desc.isRelation(k) {
			continue
		}
		if _, isRelation := v.(Entities); isRelation {
			continue
		}
		row[k] = v
	}
	if m.desc.timestamps {
		t := now(ctx)
		if _, ok := row[m.desc.createdAt]; !ok {
			row[m.desc.createdAt] = t
		}
		if _, ok := row[m.desc.updatedAt]; !ok {
			row[m.desc.updatedAt] = t
		}
	}
	if m.desc.uuidKeys {
		if v, ok := row[m.desc.primaryKey]; !ok || v == nil || v == "" {
			row[m.desc.primaryKey] = newUUID()
		}
	}
	return row
}
