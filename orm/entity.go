package orm

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Entity is one row of a table: a keyed attribute table plus the bits
// needed to persist it again. Relations loaded with Query.With are stored
// as Entities attributes under the relation name.
//
// An Entity is owned by a single goroutine.
type Entity struct {
	model    *Model
	attrs    map[string]any
	original map[string]any
	exists   bool
}

// Model returns the model the entity belongs to.
func (e *Entity) Model() *Model { return e.model }

// Descriptor returns the entity's metadata.
func (e *Entity) Descriptor() *Descriptor { return e.model.desc }

// Exists reports whether the entity was loaded from, or saved to, the store.
func (e *Entity) Exists() bool { return e.exists }

// Key returns the primary key value.
func (e *Entity) Key() any { return e.attrs[e.model.desc.primaryKey] }

// Get returns the attribute value and whether it is set.
func (e *Entity) Get(column string) (any, bool) {
	v, ok := e.attrs[column]
	return v, ok
}

// Value returns the attribute value, or nil.
func (e *Entity) Value(column string) any { return e.attrs[column] }

// Has reports whether the attribute is set.
func (e *Entity) Has(column string) bool {
	_, ok := e.attrs[column]
	return ok
}

// Set assigns an attribute and returns the entity for chaining.
func (e *Entity) Set(column string, value any) *Entity {
	e.attrs[column] = value
	return e
}

// Fill assigns every entry of attrs.
func (e *Entity) Fill(attrs map[string]any) *Entity {
	maps.Copy(e.attrs, attrs)
	return e
}

// Attributes returns a copy of the attribute table, relations included.
func (e *Entity) Attributes() map[string]any { return maps.Clone(e.attrs) }

// String returns the attribute as a string; "" when unset.
func (e *Entity) String(column string) string { return toString(e.attrs[column]) }

// Int64 returns the attribute as an int64; 0 when unset or not numeric.
func (e *Entity) Int64(column string) int64 {
	n, _ := toInt64(e.attrs[column])
	return n
}

// Float64 returns the attribute as a float64; 0 when unset or not numeric.
func (e *Entity) Float64(column string) float64 {
	f, _ := toFloat64(e.attrs[column])
	return f
}

// Bool returns the attribute as a bool.
func (e *Entity) Bool(column string) bool { return toBool(e.attrs[column]) }

// Time returns the attribute as a time.Time; the zero time when unset or
// not parseable.
func (e *Entity) Time(column string) time.Time {
	t, _ := toTime(e.attrs[column])
	return t
}

// Related returns the eager loaded entities of a relation. It is empty
// when the relation was not loaded or matched nothing.
func (e *Entity) Related(name string) Entities {
	if c, ok := e.attrs[name].(Entities); ok {
		return c
	}
	return Entities{}
}

// RelatedOne returns the first eager loaded entity of a has-one or
// belongs-to relation, or nil.
func (e *Entity) RelatedOne(name string) *Entity {
	first, _ := e.Related(name).First()
	return first
}

// Trashed reports whether a soft-delete capable entity is marked deleted.
func (e *Entity) Trashed() bool {
	col := e.model.desc.DeletedAtColumn()
	return col != "" && e.attrs[col] != nil
}

// Dirty returns the columns changed since the entity was loaded or saved.
// Relation attributes are never dirty.
func (e *Entity) Dirty() map[string]any {
	dirty := make(map[string]any)
	for k, v := range e.attrs {
		if e.model.desc.isRelation(k) {
			continue
		}
		if _, isRelation := v.(Entities); isRelation {
			continue
		}
		if old, ok := e.original[k]; ok && reflect.DeepEqual(old, v) {
			continue
		}
		dirty[k] = v
	}
	return dirty
}

// IsDirty reports whether any column changed.
func (e *Entity) IsDirty() bool { return len(e.Dirty()) > 0 }

func (e *Entity) syncOriginal() {
	e.original = make(map[string]any, len(e.attrs))
	for k, v := range e.attrs {
		if _, isRelation := v.(Entities); isRelation {
			continue
		}
		e.original[k] = v
	}
}

// Save inserts a new entity or updates the changed columns of a persisted
// one. After an insert the generated primary key is set on the entity.
func (e *Entity) Save(ctx context.Context) error {
	if e.exists {
		return e.saveChanges(ctx)
	}
	m := e.model
	row := m.prepareInsert(ctx, e.attrs)
	id, err := insert(ctx, m.db, m.desc.table, m.desc.primaryKey, row)
	if err != nil {
		return fmt.Errorf("orm: create %s: %w", m.desc.name, err)
	}
	maps.Copy(e.attrs, row)
	if _, ok := row[m.desc.primaryKey]; !ok && id != 0 {
		e.attrs[m.desc.primaryKey] = id
	}
	e.exists = true
	e.syncOriginal()
	return nil
}

func (e *Entity) saveChanges(ctx context.Context) error {
	m := e.model
	dirty := e.Dirty()
	delete(dirty, m.desc.primaryKey)
	if len(dirty) == 0 {
		return nil
	}
	key := e.Key()
	if key == nil {
		return fmt.Errorf("orm: update %s: %w", m.desc.name, ErrNoPrimaryKey)
	}
	if col := m.desc.UpdatedAtColumn(); col != "" {
		if _, ok := dirty[col]; !ok {
			t := now(ctx)
			dirty[col] = t
			e.attrs[col] = t
		}
	}
	if _, err := update(ctx, m.db, m.desc.table, dirty, map[string]any{m.desc.primaryKey: key}); err != nil {
		return fmt.Errorf("orm: update %s: %w", m.desc.name, err)
	}
	e.syncOriginal()
	return nil
}

// Delete removes the entity's row. Soft-delete capable entities get their
// deleted_at attribute stamped instead and stay loaded.
func (e *Entity) Delete(ctx context.Context) error {
	m := e.model
	key := e.Key()
	if key == nil {
		return fmt.Errorf("orm: delete %s: %w", m.desc.name, ErrNoPrimaryKey)
	}
	where := map[string]any{m.desc.primaryKey: key}

	if col := m.desc.DeletedAtColumn(); col != "" {
		t := now(ctx)
		if _, err := update(ctx, m.db, m.desc.table, map[string]any{col: t}, where); err != nil {
			return fmt.Errorf("orm: delete %s: %w", m.desc.name, err)
		}
		e.attrs[col] = t
		e.original[col] = t
		return nil
	}

	if _, err := remove(ctx, m.db, m.desc.table, where); err != nil {
		return fmt.Errorf("orm: delete %s: %w", m.desc.name, err)
	}
	e.exists = false
	return nil
}

// Restore clears the soft-delete marker of a trashed entity.
func (e *Entity) Restore(ctx context.Context) error {
	m := e.model
	col := m.desc.DeletedAtColumn()
	if col == "" {
		return fmt.Errorf("orm: %s does not soft delete", m.desc.name)
	}
	key := e.Key()
	if key == nil {
		return fmt.Errorf("orm: restore %s: %w", m.desc.name, ErrNoPrimaryKey)
	}
	if _, err := update(ctx, m.db, m.desc.table, map[string]any{col: nil}, map[string]any{m.desc.primaryKey: key}); err != nil {
		return fmt.Errorf("orm: restore %s: %w", m.desc.name, err)
	}
	e.attrs[col] = nil
	e.original[col] = nil
	return nil
}

// Load eager loads relations onto an already fetched entity.
func (e *Entity) Load(ctx context.Context, relations ...string) error {
	return Load(ctx, Entities{e}, relations...)
}

// Load eager loads relations onto a set of entities of the same model,
// one query per relation.
func Load(ctx context.Context, entities Entities, relations ...string) error {
	if len(entities) == 0 {
		return nil
	}
	q := entities[0].model.Query().With(relations...)
	if q.err != nil {
		return q.err
	}
	return q.eagerLoad(ctx, entities)
}

func newUUID() string { return uuid.NewString() }
