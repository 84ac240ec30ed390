package orm

import (
	"context"
	"fmt"
)

// RelationKind tags a Relation as has-one, has-many or belongs-to.
type RelationKind int

const (
	KindHasOne RelationKind = iota + 1
	KindHasMany
	KindBelongsTo
)

func (k RelationKind) String() string {
	switch k {
	case KindHasOne:
		return "has_one"
	case KindHasMany:
		return "has_many"
	case KindBelongsTo:
		return "belongs_to"
	default:
		return fmt.Sprintf("RelationKind(%d)", int(k))
	}
}

type relationConfig struct {
	name       string
	kind       RelationKind
	related    string
	foreignKey string
	localKey   string
}

// RelationOption overrides the conventional keys of a relation.
type RelationOption func(*relationConfig)

// ForeignKey overrides the foreign key column. For has-one / has-many it
// lives on the related table; for belongs-to it lives on this table.
func ForeignKey(col string) RelationOption {
	return func(c *relationConfig) { c.foreignKey = col }
}

// LocalKey overrides the key the foreign key points at. For has-one /
// has-many it is a column of this table; for belongs-to it is a column of
// the related table.
func LocalKey(col string) RelationOption {
	return func(c *relationConfig) { c.localKey = col }
}

// HasOne declares that at most one related row references this entity.
func HasOne(name, related string, opts ...RelationOption) EntityOption {
	return declareRelation(name, KindHasOne, related, opts)
}

// HasMany declares that any number of related rows reference this entity.
func HasMany(name, related string, opts ...RelationOption) EntityOption {
	return declareRelation(name, KindHasMany, related, opts)
}

// BelongsTo declares that this entity references a related row through a
// local foreign key column.
func BelongsTo(name, related string, opts ...RelationOption) EntityOption {
	return declareRelation(name, KindBelongsTo, related, opts)
}

func declareRelation(name string, kind RelationKind, related string, opts []RelationOption) EntityOption {
	return func(c *entityConfig) {
		rc := relationConfig{name: name, kind: kind, related: related}
		for _, opt := range opts {
			opt(&rc)
		}
		c.relations = append(c.relations, rc)
	}
}

// Relation is a resolved link between two entities. It is immutable.
type Relation struct {
	name       string
	kind       RelationKind
	parent     *Descriptor
	related    *Descriptor
	foreignKey string
	localKey   string
}

// Name returns the relation name, also used as the attribute name eager
// loaded results are stored under.
func (r *Relation) Name() string { return r.name }

// Kind returns the relation kind.
func (r *Relation) Kind() RelationKind { return r.kind }

// Parent returns the entity declaring the relation.
func (r *Relation) Parent() *Descriptor { return r.parent }

// Related returns the entity at the other end of the relation.
func (r *Relation) Related() *Descriptor { return r.related }

// ForeignKey returns the foreign key column.
func (r *Relation) ForeignKey() string { return r.foreignKey }

// LocalKey returns the column the foreign key points at.
func (r *Relation) LocalKey() string { return r.localKey }

// ownerKey is the column read from parent rows to match related rows.
func (r *Relation) ownerKey() string {
	if r.kind == KindBelongsTo {
		return r.foreignKey
	}
	return r.localKey
}

// relatedKey is the column of the related table matched against ownerKey.
func (r *Relation) relatedKey() string {
	if r.kind == KindBelongsTo {
		return r.localKey
	}
	return r.foreignKey
}

// join returns the INNER JOIN that brings the related table into a query
// on the parent table.
func (r *Relation) join() join {
	return join{table: r.related.table, localKey: r.ownerKey(), foreignKey: r.relatedKey()}
}

// Save attaches child to parent through a has-one or has-many relation:
// the child's foreign key is set from the parent's local key and the child
// is persisted.
func (r *Relation) Save(ctx context.Context, parent, child *Entity) error {
	if r.kind == KindBelongsTo {
		return fmt.Errorf("orm: %s.%s: save is not supported on %s relations", r.parent.name, r.name, r.kind)
	}
	key, ok := parent.Get(r.localKey)
	if !ok || key == nil {
		return fmt.Errorf("orm: %s.%s: %w", r.parent.name, r.name, ErrNoPrimaryKey)
	}
	child.Set(r.foreignKey, key)
	return child.Save(ctx)
}

// Associate points owner at related through a belongs-to relation by
// setting the owner's foreign key. The owner is not persisted.
func (r *Relation) Associate(owner, related *Entity) error {
	if r.kind != KindBelongsTo {
		return fmt.Errorf("orm: %s.%s: associate is only supported on %s relations", r.parent.name, r.name, KindBelongsTo)
	}
	key, ok := related.Get(r.localKey)
	if !ok || key == nil {
		return fmt.Errorf("orm: %s.%s: %w", r.parent.name, r.name, ErrNoPrimaryKey)
	}
	owner.Set(r.foreignKey, key)
	return nil
}

func resolveRelation(parent *Descriptor, rc relationConfig, related *Descriptor) *Relation {
	r := &Relation{
		name:       rc.name,
		kind:       rc.kind,
		parent:     parent,
		related:    related,
		foreignKey: rc.foreignKey,
		localKey:   rc.localKey,
	}
	switch rc.kind {
	case KindBelongsTo:
		if r.foreignKey == "" {
			r.foreignKey = related.foreignKey + "_id"
		}
		if r.localKey == "" {
			r.localKey = related.primaryKey
		}
	default:
		if r.foreignKey == "" {
			r.foreignKey = parent.foreignKey + "_id"
		}
		if r.localKey == "" {
			r.localKey = parent.primaryKey
		}
	}
	return r
}
