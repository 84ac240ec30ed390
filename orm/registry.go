package orm

import (
	"errors"
	"fmt"

	"github.com/mickamy/activerecord/internal/naming"
)

// Naming turns the snake_case singular form of an entity name into its
// table name.
type Naming func(singular string) string

var (
	// PlainNaming appends "s": "category" → "categorys". This is the default.
	PlainNaming Naming = naming.Plural

	// InflectedNaming applies English inflection rules: "category" → "categories".
	InflectedNaming Naming = naming.InflectPlural
)

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithPrefix sets the host-wide table prefix applied to every entity.
func WithPrefix(p string) RegistryOption {
	return func(r *Registry) { r.prefix = p }
}

// WithNaming sets the table naming strategy.
func WithNaming(n Naming) RegistryOption {
	return func(r *Registry) { r.naming = n }
}

// Registry holds the resolved descriptors of every entity. It is built once
// at startup, is immutable afterwards and safe for concurrent use.
type Registry struct {
	prefix   string
	naming   Naming
	entities map[string]*Descriptor
	order    []string
}

// NewRegistry resolves the given definitions: table names, keys and
// relations are derived once here and never recomputed.
func NewRegistry(defs []Definition, opts ...RegistryOption) (*Registry, error) {
	r := &Registry{naming: PlainNaming, entities: make(map[string]*Descriptor, len(defs))}
	for _, opt := range opts {
		opt(r)
	}

	configs := make(map[string]*entityConfig, len(defs))
	for _, def := range defs {
		if def.name == "" {
			return nil, errors.New("orm: entity definition without a name")
		}
		if _, dup := r.entities[def.name]; dup {
			return nil, fmt.Errorf("orm: entity %q defined twice", def.name)
		}
		cfg := &entityConfig{}
		for _, opt := range def.opts {
			opt(cfg)
		}
		configs[def.name] = cfg
		r.entities[def.name] = r.describe(def.name, cfg)
		r.order = append(r.order, def.name)
	}

	for _, name := range r.order {
		d := r.entities[name]
		for _, rc := range configs[name].relations {
			if rc.name == "" {
				return nil, fmt.Errorf("orm: %s: relation without a name", name)
			}
			if _, dup := d.relations[rc.name]; dup {
				return nil, fmt.Errorf("orm: %s: relation %q declared twice", name, rc.name)
			}
			related, ok := r.entities[rc.related]
			if !ok {
				return nil, fmt.Errorf("orm: %s.%s: %w %q", name, rc.name, ErrUnknownEntity, rc.related)
			}
			d.relations[rc.name] = resolveRelation(d, rc, related)
			d.relationOrder = append(d.relationOrder, rc.name)
		}
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error. It is meant for
// package-level registries built from static definitions.
func MustRegistry(defs []Definition, opts ...RegistryOption) *Registry {
	r, err := NewRegistry(defs, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) describe(name string, cfg *entityConfig) *Descriptor {
	base := naming.CamelToSnake(name)
	d := &Descriptor{
		name:        name,
		prefix:      cfg.prefix,
		primaryKey:  cfg.primaryKey,
		foreignKey:  cfg.foreignKey,
		softDeletes: cfg.softDeletes,
		deletedAt:   cfg.deletedAt,
		timestamps:  cfg.timestamps,
		createdAt:   cfg.createdAt,
		updatedAt:   cfg.updatedAt,
		uuidKeys:    cfg.uuidKeys,
		columns:     append([]string(nil), cfg.columns...),
		relations:   make(map[string]*Relation, len(cfg.relations)),
	}
	logical := cfg.table
	if logical == "" {
		logical = r.naming(base)
	}
	d.table = TableName(r.prefix, cfg.prefix, logical)
	if d.primaryKey == "" {
		d.primaryKey = defaultPrimaryKey
	}
	if d.foreignKey == "" {
		d.foreignKey = base
	}
	if d.softDeletes && d.deletedAt == "" {
		d.deletedAt = defaultDeletedAt
	}
	if d.timestamps && d.createdAt == "" {
		d.createdAt = defaultCreatedAt
	}
	if d.timestamps && d.updatedAt == "" {
		d.updatedAt = defaultUpdatedAt
	}
	return d
}

// Prefix returns the host-wide table prefix.
func (r *Registry) Prefix() string { return r.prefix }

// Entity looks up a descriptor by entity name.
func (r *Registry) Entity(name string) (*Descriptor, bool) {
	d, ok := r.entities[name]
	return d, ok
}

// Entities returns every descriptor in definition order.
func (r *Registry) Entities() []*Descriptor {
	out := make([]*Descriptor, len(r.order))
	for i, name := range r.order {
		out[i] = r.entities[name]
	}
	return out
}

// Model binds the named entity to a Querier.
func (r *Registry) Model(db Querier, name string) (*Model, error) {
	d, ok := r.entities[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownEntity, name)
	}
	return &Model{db: db, reg: r, desc: d}, nil
}

// MustModel is like Model but panics when the entity is unknown.
func (r *Registry) MustModel(db Querier, name string) *Model {
	m, err := r.Model(db, name)
	if err != nil {
		panic(err)
	}
	return m
}
