package orm

// Definition declares an entity: its name plus the options that shape its
// descriptor. Definitions are turned into immutable Descriptors by
// NewRegistry.
//
//	orm.Define("Post",
//		orm.SoftDeletes(),
//		orm.BelongsTo("user", "User"),
//		orm.HasMany("comments", "Comment"),
//	)
type Definition struct {
	name string
	opts []EntityOption
}

// Define returns a Definition for the named entity.
func Define(name string, opts ...EntityOption) Definition {
	return Definition{name: name, opts: opts}
}

// Name returns the entity name.
func (d Definition) Name() string { return d.name }

type entityConfig struct {
	table       string
	prefix      string
	primaryKey  string
	foreignKey  string
	softDeletes bool
	deletedAt   string
	timestamps  bool
	createdAt   string
	updatedAt   string
	uuidKeys    bool
	columns     []string
	relations   []relationConfig
}

// EntityOption configures an entity Definition.
type EntityOption func(*entityConfig)

// Table overrides the derived table name. Prefixes still apply.
func Table(name string) EntityOption {
	return func(c *entityConfig) { c.table = name }
}

// Prefix sets an entity-level table prefix, applied after the registry prefix.
func Prefix(p string) EntityOption {
	return func(c *entityConfig) { c.prefix = p }
}

// PrimaryKey overrides the primary key column (default "id").
func PrimaryKey(col string) EntityOption {
	return func(c *entityConfig) { c.primaryKey = col }
}

// ForeignKeyBase overrides the singular name used to build foreign keys
// pointing at this entity ("<base>_id").
func ForeignKeyBase(base string) EntityOption {
	return func(c *entityConfig) { c.foreignKey = base }
}

// SoftDeletes marks the entity as soft-delete capable: deletes stamp
// deleted_at and reads skip rows where it is set.
func SoftDeletes() EntityOption {
	return func(c *entityConfig) { c.softDeletes = true }
}

// SoftDeleteColumn enables soft deletes using a custom marker column.
func SoftDeleteColumn(col string) EntityOption {
	return func(c *entityConfig) {
		c.softDeletes = true
		c.deletedAt = col
	}
}

// Timestamps makes inserts fill created_at and updated_at, and updates
// refresh updated_at.
func Timestamps() EntityOption {
	return func(c *entityConfig) { c.timestamps = true }
}

// TimestampColumns enables timestamps using custom column names.
func TimestampColumns(createdAt, updatedAt string) EntityOption {
	return func(c *entityConfig) {
		c.timestamps = true
		c.createdAt = createdAt
		c.updatedAt = updatedAt
	}
}

// UUIDKeys makes inserts generate a random UUID primary key when none is set.
func UUIDKeys() EntityOption {
	return func(c *entityConfig) { c.uuidKeys = true }
}

// Columns declares the entity's column list. Queries without an explicit
// Select project these columns instead of "*".
func Columns(cols ...string) EntityOption {
	return func(c *entityConfig) { c.columns = append(c.columns, cols...) }
}

// TableFor uses T's TableName method, when T implements TableNamer, as the
// table name. Otherwise the name is derived as usual.
func TableFor[T any]() EntityOption {
	return func(c *entityConfig) {
		if name := ResolveTableName[T](""); name != "" {
			c.table = name
		}
	}
}

const (
	defaultPrimaryKey = "id"
	defaultDeletedAt  = "deleted_at"
	defaultCreatedAt  = "created_at"
	defaultUpdatedAt  = "updated_at"
)

// Descriptor is the resolved, immutable metadata of one entity.
type Descriptor struct {
	name        string
	table       string
	prefix      string
	primaryKey  string
	foreignKey  string
	softDeletes bool
	deletedAt   string
	timestamps  bool
	createdAt   string
	updatedAt   string
	uuidKeys    bool
	columns     []string

	relations     map[string]*Relation
	relationOrder []string
}

// Name returns the entity name, e.g. "BlogPost".
func (d *Descriptor) Name() string { return d.name }

// Table returns the physical table name, prefixes included.
func (d *Descriptor) Table() string { return d.table }

// Prefix returns the entity-level table prefix.
func (d *Descriptor) Prefix() string { return d.prefix }

// PrimaryKey returns the primary key column.
func (d *Descriptor) PrimaryKey() string { return d.primaryKey }

// ForeignKey returns the singular base used for foreign keys pointing at
// this entity, e.g. "blog_post". Relation columns append "_id".
func (d *Descriptor) ForeignKey() string { return d.foreignKey }

// SoftDeletes reports whether the entity is soft-delete capable.
func (d *Descriptor) SoftDeletes() bool { return d.softDeletes }

// DeletedAtColumn returns the soft-delete marker column, or "" when the
// entity does not soft delete.
func (d *Descriptor) DeletedAtColumn() string {
	if !d.softDeletes {
		return ""
	}
	return d.deletedAt
}

// Timestamps reports whether created_at / updated_at are maintained.
func (d *Descriptor) Timestamps() bool { return d.timestamps }

// CreatedAtColumn returns the creation time column, or "" when timestamps
// are off.
func (d *Descriptor) CreatedAtColumn() string {
	if !d.timestamps {
		return ""
	}
	return d.createdAt
}

// UpdatedAtColumn returns the modification time column, or "" when
// timestamps are off.
func (d *Descriptor) UpdatedAtColumn() string {
	if !d.timestamps {
		return ""
	}
	return d.updatedAt
}

// UUIDKeys reports whether primary keys are generated UUIDs.
func (d *Descriptor) UUIDKeys() bool { return d.uuidKeys }

// Columns returns the declared column list, if any.
func (d *Descriptor) Columns() []string {
	return append([]string(nil), d.columns...)
}

// Relation looks up a declared relation by name.
func (d *Descriptor) Relation(name string) (*Relation, bool) {
	r, ok := d.relations[name]
	return r, ok
}

// Relations returns the declared relations in declaration order.
func (d *Descriptor) Relations() []*Relation {
	out := make([]*Relation, len(d.relationOrder))
	for i, name := range d.relationOrder {
		out[i] = d.relations[name]
	}
	return out
}

// isRelation reports whether name is a declared relation.
func (d *Descriptor) isRelation(name string) bool {
	_, ok := d.relations[name]
	return ok
}
