package orm

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/mickamy/activerecord/scope"
)

// Direction is an ORDER BY direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

func parseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(Desc)) {
		return Desc
	}
	return Asc
}

type join struct {
	table      string
	localKey   string // column of the queried table
	foreignKey string // column of the joined table
}

type order struct {
	column string
	dir    Direction
}

type trashedMode int

const (
	trashedExcluded trashedMode = iota
	trashedIncluded
	trashedOnly
)

// Query represents a pending query against a single entity's table.
// All builder methods return a new Query; the receiver is never modified.
type Query struct {
	m   *Model
	err error

	selects  []string
	wheres   []Predicate
	joins    []join
	withs    []string
	groupBys []string
	orderBys []order
	limit    *int
	offset   *int
	trashed  trashedMode
}

func newQuery(m *Model) *Query {
	return &Query{m: m}
}

// clone returns a shallow copy with slices copied to avoid aliasing.
func (q *Query) clone() *Query {
	q2 := *q
	q2.selects = slices.Clone(q.selects)
	q2.wheres = slices.Clone(q.wheres)
	q2.joins = slices.Clone(q.joins)
	q2.withs = slices.Clone(q.withs)
	q2.groupBys = slices.Clone(q.groupBys)
	q2.orderBys = slices.Clone(q.orderBys)
	return &q2
}

// Err returns the first lookup error recorded while building the query.
// Terminal methods return it as well.
func (q *Query) Err() error { return q.err }

// Descriptor returns the descriptor of the queried entity.
func (q *Query) Descriptor() *Descriptor { return q.m.desc }

// --- Builder methods ---

// Select sets the projection. Each argument may be a single column or a
// comma separated list.
func (q *Query) Select(columns ...string) *Query {
	q2 := q.clone()
	q2.ApplySelect(columns)
	return q2
}

// Where adds an AND predicate. With one argument the operator is "=":
//
//	q.Where("status", "draft")
//	q.Where("views", ">", 100)
//	q.Where("deleted_at", nil)      // deleted_at IS NULL
//	q.Where("id", "IN", []int{1, 2})
//
// Malformed arguments or operators outside the supported set leave the
// query unchanged.
func (q *Query) Where(column string, args ...any) *Query {
	q2 := q.clone()
	q2.ApplyWhere(column, args)
	return q2
}

// OrWhere is like Where but joins the predicate with OR.
func (q *Query) OrWhere(column string, args ...any) *Query {
	q2 := q.clone()
	q2.ApplyOrWhere(column, args)
	return q2
}

// WhereMap adds one equality predicate per entry, in sorted column order.
func (q *Query) WhereMap(m map[string]any) *Query {
	q2 := q.clone()
	for _, col := range slices.Sorted(maps.Keys(m)) {
		q2.ApplyWhere(col, []any{m[col]})
	}
	return q2
}

// WhereIn adds "column IN (...)". Values may be given one by one or as a
// single slice.
func (q *Query) WhereIn(column string, values ...any) *Query {
	return q.Where(column, OpIn, flattenArgs(values))
}

// WhereNotIn adds "column NOT IN (...)".
func (q *Query) WhereNotIn(column string, values ...any) *Query {
	return q.Where(column, OpNotIn, flattenArgs(values))
}

// WhereNull adds "column IS NULL".
func (q *Query) WhereNull(column string) *Query {
	return q.Where(column, OpIs, nil)
}

// WhereNotNull adds "column IS NOT NULL".
func (q *Query) WhereNotNull(column string) *Query {
	return q.Where(column, OpIsNot, nil)
}

// WhereRelation joins the named relation's table and adds an AND predicate
// on one of its columns.
func (q *Query) WhereRelation(relation, column string, args ...any) *Query {
	return q.whereRelation(And, relation, column, args)
}

// OrWhereRelation joins the named relation's table and adds an OR
// predicate on one of its columns. The join is added once, however many
// predicates reference the relation.
//
//	posts.Query().Where("title", "LIKE", "%go%").OrWhereRelation("user", "name", "gopher")
func (q *Query) OrWhereRelation(relation, column string, args ...any) *Query {
	return q.whereRelation(Or, relation, column, args)
}

func (q *Query) whereRelation(conj Conjunction, relation, column string, args []any) *Query {
	q2 := q.clone()
	r, ok := q.m.desc.Relation(relation)
	if !ok {
		q2.fail(fmt.Errorf("%w: %s.%s", ErrUnknownRelation, q.m.desc.name, relation))
		return q2
	}
	p, ok := newPredicate(r.related.table+"."+column, conj, args)
	if !ok {
		return q2
	}
	q2.addJoin(r.join())
	q2.wheres = append(q2.wheres, p)
	return q2
}

func (q *Query) addJoin(j join) {
	if slices.Contains(q.joins, j) {
		return
	}
	q.joins = append(q.joins, j)
}

// With registers relations to eager load when the query runs. Nested
// relations are separated by dots: With("comments.author").
func (q *Query) With(relations ...string) *Query {
	q2 := q.clone()
	q2.ApplyWith(relations)
	return q2
}

// GroupBy adds GROUP BY columns.
func (q *Query) GroupBy(columns ...string) *Query {
	q2 := q.clone()
	q2.ApplyGroupBy(columns)
	return q2
}

// OrderBy adds an ORDER BY column.
func (q *Query) OrderBy(column string, dir Direction) *Query {
	q2 := q.clone()
	q2.ApplyOrderBy(column, string(dir))
	return q2
}

func (q *Query) Limit(n int) *Query {
	q2 := q.clone()
	q2.limit = &n
	return q2
}

func (q *Query) Offset(n int) *Query {
	q2 := q.clone()
	q2.offset = &n
	return q2
}

// WithTrashed includes soft-deleted rows.
func (q *Query) WithTrashed() *Query {
	q2 := q.clone()
	q2.trashed = trashedIncluded
	return q2
}

// OnlyTrashed restricts the query to soft-deleted rows.
func (q *Query) OnlyTrashed() *Query {
	q2 := q.clone()
	q2.trashed = trashedOnly
	return q2
}

// Scopes applies the given scope.Scope values to the query.
func (q *Query) Scopes(scopes ...scope.Scope) *Query {
	q2 := q.clone()
	for _, s := range scopes {
		s.Apply(q2)
	}
	return q2
}

func (q *Query) fail(err error) {
	if q.err == nil {
		q.err = err
	}
}

// --- scope.Applier implementation ---

func (q *Query) ApplyWhere(column string, args []any) {
	if p, ok := newPredicate(column, And, args); ok {
		q.wheres = append(q.wheres, p)
	}
}

func (q *Query) ApplyOrWhere(column string, args []any) {
	if p, ok := newPredicate(column, Or, args); ok {
		q.wheres = append(q.wheres, p)
	}
}

func (q *Query) ApplyOrderBy(column, direction string) {
	if column == "" {
		return
	}
	q.orderBys = append(q.orderBys, order{column: column, dir: parseDirection(direction)})
}

func (q *Query) ApplyGroupBy(columns []string) {
	q.groupBys = append(q.groupBys, splitColumns(columns)...)
}

func (q *Query) ApplyLimit(n int)  { q.limit = &n }
func (q *Query) ApplyOffset(n int) { q.offset = &n }

func (q *Query) ApplySelect(columns []string) {
	q.selects = splitColumns(columns)
}

func (q *Query) ApplyWith(relations []string) {
	for _, path := range relations {
		if err := validatePath(q.m.desc, path); err != nil {
			q.fail(err)
			continue
		}
		if !slices.Contains(q.withs, path) {
			q.withs = append(q.withs, path)
		}
	}
}

var _ scope.Applier = (*Query)(nil)

func splitColumns(columns []string) []string {
	var out []string
	for _, c := range columns {
		for _, part := range strings.Split(c, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// validatePath checks that every segment of a dotted relation path names
// a declared relation.
func validatePath(d *Descriptor, path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty relation name on %s", ErrUnknownRelation, d.name)
	}
	for _, name := range strings.Split(path, ".") {
		r, ok := d.Relation(name)
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownRelation, d.name, name)
		}
		d = r.related
	}
	return nil
}

// --- Terminal methods ---

// ToSQL compiles the SELECT statement without running it.
func (q *Query) ToSQL() (Statement, error) {
	if q.err != nil {
		return Statement{}, q.err
	}
	return q.buildSelect(), nil
}

// Get executes the SELECT, eager loads the registered relations and
// returns the hydrated entities. Every relation registered with With is
// present on every entity as an Entities value, empty when nothing matched.
func (q *Query) Get(ctx context.Context) (Entities, error) {
	if q.err != nil {
		return nil, q.err
	}
	rows, err := queryRows(ctx, q.m.db, q.buildSelect())
	if err != nil {
		return nil, err
	}
	result := make(Entities, 0, len(rows))
	for _, row := range rows {
		result = append(result, q.m.hydrate(row))
	}
	if err := q.eagerLoad(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// First executes the query with LIMIT 1 and returns the first entity, or
// nil when nothing matches.
func (q *Query) First(ctx context.Context) (*Entity, error) {
	items, err := q.Limit(1).Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil //nolint:nilnil // nil entity means no row
	}
	return items[0], nil
}

// FirstOrFail is like First but returns ErrNotFound when nothing matches.
func (q *Query) FirstOrFail(ctx context.Context) (*Entity, error) {
	e, err := q.First(ctx)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, q.m.desc.name)
	}
	return e, nil
}

// Pluck executes the query and extracts a dotted path from every entity.
func (q *Query) Pluck(ctx context.Context, path string) ([]any, error) {
	items, err := q.Get(ctx)
	if err != nil {
		return nil, err
	}
	return items.Pluck(path), nil
}

// Count returns the number of rows matching the current predicates.
// Grouping, ordering and pagination are ignored.
func (q *Query) Count(ctx context.Context) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	v, err := queryScalar(ctx, q.m.db, q.buildCount())
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, errors.New("orm: COUNT returned no rows")
	}
	n, ok := toInt64(v)
	if !ok {
		return 0, fmt.Errorf("orm: COUNT returned %T", v)
	}
	return n, nil
}

// Exists reports whether at least one row matches.
func (q *Query) Exists(ctx context.Context) (bool, error) {
	n, err := q.Count(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Update sets columns on every matching row and returns the number of
// affected rows. Returns ErrMissingWhere if no predicates are set.
func (q *Query) Update(ctx context.Context, values map[string]any) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	if len(values) == 0 {
		return 0, nil
	}
	set := maps.Clone(values)
	if col := q.m.desc.UpdatedAtColumn(); col != "" {
		if _, ok := set[col]; !ok {
			set[col] = now(ctx)
		}
	}
	return q.execMutation(ctx, func(st *stmtBuilder) {
		st.write("UPDATE ", st.d.QuoteIdent(q.m.desc.table), " SET ")
		writeAssignments(st, set)
	})
}

// Delete removes the matching rows. Soft-delete capable entities are not
// removed; their deleted_at column is stamped instead. Every predicate,
// including OR and IN ones, restricts the statement exactly as it would
// restrict Get.
func (q *Query) Delete(ctx context.Context) (int64, error) {
	if col := q.m.desc.DeletedAtColumn(); col != "" {
		return q.Update(ctx, map[string]any{col: now(ctx)})
	}
	return q.ForceDelete(ctx)
}

// ForceDelete removes the matching rows even when the entity soft deletes.
func (q *Query) ForceDelete(ctx context.Context) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	return q.execMutation(ctx, func(st *stmtBuilder) {
		st.write("DELETE FROM ", st.d.QuoteIdent(q.m.desc.table))
	})
}

// Restore clears the soft-delete marker of the matching trashed rows.
func (q *Query) Restore(ctx context.Context) (int64, error) {
	col := q.m.desc.DeletedAtColumn()
	if col == "" {
		return 0, fmt.Errorf("orm: %s does not soft delete", q.m.desc.name)
	}
	q2 := q
	if q.trashed == trashedExcluded {
		q2 = q.OnlyTrashed()
	}
	return q2.Update(ctx, map[string]any{col: nil})
}

func (q *Query) execMutation(ctx context.Context, head func(st *stmtBuilder)) (int64, error) {
	if len(q.wheres) == 0 {
		return 0, ErrMissingWhere
	}
	if len(q.joins) > 0 {
		return 0, fmt.Errorf("orm: %s: relation predicates are not supported in UPDATE or DELETE", q.m.desc.name)
	}
	st := newStmt(q.m.db.dialect())
	head(st)
	q.writeWhere(st)
	return exec(ctx, q.m.db, st.statement())
}

// --- SQL building ---

func (q *Query) buildSelect() Statement {
	d := q.m.db.dialect()
	st := newStmt(d)
	st.write("SELECT ", q.selectList(d), " FROM ", d.QuoteIdent(q.m.desc.table))
	q.writeJoins(st)
	q.writeWhere(st)

	if len(q.groupBys) > 0 {
		cols := make([]string, len(q.groupBys))
		for i, c := range q.groupBys {
			cols[i] = quoteRef(d, c)
		}
		st.write(" GROUP BY ", strings.Join(cols, ", "))
	}

	if len(q.orderBys) > 0 {
		parts := make([]string, len(q.orderBys))
		for i, o := range q.orderBys {
			parts[i] = quoteRef(d, o.column) + " " + string(o.dir)
		}
		st.write(" ORDER BY ", strings.Join(parts, ", "))
	}

	switch {
	case q.limit != nil:
		st.write(" LIMIT ", strconv.Itoa(*q.limit))
	case q.offset != nil:
		if all := d.NoLimit(); all != "" {
			st.write(" LIMIT ", all)
		}
	}
	if q.offset != nil {
		st.write(" OFFSET ", strconv.Itoa(*q.offset))
	}
	return st.statement()
}

func (q *Query) buildCount() Statement {
	d := q.m.db.dialect()
	st := newStmt(d)
	st.write("SELECT count(*) FROM ", d.QuoteIdent(q.m.desc.table))
	q.writeJoins(st)
	q.writeWhere(st)
	return st.statement()
}

func (q *Query) selectList(d Dialect) string {
	if len(q.selects) == 0 {
		table := d.QuoteIdent(q.m.desc.table)
		if declared := q.m.desc.columns; len(declared) > 0 {
			cols := make([]string, len(declared))
			for i, c := range declared {
				cols[i] = d.QuoteIdent(c)
				if len(q.joins) > 0 {
					cols[i] = table + "." + cols[i]
				}
			}
			return strings.Join(cols, ", ")
		}
		if len(q.joins) > 0 {
			return table + ".*"
		}
		return "*"
	}
	cols := make([]string, len(q.selects))
	for i, c := range q.selects {
		cols[i] = quoteRef(d, c)
	}
	return strings.Join(cols, ", ")
}

func (q *Query) writeJoins(st *stmtBuilder) {
	d := st.d
	base := d.QuoteIdent(q.m.desc.table)
	for _, j := range q.joins {
		jt := d.QuoteIdent(j.table)
		st.write(" INNER JOIN ", jt, " ON ", base, ".", d.QuoteIdent(j.localKey), " = ", jt, ".", d.QuoteIdent(j.foreignKey))
	}
}

// softDeleteFilter returns the implicit deleted_at predicate, if any.
func (q *Query) softDeleteFilter() (Predicate, bool) {
	col := q.m.desc.DeletedAtColumn()
	if col == "" || q.trashed == trashedIncluded {
		return Predicate{}, false
	}
	qualified := q.m.desc.table + "." + col
	for _, p := range q.wheres {
		if p.Column == col || p.Column == qualified {
			return Predicate{}, false
		}
	}
	p := Predicate{Column: col, Op: OpIs, Join: And}
	if q.trashed == trashedOnly {
		p.Op = OpIsNot
	}
	return p, true
}

func (q *Query) writeWhere(st *stmtBuilder) {
	implicit, hasImplicit := q.softDeleteFilter()
	if !hasImplicit && len(q.wheres) == 0 {
		return
	}
	st.write(" WHERE ")
	if !hasImplicit {
		q.writePredicates(st, q.wheres)
		return
	}
	q.writePredicate(st, implicit)
	if len(q.wheres) == 0 {
		return
	}
	st.write(" AND ")
	if !slices.ContainsFunc(q.wheres[1:], func(p Predicate) bool { return p.Join == Or }) {
		q.writePredicates(st, q.wheres)
		return
	}
	st.write("(")
	q.writePredicates(st, q.wheres)
	st.write(")")
}

func (q *Query) writePredicates(st *stmtBuilder, preds []Predicate) {
	for i, p := range preds {
		if i > 0 {
			conj := p.Join
			if conj == "" {
				conj = And
			}
			st.write(" ", string(conj), " ")
		}
		q.writePredicate(st, p)
	}
}

func (q *Query) writePredicate(st *stmtBuilder, p Predicate) {
	col := q.column(st.d, p.Column)
	if isNull, negated := p.nullCheck(); isNull {
		if negated {
			st.write(col, " IS NOT NULL")
		} else {
			st.write(col, " IS NULL")
		}
		return
	}
	if p.isList() {
		if len(p.Values) == 0 {
			if p.Op == OpIn {
				st.write("1 = 0")
			} else {
				st.write("1 = 1")
			}
			return
		}
		st.write(col, " ", string(p.Op), " ")
		st.bindList(p.Values)
		return
	}
	st.write(col, " ", string(p.Op), " ")
	st.bind(p.Value)
}

// column qualifies a bare column with the queried table and quotes it.
func (q *Query) column(d Dialect, c string) string {
	if !identRe.MatchString(c) {
		return c
	}
	if !strings.Contains(c, ".") {
		c = q.m.desc.table + "." + c
	}
	return quoteRef(d, c)
}
