package orm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Statement is SQL text together with the arguments bound to its
// placeholders, in placeholder order.
type Statement struct {
	SQL  string
	Args []any
}

// stmtBuilder renders SQL text and binds arguments in the same pass, so a
// placeholder and its value can never drift apart.
type stmtBuilder struct {
	d    Dialect
	b    strings.Builder
	args []any
}

func newStmt(d Dialect) *stmtBuilder { return &stmtBuilder{d: d} }

func (s *stmtBuilder) write(parts ...string) {
	for _, p := range parts {
		s.b.WriteString(p)
	}
}

// bind appends v to the argument list and writes its placeholder.
func (s *stmtBuilder) bind(v any) {
	s.args = append(s.args, v)
	s.b.WriteString(s.d.Placeholder(len(s.args)))
}

// bindList writes "(p1, p2, ...)" for vs.
func (s *stmtBuilder) bindList(vs []any) {
	s.b.WriteByte('(')
	for i, v := range vs {
		if i > 0 {
			s.b.WriteString(", ")
		}
		s.bind(v)
	}
	s.b.WriteByte(')')
}

func (s *stmtBuilder) statement() Statement {
	return Statement{SQL: s.b.String(), Args: s.args}
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// quoteRef quotes a column reference ("col" or "table.col"). Anything that
// is not a plain reference (expressions, "*", aliases) is written as is.
func quoteRef(d Dialect, ref string) string {
	if !identRe.MatchString(ref) {
		return ref
	}
	if table, col, ok := strings.Cut(ref, "."); ok {
		return d.QuoteIdent(table) + "." + d.QuoteIdent(col)
	}
	return d.QuoteIdent(ref)
}

func quoteColumns(d Dialect, cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.QuoteIdent(c)
	}
	return strings.Join(quoted, ", ")
}

// queryRows runs st and returns every row as a column → value map.
// []byte values are returned as strings.
func queryRows(ctx context.Context, db Querier, st Statement) ([]map[string]any, error) {
	rows, err := db.QueryContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, err //nolint:wrapcheck // pass through
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err //nolint:wrapcheck // pass through
	}

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err //nolint:wrapcheck // pass through
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = normalize(values[i])
		}
		result = append(result, row)
	}
	return result, rows.Err() //nolint:wrapcheck // pass through
}

// queryScalar runs st and returns the first column of the first row, or
// nil when there is no row.
func queryScalar(ctx context.Context, db Querier, st Statement) (any, error) {
	rows, err := db.QueryContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, err //nolint:wrapcheck // pass through
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, rows.Err() //nolint:wrapcheck // pass through
	}
	var v any
	if err := rows.Scan(&v); err != nil {
		return nil, err //nolint:wrapcheck // pass through
	}
	return normalize(v), rows.Err() //nolint:wrapcheck // pass through
}

// exec runs st and returns the number of affected rows.
func exec(ctx context.Context, db Querier, st Statement) (int64, error) {
	result, err := db.ExecContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return 0, err //nolint:wrapcheck // pass through
	}
	return result.RowsAffected() //nolint:wrapcheck // pass through
}

// insert writes one row and returns the generated primary key. When row
// already carries pk, nothing is generated and 0 is returned.
func insert(ctx context.Context, db Querier, table, pk string, row map[string]any) (int64, error) {
	if len(row) == 0 {
		return 0, ErrEmptyInsert
	}
	cols := sortedKeys(row)
	d := db.dialect()
	st := newStmt(d)
	st.write("INSERT INTO ", d.QuoteIdent(table), " (", quoteColumns(d, cols), ") VALUES ")
	st.bindList(valuesOf(row, cols))

	_, hasPK := row[pk]
	if d.UseReturning() && !hasPK {
		st.write(d.ReturningClause(pk))
		id, err := queryScalar(ctx, db, st.statement())
		if err != nil {
			return 0, err
		}
		if id == nil {
			return 0, errors.New("orm: INSERT RETURNING returned no rows")
		}
		n, ok := toInt64(id)
		if !ok {
			return 0, fmt.Errorf("orm: INSERT RETURNING returned non-integer key %v", id)
		}
		return n, nil
	}

	stmt := st.statement()
	result, err := db.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return 0, err //nolint:wrapcheck // pass through
	}
	if hasPK {
		return 0, nil
	}
	return result.LastInsertId() //nolint:wrapcheck // pass through
}

// insertMany writes every row in one statement. All rows must share the
// column set of the first one.
func insertMany(ctx context.Context, db Querier, table string, rows []map[string]any) (int64, error) {
	if len(rows) == 0 {
		return 0, ErrEmptyInsert
	}
	cols := sortedKeys(rows[0])
	if len(cols) == 0 {
		return 0, ErrEmptyInsert
	}
	for i, row := range rows[1:] {
		if !slices.Equal(sortedKeys(row), cols) {
			return 0, fmt.Errorf("%w: row %d has %v, want %v", ErrColumnMismatch, i+1, sortedKeys(row), cols)
		}
	}

	d := db.dialect()
	st := newStmt(d)
	st.write("INSERT INTO ", d.QuoteIdent(table), " (", quoteColumns(d, cols), ") VALUES ")
	for i, row := range rows {
		if i > 0 {
			st.write(", ")
		}
		st.bindList(valuesOf(row, cols))
	}
	return exec(ctx, db, st.statement())
}

// update sets columns on the rows matching every equality in where.
func update(ctx context.Context, db Querier, table string, set, where map[string]any) (int64, error) {
	if len(set) == 0 {
		return 0, nil
	}
	if len(where) == 0 {
		return 0, ErrMissingWhere
	}
	d := db.dialect()
	st := newStmt(d)
	st.write("UPDATE ", d.QuoteIdent(table), " SET ")
	writeAssignments(st, set)
	writeEqualities(st, where)
	return exec(ctx, db, st.statement())
}

// remove deletes the rows matching every equality in where.
func remove(ctx context.Context, db Querier, table string, where map[string]any) (int64, error) {
	if len(where) == 0 {
		return 0, ErrMissingWhere
	}
	d := db.dialect()
	st := newStmt(d)
	st.write("DELETE FROM ", d.QuoteIdent(table))
	writeEqualities(st, where)
	return exec(ctx, db, st.statement())
}

func writeAssignments(st *stmtBuilder, set map[string]any) {
	for i, col := range sortedKeys(set) {
		if i > 0 {
			st.write(", ")
		}
		st.write(st.d.QuoteIdent(col), " = ")
		st.bind(set[col])
	}
}

func writeEqualities(st *stmtBuilder, where map[string]any) {
	st.write(" WHERE ")
	for i, col := range sortedKeys(where) {
		if i > 0 {
			st.write(" AND ")
		}
		st.write(st.d.QuoteIdent(col))
		if where[col] == nil {
			st.write(" IS NULL")
			continue
		}
		st.write(" = ")
		st.bind(where[col])
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func valuesOf(row map[string]any, cols []string) []any {
	vs := make([]any, len(cols))
	for i, c := range cols {
		vs[i] = row[c]
	}
	return vs
}

// normalize converts driver values into the forms entities store.
func normalize(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case sql.RawBytes:
		return string(x)
	default:
		return v
	}
}
