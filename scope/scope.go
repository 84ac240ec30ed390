package scope

import "strings"

// Applier is implemented by query builders to receive scope fragments.
// This interface lives in the scope package so that orm can import scope
// without creating circular dependencies.
type Applier interface {
	ApplyWhere(column string, args []any)
	ApplyOrWhere(column string, args []any)
	ApplyOrderBy(column, direction string)
	ApplyGroupBy(columns []string)
	ApplyLimit(n int)
	ApplyOffset(n int)
	ApplySelect(columns []string)
	ApplyWith(relations []string)
}

type scopeKind int

const (
	kindWhere scopeKind = iota
	kindOrWhere
	kindOrderBy
	kindGroupBy
	kindLimit
	kindOffset
	kindSelect
	kindWith
)

// Scope represents a single query condition fragment.
// Scopes are immutable and safe to reuse across queries.
type Scope struct {
	kind   scopeKind
	column string
	names  []string
	args   []any
	n      int
}

// Apply dispatches this Scope to the given Applier.
func (s Scope) Apply(a Applier) {
	switch s.kind {
	case kindWhere:
		a.ApplyWhere(s.column, clone(s.args))
	case kindOrWhere:
		a.ApplyOrWhere(s.column, clone(s.args))
	case kindOrderBy:
		a.ApplyOrderBy(s.column, s.names[0])
	case kindGroupBy:
		a.ApplyGroupBy(clone(s.names))
	case kindLimit:
		a.ApplyLimit(s.n)
	case kindOffset:
		a.ApplyOffset(s.n)
	case kindSelect:
		a.ApplySelect(clone(s.names))
	case kindWith:
		a.ApplyWith(clone(s.names))
	}
}

// Where returns a Scope that adds an AND predicate, with the same argument
// rules as Query.Where.
//
//	scope.Where("status", "published")
//	scope.Where("views", ">", 100)
func Where(column string, args ...any) Scope {
	return Scope{kind: kindWhere, column: column, args: args}
}

// OrWhere returns a Scope that adds an OR predicate.
func OrWhere(column string, args ...any) Scope {
	return Scope{kind: kindOrWhere, column: column, args: args}
}

// In returns a Scope with an IN predicate. An empty slice matches nothing.
//
//	scope.In("id", []int{1, 2, 3})  // → WHERE id IN (?, ?, ?)
func In[T any](column string, values []T) Scope {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return Where(column, "IN", args)
}

// NotIn returns a Scope with a NOT IN predicate.
func NotIn[T any](column string, values []T) Scope {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return Where(column, "NOT IN", args)
}

// OrderBy returns a Scope that adds an ORDER BY column. The direction is
// "ASC" or "DESC"; anything else sorts ascending.
//
//	scope.OrderBy("created_at", "DESC")
func OrderBy(column, direction string) Scope {
	return Scope{kind: kindOrderBy, column: column, names: []string{strings.ToUpper(direction)}}
}

// GroupBy returns a Scope that adds GROUP BY columns.
func GroupBy(columns ...string) Scope {
	return Scope{kind: kindGroupBy, names: columns}
}

// Limit returns a Scope that sets the LIMIT.
func Limit(n int) Scope {
	return Scope{kind: kindLimit, n: n}
}

// Offset returns a Scope that sets the OFFSET.
func Offset(n int) Scope {
	return Scope{kind: kindOffset, n: n}
}

// Paginate returns the LIMIT and OFFSET scopes for a 1-based page.
func Paginate(page, perPage int) Scopes {
	if page < 1 {
		page = 1
	}
	return Combine(Limit(perPage), Offset((page-1)*perPage))
}

// Select returns a Scope that overrides the SELECT column list.
//
//	scope.Select("id", "name")
func Select(columns ...string) Scope {
	return Scope{kind: kindSelect, names: columns}
}

// With returns a Scope that eager loads relations.
//
//	scope.With("user", "comments.author")
func With(relations ...string) Scope {
	return Scope{kind: kindWith, names: relations}
}

// Scopes is a named slice of Scope, useful for conditionally building
// up a set of scopes.
//
//	var s scope.Scopes
//	if onlyPublished {
//	    s = s.Append(Published)
//	}
//	s = s.Merge(scope.Paginate(page, perPage))
//	posts.Query().Scopes(s...).Get(ctx)
type Scopes []Scope

// Append adds scopes and returns a new Scopes. The receiver is not modified.
func (ss Scopes) Append(scopes ...Scope) Scopes {
	return append(append(Scopes(nil), ss...), scopes...)
}

// Merge concatenates two Scopes and returns a new Scopes.
// Neither receiver nor argument is modified.
func (ss Scopes) Merge(other Scopes) Scopes {
	return append(append(Scopes(nil), ss...), other...)
}

// Combine creates a Scopes from the given scopes.
//
//	scope.Combine(scope.Limit(10), scope.Offset(20))
func Combine(scopes ...Scope) Scopes {
	return Scopes(scopes)
}

func clone[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append([]T(nil), s...)
}
