package orm

import (
	"database/sql/driver"
	"reflect"
	"strings"
)

// Op is a comparison operator allowed in a WHERE predicate.
type Op string

const (
	OpEq      Op = "="
	OpNe      Op = "!="
	OpNeAlt   Op = "<>"
	OpLt      Op = "<"
	OpLte     Op = "<="
	OpGt      Op = ">"
	OpGte     Op = ">="
	OpLike    Op = "LIKE"
	OpNotLike Op = "NOT LIKE"
	OpIn      Op = "IN"
	OpNotIn   Op = "NOT IN"
	OpIs      Op = "IS"
	OpIsNot   Op = "IS NOT"
)

var knownOps = map[Op]bool{
	OpEq: true, OpNe: true, OpNeAlt: true,
	OpLt: true, OpLte: true, OpGt: true, OpGte: true,
	OpLike: true, OpNotLike: true,
	OpIn: true, OpNotIn: true,
	OpIs: true, OpIsNot: true,
}

// parseOp accepts an Op or a string spelling of one, case-insensitively.
func parseOp(v any) (Op, bool) {
	var s string
	switch o := v.(type) {
	case Op:
		s = string(o)
	case string:
		s = o
	default:
		return "", false
	}
	op := Op(strings.Join(strings.Fields(strings.ToUpper(s)), " "))
	return op, knownOps[op]
}

// Conjunction joins a predicate to the one before it.
type Conjunction string

const (
	And Conjunction = "AND"
	Or  Conjunction = "OR"
)

// Predicate is one WHERE condition.
type Predicate struct {
	Column string
	Op     Op
	Value  any
	Values []any // IN / NOT IN only
	Join   Conjunction
}

func (p Predicate) isList() bool { return p.Op == OpIn || p.Op == OpNotIn }

// nullCheck reports whether p compares against NULL, and whether that
// comparison is negated. NULL never goes through a placeholder.
func (p Predicate) nullCheck() (isNull, negated bool) {
	if p.isList() || p.Value != nil {
		return false, false
	}
	switch p.Op {
	case OpEq, OpIs:
		return true, false
	case OpNe, OpNeAlt, OpIsNot:
		return true, true
	default:
		return false, false
	}
}

// newPredicate interprets where-style arguments: (value) means equality,
// (operator, value) selects the operator. Anything else is rejected.
func newPredicate(column string, join Conjunction, args []any) (Predicate, bool) {
	if column == "" {
		return Predicate{}, false
	}
	p := Predicate{Column: column, Op: OpEq, Join: join}
	switch len(args) {
	case 1:
		p.Value = args[0]
	case 2:
		op, ok := parseOp(args[0])
		if !ok {
			return Predicate{}, false
		}
		p.Op = op
		p.Value = args[1]
	default:
		return Predicate{}, false
	}

	if p.isList() {
		values, ok := listValues(p.Value)
		if !ok {
			return Predicate{}, false
		}
		p.Value = nil
		p.Values = values
		return p, true
	}
	if _, isList := listValues(p.Value); isList {
		return Predicate{}, false
	}
	switch p.Op {
	case OpLt, OpLte, OpGt, OpGte, OpLike, OpNotLike:
		if p.Value == nil {
			return Predicate{}, false
		}
	}
	return p, true
}

// listValues flattens a slice into []any. []byte, fixed-size arrays such
// as uuid.UUID, and driver.Valuer implementations are scalars.
func listValues(v any) ([]any, bool) {
	switch vs := v.(type) {
	case nil, []byte, driver.Valuer:
		return nil, false
	case []any:
		return append([]any(nil), vs...), true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// flattenArgs lets WhereIn("id", 1, 2, 3) and WhereIn("id", ids) mean the same.
func flattenArgs(args []any) []any {
	if len(args) == 1 {
		if vs, ok := listValues(args[0]); ok {
			return vs
		}
	}
	return append([]any(nil), args...)
}

// Values converts a typed slice into the []any list WhereIn accepts.
func Values[T any](vs []T) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}
