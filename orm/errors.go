package orm

import "errors"

var (
	// ErrNotFound is returned when a query expects at least one row but finds none.
	ErrNotFound = errors.New("orm: not found")

	// ErrUnknownEntity is returned when a model name is not in the registry.
	ErrUnknownEntity = errors.New("orm: unknown entity")

	// ErrUnknownRelation is returned when a relation name is not declared
	// on the entity being queried.
	ErrUnknownRelation = errors.New("orm: unknown relation")

	// ErrMissingWhere guards UPDATE and DELETE statements without predicates.
	ErrMissingWhere = errors.New("orm: statement without WHERE clause is not allowed")

	// ErrEmptyInsert is returned by CreateMany when there is nothing to insert.
	ErrEmptyInsert = errors.New("orm: nothing to insert")

	// ErrColumnMismatch is returned by CreateMany when rows do not share
	// the same column set.
	ErrColumnMismatch = errors.New("orm: rows have different column sets")

	// ErrNoPrimaryKey is returned when an operation needs the primary key
	// value of an entity that does not have one.
	ErrNoPrimaryKey = errors.New("orm: primary key value is required")
)
