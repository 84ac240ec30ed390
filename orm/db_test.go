package orm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/activerecord/orm"
)

const insertUser = "INSERT INTO `users` (`name`) VALUES (?)"

func TestDB_TransactionCommits(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t, orm.MySQL)
	mock.ExpectBegin()
	mock.ExpectExec(insertUser).WithArgs("alice").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := db.Transaction(t.Context(), func(tx *orm.Tx) error {
		_, err := blog.MustModel(tx, "User").Create(t.Context(), map[string]any{"name": "alice"})
		return err
	})
	require.NoError(t, err)
}

func TestDB_TransactionRollsBackOnError(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t, orm.MySQL)
	mock.ExpectBegin()
	mock.ExpectExec(insertUser).WithArgs("alice").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := db.Transaction(t.Context(), func(tx *orm.Tx) error {
		if _, err := blog.MustModel(tx, "User").Create(t.Context(), map[string]any{"name": "alice"}); err != nil {
			return err
		}
		return boom
	})
	assert.Same(t, boom, err)
}

func TestDB_TransactionRollsBackOnPanic(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t, orm.MySQL)
	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "boom", func() {
		_ = db.Transaction(t.Context(), func(*orm.Tx) error { panic("boom") })
	})
}

func TestDB_BeginError(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t, orm.MySQL)
	mock.ExpectBegin().WillReturnError(errors.New("no connection"))

	_, err := db.Begin(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orm: begin")
}

func TestDB_DebugIsInheritedByTx(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t, orm.MySQL)
	mock.ExpectBegin()
	mock.ExpectExec(insertUser).WithArgs("alice").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	var logged []string
	debug := db.Debug(orm.LoggerFunc(func(_ context.Context, query string, _ ...any) {
		logged = append(logged, query)
	}))
	assert.Equal(t, orm.MySQL, debug.Dialect())

	err := debug.Transaction(t.Context(), func(tx *orm.Tx) error {
		_, err := blog.MustModel(tx, "User").Create(t.Context(), map[string]any{"name": "alice"})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []string{insertUser}, logged)
}
