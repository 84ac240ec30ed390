package orm_test

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/activerecord/orm"
)

var blogDefinitions = []orm.Definition{
	orm.Define("User",
		orm.HasMany("posts", "Post"),
		orm.HasOne("profile", "Profile"),
	),
	orm.Define("Profile",
		orm.BelongsTo("user", "User"),
	),
	orm.Define("Post",
		orm.SoftDeletes(),
		orm.BelongsTo("user", "User"),
		orm.HasMany("comments", "Comment"),
	),
	orm.Define("Comment",
		orm.BelongsTo("post", "Post"),
		orm.BelongsTo("author", "User", orm.ForeignKey("author_id")),
	),
	orm.Define("Article",
		orm.Timestamps(),
		orm.UUIDKeys(),
	),
}

var blog = orm.MustRegistry(blogDefinitions)

var fixedTime = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func newMock(t *testing.T, d orm.Dialect) (*orm.DB, sqlmock.Sqlmock) {
	t.Helper()

	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = raw.Close()
	})
	return orm.New(raw, d), mock
}

func compileModel(t *testing.T, d orm.Dialect, name string) (*orm.Model, *orm.TestQuerier) {
	t.Helper()

	tq := orm.NewTestQuerier(d)
	m, err := blog.Model(tq, name)
	require.NoError(t, err)
	return m, tq
}

func mustSQL(t *testing.T, q *orm.Query) orm.Statement {
	t.Helper()

	st, err := q.ToSQL()
	require.NoError(t, err)
	return st
}
