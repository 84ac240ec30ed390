package orm_test

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/activerecord/orm"
)

func TestModel_CreateMySQL(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t, orm.MySQL)
	users := blog.MustModel(db, "User")

	mock.ExpectExec("INSERT INTO `users` (`email`, `name`) VALUES (?, ?)").
		WithArgs("alice@example.com", "alice").
		WillReturnResult(sqlmock.NewResult(7, 1))

	u, err := users.Create(t.Context(), map[string]any{"name": "alice", "email": "alice@example.com"})
	require.NoError(t, err)
	assert.True(t, u.Exists())
	assert.Equal(t, int64(7), u.Key())
	assert.False(t, u.IsDirty())
}

func TestModel_CreatePostgreSQLReturning(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t, orm.PostgreSQL)
	users := blog.MustModel(db, "User")

	mock.ExpectQuery(`INSERT INTO "users" ("name") VALUES ($1) RETURNING "id"`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

	u, err := users.Create(t.Context(), map[string]any{"name": "alice"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), u.Int64("id"))
}

func TestModel_CreateWithExplicitKey(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t, orm.PostgreSQL)
	users := blog.MustModel(db, "User")

	mock.ExpectExec(`INSERT INTO "users" ("id", "name") VALUES ($1, $2)`).
		WithArgs(42, "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))

	u, err := users.Create(t.Context(), map[string]any{"id": 42, "name": "alice"})
	require.NoError(t, err)
	assert.Equal(t, 42, u.Key())
}

func TestModel_CreateTimestampsAndUUID(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t, orm.MySQL)
	articles := blog.MustModel(db, "Article")
	ctx := orm.WithClock(t.Context(), orm.FixedClock(fixedTime))

	mock.ExpectExec("INSERT INTO `articles` (`created_at`, `id`, `title`, `updated_at`) VALUES (?, ?, ?, ?)").
		WithArgs(fixedTime, sqlmock.AnyArg(), "hello", fixedTime).
		WillReturnResult(sqlmock.NewResult(0, 1))

	a, err := articles.Create(ctx, map[string]any{"title": "hello"})
	require.NoError(t, err)

	_, err = uuid.Parse(a.String("id"))
	require.NoError(t, err)
	assert.Equal(t, fixedTime, a.Time("created_at"))
	assert.Equal(t, fixedTime, a.Time("updated_at"))
}

func TestModel_CreateDropsRelationAttributes(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t, orm.MySQL)
	posts := blog.MustModel(db, "Post")

	mock.ExpectExec("INSERT INTO `posts` (`title`, `user_id`) VALUES (?, ?)").
		WithArgs("hello", 1).
		WillReturnResult(sqlmock.NewResult(5, 1))

	_, err := posts.Create(t.Context(), map[string]any{
		"title":    "hello",
		"user_id":  1,
		"user":     orm.Entities{},
		"comments": nil,
	})
	require.NoError(t, err)
}

func TestModel_CreateMany(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t, orm.MySQL)
	users := blog.MustModel(db, "User")

	mock.ExpectExec("INSERT INTO `users` (`email`, `name`) VALUES (?, ?), (?, ?)").
		WithArgs("a@example.com", "alice", "b@example.com", "bob").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := users.CreateMany(t.Context(), []map[string]any{
		{"name": "alice", "email": "a@example.com"},
		{"email": "b@example.com", "name": "bob"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestModel_CreateManyErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rows []map[string]any
		want error
	}{
		{"nil rows", nil, orm.ErrEmptyInsert},
		{"no rows", []map[string]any{}, orm.ErrEmptyInsert},
		{"no columns", []map[string]any{{}}, orm.ErrEmptyInsert},
		{
			name: "column mismatch",
			rows: []map[string]any{{"name": "alice"}, {"name": "bob", "email": "b@example.com"}},
			want: orm.ErrColumnMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, _ := newMock(t, orm.MySQL)
			users := blog.MustModel(db, "User")

			n, err := users.CreateMany(t.Context(), tt.rows)
			require.ErrorIs(t, err, tt.want)
			assert.Zero(t, n)
		})
	}
}

func TestModel_FindAndSave(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t, orm.MySQL)
	users := blog.MustModel(db, "User")

	mock.ExpectQuery("SELECT * FROM `users` WHERE `users`.`id` = ? LIMIT 1").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).AddRow(1, "alice", []byte("a@example.com")))
	mock.ExpectExec("UPDATE `users` SET `name` = ? WHERE `id` = ?").
		WithArgs("bob", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u, err := users.Find(t.Context(), 1)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "a@example.com", u.Value("email"))
	assert.False(t, u.IsDirty())

	u.Set("name", "bob").Set("email", "a@example.com")
	assert.Equal(t, map[string]any{"name": "bob"}, u.Dirty())
	require.NoError(t, u.Save(t.Context()))
	assert.False(t, u.IsDirty())

	// nothing changed, nothing sent
	require.NoError(t, u.Save(t.Context()))
}

func TestModel_FindMissing(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t, orm.MySQL)
	users := blog.MustModel(db, "User")

	mock.ExpectQuery("SELECT * FROM `users` WHERE `users`.`id` = ? LIMIT 1").
		WithArgs(404).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectQuery("SELECT * FROM `users` WHERE `users`.`id` = ? LIMIT 1").
		WithArgs(404).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	u, err := users.Find(t.Context(), 404)
	require.NoError(t, err)
	assert.Nil(t, u)

	_, err = users.FindOrFail(t.Context(), 404)
	require.ErrorIs(t, err, orm.ErrNotFound)
}

func TestEntity_DeleteSoft(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t, orm.MySQL)
	posts := blog.MustModel(db, "Post")
	ctx := orm.WithClock(t.Context(), orm.FixedClock(fixedTime))

	mock.ExpectQuery("SELECT * FROM `posts` WHERE `posts`.`deleted_at` IS NULL AND `posts`.`id` = ? LIMIT 1").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "deleted_at"}).AddRow(1, "hello", nil))
	mock.ExpectExec("UPDATE `posts` SET `deleted_at` = ? WHERE `id` = ?").
		WithArgs(fixedTime, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `posts` SET `deleted_at` = ? WHERE `id` = ?").
		WithArgs(nil, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p, err := posts.FindOrFail(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, p.Delete(ctx))
	assert.True(t, p.Trashed())
	assert.True(t, p.Exists())
	assert.False(t, p.IsDirty())

	require.NoError(t, p.Restore(ctx))
	assert.False(t, p.Trashed())
}

func TestEntity_DeleteHard(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t, orm.PostgreSQL)
	users := blog.MustModel(db, "User")

	mock.ExpectExec(`DELETE FROM "users" WHERE "id" = $1`).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := users.New(map[string]any{"id": 5})
	require.NoError(t, u.Delete(t.Context()))
	assert.False(t, u.Exists())
}

func TestEntity_KeyRequired(t *testing.T) {
	t.Parallel()

	db, _ := newMock(t, orm.MySQL)
	users := blog.MustModel(db, "User")
	posts := blog.MustModel(db, "Post")

	require.ErrorIs(t, users.New(nil).Delete(t.Context()), orm.ErrNoPrimaryKey)
	require.ErrorIs(t, posts.New(nil).Restore(t.Context()), orm.ErrNoPrimaryKey)
}

func TestModel_Count(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t, orm.MySQL)
	posts := blog.MustModel(db, "Post")

	mock.ExpectQuery("SELECT count(*) FROM `posts` WHERE `posts`.`deleted_at` IS NULL AND `posts`.`user_id` = ?").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(int64(3)))
	mock.ExpectQuery("SELECT count(*) FROM `posts` WHERE `posts`.`deleted_at` IS NULL AND `posts`.`user_id` = ?").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow("0"))

	n, err := posts.Where("user_id", 1).Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	ok, err := posts.Where("user_id", 2).Exists(t.Context())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestModel_Pluck(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t, orm.MySQL)
	users := blog.MustModel(db, "User")

	mock.ExpectQuery("SELECT `name` FROM `users` ORDER BY `name` ASC").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("alice").AddRow("bob"))

	names, err := users.Query().Select("name").OrderBy("name", orm.Asc).Pluck(t.Context(), "name")
	require.NoError(t, err)
	assert.Equal(t, []any{"alice", "bob"}, names)
}

func TestRelation_SaveAndAssociate(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t, orm.MySQL)
	users := blog.MustModel(db, "User")
	posts := blog.MustModel(db, "Post")

	mock.ExpectExec("INSERT INTO `posts` (`title`, `user_id`) VALUES (?, ?)").
		WithArgs("hello", 9).
		WillReturnResult(sqlmock.NewResult(11, 1))

	user := users.New(map[string]any{"id": 9})
	rel, err := users.Relation("posts")
	require.NoError(t, err)

	post := posts.New(map[string]any{"title": "hello"})
	require.NoError(t, rel.Save(t.Context(), user, post))
	assert.Equal(t, 9, post.Value("user_id"))
	assert.Equal(t, int64(11), post.Key())

	belongs, err := posts.Relation("user")
	require.NoError(t, err)
	other := posts.New(nil)
	require.NoError(t, belongs.Associate(other, user))
	assert.Equal(t, 9, other.Value("user_id"))

	require.Error(t, belongs.Save(t.Context(), user, other))
	require.Error(t, rel.Associate(post, user))

	_, err = users.Relation("tags")
	require.ErrorIs(t, err, orm.ErrUnknownRelation)
}
