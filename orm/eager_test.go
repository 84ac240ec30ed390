package orm_test

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/activerecord/orm"
)

func TestEager_BelongsTo(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t, orm.MySQL)
	posts := blog.MustModel(db, "Post")

	mock.ExpectQuery("SELECT * FROM `posts` WHERE `posts`.`deleted_at` IS NULL").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title"}).
			AddRow(int64(1), int64(10), "a").
			AddRow(int64(2), int64(10), "b").
			AddRow(int64(3), int64(11), "c").
			AddRow(int64(4), nil, "d"))
	mock.ExpectQuery("SELECT * FROM `users` WHERE `users`.`id` IN (?, ?)").
		WithArgs(int64(10), int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(10), "alice").
			AddRow(int64(11), "bob"))

	got, err := posts.With("user").Get(t.Context())
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, "alice", got[0].RelatedOne("user").String("name"))
	assert.Equal(t, "alice", got[1].RelatedOne("user").String("name"))
	assert.Equal(t, "bob", got[2].RelatedOne("user").String("name"))

	assert.True(t, got[3].Has("user"))
	assert.Equal(t, 0, got[3].Related("user").Len())
	assert.Nil(t, got[3].RelatedOne("user"))

	assert.Equal(t, []any{"alice", "alice", "bob"}, got.Pluck("user.name"))
}

func TestEager_HasMany(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t, orm.MySQL)
	users := blog.MustModel(db, "User")

	mock.ExpectQuery("SELECT * FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "alice").
			AddRow(int64(2), "bob"))
	mock.ExpectQuery("SELECT * FROM `posts` WHERE `posts`.`deleted_at` IS NULL AND `posts`.`user_id` IN (?, ?)").
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title"}).
			AddRow(int64(7), int64(1), "first").
			AddRow(int64(8), int64(1), "second"))

	got, err := users.With("posts").Get(t.Context())
	require.NoError(t, err)

	alicePosts := got[0].Related("posts")
	require.Equal(t, 2, alicePosts.Len())
	assert.Equal(t, []any{"first", "second"}, alicePosts.Pluck("title"))

	assert.True(t, got[1].Has("posts"))
	assert.Equal(t, 0, got[1].Related("posts").Len())
}

func TestEager_HasOneMatchesMixedKeyTypes(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t, orm.MySQL)
	users := blog.MustModel(db, "User")

	mock.ExpectQuery("SELECT * FROM `users` WHERE `users`.`name` = ? LIMIT 1").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "alice"))
	mock.ExpectQuery("SELECT * FROM `profiles` WHERE `profiles`.`user_id` IN (?)").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "bio"}).AddRow("3", []byte("1"), "gopher"))

	u, err := users.With("profile").Where("name", "alice").First(t.Context())
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "gopher", u.RelatedOne("profile").String("bio"))
}

func TestEager_Nested(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t, orm.MySQL)
	posts := blog.MustModel(db, "Post")

	mock.ExpectQuery("SELECT * FROM `posts` WHERE `posts`.`deleted_at` IS NULL").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}).
			AddRow(int64(1), int64(10)).
			AddRow(int64(2), int64(10)))
	mock.ExpectQuery("SELECT * FROM `comments` WHERE `comments`.`post_id` IN (?, ?)").
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "author_id", "body"}).
			AddRow(int64(100), int64(1), int64(20), "nice").
			AddRow(int64(101), int64(1), int64(21), "meh").
			AddRow(int64(102), int64(2), int64(20), "again"))
	mock.ExpectQuery("SELECT * FROM `users` WHERE `users`.`id` IN (?, ?)").
		WithArgs(int64(20), int64(21)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(20), "carol").
			AddRow(int64(21), "dave"))
	mock.ExpectQuery("SELECT * FROM `users` WHERE `users`.`id` IN (?)").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(10), "alice"))

	got, err := posts.With("comments.author", "user").Get(t.Context())
	require.NoError(t, err)

	assert.Equal(t, []any{"carol", "dave", "carol"}, got.Pluck("comments.author.name"))
	assert.Equal(t, []any{"alice", "alice"}, got.Pluck("user.name"))
}

func TestEager_NoParentsNoQuery(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t, orm.MySQL)
	users := blog.MustModel(db, "User")

	mock.ExpectQuery("SELECT * FROM `users` WHERE `users`.`id` = ?").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	got, err := users.With("posts", "profile").Where("id", 1).Get(t.Context())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEager_NoKeysNoQuery(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t, orm.MySQL)
	comments := blog.MustModel(db, "Comment")

	mock.ExpectQuery("SELECT * FROM `comments`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "author_id"}).AddRow(int64(1), nil))

	got, err := comments.With("author").Get(t.Context())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].Related("author").Len())
}

func TestEager_Load(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t, orm.MySQL)
	users := blog.MustModel(db, "User")

	mock.ExpectQuery("SELECT * FROM `posts` WHERE `posts`.`deleted_at` IS NULL AND `posts`.`user_id` IN (?)").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}).AddRow(int64(1), int64(3)))

	u := users.New(map[string]any{"id": 3})
	require.NoError(t, u.Load(t.Context(), "posts"))
	assert.Equal(t, 1, u.Related("posts").Len())

	require.ErrorIs(t, u.Load(t.Context(), "tags"), orm.ErrUnknownRelation)
	require.NoError(t, orm.Load(t.Context(), nil, "posts"))
}

func TestGroupPaths(t *testing.T) {
	t.Parallel()

	names, nested := orm.GroupPaths([]string{"comments.author", "user", "comments.post.user", "comments"})

	assert.Equal(t, []string{"comments", "user"}, names)
	assert.Equal(t, []string{"author", "post.user"}, nested["comments"])
	assert.Empty(t, nested["user"])
}

func TestKeyOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want string
		ok   bool
	}{
		{"nil", nil, "", false},
		{"int", 7, "7", true},
		{"int64", int64(7), "7", true},
		{"uint8", uint8(7), "7", true},
		{"string", "7", "7", true},
		{"bytes", []byte("7"), "7", true},
		{"integral float", float64(7), "7", true},
		{"uuid", "0b6c3e8e-8f7e-4f1a-9f55-5d6c1a6b2f10", "0b6c3e8e-8f7e-4f1a-9f55-5d6c1a6b2f10", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := orm.KeyOf(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
