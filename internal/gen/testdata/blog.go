package testdata

import "time"

type User struct {
	ID        int64     `db:"id,primaryKey"`
	Name      string    `db:"name"`
	Email     *string   `db:"email"`
	Active    bool      `db:"active"`
	CreatedAt time.Time // convention
	UpdatedAt time.Time // convention
	Posts     []Post    `rel:"has_many"`
	Profile   *Profile  `rel:"has_one"`
	internal  string    // unexported, skipped
}

type Profile struct {
	ID     int64
	UserID int64
	Bio    string
}

type Post struct {
	ID        int64
	UserID    int64
	Title     string
	Views     int
	Score     float32
	DeletedAt *time.Time `db:"deleted_at"`
	User      *User      `rel:"belongs_to"`
	Comments  []*Comment `rel:"has_many,foreign_key:post_id"`
}

type Comment struct {
	ID       int64
	PostID   int64
	AuthorID int64
	Body     string `db:"body_text"`
	Secret   string `db:"-"`
	Author   User   `rel:"belongs_to,foreign_key:author_id,name:writer"`
}
