// Package model holds the demo blog entities.
package model

import "time"

//go:generate go run github.com/mickamy/activerecord -inflect

type User struct {
	ID        int64     `db:"id,primaryKey"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	Posts     []Post    `rel:"has_many"`
}

type Post struct {
	ID        int64
	UserID    int64
	Title     string
	Body      string
	DeletedAt *time.Time
	User      *User     `rel:"belongs_to"`
	Comments  []Comment `rel:"has_many"`
}

type Comment struct {
	ID     int64
	PostID int64
	Body   string
	Post   *Post `rel:"belongs_to"`
}
