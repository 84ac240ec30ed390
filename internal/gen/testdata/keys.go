package testdata

import (
	"time"

	amodel "github.com/example/auth/model"
	"github.com/google/uuid"
)

type StringArray []string

type Article struct {
	ID        string      `db:"id,primaryKey,uuid"`
	Title     string      `db:"title"`
	Tags      StringArray `db:"tags"`
	Token     uuid.UUID   `db:"token"`
	RemovedAt *time.Time  `db:"removed_at,softDelete"`
}

func (Article) TableName() string { return "blog_articles" }

type Category struct {
	Code     string                `db:"code,primaryKey"`
	Name     string                `db:"name"`
	Accounts []amodel.OAuthAccount `rel:"has_many,foreign_key:category_code,local_key:code"`
}

type AuditLog struct {
	LogID      int       `db:"log_id,primaryKey"`
	InsertedAt time.Time `db:"inserted_at,createdAt"`
	ModifiedAt time.Time `db:"modified_at,updatedAt"`
}
