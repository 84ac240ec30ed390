package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql" // registers "mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "github.com/lib/pq"              // registers "postgres"
	_ "modernc.org/sqlite"             // registers "sqlite"

	"github.com/mickamy/activerecord/example/config"
	"github.com/mickamy/activerecord/example/model"
	"github.com/mickamy/activerecord/orm"
)

// driver maps a configured driver name to its database/sql driver and dialect.
type driver struct {
	name    string
	dialect orm.Dialect
}

var drivers = map[string]driver{
	"mysql":    {name: "mysql", dialect: orm.MySQL},
	"postgres": {name: "pgx", dialect: orm.PostgreSQL},
	"pq":       {name: "postgres", dialect: orm.PostgreSQL},
	"sqlite":   {name: "sqlite", dialect: orm.SQLite},
}

func lookupDriver(name string) (driver, error) {
	d, ok := drivers[strings.ToLower(name)]
	if !ok {
		return driver{}, fmt.Errorf("unknown driver %q (want mysql, postgres, pq or sqlite)", name)
	}
	return d, nil
}

func newRegistry(cfg *config.Config) (*orm.Registry, error) {
	reg, err := orm.NewRegistry(model.Definitions, orm.WithPrefix(cfg.Prefix))
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	return reg, nil
}

func openDB(ctx context.Context, cfg *config.Config) (*orm.DB, driver, error) {
	drv, err := lookupDriver(cfg.Driver)
	if err != nil {
		return nil, driver{}, err
	}
	db, err := orm.Open(drv.name, cfg.DSN, drv.dialect)
	if err != nil {
		return nil, driver{}, err
	}
	if drv.dialect == orm.SQLite {
		// in-memory databases live per connection
		db.Raw().SetMaxOpenConns(1)
	}
	if err := db.Raw().PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, driver{}, fmt.Errorf("ping %s: %w", drv.name, err)
	}

	if cfg.Debug {
		h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		db = db.Debug(orm.SlogLogger(slog.New(h)))
	}
	return db, drv, nil
}

// createSchema drops and recreates the demo tables.
func createSchema(ctx context.Context, db *orm.DB, reg *orm.Registry) error {
	users, _ := reg.Entity("User")
	posts, _ := reg.Entity("Post")
	comments, _ := reg.Entity("Comment")

	d := db.Dialect()
	q := d.QuoteIdent
	serial := map[orm.Dialect]string{
		orm.MySQL:      "BIGINT AUTO_INCREMENT PRIMARY KEY",
		orm.PostgreSQL: "BIGSERIAL PRIMARY KEY",
		orm.SQLite:     "INTEGER PRIMARY KEY AUTOINCREMENT",
	}[d]
	ts := "TIMESTAMP"
	if d == orm.PostgreSQL {
		ts = "TIMESTAMPTZ"
	}

	stmts := []string{
		"DROP TABLE IF EXISTS " + q(comments.Table()),
		"DROP TABLE IF EXISTS " + q(posts.Table()),
		"DROP TABLE IF EXISTS " + q(users.Table()),
		fmt.Sprintf(`CREATE TABLE %s (
	id %s,
	name VARCHAR(255) NOT NULL,
	email VARCHAR(255) NOT NULL,
	created_at %s NULL,
	updated_at %s NULL
)`, q(users.Table()), serial, ts, ts),
		fmt.Sprintf(`CREATE TABLE %s (
	id %s,
	user_id BIGINT NOT NULL,
	title VARCHAR(255) NOT NULL,
	body TEXT NOT NULL,
	deleted_at %s NULL
)`, q(posts.Table()), serial, ts),
		fmt.Sprintf(`CREATE TABLE %s (
	id %s,
	post_id BIGINT NOT NULL,
	body TEXT NOT NULL
)`, q(comments.Table()), serial),
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}
