package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mickamy/activerecord/example/config"
	"github.com/mickamy/activerecord/example/model"
	"github.com/mickamy/activerecord/orm"
)

// NewSQLCommand creates the sql command, which prints the statements a few
// queries compile to for the configured driver without connecting.
func NewSQLCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "sql",
		Short: "Print compiled SQL for sample queries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return printSQL(cmd.OutOrStdout(), cfg)
		},
	}
}

func printSQL(out io.Writer, cfg *config.Config) error {
	reg, err := newRegistry(cfg)
	if err != nil {
		return err
	}
	drv, err := lookupDriver(cfg.Driver)
	if err != nil {
		return err
	}
	// ToSQL only consults the dialect.
	db := orm.New(nil, drv.dialect)
	users := reg.MustModel(db, "User")
	posts := reg.MustModel(db, "Post")

	queries := []struct {
		name string
		q    *orm.Query
	}{
		{"equality", users.Where(model.UserColumnName, "Alice")},
		{"or + in", posts.Where(model.PostColumnTitle, "like", "%Go%").OrWhere(model.PostColumnUserID, "in", []int64{1, 2})},
		{"null", users.Query().WhereNull(model.UserColumnEmail).Limit(10).Offset(20)},
		{"relation", users.Query().WhereRelation("posts", model.PostColumnTitle, "Hello Go")},
		{"trashed", posts.Query().OnlyTrashed().OrderBy(model.PostColumnID, orm.Desc)},
	}
	for _, x := range queries {
		st, err := x.q.ToSQL()
		if err != nil {
			return fmt.Errorf("%s: %w", x.name, err)
		}
		fmt.Fprintf(out, "%-9s %s\n%s args %v\n", x.name, st.SQL, strings.Repeat(" ", 9), st.Args)
	}
	return nil
}
