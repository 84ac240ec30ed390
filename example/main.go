// Command example runs the activerecord blog demo.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mickamy/activerecord/example/commands"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	v := viper.New()

	root := &cobra.Command{
		Use:           "example",
		Short:         "activerecord demo",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("driver", "sqlite", "database driver: mysql, postgres (pgx), pq or sqlite")
	root.PersistentFlags().String("dsn", "", "data source name (AR_DSN)")
	root.PersistentFlags().String("prefix", "", "table prefix applied to every entity")
	root.PersistentFlags().Bool("debug", false, "log every statement")
	for _, name := range []string{"driver", "dsn", "prefix", "debug"} {
		if err := v.BindPFlag(name, root.PersistentFlags().Lookup(name)); err != nil {
			return fmt.Errorf("bind %s: %w", name, err)
		}
	}

	root.AddCommand(commands.NewDemoCommand(v))
	root.AddCommand(commands.NewSQLCommand(v))

	return root.ExecuteContext(context.Background())
}
