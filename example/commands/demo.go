package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mickamy/activerecord/example/config"
	"github.com/mickamy/activerecord/example/model"
	"github.com/mickamy/activerecord/orm"
	"github.com/mickamy/activerecord/scope"
)

// NewDemoCommand creates the demo command, which walks a blog through
// create, query, eager loading and soft deletes against a live database.
func NewDemoCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the blog scenario against the configured database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return runDemo(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}
}

func runDemo(ctx context.Context, out io.Writer, cfg *config.Config) error {
	reg, err := newRegistry(cfg)
	if err != nil {
		return err
	}
	db, _, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := createSchema(ctx, db, reg); err != nil {
		return err
	}

	users := reg.MustModel(db, "User")
	posts := reg.MustModel(db, "Post")
	comments := reg.MustModel(db, "Comment")

	fmt.Fprintln(out, "--- create ---")
	alice, err := users.Create(ctx, model.UserAttributes(&model.User{Name: "Alice", Email: "alice@example.com"}))
	if err != nil {
		return fmt.Errorf("create alice: %w", err)
	}
	bob, err := users.Create(ctx, model.UserAttributes(&model.User{Name: "Bob", Email: "bob@example.com"}))
	if err != nil {
		return fmt.Errorf("create bob: %w", err)
	}
	fmt.Fprintf(out, "%+v\n%+v\n", model.UserFromEntity(alice), model.UserFromEntity(bob))

	userPosts, err := users.Relation("posts")
	if err != nil {
		return err
	}
	postComments, err := posts.Relation("comments")
	if err != nil {
		return err
	}

	seed := []struct {
		author   *orm.Entity
		title    string
		comments []string
	}{
		{alice, "Hello Go", []string{"nice", "more please"}},
		{alice, "Generics in practice", nil},
		{bob, "Go and SQL", []string{"agreed"}},
	}
	for _, s := range seed {
		p := posts.New(model.PostAttributes(&model.Post{Title: s.title, Body: s.title + "..."}))
		if err := userPosts.Save(ctx, s.author, p); err != nil {
			return fmt.Errorf("save post: %w", err)
		}
		for _, body := range s.comments {
			c := comments.New(model.CommentAttributes(&model.Comment{Body: body}))
			if err := postComments.Save(ctx, p, c); err != nil {
				return fmt.Errorf("save comment: %w", err)
			}
		}
	}

	fmt.Fprintln(out, "\n--- where + eager load ---")
	goPosts, err := posts.
		Where(model.PostColumnTitle, "like", "%Go%").
		With("user", "comments").
		OrderBy(model.PostColumnID, orm.Asc).
		Get(ctx)
	if err != nil {
		return fmt.Errorf("query posts: %w", err)
	}
	for _, p := range model.PostsFromEntities(goPosts) {
		fmt.Fprintf(out, "%q by %s, %d comment(s)\n", p.Title, p.User.Name, len(p.Comments))
	}

	fmt.Fprintln(out, "\n--- where relation ---")
	authors, err := users.Query().
		WhereRelation("posts", model.PostColumnTitle, "Generics in practice").
		Pluck(ctx, model.UserColumnName)
	if err != nil {
		return fmt.Errorf("pluck authors: %w", err)
	}
	fmt.Fprintf(out, "authors: %v\n", authors)

	fmt.Fprintln(out, "\n--- scopes ---")
	page, err := posts.Query().Scopes(scope.Paginate(1, 2)...).Get(ctx)
	if err != nil {
		return fmt.Errorf("paginate: %w", err)
	}
	fmt.Fprintf(out, "page 1: %v\n", page.Pluck(model.PostColumnTitle))

	fmt.Fprintln(out, "\n--- update ---")
	bob.Set(model.UserColumnEmail, "bob@example.org")
	if err := bob.Save(ctx); err != nil {
		return fmt.Errorf("save bob: %w", err)
	}
	found, err := users.FindOrFail(ctx, bob.Key())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%+v\n", model.UserFromEntity(found))

	fmt.Fprintln(out, "\n--- soft delete ---")
	n, err := posts.Where(model.PostColumnUserID, alice.Key()).Delete(ctx)
	if err != nil {
		return fmt.Errorf("delete posts: %w", err)
	}
	visible, err := posts.Query().Count(ctx)
	if err != nil {
		return err
	}
	trashed, err := posts.Query().OnlyTrashed().Count(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "trashed %d, visible %d, in trash %d\n", n, visible, trashed)

	if _, err := posts.Where(model.PostColumnUserID, alice.Key()).Restore(ctx); err != nil {
		return fmt.Errorf("restore posts: %w", err)
	}

	fmt.Fprintln(out, "\n--- transaction ---")
	err = db.Transaction(ctx, func(tx *orm.Tx) error {
		txUsers := reg.MustModel(tx, "User")
		if _, err := txUsers.Create(ctx, model.UserAttributes(&model.User{Name: "Carol", Email: "carol@example.com"})); err != nil {
			return err
		}
		return errors.New("rolled back on purpose")
	})
	fmt.Fprintf(out, "transaction: %v\n", err)
	total, err := users.Query().Count(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "users after rollback: %d\n", total)

	fmt.Fprintln(out, "\n--- lazy load ---")
	all, err := users.Query().OrderBy(model.UserColumnID, orm.Asc).Get(ctx)
	if err != nil {
		return err
	}
	if err := orm.Load(ctx, all, "posts.comments"); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	for _, u := range model.UsersFromEntities(all) {
		fmt.Fprintf(out, "%s: %d post(s)\n", u.Name, len(u.Posts))
	}
	return nil
}
