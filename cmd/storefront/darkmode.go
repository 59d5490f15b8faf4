package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hoka-shop/storefront/pkg/darkmode"
	"github.com/hoka-shop/storefront/pkg/persist"
)

func darkModeCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "darkmode",
		Aliases: []string{"dark"},
		Short:   "Show or toggle a session's dark-mode preference",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the preference",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDarkMode(cmd, g, func(ctx context.Context, store *darkmode.Store) error {
					return store.Load(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "toggle",
			Short: "Flip the preference",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDarkMode(cmd, g, func(ctx context.Context, store *darkmode.Store) error {
					_, err := store.Toggle(ctx)
					return err
				})
			},
		},
	)
	return cmd
}

// withDarkMode opens the session's preference with a theme applier that
// prints every applied theme.
func withDarkMode(cmd *cobra.Command, g *globals, fn func(ctx context.Context, store *darkmode.Store) error) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	blobs, closeFn, err := openLocalState(ctx, cfg, g.session)
	if err != nil {
		return err
	}
	defer closeFn()

	out := cmd.OutOrStdout()
	theme := darkmode.ThemeFunc(func(enabled bool) {
		if enabled {
			success(out, "Dark mode on (class %q)", darkmode.ThemeClass)
		} else {
			success(out, "Dark mode off")
		}
	})

	store, err := darkmode.New(ctx,
		persist.JSON[bool](blobs, darkmode.CookieName),
		theme,
		darkmode.WithDefault(cfg.DarkModeDefault()),
	)
	if err != nil {
		return err
	}
	return fn(ctx, store)
}
