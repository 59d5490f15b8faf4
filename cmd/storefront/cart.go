package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hoka-shop/storefront/internal/errors"
	"github.com/hoka-shop/storefront/pkg/cart"
	"github.com/hoka-shop/storefront/pkg/persist"
	"github.com/hoka-shop/storefront/pkg/product"
)

func cartCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect and edit a session's cart",
		Long: `Inspect and edit the cart of one session in the configured backend.

With the cookie backend, carts are kept in the local state directory.

Examples:
  storefront cart show
  storefront cart add 7 --name="Clifton 9" --price=145
  storefront cart increase 7
  storefront cart reset --session=3f1c...`,
	}

	cmd.AddCommand(
		cartShowCmd(g),
		cartAddCmd(g),
		cartIDCmd(g, "remove", "Remove a product from the cart", (*cart.Store).Remove),
		cartIDCmd(g, "increase", "Increase a product's quantity by one", (*cart.Store).IncreaseQuantity),
		cartIDCmd(g, "decrease", "Decrease a product's quantity by one, keeping at least one", (*cart.Store).DecreaseQuantity),
		cartResetCmd(g),
	)
	return cmd
}

// withCart opens the session's cart, loads it, and runs fn.
func withCart(cmd *cobra.Command, g *globals, fn func(ctx context.Context, store *cart.Store) error) error {
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

	store := cart.New(persist.JSON[[]product.Product](blobs, cart.CookieName))
	if err := store.Load(ctx); err != nil {
		return err
	}
	return fn(ctx, store)
}

func cartShowCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCart(cmd, g, func(ctx context.Context, store *cart.Store) error {
				printCart(cmd.OutOrStdout(), store)
				return nil
			})
		},
	}
}

func cartAddCmd(g *globals) *cobra.Command {
	var p product.Product

	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Add a product, merging quantities with an existing entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p.ID = id
			if err := product.Validate(p); err != nil {
				return errors.New("S300").WithDetail(err.Error())
			}
			return withCart(cmd, g, func(ctx context.Context, store *cart.Store) error {
				if err := store.Add(ctx, p); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Added %d × %s", max(p.Quantity, 1), displayName(p))
				printCart(cmd.OutOrStdout(), store)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&p.Name, "name", "", "Product name")
	cmd.Flags().Float64Var(&p.Price, "price", 0, "Unit price")
	cmd.Flags().IntVarP(&p.Quantity, "quantity", "q", 1, "Quantity to add")
	cmd.Flags().StringVar(&p.Category, "category", "", "Product category")
	cmd.Flags().StringVar(&p.Seller, "seller", "", "Seller")
	cmd.Flags().StringVar(&p.ImgURL, "img", "", "Image URL")

	return cmd
}

func cartIDCmd(g *globals, use, short string, op func(*cart.Store, context.Context, int) (bool, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withCart(cmd, g, func(ctx context.Context, store *cart.Store) error {
				hit, err := op(store, ctx, id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if hit {
					success(out, "%s %d", use, id)
				} else {
					warn(out, "%s %d: no change", use, id)
				}
				printCart(out, store)
				return nil
			})
		},
	}
}

func cartResetCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCart(cmd, g, func(ctx context.Context, store *cart.Store) error {
				if err := store.Reset(ctx); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Cart emptied")
				return nil
			})
		},
	}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, errors.New("S302").WithDetail("product id must be a positive integer, got " + s)
	}
	return id, nil
}

func displayName(p product.Product) string {
	if p.Name != "" {
		return p.Name
	}
	return "#" + strconv.Itoa(p.ID)
}

func printCart(w io.Writer, store *cart.Store) {
	items := store.Items()
	if len(items) == 0 {
		info(w, "Cart is empty")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  ID\tNAME\tQTY\tPRICE\tSUBTOTAL")
	for _, p := range items {
		fmt.Fprintf(tw, "  %d\t%s\t%d\t%.2f\t%.2f\n", p.ID, displayName(p), p.Quantity, p.Price, p.Subtotal())
	}
	tw.Flush()
	info(w, "%d items, total %.2f", store.Count(), store.Total())
}
