package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/hoka-shop/storefront/pkg/toast"
)

func toastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toast",
		Short: "Toast notification tools",
	}
	cmd.AddCommand(toastDemoCmd())
	return cmd
}

func toastDemoCmd() *cobra.Command {
	var (
		duration time.Duration
		dismiss  bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Show one toast of each type and watch them expire",
		Long: `Show one toast of each type and print every event the store emits
until all of them have expired.

Examples:
  storefront toast demo
  storefront toast demo --duration=500ms --dismiss`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			var (
				mu      sync.Mutex
				visible = make(map[any]bool)
				done    = make(chan struct{})
			)
			emitter := toast.EmitterFunc(func(name string, data any) {
				ev := data.(map[string]any)
				mu.Lock()
				defer mu.Unlock()
				switch ev["action"] {
				case toast.ActionAdd:
					visible[ev["id"]] = true
					info(out, "%s  + [%s] %s", name, ev["level"], ev["message"])
				case toast.ActionRemove:
					delete(visible, ev["id"])
					info(out, "%s  - %v", name, ev["id"])
					if len(visible) == 0 {
						close(done)
					}
				}
			})

			store := toast.NewStore(toast.WithDuration(duration), toast.WithEmitter(emitter))
			defer store.Close()

			store.Success("Added to cart")
			store.Info("Free shipping over $150")
			store.Warning("Only 2 left in your size")
			last := store.Error("Payment method declined")

			if dismiss {
				store.Remove(last.ID)
			}

			select {
			case <-done:
			case <-time.After(duration + time.Second):
				return fmt.Errorf("toasts did not expire within %s", duration+time.Second)
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			}
			success(out, "All toasts expired")
			return nil
		},
	}

	cmd.Flags().DurationVarP(&duration, "duration", "d", toast.DefaultDuration, "How long each toast stays visible")
	cmd.Flags().BoolVar(&dismiss, "dismiss", false, "Dismiss the last toast by hand before it expires")

	return cmd
}
