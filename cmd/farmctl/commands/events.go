package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"unicornfarm/internal/notifications"

	"github.com/spf13/cobra"
)

func newEventsCmd(rt *runtime) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print unicorn purchases as they happen",
		Long: `Subscribe to purchase announcements and print one line per purchase until
interrupted. Requires Redis.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rdb, err := rt.redisClient()
			if err != nil {
				return err
			}
			if rdb == nil {
				return errRedisRequired
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return tailPurchases(ctx, notifications.NewNotifier(rdb), func(ev notifications.PurchaseEvent) {
				if asJSON {
					line, _ := json.Marshal(ev)
					fmt.Fprintln(cmd.OutOrStdout(), string(line))
					return
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  unicorn %d (%s) purchased, %d posts removed\n",
					ev.OccurredAt.Format("2006-01-02 15:04:05"), ev.UnicornID, ev.UnicornName, ev.PostsDeleted)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw event JSON")
	return cmd
}

// tailPurchases delivers purchase events to onEvent until ctx is done.
func tailPurchases(ctx context.Context, n *notifications.Notifier, onEvent func(notifications.PurchaseEvent)) error {
	if err := n.StartPurchaseSubscriber(ctx, onEvent); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}
