package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"unicornfarm/internal/cache"
	"unicornfarm/internal/models"
	"unicornfarm/internal/repository"
	"unicornfarm/internal/service"

	"github.com/spf13/cobra"
)

// unicornService opens the store and the optional cache behind a UnicornService.
func (r *runtime) unicornService() (*service.UnicornService, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	rdb, err := r.redisClient()
	if err != nil {
		return nil, err
	}
	repo := repository.NewUnicornRepository(db, cache.New(rdb))
	return service.NewUnicornService(repo, service.SystemClock), nil
}

func newUnicornCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unicorn",
		Short: "Manage the unicorns living on the farm",
		Long: `Manage the unicorns living on the farm.

Subcommands:
  add     - Put a new unicorn on the farm
  list    - List unicorns`,
	}

	cmd.AddCommand(newUnicornAddCmd(rt), newUnicornListCmd(rt))
	return cmd
}

func newUnicornAddCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Put a new unicorn on the farm",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.unicornService()
			if err != nil {
				return err
			}

			unicorn, err := svc.AddUnicorn(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added unicorn %d: %s\n", unicorn.ID, unicorn.Name)
			return nil
		},
	}
}

func newUnicornListCmd(rt *runtime) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List unicorns",
		Long: `List unicorns.

Examples:
  farmctl unicorn list          # Unicorns still on the farm
  farmctl unicorn list --all    # Include purchased unicorns`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.unicornService()
			if err != nil {
				return err
			}

			unicorns, err := svc.ListAllUnicorns(cmd.Context())
			if err != nil {
				return err
			}
			if !all {
				unicorns = onFarm(unicorns)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTATUS\tARRIVED")
			for _, u := range unicorns {
				status := "on farm"
				if u.Purchased {
					status = "purchased"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Name, status, u.CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include purchased unicorns")
	return cmd
}

func onFarm(unicorns []*models.Unicorn) []*models.Unicorn {
	kept := unicorns[:0]
	for _, u := range unicorns {
		if u.OnFarm() {
			kept = append(kept, u)
		}
	}
	return kept
}
