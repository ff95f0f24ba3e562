package commands

import (
	"fmt"
	"os"

	"unicornfarm/internal/cache"
	"unicornfarm/internal/seed"

	"github.com/spf13/cobra"
)

func newSeedCmd(rt *runtime) *cobra.Command {
	var (
		clean        bool
		randomSeed   int64
		fixturesPath string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the farm with demo unicorns and posts",
		Long: `Fill the farm with demo unicorns and posts.

Examples:
  farmctl seed                          # Add the built-in demo farm
  farmctl seed --clean                  # Replace everything with the demo farm
  farmctl seed --fixtures farm.yaml     # Use your own fixtures
  farmctl seed --random-seed 42         # Reproducible posts`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fixtures, err := loadFixtures(fixturesPath)
			if err != nil {
				return err
			}

			db, err := rt.database()
			if err != nil {
				return err
			}

			summary, err := seed.NewSeeder(db, fixtures).Seed(cmd.Context(), seed.Options{
				Clean:      clean,
				RandomSeed: randomSeed,
			})
			if err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}

			// Cached listings would hide the new unicorns until they expire.
			if rdb, err := rt.redisClient(); err == nil {
				cache.New(rdb).InvalidateUnicorns(cmd.Context())
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d unicorns with %d posts\n", summary.Unicorns, summary.Posts)
			return nil
		},
	}

	cmd.Flags().BoolVar(&clean, "clean", false, "Remove every unicorn and post first")
	cmd.Flags().Int64Var(&randomSeed, "random-seed", 0, "Seed for the post generator (0 = random)")
	cmd.Flags().StringVar(&fixturesPath, "fixtures", "", "YAML fixtures file (defaults to the built-in farm)")
	return cmd
}

func loadFixtures(path string) (*seed.Fixtures, error) {
	if path == "" {
		return seed.DefaultFixtures()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return seed.ParseFixtures(data)
}
