package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"unicornfarm/internal/models"
	"unicornfarm/internal/observability"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	// Clean removes every unicorn and post before seeding.
	Clean bool
	// RandomSeed makes the generated farm reproducible; zero picks a random one.
	RandomSeed int64
	Now        time.Time
}

// Summary reports what a seeding run created.
type Summary struct {
	Unicorns int
	Posts    int
}

// Seeder persists fixtures into the database.
type Seeder struct {
	db       *gorm.DB
	fixtures *Fixtures
}

// NewSeeder creates a Seeder for the given fixtures.
func NewSeeder(db *gorm.DB, fixtures *Fixtures) *Seeder {
	return &Seeder{db: db, fixtures: fixtures}
}

// Seed populates the database with the fixtures' farm in one transaction.
func (s *Seeder) Seed(ctx context.Context, opts Options) (Summary, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	factory := NewFactory(s.fixtures, opts.RandomSeed, now)

	var summary Summary
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if opts.Clean {
			if err := clearData(tx); err != nil {
				return err
			}
		}

		for _, name := range s.fixtures.Unicorns {
			unicorn := factory.BuildUnicorn(name)
			if err := tx.Create(unicorn).Error; err != nil {
				return fmt.Errorf("create unicorn %q: %w", name, err)
			}
			summary.Unicorns++
			summary.Posts += len(unicorn.Messages)
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	observability.Logger.InfoContext(ctx, "database seeded",
		slog.Int("unicorns", summary.Unicorns),
		slog.Int("posts", summary.Posts),
	)
	return summary, nil
}

// ClearAll removes every unicorn and post.
func (s *Seeder) ClearAll(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(clearData)
}

func clearData(tx *gorm.DB) error {
	// Posts first, so no foreign key is left dangling.
	if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Message{}).Error; err != nil {
		return fmt.Errorf("clear posts: %w", err)
	}
	if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Unicorn{}).Error; err != nil {
		return fmt.Errorf("clear unicorns: %w", err)
	}
	return nil
}
