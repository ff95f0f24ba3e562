package seed

import (
	"strings"
	"time"

	"unicornfarm/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

// Factory builds unicorns and their posts from fixtures. It does not touch the
// database, so the seeder can persist everything in one transaction.
type Factory struct {
	fixtures *Fixtures
	faker    *gofakeit.Faker
	now      time.Time
}

// NewFactory creates a Factory. A zero seed draws from a random source.
func NewFactory(fixtures *Fixtures, seed int64, now time.Time) *Factory {
	return &Factory{fixtures: fixtures, faker: gofakeit.New(seed), now: now.UTC()}
}

// farmAge is how long before now seeded unicorns arrived on the farm.
const farmAge = 30 * 24 * time.Hour

// BuildUnicorn returns an available unicorn with a random number of posts.
func (f *Factory) BuildUnicorn(name string) *models.Unicorn {
	arrived := f.now.Add(-farmAge)
	unicorn := &models.Unicorn{
		Name:      name,
		CreatedAt: arrived,
		UpdatedAt: arrived,
	}

	span := f.fixtures.PostsPerUnicorn
	count := f.faker.Number(span.Min, span.Max)
	for i := 0; i < count; i++ {
		unicorn.Messages = append(unicorn.Messages, f.BuildMessage(unicorn))
	}
	return unicorn
}

// BuildMessage returns a post about the unicorn, written some time after it
// arrived. UnicornID is left for the caller when the unicorn is not yet stored.
func (f *Factory) BuildMessage(unicorn *models.Unicorn) models.Message {
	template := f.faker.RandomString(f.fixtures.Messages)
	created := f.faker.DateRange(unicorn.CreatedAt, f.now).UTC().Truncate(time.Second)

	return models.Message{
		Author:    f.author(),
		Message:   strings.ReplaceAll(template, NamePlaceholder, unicorn.Name),
		UnicornID: unicorn.ID,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func (f *Factory) author() string {
	if len(f.fixtures.Authors) == 0 {
		return f.faker.Name()
	}
	return f.faker.RandomString(f.fixtures.Authors)
}
