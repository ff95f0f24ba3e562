// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"unicornfarm/internal/cache"
	"unicornfarm/internal/database"
	"unicornfarm/internal/models"
	"unicornfarm/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrUnicornPurchased is returned when a write needs an unpurchased unicorn.
	ErrUnicornPurchased = errors.New("unicorn already purchased")
	// ErrConcurrentUpdate is returned when the store aborted the transaction
	// because another one held or changed the same rows.
	ErrConcurrentUpdate = errors.New("concurrent update")
)

// OnFarm restricts unicorn queries to animals that have not been purchased.
// Every public read of unicorns goes through it.
func OnFarm(db *gorm.DB) *gorm.DB {
	return db.Where("unicorns.purchased = ?", false)
}

func messagesByID(db *gorm.DB) *gorm.DB {
	return db.Order("messages.id")
}

// UnicornRepository defines the interface for unicorn data operations
type UnicornRepository interface {
	List(ctx context.Context, limit, offset int) ([]*models.Unicorn, error)
	GetByID(ctx context.Context, id uint) (*models.Unicorn, error)
	FindForPurchase(ctx context.Context, id uint) (*models.Unicorn, error)
	CompletePurchase(ctx context.Context, id uint, at time.Time) (*models.Unicorn, error)
	Create(ctx context.Context, unicorn *models.Unicorn) error
	ListAll(ctx context.Context) ([]*models.Unicorn, error)
}

// unicornRepository implements UnicornRepository
type unicornRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewUnicornRepository creates a new unicorn repository. c may be nil.
func NewUnicornRepository(db *gorm.DB, c *cache.Cache) UnicornRepository {
	return &unicornRepository{db: db, cache: c}
}

// List returns one page of unicorns still on the farm, each with its posts.
func (r *unicornRepository) List(ctx context.Context, limit, offset int) ([]*models.Unicorn, error) {
	unicorns := []*models.Unicorn{}
	fetch := func() error {
		defer observability.TrackQuery("select", "unicorns")()
		return r.db.WithContext(ctx).
			Scopes(OnFarm).
			Preload("Messages", messagesByID).
			Order("unicorns.id").
			Limit(limit).
			Offset(offset).
			Find(&unicorns).Error
	}

	gen, ok := r.cache.Generation(ctx)
	if !ok {
		return unicorns, fetch()
	}
	if err := r.cache.Aside(ctx, cache.UnicornListKey(gen, limit, offset), &unicorns, cache.ListTTL, fetch); err != nil {
		return nil, err
	}
	return unicorns, nil
}

// GetByID returns a unicorn still on the farm. Purchased unicorns yield
// gorm.ErrRecordNotFound.
func (r *unicornRepository) GetByID(ctx context.Context, id uint) (*models.Unicorn, error) {
	var unicorn models.Unicorn
	fetch := func() error {
		defer observability.TrackQuery("select", "unicorns")()
		return r.db.WithContext(ctx).
			Scopes(OnFarm).
			Preload("Messages", messagesByID).
			First(&unicorn, id).Error
	}

	var err error
	if gen, ok := r.cache.Generation(ctx); ok {
		err = r.cache.Aside(ctx, cache.UnicornKey(gen, id), &unicorn, cache.UnicornTTL, fetch)
	} else {
		err = fetch()
	}
	if err != nil {
		return nil, err
	}
	return &unicorn, nil
}

// FindForPurchase loads a unicorn and its posts regardless of its purchased flag.
func (r *unicornRepository) FindForPurchase(ctx context.Context, id uint) (*models.Unicorn, error) {
	defer observability.TrackQuery("select", "unicorns")()

	var unicorn models.Unicorn
	err := r.db.WithContext(ctx).
		Preload("Messages", messagesByID).
		First(&unicorn, id).Error
	if err != nil {
		return nil, err
	}
	return &unicorn, nil
}

// CompletePurchase removes every post of the unicorn and marks it purchased in a
// single transaction. The row is locked first and the flag is flipped with a
// conditional update, so of two racing purchases exactly one commits; the other
// gets ErrUnicornPurchased.
func (r *unicornRepository) CompletePurchase(ctx context.Context, id uint, at time.Time) (*models.Unicorn, error) {
	defer observability.TrackQuery("purchase", "unicorns")()

	var unicorn models.Unicorn
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&unicorn, id).Error; err != nil {
			return err
		}
		if unicorn.Purchased {
			return ErrUnicornPurchased
		}

		if err := tx.Where("unicorn_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return fmt.Errorf("delete posts: %w", err)
		}

		res := tx.Model(&models.Unicorn{}).
			Where("id = ? AND purchased = ?", id, false).
			Updates(map[string]any{"purchased": true, "updated_at": at})
		if res.Error != nil {
			return fmt.Errorf("mark purchased: %w", res.Error)
		}
		if res.RowsAffected != 1 {
			return ErrUnicornPurchased
		}
		return nil
	})
	if err != nil {
		if database.IsLockConflict(err) {
			return nil, fmt.Errorf("%w: %w", ErrConcurrentUpdate, err)
		}
		return nil, err
	}

	r.cache.InvalidateUnicorns(ctx)

	unicorn.Purchased = true
	unicorn.UpdatedAt = at
	unicorn.Messages = []models.Message{}
	return &unicorn, nil
}

// Create inserts a new unicorn. Used by the admin tooling only.
func (r *unicornRepository) Create(ctx context.Context, unicorn *models.Unicorn) error {
	if err := r.db.WithContext(ctx).Create(unicorn).Error; err != nil {
		return err
	}
	r.cache.InvalidateUnicorns(ctx)
	return nil
}

// ListAll returns every unicorn including purchased ones, without posts.
func (r *unicornRepository) ListAll(ctx context.Context) ([]*models.Unicorn, error) {
	var unicorns []*models.Unicorn
	err := r.db.WithContext(ctx).Order("id").Find(&unicorns).Error
	return unicorns, err
}
