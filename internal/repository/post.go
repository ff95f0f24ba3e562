package repository

import (
	"context"
	"time"

	"unicornfarm/internal/cache"
	"unicornfarm/internal/models"
	"unicornfarm/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter narrows a post listing.
type PostFilter struct {
	UnicornID *uint
	Limit     int
	Offset    int
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	List(ctx context.Context, filter PostFilter) ([]*models.Message, error)
	UpdateMessage(ctx context.Context, id uint, message string, at time.Time) (*models.Message, error)
	Delete(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewPostRepository creates a new post repository. c may be nil.
func NewPostRepository(db *gorm.DB, c *cache.Cache) PostRepository {
	return &postRepository{db: db, cache: c}
}

// Create inserts post after checking its unicorn under a shared row lock, so a
// purchase cannot commit between the check and the insert. It returns
// gorm.ErrRecordNotFound for an unknown unicorn and ErrUnicornPurchased for a
// purchased one.
func (r *postRepository) Create(ctx context.Context, post *models.Message) error {
	defer observability.TrackQuery("insert", "messages")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var unicorn models.Unicorn
		if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Select("id", "purchased").
			First(&unicorn, post.UnicornID).Error; err != nil {
			return err
		}
		if unicorn.Purchased {
			return ErrUnicornPurchased
		}
		return tx.Create(post).Error
	})
	if err != nil {
		return err
	}

	r.cache.InvalidateUnicorns(ctx)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	defer observability.TrackQuery("select", "messages")()

	var post models.Message
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter) ([]*models.Message, error) {
	defer observability.TrackQuery("select", "messages")()

	posts := []*models.Message{}
	query := r.db.WithContext(ctx).Order("id")
	if filter.UnicornID != nil {
		query = query.Where("unicorn_id = ?", *filter.UnicornID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if err := query.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdateMessage replaces the body of a post and stamps updated_at. Author and
// unicorn never change.
func (r *postRepository) UpdateMessage(ctx context.Context, id uint, message string, at time.Time) (*models.Message, error) {
	defer observability.TrackQuery("update", "messages")()

	var post models.Message
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, id).Error; err != nil {
			return err
		}
		post.Message = message
		post.UpdatedAt = at
		return tx.Model(&post).Updates(map[string]any{"message": message, "updated_at": at}).Error
	})
	if err != nil {
		return nil, err
	}

	r.cache.InvalidateUnicorns(ctx)
	return &post, nil
}

// Delete removes a post. It returns gorm.ErrRecordNotFound when nothing was deleted.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "messages")()

	res := r.db.WithContext(ctx).Delete(&models.Message{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.cache.InvalidateUnicorns(ctx)
	return nil
}
