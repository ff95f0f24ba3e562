package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"unicornfarm/internal/models"
	"unicornfarm/internal/observability"
	"unicornfarm/internal/repository"
	"unicornfarm/internal/validation"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

type PostService struct {
	postRepo repository.PostRepository
	now      Clock
}

type CreatePostInput struct {
	Author    string
	Message   string
	UnicornID uint
}

type UpdatePostInput struct {
	PostID  uint
	Message string
}

type ListPostsInput struct {
	UnicornID *uint
	Limit     int
	Offset    int
}

func NewPostService(postRepo repository.PostRepository, now Clock) *PostService {
	return &PostService{
		postRepo: postRepo,
		now:      clockOrDefault(now),
	}
}

// CreatePost attaches a new post to an unpurchased unicorn.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Message, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.CreatePost", attribute.Int64("unicorn.id", int64(in.UnicornID)))
	defer func() { observability.EndSpan(span, err) }()

	if validation.IsBlank(in.Author) {
		return nil, models.NewInvalidInputError("Author is required")
	}
	if utf8.RuneCountInString(in.Author) > maxAuthorLen {
		return nil, models.NewInvalidInputError(fmt.Sprintf("Author too long (max %d characters)", maxAuthorLen))
	}
	if validation.IsBlank(in.Message) {
		return nil, models.NewInvalidInputError("Message is required")
	}
	if in.UnicornID == 0 {
		return nil, models.NewInvalidInputError("Unicorn is required")
	}

	now := s.now()
	post = &models.Message{
		Author:    in.Author,
		Message:   in.Message,
		UnicornID: in.UnicornID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, models.NewNotFoundError("Unicorn not found")
		case errors.Is(err, repository.ErrUnicornPurchased):
			return nil, models.NewConflictError("Unicorn has been purchased")
		}
		return nil, fmt.Errorf("create post: %w", err)
	}

	observability.PostsTotal.WithLabelValues("create").Inc()
	observability.Logger.InfoContext(ctx, "post created",
		slog.Uint64("post_id", uint64(post.ID)),
		slog.Uint64("unicorn_id", uint64(post.UnicornID)),
	)
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Message, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post not found")
		}
		return nil, err
	}
	return post, nil
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Message, error) {
	return s.postRepo.List(ctx, repository.PostFilter{
		UnicornID: in.UnicornID,
		Limit:     in.Limit,
		Offset:    in.Offset,
	})
}

// UpdatePost replaces the body of a post. Bodies that HTML escaping would alter
// are rejected, not sanitized.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (post *models.Message, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.UpdatePost", attribute.Int64("post.id", int64(in.PostID)))
	defer func() { observability.EndSpan(span, err) }()

	if validation.IsBlank(in.Message) {
		return nil, models.NewInvalidInputError("Message is required")
	}
	if !validation.IsEscaped(in.Message) {
		return nil, models.NewInvalidInputError("Invalid data")
	}

	post, err = s.postRepo.UpdateMessage(ctx, in.PostID, in.Message, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post not found")
		}
		return nil, fmt.Errorf("update post: %w", err)
	}

	observability.PostsTotal.WithLabelValues("update").Inc()
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, id uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.DeletePost", attribute.Int64("post.id", int64(id)))
	defer func() { observability.EndSpan(span, err) }()

	if err := s.postRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Post not found")
		}
		return fmt.Errorf("delete post: %w", err)
	}

	observability.PostsTotal.WithLabelValues("delete").Inc()
	return nil
}
