package service

import (
	"context"
	"strings"
	"testing"

	"unicornfarm/internal/models"
	"unicornfarm/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPostFixture(t *testing.T) (*gorm.DB, *PostService) {
	t.Helper()
	db := setupTestDB(t)
	return db, NewPostService(repository.NewPostRepository(db, nil), fixedClock)
}

func TestPostService_CreatePost(t *testing.T) {
	db, svc := newPostFixture(t)
	ctx := context.Background()

	available := seedUnicorn(t, db, "Sparkle", false)
	sold := seedUnicorn(t, db, "Rainbow", true)

	tests := []struct {
		name    string
		in      CreatePostInput
		kind    models.ErrorKind
		message string
	}{
		{"Blank author", CreatePostInput{Author: "  ", Message: "hi", UnicornID: available.ID}, models.KindInvalidInput, "Author is required"},
		{"Author too long", CreatePostInput{Author: strings.Repeat("a", 256), Message: "hi", UnicornID: available.ID}, models.KindInvalidInput, "Author too long (max 255 characters)"},
		{"Blank message", CreatePostInput{Author: "Ada", Message: "", UnicornID: available.ID}, models.KindInvalidInput, "Message is required"},
		{"Missing unicorn", CreatePostInput{Author: "Ada", Message: "hi"}, models.KindInvalidInput, "Unicorn is required"},
		{"Unknown unicorn", CreatePostInput{Author: "Ada", Message: "hi", UnicornID: 4242}, models.KindNotFound, "Unicorn not found"},
		{"Purchased unicorn", CreatePostInput{Author: "Ada", Message: "hi", UnicornID: sold.ID}, models.KindConflict, "Unicorn has been purchased"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePost(ctx, tt.in)
			assertKind(t, err, tt.kind, tt.message)
		})
	}

	var count int64
	require.NoError(t, db.Model(&models.Message{}).Count(&count).Error)
	assert.Zero(t, count)

	post, err := svc.CreatePost(ctx, CreatePostInput{Author: "Ada", Message: "Lovely mane", UnicornID: available.ID})
	require.NoError(t, err)
	assert.NotZero(t, post.ID)
	assert.Equal(t, fixedNow, post.CreatedAt)
	assert.Equal(t, fixedNow, post.UpdatedAt)
	assert.Equal(t, available.ID, post.UnicornID)
}

func TestPostService_UpdatePost(t *testing.T) {
	db, svc := newPostFixture(t)
	ctx := context.Background()

	unicorn := seedUnicorn(t, db, "Sparkle", false, "original")
	postID := unicorn.Messages[0].ID

	for _, body := range []string{"<script>alert(1)</script>", "fish & chips", `"quoted"`, "it's", "   "} {
		_, err := svc.UpdatePost(ctx, UpdatePostInput{PostID: postID, Message: body})
		assertKind(t, err, models.KindInvalidInput, "")
	}

	stored, err := svc.GetPost(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, "original", stored.Message)

	_, err = svc.UpdatePost(ctx, UpdatePostInput{PostID: 999, Message: "fine"})
	assertKind(t, err, models.KindNotFound, "Post not found")

	updated, err := svc.UpdatePost(ctx, UpdatePostInput{PostID: postID, Message: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Message)
	assert.Equal(t, "Visitor", updated.Author)
	assert.Equal(t, fixedNow, updated.UpdatedAt)
	assert.True(t, updated.CreatedAt.Equal(unicorn.Messages[0].CreatedAt))
}

func TestPostService_UpdatePost_RejectsMarkupWithMessage(t *testing.T) {
	db, svc := newPostFixture(t)
	unicorn := seedUnicorn(t, db, "Sparkle", false, "original")

	_, err := svc.UpdatePost(context.Background(), UpdatePostInput{PostID: unicorn.Messages[0].ID, Message: "<b>hi</b>"})
	assertKind(t, err, models.KindInvalidInput, "Invalid data")
}

func TestPostService_GetListDelete(t *testing.T) {
	db, svc := newPostFixture(t)
	ctx := context.Background()

	first := seedUnicorn(t, db, "Sparkle", false, "a", "b")
	seedUnicorn(t, db, "Rainbow", false, "c")

	all, err := svc.ListPosts(ctx, ListPostsInput{Limit: 20})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := svc.ListPosts(ctx, ListPostsInput{UnicornID: &first.ID, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = svc.GetPost(ctx, 999)
	assertKind(t, err, models.KindNotFound, "Post not found")

	require.NoError(t, svc.DeletePost(ctx, mine[0].ID))
	assertKind(t, svc.DeletePost(ctx, mine[0].ID), models.KindNotFound, "Post not found")

	_, err = svc.GetPost(ctx, mine[0].ID)
	assertKind(t, err, models.KindNotFound, "Post not found")
}

func TestPostService_CreateRacesPurchase(t *testing.T) {
	db := setupTestDB(t)
	posts := NewPostService(repository.NewPostRepository(db, nil), fixedClock)
	purchases := NewPurchaseService(repository.NewUnicornRepository(db, nil), &digestRecorder{}, nil, fixedClock)
	ctx := context.Background()

	unicorn := seedUnicorn(t, db, "Sparkle", false)

	_, err := purchases.Purchase(ctx, PurchaseInput{UnicornID: unicorn.ID, Email: "buyer@example.com"})
	require.NoError(t, err)

	_, err = posts.CreatePost(ctx, CreatePostInput{Author: "Late", Message: "too late", UnicornID: unicorn.ID})
	assertKind(t, err, models.KindConflict, "Unicorn has been purchased")

	assert.Empty(t, loadUnicorn(t, db, unicorn.ID).Messages)
}
