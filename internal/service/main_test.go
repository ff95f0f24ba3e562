package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"unicornfarm/internal/database"
	"unicornfarm/internal/models"
	"unicornfarm/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Date(2024, 5, 17, 14, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(database.SQLiteDSN(":memory:")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func seedUnicorn(t *testing.T, db *gorm.DB, name string, purchased bool, posts ...string) *models.Unicorn {
	t.Helper()
	created := fixedNow.Add(-24 * time.Hour)
	unicorn := &models.Unicorn{Name: name, Purchased: purchased, CreatedAt: created, UpdatedAt: created}
	require.NoError(t, db.Create(unicorn).Error)
	for i, body := range posts {
		msg := models.Message{
			Author:    "Visitor",
			Message:   body,
			UnicornID: unicorn.ID,
			CreatedAt: created.Add(time.Duration(i) * time.Minute),
			UpdatedAt: created,
		}
		require.NoError(t, db.Create(&msg).Error)
		unicorn.Messages = append(unicorn.Messages, msg)
	}
	return unicorn
}

func loadUnicorn(t *testing.T, db *gorm.DB, id uint) models.Unicorn {
	t.Helper()
	var u models.Unicorn
	require.NoError(t, db.Preload("Messages").First(&u, id).Error)
	return u
}

// digestRecorder is a DigestSender that records every delivery.
type digestRecorder struct {
	mu         sync.Mutex
	recipients []string
	digests    []models.Unicorn
	err        error
}

func (r *digestRecorder) SendPurchaseDigest(_ context.Context, recipient string, unicorn *models.Unicorn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.recipients = append(r.recipients, recipient)
	r.digests = append(r.digests, *unicorn)
	return nil
}

func (r *digestRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.digests)
}

// publisherStub records purchase events.
type publisherStub struct {
	mu     sync.Mutex
	events []notifications.PurchaseEvent
	err    error
}

func (p *publisherStub) PublishPurchase(_ context.Context, ev notifications.PurchaseEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

// unicornRepoStub is a stub for repository.UnicornRepository.
type unicornRepoStub struct {
	listFn             func(context.Context, int, int) ([]*models.Unicorn, error)
	getByIDFn          func(context.Context, uint) (*models.Unicorn, error)
	findForPurchaseFn  func(context.Context, uint) (*models.Unicorn, error)
	completePurchaseFn func(context.Context, uint, time.Time) (*models.Unicorn, error)
	createFn           func(context.Context, *models.Unicorn) error
	listAllFn          func(context.Context) ([]*models.Unicorn, error)
}

func (s *unicornRepoStub) List(ctx context.Context, limit, offset int) ([]*models.Unicorn, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *unicornRepoStub) GetByID(ctx context.Context, id uint) (*models.Unicorn, error) {
	return s.getByIDFn(ctx, id)
}
func (s *unicornRepoStub) FindForPurchase(ctx context.Context, id uint) (*models.Unicorn, error) {
	return s.findForPurchaseFn(ctx, id)
}
func (s *unicornRepoStub) CompletePurchase(ctx context.Context, id uint, at time.Time) (*models.Unicorn, error) {
	return s.completePurchaseFn(ctx, id, at)
}
func (s *unicornRepoStub) Create(ctx context.Context, unicorn *models.Unicorn) error {
	return s.createFn(ctx, unicorn)
}
func (s *unicornRepoStub) ListAll(ctx context.Context) ([]*models.Unicorn, error) {
	return s.listAllFn(ctx)
}

// assertKind asserts that err is an AppError of the given kind and message.
func assertKind(t *testing.T, err error, kind models.ErrorKind, message string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, kind, appErr.Kind)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}
