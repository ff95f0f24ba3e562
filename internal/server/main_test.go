package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"unicornfarm/internal/config"
	"unicornfarm/internal/database"
	"unicornfarm/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MockDigestSender is a mock implementation of service.DigestSender
type MockDigestSender struct {
	mock.Mock
}

func (m *MockDigestSender) SendPurchaseDigest(ctx context.Context, recipient string, unicorn *models.Unicorn) error {
	args := m.Called(ctx, recipient, unicorn)
	return args.Error(0)
}

func setupServerTestDB(t *testing.T) *gorm.DB {
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

type testServer struct {
	app     *fiber.App
	db      *gorm.DB
	digests *MockDigestSender
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{Env: "test"}
	}

	db := setupServerTestDB(t)
	digests := new(MockDigestSender)

	s, err := NewServerWithDeps(cfg, db, nil, digests)
	require.NoError(t, err)

	return &testServer{app: s.NewApp(), db: db, digests: digests}
}

func (ts *testServer) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func (ts *testServer) seedUnicorn(t *testing.T, name string, purchased bool, posts ...string) *models.Unicorn {
	t.Helper()
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	unicorn := &models.Unicorn{Name: name, Purchased: purchased, CreatedAt: at, UpdatedAt: at}
	require.NoError(t, ts.db.Create(unicorn).Error)
	for _, body := range posts {
		msg := models.Message{Author: "Visitor", Message: body, UnicornID: unicorn.ID, CreatedAt: at, UpdatedAt: at}
		require.NoError(t, ts.db.Create(&msg).Error)
		unicorn.Messages = append(unicorn.Messages, msg)
	}
	return unicorn
}

func (ts *testServer) countPosts(t *testing.T, unicornID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, ts.db.Model(&models.Message{}).Where("unicorn_id = ?", unicornID).Count(&n).Error)
	return n
}

func decodeError(t *testing.T, raw []byte) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return body
}
