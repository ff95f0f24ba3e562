package repository

import (
	"testing"
	"time"

	"unicornfarm/internal/database"
	"unicornfarm/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2024, 5, 17, 14, 30, 0, 0, time.UTC)

// setupMockDB returns a GORM handle speaking the Postgres dialect to sqlmock.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

// setupSQLiteDB returns a migrated in-memory database.
func setupSQLiteDB(t *testing.T) *gorm.DB {
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
	unicorn := &models.Unicorn{Name: name, Purchased: purchased, CreatedAt: testNow, UpdatedAt: testNow}
	require.NoError(t, db.Create(unicorn).Error)
	for _, body := range posts {
		require.NoError(t, db.Create(&models.Message{
			Author:    "Visitor",
			Message:   body,
			UnicornID: unicorn.ID,
			CreatedAt: testNow,
			UpdatedAt: testNow,
		}).Error)
	}
	return unicorn
}

func countPosts(t *testing.T, db *gorm.DB, unicornID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Message{}).Where("unicorn_id = ?", unicornID).Count(&n).Error)
	return n
}
