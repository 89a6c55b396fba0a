package persistence

import (
	"context"
	"database/sql"
	"reflect"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"github.com/storefront/backend/internal/infrastructure/persistence/repository"
)

// newMockDatabase creates a Database instance with a mocked SQL connection
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewDatabaseFromDB(gormDB), mock, mockDB
}

func TestNewDatabase(t *testing.T) {
	t.Run("opens sqlite and migrates models", func(t *testing.T) {
		cfg := &config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", LogLevel: "silent"}

		db, err := NewDatabase(cfg, zap.NewNop())
		require.NoError(t, err)
		defer db.Close()

		require.NoError(t, db.AutoMigrate())
		assert.True(t, db.DB.Migrator().HasTable(&models.ProductModel{}))
		assert.True(t, db.DB.Migrator().HasTable(&models.ExternalCodeModel{}))
		assert.NotNil(t, db.Store())

		require.NoError(t, db.AutoMigrate(), "seeding is repeatable")
		var statuses []models.OrderStatusModel
		require.NoError(t, db.DB.Order("name").Find(&statuses).Error)
		require.Len(t, statuses, 2)
		assert.Equal(t, "Completed", statuses[0].Name)
		assert.True(t, statuses[1].IsDefault)

		stats, err := db.Stats()
		require.NoError(t, err)
		assert.Equal(t, 1, stats.MaxOpenConnections)
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		_, err := NewDatabase(&config.DatabaseConfig{Driver: "mysql"}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported database driver")
	})
}

func TestDatabase_Ping(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer mockDB.Close()

	// GORM may ping during Open, so expect it first
	mock.ExpectPing()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	db := NewDatabaseFromDB(gormDB)
	mock.ExpectPing()

	assert.NoError(t, db.Ping())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockDatabase(t)
	mock.ExpectClose()

	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Stats(t *testing.T) {
	db, _, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	stats, err := db.Stats()
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, stats.OpenConnections, 0)
	assert.GreaterOrEqual(t, stats.WaitDuration, time.Duration(0))
}

func TestStore_AtomicOperations(t *testing.T) {
	t.Run("failed write rolls back", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		categories, err := repository.New[models.CategoryModel](db.Store(), reflect.TypeFor[catalog.Category]())
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "categories"`).WillReturnError(assert.AnError)
		mock.ExpectRollback()

		_, err = categories.Create(context.Background(), map[string]any{"Name": "Drinks"})
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("successful write commits", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		categories, err := repository.New[models.CategoryModel](db.Store(), reflect.TypeFor[catalog.Category]())
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "categories"`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		_, err = categories.Create(context.Background(), map[string]any{"Name": "Drinks", "IsActive": true})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nested transaction uses a savepoint", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`SAVEPOINT`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`ROLLBACK TO SAVEPOINT`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		store := db.Store()
		err := store.InTransaction(context.Background(), func(ctx context.Context) error {
			assert.True(t, repository.InTransaction(ctx))
			inner := store.InTransaction(ctx, func(context.Context) error { return assert.AnError })
			assert.ErrorIs(t, inner, assert.AnError)
			return nil
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
