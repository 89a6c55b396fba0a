// Package testutil provides common test utilities for the storefront backend.
package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

// NewSQLiteDB opens an in-memory SQLite database with every model migrated.
// The pool is pinned to one connection so the in-memory database survives
// across queries and transactions.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// Fixture holds the rows created by Seed.
type Fixture struct {
	Drinks models.CategoryModel
	Snacks models.CategoryModel

	Tea    models.ProductModel
	Coffee models.ProductModel
	Cocoa  models.ProductModel
	Chips  models.ProductModel

	NewStatus  models.OrderStatusModel
	DoneStatus models.OrderStatusModel
}

// Products returns the seeded products in creation order.
func (f *Fixture) Products() []models.ProductModel {
	return []models.ProductModel{f.Tea, f.Coffee, f.Cocoa, f.Chips}
}

// Seed inserts a small catalog and the order statuses. Rows get increasing
// creation times so default ordering is stable.
func Seed(t *testing.T, db *gorm.DB) *Fixture {
	t.Helper()

	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	at := func(i int) models.BaseModel {
		return models.BaseModel{ID: uuid.New(), CreatedAt: base.Add(time.Duration(i) * time.Minute)}
	}

	f := &Fixture{
		Drinks: models.CategoryModel{BaseModel: at(0), Name: "Drinks", IsActive: true},
		Snacks: models.CategoryModel{BaseModel: at(1), Name: "Snacks", IsActive: false},
	}
	require.NoError(t, db.Create(&f.Drinks).Error)
	require.NoError(t, db.Create(&f.Snacks).Error)

	f.Tea = models.ProductModel{
		BaseModel: at(2), Name: "Green Tea", Description: "Loose leaf tea", IsActive: true,
		CategoryID: &f.Drinks.ID, Image: "products/tea.png", Price: decimal.RequireFromString("10.50"),
	}
	f.Coffee = models.ProductModel{
		BaseModel: at(3), Name: "Coffee", Description: "Arabica beans, not tea", IsActive: true,
		CategoryID: &f.Drinks.ID, Price: decimal.RequireFromString("20.00"),
	}
	f.Cocoa = models.ProductModel{
		BaseModel: at(4), Name: "Cocoa", Description: "Hot chocolate mix", IsActive: false,
		CategoryID: &f.Drinks.ID, Price: decimal.RequireFromString("7.00"),
	}
	f.Chips = models.ProductModel{
		BaseModel: at(5), Name: "Chips", Description: "Salted potato chips", IsActive: true,
		CategoryID: &f.Snacks.ID, Price: decimal.RequireFromString("3.25"),
	}
	for _, p := range []*models.ProductModel{&f.Tea, &f.Coffee, &f.Cocoa, &f.Chips} {
		require.NoError(t, db.Create(p).Error)
	}

	f.NewStatus = models.OrderStatusModel{BaseModel: at(6), Name: "New", IsDefault: true}
	f.DoneStatus = models.OrderStatusModel{BaseModel: at(7), Name: "Done", IsCompleted: true}
	require.NoError(t, db.Create(&f.NewStatus).Error)
	require.NoError(t, db.Create(&f.DoneStatus).Error)

	return f
}

// SeedOrder inserts an order in status with one line per product, count 2 each.
func SeedOrder(t *testing.T, db *gorm.DB, status models.OrderStatusModel, hash string, products ...models.ProductModel) models.OrderModel {
	t.Helper()

	order := models.OrderModel{
		StatusID:        status.ID,
		Hash:            hash,
		DeliveryAddress: "1 Main St",
		DeliveryTime:    "evening",
	}
	total := decimal.Zero
	for _, p := range products {
		line := p.Price.Mul(decimal.NewFromInt(2))
		total = total.Add(line)
		order.Items = append(order.Items, models.OrderItemModel{ProductID: p.ID, Count: 2, Price: line})
	}
	order.Total = total
	require.NoError(t, db.Create(&order).Error)
	return order
}
