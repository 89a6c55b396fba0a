// Package repository implements the repository capabilities of package
// shared over GORM.
//
// Every capability is a named operation of a pipeline.Registry, so each call
// runs inside the same transaction, conversion and error redirection
// wrappers. Concrete repositories pick the capabilities they expose and may
// replace any operation with their own.
//
// Usage:
//
//	store := repository.NewStore(db)
//	products, err := repository.New[models.ProductModel](store, reflect.TypeFor[catalog.Product](),
//		repository.WithSearchFields("name", "description"),
//	)
//	products.WithDTO(reflect.TypeFor[catalog.ProductInfoDTO]())
//	res, err := products.Search(ctx, shared.SearchQuery{Search: "tea"})
package repository

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// Store hands out the connection of the current request: the open
// transaction carried by the context, or the base connection otherwise.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store over db
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB returns a session bound to ctx. Inside InTransaction it is the
// transaction's session.
func (s *Store) DB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return s.db.WithContext(ctx)
}

// Unscoped returns the base connection, ignoring any transaction in ctx.
func (s *Store) Unscoped() *gorm.DB {
	return s.db
}

// InTransaction runs fn in a transaction carried by the context passed to
// fn. It commits when fn returns nil and rolls back otherwise. Called
// inside another transaction it opens a savepoint.
func (s *Store) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.DB(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// InTransaction reports whether ctx carries an open transaction.
func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*gorm.DB)
	return ok
}
