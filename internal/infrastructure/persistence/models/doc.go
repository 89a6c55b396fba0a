// Package models contains GORM persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Models never convert themselves: results leave the persistence layer through the
// conversion chain (see package convert), which copies them into entities and schemas
// by field name. Relation fields therefore use the same names as the entity and schema
// fields they feed (Category, Status, Items, Product).
//
// Structure:
// - base.go: BaseModel shared by every table
// - catalog.go: CategoryModel, ProductModel
// - order.go: OrderStatusModel, OrderModel, OrderItemModel
// - external_code.go: codes of rows in external systems
package models
