// Package checkout converts a user's cart into a persisted order: it filters
// stale line items, computes the total, records the order, and applies the
// inventory side effects.
package checkout

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
)

// NamedRef is a populated category or brand reference.
type NamedRef struct {
	ID   primitive.ObjectID `json:"_id"`
	Name string             `json:"name"`
}

// PopulatedProduct is a product resolved from a line item reference.
// Quantity is the remaining stock.
type PopulatedProduct struct {
	ID          primitive.ObjectID
	Title       string
	Price       float64
	Category    NamedRef
	Brand       NamedRef
	Quantity    int
	Sold        int
	Imgs        []models.ProductImage
	Color       string
	Description string
}

// PopulatedItem is a cart or order line whose product reference has been
// resolved. Product is nil when the referenced product no longer exists.
type PopulatedItem struct {
	Product   *PopulatedProduct
	WantedQty int
}

// PopulatedCart is the workflow's view of a user's cart.
type PopulatedCart struct {
	ID       primitive.ObjectID
	OrderBy  primitive.ObjectID
	Products []PopulatedItem
}

// PopulatedOrder is an order document with its product references resolved.
type PopulatedOrder struct {
	ID          primitive.ObjectID
	Products    []PopulatedItem
	Method      string
	TotalPrice  float64
	Currency    string
	OrderStatus string
	OrderBy     primitive.ObjectID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
