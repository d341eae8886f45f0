package checkout

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
)

// ErrNotFound reports that a looked-up document does not exist.
var ErrNotFound = errors.New("checkout: not found")

// InventoryDelta records units sold for one product: the product's stock
// decreases by Qty and its sold counter increases by Qty.
type InventoryDelta struct {
	ProductID primitive.ObjectID
	Qty       int
}

// Store is the slice of the persistent store the workflow needs. It is passed
// in explicitly so the workflow carries no ambient database state and tests
// can supply an in-memory implementation.
type Store interface {
	// CartByUser returns the user's cart with product stock and price
	// resolved. Lines whose product was deleted keep a nil Product.
	// Returns ErrNotFound when the user has no cart.
	CartByUser(ctx context.Context, userID primitive.ObjectID) (*PopulatedCart, error)

	InsertOrder(ctx context.Context, order *models.Order) (primitive.ObjectID, error)

	// OrderByID re-reads a created order with category and brand names
	// resolved for the response shape.
	OrderByID(ctx context.Context, id primitive.ObjectID) (*PopulatedOrder, error)

	// DeleteCart removes a cart by its own id, never by owner, so a cart
	// re-created mid-flight is left alone. Reports whether a document
	// was actually deleted.
	DeleteCart(ctx context.Context, cartID primitive.ObjectID) (bool, error)

	// ApplyInventory applies the stock decrements and sold increments as
	// one bulk update.
	ApplyInventory(ctx context.Context, deltas []InventoryDelta) error

	// PopulateItems resolves product references with category and brand
	// names, keeping nil for deleted products. Used by cart and order
	// read paths that feed ExtractProducts.
	PopulateItems(ctx context.Context, items []models.LineItem) ([]PopulatedItem, error)
}
