package controllers

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/checkout"
	"storefront/database"
	"storefront/models"
)

func optionsAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

// docCounter is the one collection method the uniqueness guards need.
type docCounter interface {
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

// isTaken reports whether a document matching filter already exists. A failed
// count surfaces as an error; there is no unique index backstop, so treating
// it as "not taken" could persist a duplicate.
func isTaken(ctx context.Context, coll docCounter, filter bson.M) (bool, error) {
	n, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

var checkoutStore checkout.Store

// SetCheckoutStore wires the store handle the order endpoints use. main
// installs the Mongo-backed store; tests install a fake.
func SetCheckoutStore(s checkout.Store) {
	checkoutStore = s
}

func getCheckoutStore() checkout.Store {
	if checkoutStore == nil {
		checkoutStore = checkout.NewMongoStore(database.DB)
	}
	return checkoutStore
}

// projectItems resolves and flattens line items for cart and order responses.
func projectItems(ctx context.Context, items []models.LineItem) ([]checkout.ProjectedProduct, int, error) {
	populated, err := getCheckoutStore().PopulateItems(ctx, items)
	if err != nil {
		return nil, 0, err
	}
	products, removed := checkout.ExtractProducts(populated)
	return products, removed, nil
}

// orderView is the projected order shape shared by the list, detail, and
// status endpoints.
func orderView(ctx context.Context, order models.Order) (*checkout.Result, error) {
	products, removed, err := projectItems(ctx, order.Products)
	if err != nil {
		return nil, err
	}

	return &checkout.Result{
		ID:                   order.ID,
		Products:             products,
		TotalPrice:           order.TotalPrice,
		Method:               order.Method,
		Currency:             order.Currency,
		OrderStatus:          order.OrderStatus,
		OrderBy:              order.OrderBy,
		RemovedProductsCount: removed,
		CreatedAt:            order.CreatedAt,
		UpdatedAt:            order.UpdatedAt,
	}, nil
}

// orderViews projects a batch of orders for embedding in responses.
func orderViews(ctx context.Context, orders []models.Order) ([]*checkout.Result, error) {
	views := make([]*checkout.Result, 0, len(orders))
	for _, order := range orders {
		view, err := orderView(ctx, order)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func shortTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 5*time.Second)
}

func longTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 10*time.Second)
}
