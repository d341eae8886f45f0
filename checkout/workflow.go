package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"storefront/models"
)

var (
	// ErrEmptyCart means the user has no cart, a cart with no lines, or a
	// cart where every line points at a deleted or sold-out product.
	ErrEmptyCart = errors.New("checkout: no products in cart")

	// ErrStoreUnavailable wraps a failed read before any write happened.
	ErrStoreUnavailable = errors.New("checkout: store unavailable")

	// ErrPersistFailure wraps a failed order write.
	ErrPersistFailure = errors.New("checkout: order not persisted")
)

// Params carries an already-resolved identity plus the optional payment
// fields a trusted caller (the payment webhook) supplies. Method is accepted
// only when it matches the order method enum; anything else keeps the
// default.
type Params struct {
	UserID   primitive.ObjectID
	Method   string
	Currency string
}

// Result is the projected order returned to the caller.
type Result struct {
	ID                   primitive.ObjectID `json:"_id"`
	Products             []ProjectedProduct `json:"products"`
	TotalPrice           float64            `json:"totalPrice"`
	Method               string             `json:"method"`
	Currency             string             `json:"currency"`
	OrderStatus          string             `json:"orderStatus"`
	OrderBy              primitive.ObjectID `json:"orderby"`
	RemovedProductsCount int                `json:"removedProductsCount"`
	CreatedAt            time.Time          `json:"createdAt"`
	UpdatedAt            time.Time          `json:"updatedAt"`
}

// Submit converts the user's cart into an order.
//
// Lines referencing deleted or sold-out products are dropped and counted into
// RemovedProductsCount; they never block the remaining lines. The total is
// the sum of wantedQty*price over retained lines only. After the order is
// persisted the cart delete and the inventory bulk update run together as a
// best effort: their failures are logged, not surfaced.
func Submit(ctx context.Context, store Store, p Params) (*Result, error) {
	cart, err := store.CartByUser(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(cart.Products) == 0 {
		return nil, ErrEmptyCart
	}

	var (
		retained []models.LineItem
		deltas   []InventoryDelta
		total    float64
	)
	for _, item := range cart.Products {
		if item.Product == nil || item.Product.Quantity == 0 {
			continue
		}
		retained = append(retained, models.LineItem{
			ProductID: item.Product.ID,
			WantedQty: item.WantedQty,
		})
		deltas = append(deltas, InventoryDelta{
			ProductID: item.Product.ID,
			Qty:       item.WantedQty,
		})
		total += float64(item.WantedQty) * item.Product.Price
	}
	removed := len(cart.Products) - len(retained)

	if len(retained) == 0 {
		// every line was stale; a zero-line zero-total order helps nobody
		return nil, ErrEmptyCart
	}

	now := time.Now()
	order := &models.Order{
		Products:    retained,
		Method:      models.MethodCashOnDelivery,
		TotalPrice:  total,
		Currency:    "USD",
		OrderStatus: models.StatusProcessing,
		OrderBy:     p.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if models.ValidOrderMethod(p.Method) {
		order.Method = p.Method
	}
	if p.Currency != "" {
		order.Currency = p.Currency
	}

	orderID, err := store.InsertOrder(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistFailure, err)
	}

	created, err := store.OrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistFailure, err)
	}

	cleanup(ctx, store, cart.ID, deltas)

	products, lateRemoved := ExtractProducts(created.Products)
	return &Result{
		ID:                   created.ID,
		Products:             products,
		TotalPrice:           created.TotalPrice,
		Method:               created.Method,
		Currency:             created.Currency,
		OrderStatus:          created.OrderStatus,
		OrderBy:              created.OrderBy,
		RemovedProductsCount: removed + lateRemoved,
		CreatedAt:            created.CreatedAt,
		UpdatedAt:            created.UpdatedAt,
	}, nil
}

// cleanup deletes the cart and applies the inventory deltas. Both run even if
// one fails; neither failure reaches the caller. A cart that is already gone
// is logged as a suspected concurrent submission.
func cleanup(ctx context.Context, store Store, cartID primitive.ObjectID, deltas []InventoryDelta) {
	var g errgroup.Group

	g.Go(func() error {
		deleted, err := store.DeleteCart(ctx, cartID)
		if err != nil {
			slog.Warn("cart cleanup failed", "cart", cartID.Hex(), "error", err)
		} else if !deleted {
			slog.Warn("cart already deleted, possible concurrent submission", "cart", cartID.Hex())
		}
		return nil
	})

	g.Go(func() error {
		if err := store.ApplyInventory(ctx, deltas); err != nil {
			slog.Warn("inventory update failed", "error", err)
		}
		return nil
	})

	_ = g.Wait()
}
