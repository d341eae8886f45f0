package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
)

type fakeStore struct {
	mu sync.Mutex

	cart    *PopulatedCart
	cartErr error

	insertErr error
	orderErr  error

	deleteErr    error
	deleteMissed bool
	invErr       error

	inserted    *models.Order
	deletedCart primitive.ObjectID
	deltas      []InventoryDelta
}

func (f *fakeStore) CartByUser(_ context.Context, _ primitive.ObjectID) (*PopulatedCart, error) {
	if f.cartErr != nil {
		return nil, f.cartErr
	}
	if f.cart == nil {
		return nil, ErrNotFound
	}
	return f.cart, nil
}

func (f *fakeStore) InsertOrder(_ context.Context, order *models.Order) (primitive.ObjectID, error) {
	if f.insertErr != nil {
		return primitive.NilObjectID, f.insertErr
	}
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	f.inserted = order
	return order.ID, nil
}

func (f *fakeStore) OrderByID(_ context.Context, id primitive.ObjectID) (*PopulatedOrder, error) {
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	if f.inserted == nil || f.inserted.ID != id {
		return nil, ErrNotFound
	}

	items, _ := f.populate(f.inserted.Products)
	return &PopulatedOrder{
		ID:          f.inserted.ID,
		Products:    items,
		Method:      f.inserted.Method,
		TotalPrice:  f.inserted.TotalPrice,
		Currency:    f.inserted.Currency,
		OrderStatus: f.inserted.OrderStatus,
		OrderBy:     f.inserted.OrderBy,
		CreatedAt:   f.inserted.CreatedAt,
		UpdatedAt:   f.inserted.UpdatedAt,
	}, nil
}

func (f *fakeStore) DeleteCart(_ context.Context, cartID primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	f.deletedCart = cartID
	return !f.deleteMissed, nil
}

func (f *fakeStore) ApplyInventory(_ context.Context, deltas []InventoryDelta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.invErr != nil {
		return f.invErr
	}
	f.deltas = deltas
	return nil
}

func (f *fakeStore) PopulateItems(_ context.Context, items []models.LineItem) ([]PopulatedItem, error) {
	return f.populate(items)
}

func (f *fakeStore) populate(items []models.LineItem) ([]PopulatedItem, error) {
	known := map[primitive.ObjectID]*PopulatedProduct{}
	if f.cart != nil {
		for _, line := range f.cart.Products {
			if line.Product != nil {
				known[line.Product.ID] = line.Product
			}
		}
	}

	populated := make([]PopulatedItem, 0, len(items))
	for _, item := range items {
		populated = append(populated, PopulatedItem{
			Product:   known[item.ProductID],
			WantedQty: item.WantedQty,
		})
	}
	return populated, nil
}

func product(price float64, quantity int) *PopulatedProduct {
	return &PopulatedProduct{
		ID:       primitive.NewObjectID(),
		Price:    price,
		Quantity: quantity,
	}
}

func cartOf(items ...PopulatedItem) *PopulatedCart {
	return &PopulatedCart{
		ID:       primitive.NewObjectID(),
		OrderBy:  primitive.NewObjectID(),
		Products: items,
	}
}

func TestSubmitMissingCart(t *testing.T) {
	store := &fakeStore{}

	_, err := Submit(context.Background(), store, Params{UserID: primitive.NewObjectID()})
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	if store.inserted != nil {
		t.Fatal("no order should be created for a missing cart")
	}
}

func TestSubmitEmptyCart(t *testing.T) {
	store := &fakeStore{cart: cartOf()}

	_, err := Submit(context.Background(), store, Params{UserID: store.cart.OrderBy})
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	if store.inserted != nil {
		t.Fatal("no order should be created for an empty cart")
	}
}

func TestSubmitFiltersStaleLines(t *testing.T) {
	valid1 := product(10, 8)
	valid2 := product(5, 3)
	soldOut := product(99, 0)

	store := &fakeStore{cart: cartOf(
		PopulatedItem{Product: valid1, WantedQty: 2},
		PopulatedItem{Product: nil, WantedQty: 4}, // product deleted after being carted
		PopulatedItem{Product: valid2, WantedQty: 1},
		PopulatedItem{Product: soldOut, WantedQty: 1},
	)}

	result, err := Submit(context.Background(), store, Params{UserID: store.cart.OrderBy})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Products) != 2 {
		t.Fatalf("expected 2 retained products, got %d", len(result.Products))
	}
	if result.RemovedProductsCount != 2 {
		t.Fatalf("expected removedProductsCount 2, got %d", result.RemovedProductsCount)
	}
	if result.TotalPrice != 2*10+1*5 {
		t.Fatalf("expected totalPrice 25, got %v", result.TotalPrice)
	}

	if len(store.inserted.Products) != 2 {
		t.Fatalf("persisted order should hold 2 lines, got %d", len(store.inserted.Products))
	}
	for _, line := range store.inserted.Products {
		if line.ProductID == soldOut.ID {
			t.Fatal("sold-out product must not reach the order")
		}
	}
}

func TestSubmitAppliesInventoryAndDeletesCart(t *testing.T) {
	p := product(7, 10)
	store := &fakeStore{cart: cartOf(PopulatedItem{Product: p, WantedQty: 3})}

	_, err := Submit(context.Background(), store, Params{UserID: store.cart.OrderBy})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.deletedCart != store.cart.ID {
		t.Fatalf("cart %s should be deleted by id, got %s", store.cart.ID.Hex(), store.deletedCart.Hex())
	}
	if len(store.deltas) != 1 {
		t.Fatalf("expected 1 inventory delta, got %d", len(store.deltas))
	}
	if store.deltas[0].ProductID != p.ID || store.deltas[0].Qty != 3 {
		t.Fatalf("expected delta {%s 3}, got %+v", p.ID.Hex(), store.deltas[0])
	}
}

func TestSubmitAllLinesStale(t *testing.T) {
	store := &fakeStore{cart: cartOf(
		PopulatedItem{Product: nil, WantedQty: 1},
		PopulatedItem{Product: product(4, 0), WantedQty: 2},
	)}

	_, err := Submit(context.Background(), store, Params{UserID: store.cart.OrderBy})
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart after filtering, got %v", err)
	}
	if store.inserted != nil {
		t.Fatal("no order should be created when every line is stale")
	}
	if !store.deletedCart.IsZero() {
		t.Fatal("cart must be left alone when submission fails")
	}
}

func TestSubmitDefaultsMethodAndCurrency(t *testing.T) {
	store := &fakeStore{cart: cartOf(PopulatedItem{Product: product(1, 1), WantedQty: 1})}

	result, err := Submit(context.Background(), store, Params{UserID: store.cart.OrderBy})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Method != models.MethodCashOnDelivery {
		t.Fatalf("expected default method, got %q", result.Method)
	}
	if result.Currency != "USD" {
		t.Fatalf("expected default currency, got %q", result.Currency)
	}
	if result.OrderStatus != models.StatusProcessing {
		t.Fatalf("expected Processing status, got %q", result.OrderStatus)
	}
}

func TestSubmitTrustedCallerParams(t *testing.T) {
	// the payment webhook supplies userId, method and currency directly
	store := &fakeStore{cart: cartOf(PopulatedItem{Product: product(2, 5), WantedQty: 2})}

	result, err := Submit(context.Background(), store, Params{
		UserID:   store.cart.OrderBy,
		Method:   models.MethodCard,
		Currency: "EGP",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Method != models.MethodCard {
		t.Fatalf("expected Card method, got %q", result.Method)
	}
	if result.Currency != "EGP" {
		t.Fatalf("expected EGP currency, got %q", result.Currency)
	}
}

func TestSubmitRejectsUnknownMethod(t *testing.T) {
	store := &fakeStore{cart: cartOf(PopulatedItem{Product: product(2, 5), WantedQty: 1})}

	result, err := Submit(context.Background(), store, Params{
		UserID: store.cart.OrderBy,
		Method: "Barter",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Method != models.MethodCashOnDelivery {
		t.Fatalf("unknown method should fall back to the default, got %q", result.Method)
	}
}

func TestSubmitSurvivesCleanupFailures(t *testing.T) {
	// cart delete and inventory update are best effort once the order exists
	store := &fakeStore{
		cart:      cartOf(PopulatedItem{Product: product(6, 4), WantedQty: 2}),
		deleteErr: errors.New("socket closed"),
		invErr:    errors.New("bulk write failed"),
	}

	result, err := Submit(context.Background(), store, Params{UserID: store.cart.OrderBy})
	if err != nil {
		t.Fatalf("cleanup failures must not fail the submission: %v", err)
	}
	if store.inserted == nil {
		t.Fatal("order should still be persisted")
	}
	if len(result.Products) != 1 || result.TotalPrice != 12 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestSubmitSurvivesCartAlreadyGone(t *testing.T) {
	store := &fakeStore{
		cart:         cartOf(PopulatedItem{Product: product(3, 2), WantedQty: 1}),
		deleteMissed: true,
	}

	result, err := Submit(context.Background(), store, Params{UserID: store.cart.OrderBy})
	if err != nil {
		t.Fatalf("a zero-match cart delete must not fail the submission: %v", err)
	}
	if result.TotalPrice != 3 {
		t.Fatalf("expected totalPrice 3, got %v", result.TotalPrice)
	}
}

func TestSubmitStoreUnavailable(t *testing.T) {
	store := &fakeStore{cartErr: errors.New("connection reset")}

	_, err := Submit(context.Background(), store, Params{UserID: primitive.NewObjectID()})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestSubmitPersistFailure(t *testing.T) {
	store := &fakeStore{
		cart:      cartOf(PopulatedItem{Product: product(3, 2), WantedQty: 1}),
		insertErr: errors.New("write concern error"),
	}

	_, err := Submit(context.Background(), store, Params{UserID: store.cart.OrderBy})
	if !errors.Is(err, ErrPersistFailure) {
		t.Fatalf("expected ErrPersistFailure, got %v", err)
	}
	if !store.deletedCart.IsZero() {
		t.Fatal("cart must survive a failed order write")
	}
	if store.deltas != nil {
		t.Fatal("inventory must not change after a failed order write")
	}
}
