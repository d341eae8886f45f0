package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/checkout"
	"storefront/models"
)

type stubCounter struct {
	n   int64
	err error
}

func (s stubCounter) CountDocuments(_ context.Context, _ interface{}, _ ...*options.CountOptions) (int64, error) {
	return s.n, s.err
}

func TestIsTakenSurfacesCountError(t *testing.T) {
	// a failed count must not read as "available"
	_, err := isTaken(context.Background(), stubCounter{err: errors.New("timed out")}, bson.M{"email": "a@b.c"})
	if err == nil {
		t.Fatal("expected the count error to propagate")
	}
}

func TestIsTaken(t *testing.T) {
	taken, err := isTaken(context.Background(), stubCounter{n: 1}, bson.M{"email": "a@b.c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !taken {
		t.Fatal("expected taken for a positive count")
	}

	taken, err = isTaken(context.Background(), stubCounter{n: 0}, bson.M{"email": "a@b.c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if taken {
		t.Fatal("expected not taken for a zero count")
	}
}

func TestAllOrdersRequested(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		url  string
		want bool
	}{
		{"/api/orders", false},
		{"/api/orders?allOrders=false", false},
		{"/api/orders?allOrders=1", false},
		{"/api/orders?allOrders=true", true},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, tc.url, nil)
		if got := allOrdersRequested(c); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.url, tc.want, got)
		}
	}
}

func TestOrderViewsProjectsLineItems(t *testing.T) {
	productID := primitive.NewObjectID()
	store := &stubStore{cart: &checkout.PopulatedCart{
		Products: []checkout.PopulatedItem{{
			Product: &checkout.PopulatedProduct{
				ID:       productID,
				Title:    "mouse",
				Price:    15,
				Quantity: 4,
			},
			WantedQty: 1,
		}},
	}}
	SetCheckoutStore(store)
	defer SetCheckoutStore(nil)

	orders := []models.Order{{
		ID: primitive.NewObjectID(),
		Products: []models.LineItem{
			{ProductID: productID, WantedQty: 1},
			{ProductID: primitive.NewObjectID(), WantedQty: 2}, // product deleted since
		},
		TotalPrice:  15,
		Method:      models.MethodCashOnDelivery,
		Currency:    "USD",
		OrderStatus: models.StatusProcessing,
		OrderBy:     primitive.NewObjectID(),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}}

	views, err := orderViews(context.Background(), orders)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 view, got %d", len(views))
	}

	view := views[0]
	if len(view.Products) != 1 {
		t.Fatalf("expected 1 projected product, got %d", len(view.Products))
	}
	if view.Products[0].Title != "mouse" || view.Products[0].Count != 4 || view.Products[0].WantedQty != 1 {
		t.Fatalf("line item not projected: %+v", view.Products[0])
	}
	if view.RemovedProductsCount != 1 {
		t.Fatalf("expected removedProductsCount 1, got %d", view.RemovedProductsCount)
	}
}

func TestOrderViewsEmpty(t *testing.T) {
	SetCheckoutStore(&stubStore{})
	defer SetCheckoutStore(nil)

	views, err := orderViews(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if views == nil || len(views) != 0 {
		t.Fatalf("expected an empty non-nil slice, got %#v", views)
	}
}
