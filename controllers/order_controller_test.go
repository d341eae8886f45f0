package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/auth"
	"storefront/checkout"
	"storefront/middleware"
	"storefront/models"
)

type stubStore struct {
	cart     *checkout.PopulatedCart
	inserted *models.Order
}

func (s *stubStore) CartByUser(_ context.Context, _ primitive.ObjectID) (*checkout.PopulatedCart, error) {
	if s.cart == nil {
		return nil, checkout.ErrNotFound
	}
	return s.cart, nil
}

func (s *stubStore) InsertOrder(_ context.Context, order *models.Order) (primitive.ObjectID, error) {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	s.inserted = order
	return order.ID, nil
}

func (s *stubStore) OrderByID(_ context.Context, id primitive.ObjectID) (*checkout.PopulatedOrder, error) {
	if s.inserted == nil || s.inserted.ID != id {
		return nil, checkout.ErrNotFound
	}
	items, _ := s.PopulateItems(context.Background(), s.inserted.Products)
	return &checkout.PopulatedOrder{
		ID:          s.inserted.ID,
		Products:    items,
		Method:      s.inserted.Method,
		TotalPrice:  s.inserted.TotalPrice,
		Currency:    s.inserted.Currency,
		OrderStatus: s.inserted.OrderStatus,
		OrderBy:     s.inserted.OrderBy,
		CreatedAt:   s.inserted.CreatedAt,
		UpdatedAt:   s.inserted.UpdatedAt,
	}, nil
}

func (s *stubStore) DeleteCart(_ context.Context, _ primitive.ObjectID) (bool, error) {
	return true, nil
}

func (s *stubStore) ApplyInventory(_ context.Context, _ []checkout.InventoryDelta) error {
	return nil
}

func (s *stubStore) PopulateItems(_ context.Context, items []models.LineItem) ([]checkout.PopulatedItem, error) {
	known := map[primitive.ObjectID]*checkout.PopulatedProduct{}
	if s.cart != nil {
		for _, line := range s.cart.Products {
			if line.Product != nil {
				known[line.Product.ID] = line.Product
			}
		}
	}
	populated := make([]checkout.PopulatedItem, 0, len(items))
	for _, item := range items {
		populated = append(populated, checkout.PopulatedItem{
			Product:   known[item.ProductID],
			WantedQty: item.WantedQty,
		})
	}
	return populated, nil
}

func orderTestRouter(ident auth.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	withIdentity := func(handler gin.HandlerFunc) gin.HandlerFunc {
		return func(c *gin.Context) {
			middleware.SetIdentity(c, ident)
			handler(c)
		}
	}
	r.POST("/api/orders", withIdentity(SubmitOrder))
	r.GET("/api/orders", withIdentity(GetOrders))
	r.PATCH("/api/orders/:id", withIdentity(UpdateOrderStatus))
	return r
}

func TestGetOrdersAllOrdersNeedsAdmin(t *testing.T) {
	r := orderTestRouter(auth.Identity{ID: primitive.NewObjectID(), Role: "user"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/orders?allOrders=true", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSubmitOrderEmptyCart(t *testing.T) {
	SetCheckoutStore(&stubStore{})
	defer SetCheckoutStore(nil)

	r := orderTestRouter(auth.Identity{ID: primitive.NewObjectID(), Role: "user"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "you don't have products in your cart") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestSubmitOrderProjectsResult(t *testing.T) {
	userID := primitive.NewObjectID()
	store := &stubStore{cart: &checkout.PopulatedCart{
		ID:      primitive.NewObjectID(),
		OrderBy: userID,
		Products: []checkout.PopulatedItem{
			{
				Product: &checkout.PopulatedProduct{
					ID:       primitive.NewObjectID(),
					Title:    "keyboard",
					Price:    40,
					Quantity: 9,
				},
				WantedQty: 2,
			},
			{Product: nil, WantedQty: 1},
		},
	}}
	SetCheckoutStore(store)
	defer SetCheckoutStore(nil)

	r := orderTestRouter(auth.Identity{ID: userID, Role: "user"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"method":"Card","currency":"EGP"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Products []struct {
			Title     string `json:"title"`
			Count     int    `json:"count"`
			WantedQty int    `json:"wantedQty"`
		} `json:"products"`
		TotalPrice           float64 `json:"totalPrice"`
		Method               string  `json:"method"`
		Currency             string  `json:"currency"`
		OrderStatus          string  `json:"orderStatus"`
		RemovedProductsCount int     `json:"removedProductsCount"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}

	if len(body.Products) != 1 || body.Products[0].Title != "keyboard" {
		t.Fatalf("unexpected products: %+v", body.Products)
	}
	if body.Products[0].Count != 9 || body.Products[0].WantedQty != 2 {
		t.Fatalf("projection lost quantities: %+v", body.Products[0])
	}
	if body.TotalPrice != 80 {
		t.Fatalf("expected totalPrice 80, got %v", body.TotalPrice)
	}
	if body.Method != models.MethodCard || body.Currency != "EGP" {
		t.Fatalf("payment fields not honored: %s %s", body.Method, body.Currency)
	}
	if body.OrderStatus != models.StatusProcessing {
		t.Fatalf("expected Processing, got %s", body.OrderStatus)
	}
	if body.RemovedProductsCount != 1 {
		t.Fatalf("expected removedProductsCount 1, got %d", body.RemovedProductsCount)
	}
}

func TestUpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	// validation fires before any database access
	r := orderTestRouter(auth.Identity{ID: primitive.NewObjectID(), Role: "admin"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(
		http.MethodPatch,
		"/api/orders/"+primitive.NewObjectID().Hex(),
		strings.NewReader(`{"newStatus":"Teleported"}`),
	)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUpdateOrderStatusRejectsBadID(t *testing.T) {
	r := orderTestRouter(auth.Identity{ID: primitive.NewObjectID(), Role: "admin"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/orders/not-an-id", strings.NewReader(`{"newStatus":"Delivered"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}
