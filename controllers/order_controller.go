package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/checkout"
	"storefront/database"
	"storefront/middleware"
	"storefront/models"
)

// SubmitOrder converts the caller's cart into an order. The optional body
// supplies the payment method and currency.
func SubmitOrder(c *gin.Context) {
	ident, err := middleware.RequireIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "you need to login first"})
		return
	}

	var body struct {
		Method   string `json:"method"`
		Currency string `json:"currency"`
	}
	_ = c.ShouldBindJSON(&body)

	ctx, cancel := longTimeout(c.Request.Context())
	defer cancel()

	result, err := checkout.Submit(ctx, getCheckoutStore(), checkout.Params{
		UserID:   ident.ID,
		Method:   body.Method,
		Currency: body.Currency,
	})
	if err != nil {
		writeSubmitError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func writeSubmitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		c.JSON(http.StatusNotFound, gin.H{"message": "you don't have products in your cart"})
	default:
		slog.Error("order submission failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "can't submit the order at the moment"})
	}
}

// GetOrders lists the caller's orders, newest first. allOrders=true is an
// admin-only view over every order.
func GetOrders(c *gin.Context) {
	ident, err := middleware.RequireIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "you need to login first"})
		return
	}

	filter := bson.M{"orderby": ident.ID}
	if allOrdersRequested(c) {
		if !ident.IsAdmin() {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "you don't have access to this data"})
			return
		}
		filter = bson.M{}
	}

	ctx, cancel := longTimeout(c.Request.Context())
	defer cancel()

	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := database.OrderCollection.Find(ctx, filter, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while fetching orders"})
		return
	}

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while fetching orders"})
		return
	}

	views, err := orderViews(ctx, orders)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while fetching orders"})
		return
	}

	c.JSON(http.StatusOK, views)
}

// allOrdersRequested reports whether the admin all-orders view was asked for.
// Only an explicit allOrders=true counts; allOrders=false stays on the
// caller's own orders.
func allOrdersRequested(c *gin.Context) bool {
	return c.Query("allOrders") == "true"
}

func GetOrder(c *gin.Context) {
	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "order id is invalid"})
		return
	}

	ident, err := middleware.RequireIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "you need to login first"})
		return
	}

	ctx, cancel := shortTimeout(c.Request.Context())
	defer cancel()

	var order models.Order
	err = database.OrderCollection.FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "order with given id not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "can't get the order at the moment"})
		return
	}

	if !ident.IsAdmin() && order.OrderBy != ident.ID {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "you don't have authority to access this order information"})
		return
	}

	view, err := orderView(ctx, order)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "can't get the order at the moment"})
		return
	}

	c.JSON(http.StatusOK, view)
}

// UpdateOrderStatus is the only mutation an order document permits after
// creation.
func UpdateOrderStatus(c *gin.Context) {
	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "please insert a valid order id"})
		return
	}

	var body struct {
		NewStatus string `json:"newStatus" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "new order status is required"})
		return
	}

	if !models.ValidOrderStatus(body.NewStatus) {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": `order status must be one of these types ["Processing", "Dispatched", "Cancelled", "Delivered"]`,
		})
		return
	}

	ctx, cancel := shortTimeout(c.Request.Context())
	defer cancel()

	update := bson.M{"$set": bson.M{"orderStatus": body.NewStatus, "updatedAt": time.Now()}}

	var order models.Order
	err = database.OrderCollection.FindOneAndUpdate(ctx, bson.M{"_id": orderID}, update, optionsAfter()).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "order with given id not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "can't change order status at the moment"})
		return
	}

	view, err := orderView(ctx, order)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "can't change order status at the moment"})
		return
	}

	c.JSON(http.StatusOK, view)
}
