package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/checkout"
	"storefront/database"
	"storefront/middleware"
	"storefront/models"
)

// cartView is the flattened cart returned by every cart endpoint. A user
// without a cart gets the same shape with an empty products list.
type cartView struct {
	ID                   primitive.ObjectID          `json:"_id,omitempty"`
	OrderBy              primitive.ObjectID          `json:"orderby"`
	Products             []checkout.ProjectedProduct `json:"products"`
	RemovedProductsCount int                         `json:"removedProductsCount"`
	CreatedAt            *time.Time                  `json:"createdAt,omitempty"`
	UpdatedAt            *time.Time                  `json:"updatedAt,omitempty"`
}

func emptyCartView(userID primitive.ObjectID) cartView {
	return cartView{OrderBy: userID, Products: []checkout.ProjectedProduct{}}
}

func newCartView(c *gin.Context, cart models.Cart) (cartView, bool) {
	ctx, cancel := shortTimeout(c.Request.Context())
	defer cancel()

	products, removed, err := projectItems(ctx, cart.Products)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while fetching the cart"})
		return cartView{}, false
	}

	return cartView{
		ID:                   cart.ID,
		OrderBy:              cart.OrderBy,
		Products:             products,
		RemovedProductsCount: removed,
		CreatedAt:            &cart.CreatedAt,
		UpdatedAt:            &cart.UpdatedAt,
	}, true
}

func cartUserID(c *gin.Context, selfOnly bool) (primitive.ObjectID, bool) {
	userID, err := primitive.ObjectIDFromHex(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "user id must be provided"})
		return primitive.NilObjectID, false
	}

	ident, _ := middleware.Identity(c)
	if ident.ID != userID && (selfOnly || !ident.IsAdmin()) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "you don't have authority to access this cart"})
		return primitive.NilObjectID, false
	}

	return userID, true
}

func GetCart(c *gin.Context) {
	userID, ok := cartUserID(c, false)
	if !ok {
		return
	}

	ctx, cancel := shortTimeout(c.Request.Context())
	defer cancel()

	var cart models.Cart
	err := database.CartCollection.FindOne(ctx, bson.M{"orderby": userID}).Decode(&cart)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusOK, emptyCartView(userID))
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while fetching the cart"})
		return
	}

	view, ok := newCartView(c, cart)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, view)
}

// AddToCart appends a line item to the user's cart, creating the cart on
// first use and merging quantities when the product is already present.
func AddToCart(c *gin.Context) {
	userID, ok := cartUserID(c, true)
	if !ok {
		return
	}

	var body struct {
		ProductID string `json:"productId" binding:"required"`
		WantedQty int    `json:"wantedQty" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "productId and wantedQty must be provided"})
		return
	}

	productID, err := primitive.ObjectIDFromHex(body.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "please insert a valid product id"})
		return
	}

	ctx, cancel := longTimeout(c.Request.Context())
	defer cancel()

	if n, err := database.ProductCollection.CountDocuments(ctx, bson.M{"_id": productID}); err != nil || n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "this product not found"})
		return
	}

	now := time.Now()

	var cart models.Cart
	err = database.CartCollection.FindOne(ctx, bson.M{"orderby": userID}).Decode(&cart)
	if err == mongo.ErrNoDocuments {
		cart = models.Cart{
			ID:        primitive.NewObjectID(),
			OrderBy:   userID,
			Products:  []models.LineItem{{ProductID: productID, WantedQty: body.WantedQty}},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := database.CartCollection.InsertOne(ctx, cart); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while modifying your cart"})
			return
		}

		view, ok := newCartView(c, cart)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, view)
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while modifying your cart"})
		return
	}

	update := bson.M{
		"$push": bson.M{"products": models.LineItem{ProductID: productID, WantedQty: body.WantedQty}},
		"$set":  bson.M{"updatedAt": now},
	}
	filter := bson.M{"orderby": userID}
	for _, line := range cart.Products {
		if line.ProductID == productID {
			filter["products.productId"] = productID
			update = bson.M{
				"$set": bson.M{
					"products.$.wantedQty": line.WantedQty + body.WantedQty,
					"updatedAt":            now,
				},
			}
			break
		}
	}

	var updated models.Cart
	err = database.CartCollection.FindOneAndUpdate(ctx, filter, update, optionsAfter()).Decode(&updated)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while modifying your cart"})
		return
	}

	view, ok := newCartView(c, updated)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, view)
}

// RemoveCartProduct pulls one product from the cart, deleting the cart
// document entirely when the last line is removed.
func RemoveCartProduct(c *gin.Context) {
	userID, ok := cartUserID(c, false)
	if !ok {
		return
	}

	var body struct {
		ProductID string `json:"productId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "product id is required"})
		return
	}
	productID, err := primitive.ObjectIDFromHex(body.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "please insert a valid product id"})
		return
	}

	ctx, cancel := longTimeout(c.Request.Context())
	defer cancel()

	var cart models.Cart
	err = database.CartCollection.FindOne(ctx, bson.M{"orderby": userID}).Decode(&cart)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusBadRequest, gin.H{"message": "you don't have items in your cart to remove"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while removing product from cart"})
		return
	}

	inCart := false
	for _, line := range cart.Products {
		if line.ProductID == productID {
			inCart = true
			break
		}
	}
	if !inCart {
		c.JSON(http.StatusNotFound, gin.H{"message": "this product not in your cart"})
		return
	}

	if len(cart.Products) == 1 {
		if _, err := database.CartCollection.DeleteOne(ctx, bson.M{"_id": cart.ID}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while removing product from cart"})
			return
		}
		c.JSON(http.StatusOK, emptyCartView(userID))
		return
	}

	update := bson.M{
		"$pull": bson.M{"products": bson.M{"productId": productID}},
		"$set":  bson.M{"updatedAt": time.Now()},
	}

	var updated models.Cart
	err = database.CartCollection.FindOneAndUpdate(ctx, bson.M{"orderby": userID}, update, optionsAfter()).Decode(&updated)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while removing product from cart"})
		return
	}

	view, ok := newCartView(c, updated)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, view)
}

func ResetCart(c *gin.Context) {
	userID, ok := cartUserID(c, true)
	if !ok {
		return
	}

	ctx, cancel := shortTimeout(c.Request.Context())
	defer cancel()

	if _, err := database.CartCollection.DeleteOne(ctx, bson.M{"orderby": userID}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while clearing your cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "your cart has been cleared successfully"})
}
