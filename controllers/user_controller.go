package controllers

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/database"
	"storefront/middleware"
	"storefront/models"
)

// GetUsers lists every user (admin only). withOrders=true embeds each user's
// orders, newest first.
func GetUsers(c *gin.Context) {
	withOrders := c.Query("withOrders") == "true"

	ctx, cancel := longTimeout(c.Request.Context())
	defer cancel()

	cursor, err := database.UserCollection.Find(ctx, bson.M{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while fetching the users"})
		return
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while fetching the users"})
		return
	}

	ordersByUser := map[primitive.ObjectID][]models.Order{}
	if withOrders {
		cursor, err := database.OrderCollection.Find(ctx, bson.M{})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while fetching users"})
			return
		}
		var orders []models.Order
		if err := cursor.All(ctx, &orders); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while fetching users"})
			return
		}
		for _, order := range orders {
			ordersByUser[order.OrderBy] = append(ordersByUser[order.OrderBy], order)
		}
	}

	resp := make([]gin.H, 0, len(users))
	for _, user := range users {
		entry := gin.H{"user": user.View()}
		if withOrders {
			userOrders := ordersByUser[user.ID]
			sort.Slice(userOrders, func(i, j int) bool {
				return userOrders[i].CreatedAt.After(userOrders[j].CreatedAt)
			})
			views, err := orderViews(ctx, userOrders)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while fetching users"})
				return
			}
			entry["orders"] = views
		}
		resp = append(resp, entry)
	}

	c.JSON(http.StatusOK, resp)
}

func GetUser(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "please insert a valid user id"})
		return
	}

	ident, _ := middleware.Identity(c)
	if !ident.IsAdmin() && ident.ID != userID {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "you don't have access to this data"})
		return
	}

	ctx, cancel := shortTimeout(c.Request.Context())
	defer cancel()

	var user models.User
	err = database.UserCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "user with given id not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while fetching the user"})
		return
	}

	c.JSON(http.StatusOK, user.View())
}

func UpdateUser(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "please insert a valid user id"})
		return
	}

	ident, _ := middleware.Identity(c)
	if ident.ID != userID {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "you don't have access to this data"})
		return
	}

	var body struct {
		Email    *string `json:"email" binding:"omitempty,email"`
		Username *string `json:"username"`
		Address  *string `json:"address"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "please insert a valid email"})
		return
	}

	ctx, cancel := shortTimeout(c.Request.Context())
	defer cancel()

	update := bson.M{}
	if body.Email != nil {
		taken, err := isTaken(ctx, database.UserCollection, bson.M{"email": *body.Email, "_id": bson.M{"$ne": userID}})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while updating your data"})
			return
		}
		if taken {
			c.JSON(http.StatusConflict, gin.H{"message": "this email is already taken"})
			return
		}
		update["email"] = *body.Email
	}
	if body.Username != nil {
		taken, err := isTaken(ctx, database.UserCollection, bson.M{"username": *body.Username, "_id": bson.M{"$ne": userID}})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while updating your data"})
			return
		}
		if taken {
			c.JSON(http.StatusConflict, gin.H{"message": "this username is already taken"})
			return
		}
		update["username"] = *body.Username
	}
	if body.Address != nil {
		update["address"] = *body.Address
	}
	update["updatedAt"] = time.Now()

	opts := optionsAfter()
	var user models.User
	err = database.UserCollection.FindOneAndUpdate(ctx, bson.M{"_id": userID}, bson.M{"$set": update}, opts).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "user with given id not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while updating your data"})
		return
	}

	c.JSON(http.StatusOK, user.View())
}

func DeleteUser(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "please insert a valid user id"})
		return
	}

	ident, _ := middleware.Identity(c)
	if !ident.IsAdmin() && ident.ID != userID {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "you don't have access to this data"})
		return
	}

	ctx, cancel := shortTimeout(c.Request.Context())
	defer cancel()

	res, err := database.UserCollection.DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while deleting the user"})
		return
	}
	if res.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "user with given id not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user deleted successfully"})
}

// GetWishlist returns the populated wishlist of a user (self or admin).
func GetWishlist(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "please insert a valid user id"})
		return
	}

	ident, _ := middleware.Identity(c)
	if !ident.IsAdmin() && ident.ID != userID {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "you don't have access to this data"})
		return
	}

	ctx, cancel := shortTimeout(c.Request.Context())
	defer cancel()

	var user models.User
	err = database.UserCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "user with given id not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while fetching the wishlist"})
		return
	}

	products := []models.Product{}
	if len(user.Wishlist) > 0 {
		cursor, err := database.ProductCollection.Find(ctx, bson.M{"_id": bson.M{"$in": user.Wishlist}})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while fetching the wishlist"})
			return
		}
		if err := cursor.All(ctx, &products); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while fetching the wishlist"})
			return
		}
	}

	c.JSON(http.StatusOK, products)
}

// ToggleWishlist adds the product to the caller's wishlist, or removes it if
// already present.
func ToggleWishlist(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "please insert a valid user id"})
		return
	}

	ident, _ := middleware.Identity(c)
	if ident.ID != userID {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "you don't have access to this data"})
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

	ctx, cancel := shortTimeout(c.Request.Context())
	defer cancel()

	count, err := database.ProductCollection.CountDocuments(ctx, bson.M{"_id": productID})
	if err != nil || count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "this product not found"})
		return
	}

	var user models.User
	if err := database.UserCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "user with given id not found"})
		return
	}

	op := bson.M{"$push": bson.M{"wishlist": productID}}
	for _, id := range user.Wishlist {
		if id == productID {
			op = bson.M{"$pull": bson.M{"wishlist": productID}}
			break
		}
	}

	var updated models.User
	err = database.UserCollection.FindOneAndUpdate(ctx, bson.M{"_id": userID}, op, optionsAfter()).Decode(&updated)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while updating the wishlist"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"wishlist": updated.Wishlist})
}
