package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"storefront/auth"
	"storefront/config"
	"storefront/database"
	"storefront/middleware"
	"storefront/models"
)

const sessionTTL = 30 * 24 * time.Hour

func Register(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
		Address  string `json:"address"`
		IsAdmin  bool   `json:"isAdmin"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "email, username and password is required"})
		return
	}

	ctx, cancel := shortTimeout(c.Request.Context())
	defer cancel()

	taken, err := isTaken(ctx, database.UserCollection, bson.M{"email": input.Email})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while registering the user"})
		return
	}
	if taken {
		c.JSON(http.StatusConflict, gin.H{"message": "email is already taken"})
		return
	}
	taken, err = isTaken(ctx, database.UserCollection, bson.M{"username": input.Username})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while registering the user"})
		return
	}
	if taken {
		c.JSON(http.StatusConflict, gin.H{"message": "username is already taken"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while registering the user"})
		return
	}

	role := "user"
	if input.IsAdmin {
		role = "admin"
	}

	now := time.Now()
	user := models.User{
		ID:        primitive.NewObjectID(),
		Email:     input.Email,
		Username:  input.Username,
		Password:  string(hashed),
		Address:   input.Address,
		Role:      role,
		Wishlist:  []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := database.UserCollection.InsertOne(ctx, user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while registering the user"})
		return
	}

	c.JSON(http.StatusOK, user.View())
}

func Login(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "username or password is missing"})
		return
	}

	ctx, cancel := shortTimeout(c.Request.Context())
	defer cancel()

	var user models.User
	err := database.UserCollection.FindOne(ctx, bson.M{"username": input.Username}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while signing you in"})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "password incorrect"})
		return
	}

	secret := []byte(config.GetEnv("JWT_SECRET", ""))
	token, err := auth.NewToken(user.ID, secret, sessionTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while signing you in"})
		return
	}

	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(auth.CookieName, token, int(sessionTTL.Seconds()), "/", "", true, true)

	c.JSON(http.StatusOK, gin.H{
		"user":  user.View(),
		"token": token,
	})
}

func Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(auth.CookieName, "", -1, "/", "", true, true)
	c.JSON(http.StatusOK, gin.H{})
}

// CheckUser returns the caller's own profile resolved from the session.
func CheckUser(c *gin.Context) {
	ident, err := middleware.RequireIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "you need to login first"})
		return
	}

	ctx, cancel := shortTimeout(c.Request.Context())
	defer cancel()

	var user models.User
	if err := database.UserCollection.FindOne(ctx, bson.M{"_id": ident.ID}).Decode(&user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while checking your authority"})
		return
	}

	c.JSON(http.StatusOK, user.View())
}
