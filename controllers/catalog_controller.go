package controllers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/database"
	"storefront/images"
	"storefront/models"
)

// Categories and brands share one document shape and one set of handlers; the
// route path decides which collection is addressed.
func catalogCollection(c *gin.Context) (*mongo.Collection, string) {
	if strings.HasPrefix(c.FullPath(), "/api/brands") {
		return database.BrandCollection, "brand"
	}
	return database.CategoryCollection, "category"
}

func GetCatalogEntries(c *gin.Context) {
	coll, name := catalogCollection(c)

	ctx, cancel := shortTimeout(c.Request.Context())
	defer cancel()

	findOpts := options.Find()
	if limit, err := strconv.ParseInt(c.Query("limit"), 10, 64); err == nil && limit > 0 {
		findOpts.SetLimit(limit)
	}

	cursor, err := coll.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while fetching " + name + " list"})
		return
	}

	entries := []models.CatalogEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while fetching " + name + " list"})
		return
	}

	c.JSON(http.StatusOK, entries)
}

func GetCatalogEntry(c *gin.Context) {
	coll, name := catalogCollection(c)

	entryID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": name + " id is required"})
		return
	}

	ctx, cancel := shortTimeout(c.Request.Context())
	defer cancel()

	var entry models.CatalogEntry
	err = coll.FindOne(ctx, bson.M{"_id": entryID}).Decode(&entry)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "this " + name + " not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while fetching the " + name})
		return
	}

	c.JSON(http.StatusOK, entry)
}

// CreateCatalogEntry accepts a multipart form with a unique name and an image.
func CreateCatalogEntry(c *gin.Context) {
	coll, name := catalogCollection(c)

	entryName := strings.TrimSpace(c.PostForm("name"))
	if entryName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": name + " name is required"})
		return
	}

	imageHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": name + " image is required"})
		return
	}

	ctx, cancel := longTimeout(c.Request.Context())
	defer cancel()

	taken, err := isTaken(ctx, coll, bson.M{"name": entryName})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while creating the " + name})
		return
	}
	if taken {
		c.JSON(http.StatusConflict, gin.H{"message": "this name is taken already for another " + name})
		return
	}

	file, err := imageHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while uploading the " + name + " image"})
		return
	}
	uploaded, err := images.UploadFile(ctx, file, "")
	file.Close()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while uploading the " + name + " image"})
		return
	}

	now := time.Now()
	entry := models.CatalogEntry{
		ID:        primitive.NewObjectID(),
		Name:      entryName,
		Image:     models.CatalogImage{SecureURL: uploaded.SecureURL, PublicID: uploaded.PublicID},
		Products:  []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := coll.InsertOne(ctx, entry); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while creating the " + name})
		return
	}

	c.JSON(http.StatusOK, entry)
}

// UpdateCatalogEntry renames the entry and/or replaces its image in place,
// reusing the existing public id so cached URLs stay valid.
func UpdateCatalogEntry(c *gin.Context) {
	coll, name := catalogCollection(c)

	entryID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": name + " id is required"})
		return
	}

	ctx, cancel := longTimeout(c.Request.Context())
	defer cancel()

	var existing models.CatalogEntry
	err = coll.FindOne(ctx, bson.M{"_id": entryID}).Decode(&existing)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "this " + name + " not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while updating the " + name})
		return
	}

	update := bson.M{"updatedAt": time.Now()}

	if newName := strings.TrimSpace(c.PostForm("name")); newName != "" && newName != existing.Name {
		taken, err := isTaken(ctx, coll, bson.M{"name": newName})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while updating the " + name})
			return
		}
		if taken {
			c.JSON(http.StatusConflict, gin.H{"message": "this name is taken already for another " + name})
			return
		}
		update["name"] = newName
	}

	if imageHeader, err := c.FormFile("image"); err == nil {
		file, err := imageHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while uploading the " + name + " image"})
			return
		}
		uploaded, err := images.UploadFile(ctx, file, existing.Image.PublicID)
		file.Close()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while uploading the " + name + " image"})
			return
		}
		update["image"] = models.CatalogImage{SecureURL: uploaded.SecureURL, PublicID: uploaded.PublicID}
	}

	var entry models.CatalogEntry
	err = coll.FindOneAndUpdate(ctx, bson.M{"_id": entryID}, bson.M{"$set": update}, optionsAfter()).Decode(&entry)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while updating the " + name})
		return
	}

	c.JSON(http.StatusOK, entry)
}

// DeleteCatalogEntry refuses to delete an entry that still owns products.
func DeleteCatalogEntry(c *gin.Context) {
	coll, name := catalogCollection(c)

	entryID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": name + " id is required"})
		return
	}

	ctx, cancel := longTimeout(c.Request.Context())
	defer cancel()

	var entry models.CatalogEntry
	err = coll.FindOne(ctx, bson.M{"_id": entryID}).Decode(&entry)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "this " + name + " not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while deleting the " + name})
		return
	}

	if entry.ProductsCount > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "this " + name + " still has products attached to it"})
		return
	}

	if _, err := coll.DeleteOne(ctx, bson.M{"_id": entryID}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while deleting the " + name})
		return
	}

	if entry.Image.PublicID != "" {
		if err := images.DeleteFile(ctx, entry.Image.PublicID); err != nil {
			slog.Warn("catalog image cleanup failed", "publicId", entry.Image.PublicID, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": name + " deleted successfully"})
}
