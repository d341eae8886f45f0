package controllers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"storefront/database"
	"storefront/images"
	"storefront/models"
)

// GetInsights aggregates the admin dashboard numbers. Metrics are gathered
// concurrently and a failed metric is reported as null instead of failing the
// whole response.
func GetInsights(c *gin.Context) {
	ctx, cancel := longTimeout(c.Request.Context())
	defer cancel()

	var (
		outOfStock, inStock *int64
		admins, nonAdmins   *int64
		categoriesTotal     *int64
		brandsTotal         *int64
		bestSell            []bson.M
		topCategories       []bson.M
		topBrands           []bson.M
		ordersByStatus      map[string]int64
	)

	count := func(coll *mongo.Collection, filter bson.M, dst **int64) func() error {
		return func() error {
			n, err := coll.CountDocuments(ctx, filter)
			if err != nil {
				slog.Warn("insights metric failed", "error", err)
				return nil
			}
			*dst = &n
			return nil
		}
	}

	topDocs := func(coll *mongo.Collection, sort bson.M, limit int64, projection bson.M, dst *[]bson.M) func() error {
		return func() error {
			opts := options.Find().SetSort(sort).SetLimit(limit).SetProjection(projection)
			cursor, err := coll.Find(ctx, bson.M{}, opts)
			if err != nil {
				slog.Warn("insights metric failed", "error", err)
				return nil
			}
			var docs []bson.M
			if err := cursor.All(ctx, &docs); err != nil {
				slog.Warn("insights metric failed", "error", err)
				return nil
			}
			*dst = docs
			return nil
		}
	}

	var g errgroup.Group
	g.Go(count(database.ProductCollection, bson.M{"quantity": bson.M{"$eq": 0}}, &outOfStock))
	g.Go(count(database.ProductCollection, bson.M{"quantity": bson.M{"$gt": 0}}, &inStock))
	g.Go(count(database.UserCollection, bson.M{"role": "admin"}, &admins))
	g.Go(count(database.UserCollection, bson.M{"role": "user"}, &nonAdmins))
	g.Go(count(database.CategoryCollection, bson.M{}, &categoriesTotal))
	g.Go(count(database.BrandCollection, bson.M{}, &brandsTotal))
	g.Go(topDocs(database.ProductCollection, bson.M{"sold": -1}, 5, bson.M{"title": 1, "sold": 1}, &bestSell))
	g.Go(topDocs(database.CategoryCollection, bson.M{"productsCount": -1}, 10, bson.M{"name": 1, "productsCount": 1}, &topCategories))
	g.Go(topDocs(database.BrandCollection, bson.M{"productsCount": -1}, 10, bson.M{"name": 1, "productsCount": 1}, &topBrands))
	g.Go(func() error {
		statuses, err := database.OrderCollection.Distinct(ctx, "orderStatus", bson.M{})
		if err != nil {
			slog.Warn("insights metric failed", "error", err)
			return nil
		}
		byStatus := map[string]int64{}
		for _, raw := range statuses {
			status, ok := raw.(string)
			if !ok {
				continue
			}
			n, err := database.OrderCollection.CountDocuments(ctx, bson.M{"orderStatus": status})
			if err != nil {
				slog.Warn("insights metric failed", "status", status, "error", err)
				continue
			}
			byStatus[status] = n
		}
		ordersByStatus = byStatus
		return nil
	})
	_ = g.Wait()

	totalProducts := int64(0)
	if outOfStock != nil {
		totalProducts += *outOfStock
	}
	if inStock != nil {
		totalProducts += *inStock
	}

	totalUsers := int64(0)
	if admins != nil {
		totalUsers += *admins
	}
	if nonAdmins != nil {
		totalUsers += *nonAdmins
	}

	totalOrders := int64(0)
	for _, n := range ordersByStatus {
		totalOrders += n
	}

	c.JSON(http.StatusOK, gin.H{
		"products": gin.H{
			"all":        totalProducts,
			"outOfStock": outOfStock,
			"inStock":    inStock,
			"bestSell":   bestSell,
		},
		"users": gin.H{
			"all": totalUsers,
			"insights": gin.H{
				"admins":    admins,
				"nonAdmins": nonAdmins,
			},
		},
		"orders": gin.H{
			"all":      totalOrders,
			"insights": ordersByStatus,
		},
		"categories": gin.H{
			"all":      categoriesTotal,
			"insights": topCategories,
		},
		"brands": gin.H{
			"all":      brandsTotal,
			"insights": topBrands,
		},
	})
}

func GetSliderImages(c *gin.Context) {
	ctx, cancel := shortTimeout(c.Request.Context())
	defer cancel()

	cursor, err := database.SliderImageCollection.Find(ctx, bson.M{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while fetching slider images"})
		return
	}

	imgs := []models.SliderImage{}
	if err := cursor.All(ctx, &imgs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while fetching slider images"})
		return
	}

	c.JSON(http.StatusOK, imgs)
}

// AddSliderImages uploads one or more "images" files and records them as
// slider entries.
func AddSliderImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["images"]) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "at least one image is required"})
		return
	}

	ctx, cancel := longTimeout(c.Request.Context())
	defer cancel()

	created := make([]models.SliderImage, 0, len(form.File["images"]))
	for _, header := range form.File["images"] {
		file, err := header.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while uploading slider images"})
			return
		}
		uploaded, err := images.UploadFile(ctx, file, "")
		file.Close()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while uploading slider images"})
			return
		}
		created = append(created, models.SliderImage{
			ID:        primitive.NewObjectID(),
			SecureURL: uploaded.SecureURL,
			PublicID:  uploaded.PublicID,
		})
	}

	docs := make([]interface{}, 0, len(created))
	for _, img := range created {
		docs = append(docs, img)
	}
	if _, err := database.SliderImageCollection.InsertMany(ctx, docs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while saving slider images"})
		return
	}

	c.JSON(http.StatusOK, created)
}

func DeleteSliderImage(c *gin.Context) {
	imageID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "please insert a valid image id"})
		return
	}

	ctx, cancel := shortTimeout(c.Request.Context())
	defer cancel()

	var img models.SliderImage
	err = database.SliderImageCollection.FindOne(ctx, bson.M{"_id": imageID}).Decode(&img)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "image with given id not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while deleting the image"})
		return
	}

	if _, err := database.SliderImageCollection.DeleteOne(ctx, bson.M{"_id": imageID}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while deleting the image"})
		return
	}

	if err := images.DeleteFile(ctx, img.PublicID); err != nil {
		slog.Warn("slider image cleanup failed", "publicId", img.PublicID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "image deleted successfully"})
}
