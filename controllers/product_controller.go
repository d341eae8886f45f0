package controllers

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/checkout"
	"storefront/database"
	"storefront/images"
	"storefront/models"
)

// GetProducts lists products with the storefront filters: availability,
// category/categories and brands by name, price range, title prefix, best
// seller ordering, and pagination.
func GetProducts(c *gin.Context) {
	ctx, cancel := longTimeout(c.Request.Context())
	defer cancel()

	filter := bson.M{}

	switch c.Query("availability") {
	case "in stock":
		filter["quantity"] = bson.M{"$gt": 0}
	case "out of stock":
		filter["quantity"] = bson.M{"$eq": 0}
	}

	if category := c.Query("category"); category != "" {
		ids, missing, err := catalogIDsByName(c, database.CategoryCollection, []string{category})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "can't get products with provided categories at the moment"})
			return
		}
		if len(missing) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("there is no category with name of %s", category)})
			return
		}
		filter["category"] = ids[0]
	} else if categories := c.Query("categories"); categories != "" {
		ids, missing, err := catalogIDsByName(c, database.CategoryCollection, strings.Split(categories, ","))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "can't get products with provided categories at the moment"})
			return
		}
		if len(missing) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("these categories not found => %s", strings.Join(missing, ", "))})
			return
		}
		filter["category"] = bson.M{"$in": ids}
	}

	if brands := c.Query("brands"); brands != "" {
		ids, missing, err := catalogIDsByName(c, database.BrandCollection, strings.Split(brands, ","))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "can't get products with provided brands at the moment"})
			return
		}
		if len(missing) > 0 {
			c.JSON(http.StatusNotFound, gin.H{"message": fmt.Sprintf("these brands not available => %s", strings.Join(missing, ", "))})
			return
		}
		filter["brand"] = bson.M{"$in": ids}
	}

	price := bson.M{}
	if min := c.Query("priceMin"); min != "" {
		if v, err := strconv.ParseFloat(min, 64); err == nil {
			price["$gte"] = v
		}
	}
	if max := c.Query("priceMax"); max != "" {
		if v, err := strconv.ParseFloat(max, 64); err == nil {
			price["$lte"] = v
		}
	}
	if len(price) > 0 {
		filter["price"] = price
	}

	if prefix := c.Query("titleStartsWith"); prefix != "" {
		filter["title"] = bson.M{
			"$regex":   "^" + regexp.QuoteMeta(strings.ReplaceAll(prefix, `\`, "")),
			"$options": "i",
		}
	}

	findOpts := options.Find().SetSort(bson.M{"createdAt": -1})
	if c.Query("bestSell") != "" {
		findOpts.SetSort(bson.M{"sold": -1})
	}

	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 64)
	page, _ := strconv.ParseInt(c.Query("page"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit > 0 {
		findOpts.SetLimit(limit).SetSkip((page - 1) * limit)
	}

	total, err := database.ProductCollection.CountDocuments(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while fetching products"})
		return
	}

	cursor, err := database.ProductCollection.Find(ctx, filter, findOpts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while fetching products"})
		return
	}

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while fetching products"})
		return
	}

	pages := int64(1)
	if limit > 0 {
		pages = int64(math.Ceil(float64(total) / float64(limit)))
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"total":    total,
		"page":     page,
		"pages":    pages,
	})
}

func GetProduct(c *gin.Context) {
	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "please insert a valid product id"})
		return
	}

	ctx, cancel := shortTimeout(c.Request.Context())
	defer cancel()

	var product models.Product
	err = database.ProductCollection.FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "this product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while fetching the product"})
		return
	}

	category := namedRef(c, database.CategoryCollection, product.Category)
	brand := namedRef(c, database.BrandCollection, product.Brand)

	c.JSON(http.StatusOK, gin.H{
		"_id":         product.ID,
		"title":       product.Title,
		"price":       product.Price,
		"category":    category,
		"brand":       brand,
		"quantity":    product.Quantity,
		"sold":        product.Sold,
		"imgs":        product.Imgs,
		"color":       product.Color,
		"description": product.Description,
		"ratings":     product.Ratings,
		"createdAt":   product.CreatedAt,
		"updatedAt":   product.UpdatedAt,
	})
}

// CreateProduct accepts a multipart form with the product fields plus one or
// more "imgs" files pushed to the media host.
func CreateProduct(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid form data"})
		return
	}

	title := c.PostForm("title")
	color := c.PostForm("color")
	description := c.PostForm("description")
	price, priceErr := strconv.ParseFloat(c.PostForm("price"), 64)
	quantity, qtyErr := strconv.Atoi(c.PostForm("quantity"))

	if title == "" || color == "" || description == "" || priceErr != nil || qtyErr != nil || quantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "title, price, quantity, color and description is required"})
		return
	}

	categoryID, err := primitive.ObjectIDFromHex(c.PostForm("category"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "category is required"})
		return
	}
	brandID, err := primitive.ObjectIDFromHex(c.PostForm("brand"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "brand is required"})
		return
	}

	ctx, cancel := longTimeout(c.Request.Context())
	defer cancel()

	if n, err := database.CategoryCollection.CountDocuments(ctx, bson.M{"_id": categoryID}); err != nil || n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "this category not found"})
		return
	}
	if n, err := database.BrandCollection.CountDocuments(ctx, bson.M{"_id": brandID}); err != nil || n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "this brand not found"})
		return
	}

	taken, err := isTaken(ctx, database.ProductCollection, bson.M{"title": title})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while creating the product"})
		return
	}
	if taken {
		c.JSON(http.StatusConflict, gin.H{"message": "this title is taken already for another product"})
		return
	}

	files := form.File["imgs"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "must be at least one image for the product"})
		return
	}

	imgs := make([]models.ProductImage, 0, len(files))
	for i, header := range files {
		file, err := header.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while uploading product images"})
			return
		}
		uploaded, err := images.UploadFile(ctx, file, "")
		file.Close()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while uploading product images"})
			return
		}
		imgs = append(imgs, models.ProductImage{
			SecureURL: uploaded.SecureURL,
			PublicID:  uploaded.PublicID,
			Order:     i,
		})
	}

	now := time.Now()
	product := models.Product{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Price:       price,
		Category:    categoryID,
		Brand:       brandID,
		Quantity:    quantity,
		Imgs:        imgs,
		Color:       color,
		Description: description,
		Ratings:     []models.Rating{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := database.ProductCollection.InsertOne(ctx, product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while creating the product"})
		return
	}

	attachProduct(c, categoryID, brandID, product.ID, 1)

	c.JSON(http.StatusOK, product)
}

func UpdateProduct(c *gin.Context) {
	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "please insert a valid product id"})
		return
	}

	var body struct {
		Title       *string  `json:"title"`
		Price       *float64 `json:"price"`
		Quantity    *int     `json:"quantity"`
		Color       *string  `json:"color"`
		Description *string  `json:"description"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	update := bson.M{}
	if body.Title != nil {
		update["title"] = *body.Title
	}
	if body.Price != nil {
		update["price"] = *body.Price
	}
	if body.Quantity != nil {
		if *body.Quantity < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "quantity can't be negative"})
			return
		}
		update["quantity"] = *body.Quantity
	}
	if body.Color != nil {
		update["color"] = *body.Color
	}
	if body.Description != nil {
		update["description"] = *body.Description
	}
	update["updatedAt"] = time.Now()

	ctx, cancel := shortTimeout(c.Request.Context())
	defer cancel()

	var product models.Product
	err = database.ProductCollection.FindOneAndUpdate(ctx, bson.M{"_id": productID}, bson.M{"$set": update}, optionsAfter()).Decode(&product)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "this product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while updating the product"})
		return
	}

	c.JSON(http.StatusOK, product)
}

func DeleteProduct(c *gin.Context) {
	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "please insert a valid product id"})
		return
	}

	ctx, cancel := longTimeout(c.Request.Context())
	defer cancel()

	var product models.Product
	err = database.ProductCollection.FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "this product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while deleting the product"})
		return
	}

	if _, err := database.ProductCollection.DeleteOne(ctx, bson.M{"_id": productID}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while deleting the product"})
		return
	}

	// media and catalog bookkeeping are best effort once the document is gone
	for _, img := range product.Imgs {
		if err := images.DeleteFile(ctx, img.PublicID); err != nil {
			slog.Warn("product image cleanup failed", "publicId", img.PublicID, "error", err)
		}
	}
	attachProduct(c, product.Category, product.Brand, productID, -1)

	c.JSON(http.StatusOK, gin.H{"message": "product deleted successfully", "_id": productID.Hex()})
}

// DeleteProductImgs removes the listed images from the product and the media
// host.
func DeleteProductImgs(c *gin.Context) {
	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "please insert a valid product id"})
		return
	}

	var body struct {
		PublicIDs []string `json:"publicIds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || len(body.PublicIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "publicIds is required"})
		return
	}

	ctx, cancel := longTimeout(c.Request.Context())
	defer cancel()

	update := bson.M{
		"$pull": bson.M{"imgs": bson.M{"public_id": bson.M{"$in": body.PublicIDs}}},
		"$set":  bson.M{"updatedAt": time.Now()},
	}

	var product models.Product
	err = database.ProductCollection.FindOneAndUpdate(ctx, bson.M{"_id": productID}, update, optionsAfter()).Decode(&product)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"message": "this product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "something went wrong while deleting product images"})
		return
	}

	for _, publicID := range body.PublicIDs {
		if err := images.DeleteFile(ctx, publicID); err != nil {
			slog.Warn("product image cleanup failed", "publicId", publicID, "error", err)
		}
	}

	c.JSON(http.StatusOK, product)
}

// catalogIDsByName resolves case-insensitive names to catalog ids and reports
// the names that matched nothing.
func catalogIDsByName(c *gin.Context, coll *mongo.Collection, names []string) ([]primitive.ObjectID, []string, error) {
	ctx, cancel := shortTimeout(c.Request.Context())
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"name": 1})
	cursor, err := coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, nil, err
	}
	var entries []models.CatalogEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, nil, err
	}

	var ids []primitive.ObjectID
	var missing []string
	for _, name := range names {
		want := strings.ToLower(strings.TrimSpace(name))
		matched := false
		for _, entry := range entries {
			if strings.ToLower(strings.TrimSpace(entry.Name)) == want {
				ids = append(ids, entry.ID)
				matched = true
				break
			}
		}
		if !matched {
			missing = append(missing, strings.TrimSpace(name))
		}
	}

	return ids, missing, nil
}

func namedRef(c *gin.Context, coll *mongo.Collection, id primitive.ObjectID) checkout.NamedRef {
	ref := checkout.NamedRef{ID: id}
	if id.IsZero() {
		return ref
	}

	ctx, cancel := shortTimeout(c.Request.Context())
	defer cancel()

	var entry models.CatalogEntry
	if err := coll.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"name": 1})).Decode(&entry); err == nil {
		ref.Name = entry.Name
	}
	return ref
}

// attachProduct keeps the denormalized products list and productsCount on the
// category and brand documents in step with product creation and deletion.
func attachProduct(c *gin.Context, categoryID, brandID, productID primitive.ObjectID, direction int) {
	ctx, cancel := shortTimeout(c.Request.Context())
	defer cancel()

	op := bson.M{
		"$push": bson.M{"products": productID},
		"$inc":  bson.M{"productsCount": 1},
	}
	if direction < 0 {
		op = bson.M{
			"$pull": bson.M{"products": productID},
			"$inc":  bson.M{"productsCount": -1},
		}
	}

	if _, err := database.CategoryCollection.UpdateOne(ctx, bson.M{"_id": categoryID}, op); err != nil {
		slog.Warn("category products bookkeeping failed", "category", categoryID.Hex(), "error", err)
	}
	if _, err := database.BrandCollection.UpdateOne(ctx, bson.M{"_id": brandID}, op); err != nil {
		slog.Warn("brand products bookkeeping failed", "brand", brandID.Hex(), "error", err)
	}
}
