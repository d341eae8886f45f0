package database

import (
	"context"
	"log"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/config"
)

var Client *mongo.Client
var DB *mongo.Database

func ConnectMongo() {
	uri := config.MustGetEnv("MONGO_URI")
	dbName := config.MustGetEnv("DB_NAME")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatal("MongoDB connection error:", err)
	}

	Client = client
	DB = client.Database(dbName)

	slog.Info("connected to MongoDB", "db", dbName)
}

var UserCollection *mongo.Collection
var ProductCollection *mongo.Collection
var CategoryCollection *mongo.Collection
var BrandCollection *mongo.Collection
var CartCollection *mongo.Collection
var OrderCollection *mongo.Collection
var SliderImageCollection *mongo.Collection

func InitCollections() {
	UserCollection = DB.Collection("users")
	ProductCollection = DB.Collection("products")
	CategoryCollection = DB.Collection("categories")
	BrandCollection = DB.Collection("brands")
	CartCollection = DB.Collection("carts")
	OrderCollection = DB.Collection("orders")
	SliderImageCollection = DB.Collection("homepage_slider_imgs")
}
