package main

import (
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	stripe "github.com/stripe/stripe-go/v78"

	"storefront/checkout"
	"storefront/config"
	"storefront/controllers"
	"storefront/database"
	"storefront/images"
	"storefront/logger"
	"storefront/routes"
)

func main() {

	config.LoadEnv()

	logger.New(logger.Options{
		Service: "storefront",
		Env:     config.GetEnv("APP_ENV", "dev"),
		Level:   config.GetEnv("LOG_LEVEL", "info"),
	})

	database.ConnectMongo()
	database.InitCollections()

	controllers.SetCheckoutStore(checkout.NewMongoStore(database.DB))

	stripe.Key = config.GetEnv("STRIPE_SECRET", "")

	if url := config.GetEnv("CLOUDINARY_URL", ""); url != "" {
		if err := images.Init(url); err != nil {
			slog.Warn("media host init failed, image endpoints disabled", "error", err)
		}
	}

	r := gin.Default()
	r.SetTrustedProxies(nil)

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.GetEnv("CLIENT_APP_URL", "http://localhost:5173")},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	routes.RegisterRoutes(r)

	port := config.GetEnv("PORT", "8080")
	if err := r.Run(":" + port); err != nil {
		slog.Error("server stopped", "error", err)
	}
}
