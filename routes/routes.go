package routes

import (
	"github.com/gin-gonic/gin"

	"storefront/controllers"
	"storefront/middleware"
)

func RegisterRoutes(r *gin.Engine) {

	api := r.Group("/api")
	{
		api.POST("/auth/register", controllers.Register)
		api.POST("/auth/login", controllers.Login)
		api.POST("/auth/logout", controllers.Logout)
		api.GET("/auth/checkUser", middleware.Auth(), controllers.CheckUser)

		// the webhook authenticates with a Stripe signature, not a session
		api.POST("/payment/webhook", controllers.StripeWebhook)

		api.GET("/products", controllers.GetProducts)
		api.GET("/products/:id", controllers.GetProduct)

		api.GET("/categories", controllers.GetCatalogEntries)
		api.GET("/categories/:id", controllers.GetCatalogEntry)
		api.GET("/brands", controllers.GetCatalogEntries)
		api.GET("/brands/:id", controllers.GetCatalogEntry)

		api.GET("/dashboard/homepageSliderImgs", controllers.GetSliderImages)

		protected := api.Group("/")
		protected.Use(middleware.Auth())
		{
			protected.GET("/users", middleware.AdminOnly(), controllers.GetUsers)
			protected.GET("/users/:id", controllers.GetUser)
			protected.PATCH("/users/:id", controllers.UpdateUser)
			protected.DELETE("/users/:id", controllers.DeleteUser)
			protected.GET("/users/wishlist/:id", controllers.GetWishlist)
			protected.POST("/users/wishlist/:id", controllers.ToggleWishlist)

			protected.GET("/carts/:userId", controllers.GetCart)
			protected.POST("/carts/:userId", controllers.AddToCart)
			protected.DELETE("/carts/:userId/removeProduct", controllers.RemoveCartProduct)
			protected.DELETE("/carts/:userId/resetCart", controllers.ResetCart)

			protected.GET("/orders", controllers.GetOrders)
			protected.POST("/orders", controllers.SubmitOrder)
			protected.GET("/orders/:id", controllers.GetOrder)
			protected.PATCH("/orders/:id", middleware.AdminOnly(), controllers.UpdateOrderStatus)

			protected.POST("/payment/pay", controllers.CreatePaymentSession)
			protected.POST("/payment/donate", controllers.CreateDonationSession)
			protected.PATCH("/payment/donate", controllers.CreateDonationSession)

			admin := protected.Group("/")
			admin.Use(middleware.AdminOnly())
			{
				admin.POST("/products", controllers.CreateProduct)
				admin.PATCH("/products/:id", controllers.UpdateProduct)
				admin.DELETE("/products/:id", controllers.DeleteProduct)
				admin.DELETE("/products/deleteImgs/:id", controllers.DeleteProductImgs)

				admin.POST("/categories", controllers.CreateCatalogEntry)
				admin.PATCH("/categories/:id", controllers.UpdateCatalogEntry)
				admin.DELETE("/categories/:id", controllers.DeleteCatalogEntry)
				admin.POST("/brands", controllers.CreateCatalogEntry)
				admin.PATCH("/brands/:id", controllers.UpdateCatalogEntry)
				admin.DELETE("/brands/:id", controllers.DeleteCatalogEntry)

				admin.GET("/dashboard/insights", controllers.GetInsights)
				admin.POST("/dashboard/homepageSliderImgs", controllers.AddSliderImages)
				admin.DELETE("/dashboard/homepageSliderImgs/:id", controllers.DeleteSliderImage)
			}
		}
	}
}
