package routes

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/radsonline/marketplace-golang/internal/handlers"
	"github.com/radsonline/marketplace-golang/internal/middleware"
)

// CORSMiddleware tells the browser the configured frontend origin may call us.
func CORSMiddleware() gin.HandlerFunc {
	origin := os.Getenv("FRONTEND_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}

	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		// Preflight requests get an empty 204.
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// SetupRouter wires every endpoint to its handler and role gate.
func SetupRouter(h *handlers.Handlers) *gin.Engine {
	router := gin.Default()

	router.Use(CORSMiddleware())
	router.Use(middleware.RequestID())

	// --- Health Check (Public) ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		// --- Auth Routes (Public) ---
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.POST("/forgot-password", h.ForgotPassword)
			authGroup.POST("/verify-otp", h.VerifyOTP)
			authGroup.POST("/reset-password", h.ResetPassword)
		}

		// --- Brand Routes ---
		brands := api.Group("/brands")
		brands.Use(middleware.AuthMiddleware())
		{
			brands.POST("", middleware.SellerOnly(), h.CreateBrand)
			brands.GET("/admin", middleware.AdminOnly(), h.GetAllBrandsAdmin)
			brands.GET("/my-brands", middleware.SellerOnly(), h.GetMyBrands)
			brands.PATCH("/:id/status", middleware.AdminOnly(), h.UpdateBrandStatus)
			brands.PUT("/:id", middleware.SellerOnly(), h.UpdateBrand)
			brands.DELETE("/:id", h.DeleteBrand) // owner-or-admin check in handler
		}

		// --- Product Routes ---
		products := api.Group("/products")
		{
			// Public storefront listings
			products.GET("", h.GetApprovedProducts)
			products.GET("/brand/:brandId", h.GetProductsByBrand)

			protected := products.Group("")
			protected.Use(middleware.AuthMiddleware())
			{
				protected.POST("", middleware.SellerOnly(), h.CreateProduct)
				protected.GET("/my-products", middleware.SellerOnly(), h.GetMyProducts)
				protected.GET("/pending", middleware.AdminOnly(), h.GetPendingProducts)
				protected.PATCH("/:id/status", middleware.AdminOnly(), h.UpdateProductStatus)
				protected.PUT("/:id", middleware.SellerOnly(), h.UpdateProduct)
				protected.DELETE("/:id", h.DeleteProduct) // owner-or-admin check in handler
			}
		}

		// --- Order Routes (Login Required) ---
		orders := api.Group("/orders")
		orders.Use(middleware.AuthMiddleware())
		{
			orders.POST("", h.CreateOrder)
			orders.GET("/my-orders", h.GetMyOrders)
			orders.GET("/:id", h.GetOrderDetails)
			orders.PATCH("/:id/status", h.UpdateOrderStatus)
		}
	}

	return router
}
