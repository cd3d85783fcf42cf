package routes

import (
	"log"

	"gpu-shop/config"
	"gpu-shop/controllers"
	"gpu-shop/middleware"
	"gpu-shop/models"
	"gpu-shop/repositories"
	"gpu-shop/services"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Controllers bundles the constructed handlers for route registration.
type Controllers struct {
	Auth     *controllers.AuthController
	User     *controllers.UserController
	Product  *controllers.ProductController
	Cart     *controllers.CartController
	Checkout *controllers.CheckoutController
	History  *controllers.HistoryController
	Order    *controllers.OrderController
}

// Build wires repositories, services, and controllers from the
// initialized database, cache, and config globals. The returned
// CartManager must be closed on shutdown.
func Build() (Controllers, *services.CartManager) {
	var feed repositories.CartFeed = repositories.NopCartFeed{}
	if models.RedisClient != nil {
		feed = repositories.NewRedisCartFeed(models.RedisClient)
	}

	guestStore, err := repositories.NewFileGuestCartStore(config.AppConfig.GuestCartDir)
	if err != nil {
		log.Fatalf("Failed to open guest cart store: %v", err)
	}

	cartRepo := repositories.NewCartRepository(models.DB, feed)
	productRepo := repositories.NewProductRepository(models.DB)
	userRepo := repositories.NewUserRepository(models.DB)

	manager := services.NewCartManager(cartRepo, feed, guestStore, services.LogNotifier{})
	authSvc := services.NewAuthService(userRepo)
	productSvc := services.NewProductService(productRepo)

	emailSvc, err := models.NewEmailService()
	if err != nil {
		log.Printf("Email disabled: %v", err)
		emailSvc = nil
	}

	return Controllers{
		Auth:     controllers.NewAuthController(authSvc),
		User:     controllers.NewUserController(userRepo),
		Product:  controllers.NewProductController(productSvc),
		Cart:     controllers.NewCartController(manager, productSvc),
		Checkout: controllers.NewCheckoutController(manager, feed, emailSvc),
		History:  &controllers.HistoryController{},
		Order:    &controllers.OrderController{},
	}, manager
}

func SetupRoutes(router *gin.Engine, ctrl Controllers) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	router.POST("/auth/register", ctrl.Auth.Register)
	router.POST("/auth/login", ctrl.Auth.Login)
	router.GET("/categories", ctrl.Product.GetAllCategories)
	router.GET("/products", ctrl.Product.GetAllProducts)
	router.GET("/products/:id", ctrl.Product.GetProductByID)

	cart := router.Group("/cart")
	cart.Use(middleware.OptionalAuthMiddleware())
	{
		cart.GET("", ctrl.Cart.GetCart)
		cart.DELETE("", ctrl.Cart.ClearCart)
		cart.POST("/items", ctrl.Cart.AddToCart)
		cart.PATCH("/items/:id", ctrl.Cart.UpdateQuantity)
		cart.PATCH("/items/:id/selection", ctrl.Cart.ToggleItemSelection)
		cart.POST("/selection", ctrl.Cart.SelectAllItems)
		cart.DELETE("/items/:id", ctrl.Cart.RemoveFromCart)
	}

	auth := router.Group("/")
	auth.Use(middleware.AuthMiddleware())
	{
		auth.GET("/auth/profile", ctrl.Auth.GetProfile)
		auth.PATCH("/auth/profile", ctrl.Auth.UpdateProfile)
		auth.POST("/auth/change-password", ctrl.Auth.ChangePassword)
		auth.POST("/checkout", ctrl.Checkout.Checkout)
		auth.GET("/history", ctrl.History.GetHistory)
		auth.GET("/history/:id", ctrl.History.GetOrderDetail)
	}

	admin := router.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.GET("/dashboard", ctrl.Order.GetDashboard)

		admin.GET("/users", ctrl.User.GetAllUsers)
		admin.GET("/users/:id", ctrl.User.GetUserByID)
		admin.POST("/users", ctrl.User.CreateUser)
		admin.PATCH("/users/:id", ctrl.User.UpdateUser)
		admin.DELETE("/users/:id", ctrl.User.DeleteUser)

		admin.POST("/products", ctrl.Product.CreateProduct)
		admin.PATCH("/products/:id", ctrl.Product.UpdateProduct)
		admin.DELETE("/products/:id", ctrl.Product.DeleteProduct)

		admin.GET("/orders", ctrl.Order.GetAllOrders)
		admin.GET("/orders/:id", ctrl.Order.GetOrderByID)
		admin.PATCH("/orders/:id/status", ctrl.Order.UpdateOrderStatus)
	}

	router.Static("/uploads", "./uploads")
}
