package main

import (
	"log"
	"os"

	"gpu-shop/config"
	_ "gpu-shop/docs"
	"gpu-shop/middleware"
	"gpu-shop/models"
	"gpu-shop/routes"

	"github.com/gin-gonic/gin"
)

// @title GPU Shop API
// @version 1.0
// @description Backend API for the VoltCore GPU storefront: catalog, cart with realtime sync, checkout, and order management.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {

	config.LoadConfig()

	if config.AppConfig.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	models.InitDB()
	defer models.CloseDB()

	models.InitRedis()
	defer models.CloseRedis()

	if err := os.MkdirAll(config.AppConfig.UploadDir, os.ModePerm); err != nil {
		log.Fatalf("Failed to create upload directory: %v", err)
	}

	ctrl, carts := routes.Build()
	defer carts.CloseAll()

	router := gin.Default()
	router.Use(middleware.CORSMiddleware())
	routes.SetupRoutes(router, ctrl)

	port := ":" + config.AppConfig.Port
	log.Printf("Server starting on port %s", port)
	log.Printf("Environment: %s", config.AppConfig.AppEnv)
	log.Printf("Swagger UI: http://localhost:%s/swagger/index.html", config.AppConfig.Port)

	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
