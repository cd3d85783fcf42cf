package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"gpu-shop/libs"
	"gpu-shop/models"
	"gpu-shop/services"
	"gpu-shop/utils"

	"github.com/gin-gonic/gin"
)

type ProductController struct {
	products *services.ProductService
}

func NewProductController(products *services.ProductService) *ProductController {
	return &ProductController{products: products}
}

func getProductCacheKey(page, limit, categoryID int, search string) string {
	return fmt.Sprintf("products_list_p%d_l%d_c%d_s%s", page, limit, categoryID, search)
}

func invalidateProductCache() {
	if models.RedisClient == nil {
		return
	}
	ctx := context.Background()
	iter := models.RedisClient.Scan(ctx, 0, "products_list_*", 0).Iterator()
	for iter.Next(ctx) {
		models.RedisClient.Del(ctx, iter.Val())
	}
}

// @Summary Get all categories
// @Description Get list of all categories
// @Tags Categories
// @Produce json
// @Success 200 {object} models.Response
// @Router /categories [get]
func (ctrl *ProductController) GetAllCategories(c *gin.Context) {
	categories, err := ctrl.products.GetAllCategories(c.Request.Context())
	if err != nil {
		c.JSON(500, gin.H{"success": false, "message": "Failed to get categories"})
		return
	}

	c.JSON(200, gin.H{"success": true, "message": "Categories retrieved", "data": categories})
}

// @Summary Get all products
// @Description Get paginated list of GPUs
// @Tags Products
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Param category_id query int false "Filter by category"
// @Param search query string false "Search by name or chipset"
// @Success 200 {object} models.PaginationResponse
// @Router /products [get]
func (ctrl *ProductController) GetAllProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	categoryID, _ := strconv.Atoi(c.Query("category_id"))
	search := c.Query("search")

	cacheKey := getProductCacheKey(page, limit, categoryID, search)
	ctx := context.Background()

	if models.RedisClient != nil {
		cached, err := models.RedisClient.Get(ctx, cacheKey).Result()
		if err == nil {
			c.Data(200, "application/json", []byte(cached))
			return
		}
	}

	response, err := ctrl.products.GetAllProducts(c.Request.Context(), page, limit, categoryID, search)
	if err != nil {
		c.JSON(500, gin.H{"success": false, "message": "Failed to get products"})
		return
	}

	if models.RedisClient != nil {
		jsonData, _ := json.Marshal(response)
		models.RedisClient.Set(ctx, cacheKey, string(jsonData), 5*time.Minute)
	}

	c.JSON(200, response)
}

// @Summary Get product by ID
// @Description Get GPU details including current stock
// @Tags Products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.ErrorResponse
// @Router /products/{id} [get]
func (ctrl *ProductController) GetProductByID(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))
	if id <= 0 {
		c.JSON(400, gin.H{"success": false, "message": "Invalid product ID"})
		return
	}

	product, err := ctrl.products.GetProductByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(404, gin.H{"success": false, "message": "Product not found"})
		return
	}

	c.JSON(200, gin.H{"success": true, "message": "Product retrieved", "data": product})
}

// @Summary Create product
// @Description Create a new GPU listing (Admin)
// @Tags Admin - Products
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} models.Response
// @Router /admin/products [post]
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(400, gin.H{"success": false, "message": "Invalid request", "error": err.Error()})
		return
	}

	if imageURL, ok := ctrl.uploadImage(c); ok {
		req.ImageURL = imageURL
	}

	product, err := ctrl.products.CreateProduct(c.Request.Context(), req)
	if err != nil {
		c.JSON(500, gin.H{"success": false, "message": "Failed to create product"})
		return
	}

	invalidateProductCache()
	c.JSON(201, gin.H{"success": true, "message": "Product created", "data": product})
}

// @Summary Update product
// @Description Update a GPU listing (Admin)
// @Tags Admin - Products
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} models.Response
// @Router /admin/products/{id} [patch]
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))
	if id <= 0 {
		c.JSON(400, gin.H{"success": false, "message": "Invalid product ID"})
		return
	}

	var req models.UpdateProductRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(400, gin.H{"success": false, "message": "Invalid request", "error": err.Error()})
		return
	}

	if imageURL, ok := ctrl.uploadImage(c); ok {
		req.ImageURL = imageURL
	}

	product, err := ctrl.products.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(404, gin.H{"success": false, "message": err.Error()})
		return
	}

	invalidateProductCache()
	c.JSON(200, gin.H{"success": true, "message": "Product updated", "data": product})
}

// @Summary Delete product
// @Description Deactivate a GPU listing (Admin)
// @Tags Admin - Products
// @Security BearerAuth
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} models.Response
// @Router /admin/products/{id} [delete]
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("id"))
	if id <= 0 {
		c.JSON(400, gin.H{"success": false, "message": "Invalid product ID"})
		return
	}

	if err := ctrl.products.DeleteProduct(c.Request.Context(), id); err != nil {
		c.JSON(500, gin.H{"success": false, "message": "Failed to delete product"})
		return
	}

	invalidateProductCache()
	c.JSON(200, gin.H{"success": true, "message": "Product deleted", "data": gin.H{"id": id}})
}

// uploadImage handles an optional "image" form file: Cloudinary when
// configured, local disk otherwise.
func (ctrl *ProductController) uploadImage(c *gin.Context) (string, bool) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return "", false
	}

	if cld, err := libs.NewCloudinaryService(); err == nil {
		if err := cld.ValidateImageFile(fileHeader); err != nil {
			log.Printf("product image rejected: %v", err)
			return "", false
		}
		file, err := fileHeader.Open()
		if err != nil {
			log.Printf("product image open failed: %v", err)
			return "", false
		}
		defer file.Close()

		url, _, err := cld.UploadImage(c.Request.Context(), file, fileHeader.Filename, "products")
		if err != nil {
			log.Printf("cloudinary upload failed: %v", err)
			return "", false
		}
		return url, true
	}

	path, err := utils.UploadFile(c, fileHeader, "products")
	if err != nil {
		log.Printf("local image upload failed: %v", err)
		return "", false
	}
	return "/uploads/" + path, true
}
