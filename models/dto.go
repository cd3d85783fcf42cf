package models

import "github.com/shopspring/decimal"

type RegisterRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required,min=6"`
	FullName string `json:"full_name" form:"full_name" binding:"required,min=3"`
	Phone    string `json:"phone" form:"phone" binding:"omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	FullName string `json:"full_name" form:"full_name"`
	Phone    string `json:"phone" form:"phone"`
	Address  string `json:"address" form:"address"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" form:"old_password" binding:"required"`
	NewPassword string `json:"new_password" form:"new_password" binding:"required,min=6"`
}

type UpdateUserRequest struct {
	Email    string `json:"email" form:"email"`
	Role     string `json:"role" form:"role" binding:"omitempty,oneof=customer admin"`
	FullName string `json:"full_name" form:"full_name"`
	Phone    string `json:"phone" form:"phone"`
	Address  string `json:"address" form:"address"`
}

type CreateProductRequest struct {
	Name        string          `json:"name" form:"name" binding:"required"`
	Description string          `json:"description" form:"description" binding:"required"`
	CategoryID  int             `json:"category_id" form:"category_id" binding:"required"`
	Brand       string          `json:"brand" form:"brand" binding:"required"`
	Chipset     string          `json:"chipset" form:"chipset"`
	VRAMGB      int             `json:"vram_gb" form:"vram_gb"`
	Price       decimal.Decimal `json:"price" form:"price" binding:"required"`
	Stock       int             `json:"stock" form:"stock" binding:"required"`
	ImageURL    string          `json:"image_url" form:"image_url"`
}

type UpdateProductRequest struct {
	Name        string          `json:"name" form:"name"`
	Description string          `json:"description" form:"description"`
	CategoryID  int             `json:"category_id" form:"category_id"`
	Brand       string          `json:"brand" form:"brand"`
	Chipset     string          `json:"chipset" form:"chipset"`
	VRAMGB      int             `json:"vram_gb" form:"vram_gb"`
	Price       decimal.Decimal `json:"price" form:"price"`
	Stock       *int            `json:"stock" form:"stock"`
	IsActive    *bool           `json:"is_active" form:"is_active"`
	ImageURL    string          `json:"image_url" form:"image_url"`
}

type AddToCartRequest struct {
	ProductID int `json:"product_id" binding:"required"`
	Quantity  int `json:"quantity" binding:"omitempty,min=1"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

type SelectionRequest struct {
	Selected bool `json:"selected"`
}

type CheckoutRequest struct {
	Email    string `json:"email" form:"email"`
	FullName string `json:"full_name" form:"full_name"`
	Address  string `json:"address" form:"address"`
}
