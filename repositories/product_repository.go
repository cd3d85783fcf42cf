package repositories

import (
	"context"
	"fmt"
	"time"

	"gpu-shop/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const productColumns = `id, name, description, category_id, brand, chipset, vram_gb, price, stock, COALESCE(image_url, ''), is_active, created_at, updated_at`

func scanProduct(row interface{ Scan(dest ...any) error }, p *models.Product) error {
	return row.Scan(&p.ID, &p.Name, &p.Description, &p.CategoryID, &p.Brand, &p.Chipset,
		&p.VRAMGB, &p.Price, &p.Stock, &p.ImageURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
}

func (r *ProductRepository) GetAllCategories(ctx context.Context) ([]models.Category, error) {
	query := `SELECT id, name, is_active, created_at FROM categories ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.IsActive, &cat.CreatedAt); err != nil {
			return nil, classify(err)
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

func (r *ProductRepository) GetAllProducts(ctx context.Context, page, limit int, categoryID int, search string) ([]models.Product, int, error) {
	offset := (page - 1) * limit

	countQuery := `SELECT COUNT(*) FROM products WHERE is_active = true`
	listQuery := `SELECT ` + productColumns + ` FROM products WHERE is_active = true`
	args := []interface{}{}
	argIndex := 1

	if categoryID > 0 {
		countQuery += ` AND category_id = $1`
		listQuery += ` AND category_id = $1`
		args = append(args, categoryID)
		argIndex++
	}
	if search != "" {
		cond := fmt.Sprintf(" AND (name ILIKE $%d OR chipset ILIKE $%d)", argIndex, argIndex)
		countQuery += cond
		listQuery += cond
		args = append(args, "%"+search+"%")
		argIndex++
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, classify(err)
	}

	listQuery += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, classify(err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, 0, classify(err)
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (r *ProductRepository) GetProductByID(ctx context.Context, id int) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var p models.Product
	if err := scanProduct(r.pool.QueryRow(ctx, query, id), &p); err != nil {
		return nil, classify(err)
	}
	return &p, nil
}

func (r *ProductRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (name, description, category_id, brand, chipset, vram_gb, price, stock, image_url, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, true, $10, $11)
		RETURNING id, created_at, updated_at
	`
	now := time.Now()
	err := r.pool.QueryRow(ctx, query,
		product.Name, product.Description, product.CategoryID, product.Brand, product.Chipset,
		product.VRAMGB, product.Price, product.Stock, product.ImageURL, now, now,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return classify(err)
	}
	product.IsActive = true
	return nil
}

func (r *ProductRepository) UpdateProduct(ctx context.Context, product *models.Product) error {
	query := `
		UPDATE products SET name = $1, description = $2, category_id = $3, brand = $4, chipset = $5,
			vram_gb = $6, price = $7, stock = $8, image_url = $9, is_active = $10, updated_at = $11
		WHERE id = $12
	`
	_, err := r.pool.Exec(ctx, query,
		product.Name, product.Description, product.CategoryID, product.Brand, product.Chipset,
		product.VRAMGB, product.Price, product.Stock, product.ImageURL, product.IsActive,
		time.Now(), product.ID,
	)
	return classify(err)
}

func (r *ProductRepository) DeleteProduct(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx, `UPDATE products SET is_active = false, updated_at = $1 WHERE id = $2`, time.Now(), id)
	return classify(err)
}
