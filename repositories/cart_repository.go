package repositories

import (
	"context"
	"log"
	"time"

	"gpu-shop/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CartRepository is the remote line-item table. It stores only the columns
// the cart_items table has; selection flags and image URLs never reach it.
type CartRepository interface {
	ListByOwner(ctx context.Context, userID int) ([]models.CartLineItem, error)
	FindByOwnerProduct(ctx context.Context, userID, productID int) (*models.CartLineItem, error)
	Insert(ctx context.Context, item models.CartLineItem) error
	UpdateQuantity(ctx context.Context, userID int, id uuid.UUID, quantity int) error
	Delete(ctx context.Context, userID int, id uuid.UUID) error
	DeleteByOwner(ctx context.Context, userID int) error
}

type PgCartRepository struct {
	pool *pgxpool.Pool
	feed CartFeed
}

func NewCartRepository(pool *pgxpool.Pool, feed CartFeed) *PgCartRepository {
	return &PgCartRepository{pool: pool, feed: feed}
}

const cartColumns = `id, user_id, product_id, product_name, unit_price, quantity, created_at, updated_at`

func (r *PgCartRepository) ListByOwner(ctx context.Context, userID int) ([]models.CartLineItem, error) {
	query := `SELECT ` + cartColumns + ` FROM cart_items WHERE user_id = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	items := []models.CartLineItem{}
	for rows.Next() {
		var item models.CartLineItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.ProductID, &item.ProductName,
			&item.UnitPrice, &item.Quantity, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, classify(err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return items, nil
}

func (r *PgCartRepository) FindByOwnerProduct(ctx context.Context, userID, productID int) (*models.CartLineItem, error) {
	query := `SELECT ` + cartColumns + ` FROM cart_items WHERE user_id = $1 AND product_id = $2`

	var item models.CartLineItem
	err := r.pool.QueryRow(ctx, query, userID, productID).Scan(
		&item.ID, &item.UserID, &item.ProductID, &item.ProductName,
		&item.UnitPrice, &item.Quantity, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, classify(err)
	}
	return &item, nil
}

func (r *PgCartRepository) Insert(ctx context.Context, item models.CartLineItem) error {
	query := `
		INSERT INTO cart_items (id, user_id, product_id, product_name, unit_price, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	now := time.Now()
	_, err := r.pool.Exec(ctx, query,
		item.ID, item.UserID, item.ProductID, item.ProductName, item.UnitPrice, item.Quantity, now, now)
	if err != nil {
		return classify(err)
	}

	item.CreatedAt = now
	item.UpdatedAt = now
	r.publish(ctx, item.UserID, models.CartChangeEvent{Type: models.CartEventInsert, Item: stripLocalFields(item)})
	return nil
}

func (r *PgCartRepository) UpdateQuantity(ctx context.Context, userID int, id uuid.UUID, quantity int) error {
	query := `
		UPDATE cart_items SET quantity = $1, updated_at = $2
		WHERE id = $3 AND user_id = $4
		RETURNING ` + cartColumns

	var item models.CartLineItem
	err := r.pool.QueryRow(ctx, query, quantity, time.Now(), id, userID).Scan(
		&item.ID, &item.UserID, &item.ProductID, &item.ProductName,
		&item.UnitPrice, &item.Quantity, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return classify(err)
	}

	r.publish(ctx, userID, models.CartChangeEvent{Type: models.CartEventUpdate, Item: item})
	return nil
}

func (r *PgCartRepository) Delete(ctx context.Context, userID int, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return classify(err)
	}

	if tag.RowsAffected() > 0 {
		r.publish(ctx, userID, models.CartChangeEvent{
			Type: models.CartEventDelete,
			Item: models.CartLineItem{ID: id, UserID: userID},
		})
	}
	return nil
}

func (r *PgCartRepository) DeleteByOwner(ctx context.Context, userID int) error {
	rows, err := r.pool.Query(ctx, `DELETE FROM cart_items WHERE user_id = $1 RETURNING id`, userID)
	if err != nil {
		return classify(err)
	}
	defer rows.Close()

	deleted := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return classify(err)
		}
		deleted = append(deleted, id)
	}
	if err := rows.Err(); err != nil {
		return classify(err)
	}

	for _, id := range deleted {
		r.publish(ctx, userID, models.CartChangeEvent{
			Type: models.CartEventDelete,
			Item: models.CartLineItem{ID: id, UserID: userID},
		})
	}
	return nil
}

// publish is fire-and-forget: a dead feed must never fail a write that
// already committed.
func (r *PgCartRepository) publish(ctx context.Context, userID int, ev models.CartChangeEvent) {
	if r.feed == nil {
		return
	}
	if err := r.feed.Publish(ctx, userID, ev); err != nil {
		log.Printf("cart feed publish error: %v", err)
	}
}

func stripLocalFields(item models.CartLineItem) models.CartLineItem {
	item.ImageURL = ""
	item.Selected = nil
	return item
}
