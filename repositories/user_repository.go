package repositories

import (
	"context"
	"fmt"
	"time"

	"gpu-shop/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, email, password, role, COALESCE(full_name, ''), COALESCE(phone, ''), COALESCE(address, ''), created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }, u *models.User) error {
	return row.Scan(&u.ID, &u.Email, &u.Password, &u.Role, &u.FullName, &u.Phone, &u.Address,
		&u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password, role, full_name, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	now := time.Now()
	err := r.pool.QueryRow(ctx, query,
		user.Email, user.Password, user.Role, user.FullName, user.Phone, now, now,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return classify(err)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user := &models.User{}
	if err := scanUser(r.pool.QueryRow(ctx, query, email), user); err != nil {
		return nil, classify(err)
	}
	return user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user := &models.User{}
	if err := scanUser(r.pool.QueryRow(ctx, query, id), user); err != nil {
		return nil, classify(err)
	}
	return user, nil
}

func (r *UserRepository) GetAll(ctx context.Context, page, limit int) ([]models.User, int, error) {
	offset := (page - 1) * limit

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, classify(err)
	}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, classify(err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			return nil, 0, classify(err)
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET full_name = $1, phone = $2, address = $3, updated_at = $4
		WHERE id = $5
	`
	_, err := r.pool.Exec(ctx, query, user.FullName, user.Phone, user.Address, time.Now(), user.ID)
	return classify(err)
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET email = $1, role = $2, full_name = $3, phone = $4, address = $5, updated_at = $6
		WHERE id = $7
	`
	_, err := r.pool.Exec(ctx, query,
		user.Email, user.Role, user.FullName, user.Phone, user.Address, time.Now(), user.ID)
	return classify(err)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int, hashedPassword string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET password = $1, updated_at = $2 WHERE id = $3`,
		hashedPassword, time.Now(), id)
	return classify(err)
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return &StorageError{Kind: ErrKindNotFound, Err: fmt.Errorf("user %d not found", id)}
	}
	return nil
}
