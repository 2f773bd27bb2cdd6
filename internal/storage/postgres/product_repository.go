package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

type productRepository struct {
	q querier
}

var _ domain.ProductRepository = (*productRepository)(nil)

func (r *productRepository) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	err := r.q.QueryRowContext(ctx, `
		INSERT INTO products (name, description, price_minor, stock, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id
	`,
		product.Name, product.Description, product.PriceMinor, product.Stock,
		product.CreatedAt, product.UpdatedAt,
	).Scan(&product.ID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("insert product: %w", err)
	}

	return product, nil
}

func (r *productRepository) Get(ctx context.Context, id int64) (domain.Product, error) {
	return r.scanOne(r.q.QueryRowContext(ctx, `
		SELECT id, name, description, price_minor, stock, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id))
}

func (r *productRepository) ListByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	rows, err := r.q.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, name, description, price_minor, stock, created_at, updated_at
		FROM products
		WHERE id IN (%s)
		ORDER BY id
	`, strings.Join(placeholders, ",")), args...)
	if err != nil {
		return nil, fmt.Errorf("list products by ids: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *productRepository) List(ctx context.Context, offset, limit int) ([]domain.Product, int, error) {
	var total int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT id, name, description, price_minor, stock, created_at, updated_at
		FROM products
		ORDER BY id
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products, err := r.collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *productRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	product.UpdatedAt = time.Now().UTC()

	res, err := r.q.ExecContext(ctx, `
		UPDATE products
		SET name = $2,
		    description = $3,
		    price_minor = $4,
		    stock = $5,
		    updated_at = $6
		WHERE id = $1
	`, product.ID, product.Name, product.Description, product.PriceMinor, product.Stock, product.UpdatedAt)
	if err != nil {
		return domain.Product{}, fmt.Errorf("update product: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Product{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.Product{}, domain.ErrProductNotFound
	}

	return r.Get(ctx, product.ID)
}

func (r *productRepository) Delete(ctx context.Context, id int64) (domain.Product, error) {
	deleted, err := r.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	if _, err := r.q.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
		return domain.Product{}, fmt.Errorf("delete product: %w", err)
	}

	return deleted, nil
}

// AdjustStock меняет остаток одной командой UPDATE: проверка stock + delta >= 0
// входит в условие WHERE, поэтому конкурирующие списания сериализуются по
// строке товара и остаток не уходит в минус.
func (r *productRepository) AdjustStock(ctx context.Context, id int64, delta int32) (domain.Product, error) {
	row := r.q.QueryRowContext(ctx, `
		UPDATE products
		SET stock = stock + $2,
		    updated_at = $3
		WHERE id = $1
		  AND stock + $2 >= 0
		RETURNING id, name, description, price_minor, stock, created_at, updated_at
	`, id, delta, time.Now().UTC())

	product, err := r.scanOne(row)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, domain.ErrProductNotFound) {
		return domain.Product{}, err
	}

	// UPDATE никого не задел: различаем отсутствие товара и нехватку остатка.
	if _, getErr := r.Get(ctx, id); getErr != nil {
		return domain.Product{}, getErr
	}
	return domain.Product{}, domain.ErrInsufficientStock
}

func (r *productRepository) collect(rows *sql.Rows) ([]domain.Product, error) {
	products := make([]domain.Product, 0)
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(
			&product.ID, &product.Name, &product.Description,
			&product.PriceMinor, &product.Stock, &product.CreatedAt, &product.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

func (r *productRepository) scanOne(row *sql.Row) (domain.Product, error) {
	var product domain.Product
	err := row.Scan(
		&product.ID, &product.Name, &product.Description,
		&product.PriceMinor, &product.Stock, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}
	return product, nil
}
