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

type orderRepository struct {
	q querier
}

var _ domain.OrderRepository = (*orderRepository)(nil)

func (r *orderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	now := time.Now().UTC()
	if order.OrderDate.IsZero() {
		order.OrderDate = now
	}
	order.UpdatedAt = now

	err := r.q.QueryRowContext(ctx, `
		INSERT INTO orders (client_id, status, total_minor, order_date, updated_at)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id
	`,
		order.ClientID, string(order.Status), order.TotalMinor, order.OrderDate, order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		if err := r.insertItem(ctx, item); err != nil {
			return domain.Order{}, err
		}
	}

	return order, nil
}

func (r *orderRepository) Get(ctx context.Context, id int64) (domain.Order, error) {
	order, err := r.scanOne(r.q.QueryRowContext(ctx, `
		SELECT id, client_id, status, total_minor, order_date, updated_at
		FROM orders
		WHERE id = $1
	`, id))
	if err != nil {
		return domain.Order{}, err
	}

	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items

	return order, nil
}

func (r *orderRepository) FindCart(ctx context.Context, clientID int64) (domain.Order, error) {
	order, err := r.scanOne(r.q.QueryRowContext(ctx, `
		SELECT id, client_id, status, total_minor, order_date, updated_at
		FROM orders
		WHERE client_id = $1
		  AND status = $2
		ORDER BY id
		LIMIT 1
	`, clientID, string(domain.OrderStatusCart)))
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return domain.Order{}, domain.ErrCartNotFound
		}
		return domain.Order{}, err
	}

	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items

	return order, nil
}

func (r *orderRepository) Save(ctx context.Context, order domain.Order) (domain.Order, error) {
	order.UpdatedAt = time.Now().UTC()

	res, err := r.q.ExecContext(ctx, `
		UPDATE orders
		SET status = $2,
		    total_minor = $3,
		    updated_at = $4
		WHERE id = $1
	`, order.ID, string(order.Status), order.TotalMinor, order.UpdatedAt)
	if err != nil {
		return domain.Order{}, fmt.Errorf("update order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Order{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	if err := r.syncItems(ctx, &order); err != nil {
		return domain.Order{}, err
	}

	return order, nil
}

// syncItems приводит строки order_items к переданному набору: позиции,
// которых в наборе нет, удаляются, позиции с ID == 0 создаются.
func (r *orderRepository) syncItems(ctx context.Context, order *domain.Order) error {
	keepIDs := make([]int64, 0, len(order.Items))
	for _, item := range order.Items {
		if item.ID != 0 {
			keepIDs = append(keepIDs, item.ID)
		}
	}

	if len(keepIDs) == 0 {
		if _, err := r.q.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, order.ID); err != nil {
			return fmt.Errorf("delete order items: %w", err)
		}
	} else {
		placeholders := make([]string, len(keepIDs))
		args := make([]any, 0, len(keepIDs)+1)
		args = append(args, order.ID)
		for i, id := range keepIDs {
			placeholders[i] = fmt.Sprintf("$%d", i+2)
			args = append(args, id)
		}
		if _, err := r.q.ExecContext(ctx, fmt.Sprintf(`
			DELETE FROM order_items
			WHERE order_id = $1
			  AND id NOT IN (%s)
		`, strings.Join(placeholders, ",")), args...); err != nil {
			return fmt.Errorf("prune order items: %w", err)
		}
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		if item.ID == 0 {
			if err := r.insertItem(ctx, item); err != nil {
				return err
			}
			continue
		}
		if _, err := r.q.ExecContext(ctx, `
			UPDATE order_items
			SET quantity = $2,
			    unit_price_minor = $3,
			    subtotal_minor = $4
			WHERE id = $1
		`, item.ID, item.Quantity, item.UnitPriceMinor, item.SubtotalMinor); err != nil {
			return fmt.Errorf("update order item: %w", err)
		}
	}

	return nil
}

func (r *orderRepository) Delete(ctx context.Context, id int64) (domain.Order, error) {
	deleted, err := r.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	// Позиции и timeline удаляются каскадом по FK.
	if _, err := r.q.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return domain.Order{}, fmt.Errorf("delete order: %w", err)
	}

	return deleted, nil
}

func (r *orderRepository) List(ctx context.Context, q domain.OrderQuery) ([]domain.Order, int, error) {
	conds := make([]string, 0, 4)
	args := make([]any, 0, 4)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.ClientID != 0 {
		conds = append(conds, "client_id = "+arg(q.ClientID))
	}
	if q.Status != nil {
		conds = append(conds, "status = "+arg(string(*q.Status)))
	} else {
		// Корзины в общие выборки не попадают.
		conds = append(conds, "status <> "+arg(string(domain.OrderStatusCart)))
	}
	if q.StartDate != nil {
		conds = append(conds, "order_date >= "+arg(*q.StartDate))
	}
	if q.EndDate != nil {
		conds = append(conds, "order_date <= "+arg(*q.EndDate))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.q.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM orders %s`, where), args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = domain.PageSize
	}

	query := fmt.Sprintf(`
		SELECT id, client_id, status, total_minor, order_date, updated_at
		FROM orders
		%s
		ORDER BY id
		OFFSET %s LIMIT %s
	`, where, arg(q.Offset), arg(limit))

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	for i := range orders {
		items, err := r.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, 0, err
		}
		orders[i].Items = items
	}

	return orders, total, nil
}

func (r *orderRepository) DeleteStaleCarts(ctx context.Context, before time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}

	res, err := r.q.ExecContext(ctx, `
		DELETE FROM orders
		WHERE id IN (
			SELECT id FROM orders
			WHERE status = $1
			  AND order_date < $2
			ORDER BY id
			LIMIT $3
		)
	`, string(domain.OrderStatusCart), before, limit)
	if err != nil {
		return 0, fmt.Errorf("delete stale carts: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(affected), nil
}

func (r *orderRepository) insertItem(ctx context.Context, item *domain.OrderItem) error {
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price_minor, subtotal_minor)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id
	`,
		item.OrderID, item.ProductID, item.Quantity, item.UnitPriceMinor, item.SubtotalMinor,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("insert order item: %w", err)
	}
	return nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price_minor, subtotal_minor
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID,
			&item.Quantity, &item.UnitPriceMinor, &item.SubtotalMinor,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

func (r *orderRepository) scanOne(row *sql.Row) (domain.Order, error) {
	var (
		order  domain.Order
		status string
	)
	err := row.Scan(&order.ID, &order.ClientID, &status, &order.TotalMinor, &order.OrderDate, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}
	order.Status = domain.OrderStatus(status)
	return order, nil
}

func (r *orderRepository) scanRow(rows *sql.Rows) (domain.Order, error) {
	var (
		order  domain.Order
		status string
	)
	if err := rows.Scan(&order.ID, &order.ClientID, &status, &order.TotalMinor, &order.OrderDate, &order.UpdatedAt); err != nil {
		return domain.Order{}, fmt.Errorf("scan order row: %w", err)
	}
	order.Status = domain.OrderStatus(status)
	return order, nil
}
