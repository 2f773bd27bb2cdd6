package memory

import (
	"context"
	"sort"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// orderRepository — in-memory реализация OrderRepository.
type orderRepository struct {
	s *Store
}

// Create сохраняет новый заказ вместе с позициями, присваивая идентификаторы.
func (r *orderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	unlock := r.s.lock()
	defer unlock()

	order.ID = r.s.data.nextID("orders")
	now := r.s.now()
	if order.OrderDate.IsZero() {
		order.OrderDate = now
	}
	order.UpdatedAt = now
	for i := range order.Items {
		order.Items[i].ID = r.s.data.nextID("order_items")
		order.Items[i].OrderID = order.ID
	}

	r.s.data.orders[order.ID] = cloneOrder(order)
	return cloneOrder(order), nil
}

// Get возвращает заказ с позициями или ErrOrderNotFound.
func (r *orderRepository) Get(ctx context.Context, id int64) (domain.Order, error) {
	unlock := r.s.rlock()
	defer unlock()

	order, ok := r.s.data.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// FindCart возвращает активную корзину клиента или ErrCartNotFound.
func (r *orderRepository) FindCart(ctx context.Context, clientID int64) (domain.Order, error) {
	unlock := r.s.rlock()
	defer unlock()

	var found *domain.Order
	for id := range r.s.data.orders {
		order := r.s.data.orders[id]
		if order.ClientID != clientID || order.Status != domain.OrderStatusCart {
			continue
		}
		// По инварианту корзина одна; при нарушении берём самую раннюю.
		if found == nil || order.ID < found.ID {
			cp := cloneOrder(order)
			found = &cp
		}
	}
	if found == nil {
		return domain.Order{}, domain.ErrCartNotFound
	}
	return *found, nil
}

// Save перезаписывает статус, сумму и набор позиций заказа.
func (r *orderRepository) Save(ctx context.Context, order domain.Order) (domain.Order, error) {
	unlock := r.s.lock()
	defer unlock()

	if _, ok := r.s.data.orders[order.ID]; !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	for i := range order.Items {
		if order.Items[i].ID == 0 {
			order.Items[i].ID = r.s.data.nextID("order_items")
		}
		order.Items[i].OrderID = order.ID
	}
	order.UpdatedAt = r.s.now()

	r.s.data.orders[order.ID] = cloneOrder(order)
	return cloneOrder(order), nil
}

// Delete удаляет заказ (позиции уходят вместе с ним) и возвращает запись.
func (r *orderRepository) Delete(ctx context.Context, id int64) (domain.Order, error) {
	unlock := r.s.lock()
	defer unlock()

	order, ok := r.s.data.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	delete(r.s.data.orders, id)
	delete(r.s.data.timeline, id)
	return cloneOrder(order), nil
}

// List возвращает страницу заказов по фильтру и общее число записей.
func (r *orderRepository) List(ctx context.Context, q domain.OrderQuery) ([]domain.Order, int, error) {
	unlock := r.s.rlock()
	defer unlock()

	matched := make([]domain.Order, 0, len(r.s.data.orders))
	for id := range r.s.data.orders {
		order := r.s.data.orders[id]
		if !matchesQuery(order, q) {
			continue
		}
		matched = append(matched, cloneOrder(order))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	if q.Offset >= total {
		return []domain.Order{}, total, nil
	}
	end := q.Offset + q.Limit
	if q.Limit <= 0 || end > total {
		end = total
	}
	return matched[q.Offset:end], total, nil
}

func matchesQuery(order domain.Order, q domain.OrderQuery) bool {
	if q.ClientID != 0 && order.ClientID != q.ClientID {
		return false
	}
	if q.Status != nil {
		if order.Status != *q.Status {
			return false
		}
	} else if order.Status == domain.OrderStatusCart {
		// Без явного фильтра корзины в выборку не попадают.
		return false
	}
	if q.StartDate != nil && order.OrderDate.Before(*q.StartDate) {
		return false
	}
	if q.EndDate != nil && order.OrderDate.After(*q.EndDate) {
		return false
	}
	return true
}

// DeleteStaleCarts удаляет корзины, созданные раньше before.
func (r *orderRepository) DeleteStaleCarts(ctx context.Context, before time.Time, limit int) (int, error) {
	unlock := r.s.lock()
	defer unlock()

	stale := make([]int64, 0)
	for id := range r.s.data.orders {
		order := r.s.data.orders[id]
		if order.Status == domain.OrderStatusCart && order.OrderDate.Before(before) {
			stale = append(stale, id)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i] < stale[j] })

	if limit > 0 && len(stale) > limit {
		stale = stale[:limit]
	}
	for _, id := range stale {
		delete(r.s.data.orders, id)
		delete(r.s.data.timeline, id)
	}
	return len(stale), nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
