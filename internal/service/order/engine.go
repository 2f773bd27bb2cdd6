package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/metrics"
)

const (
	timelineEventStatusChanged = "OrderStatusChanged"
	timelineEventOrderPlaced   = "OrderPlaced"

	eventOrderCreated       = "order.created"
	eventCartCheckedOut     = "cart.checked_out"
	eventOrderStatusChanged = "order.status_changed"
	eventOrderDeleted       = "order.deleted"
)

// ItemRequest — запрошенная позиция: товар и количество.
type ItemRequest struct {
	ProductID int64
	Quantity  int32
}

// ListFilter задаёт параметры выборки заказов.
type ListFilter struct {
	// Page — номер страницы, начиная с 1.
	Page int
	// Status — явный фильтр статуса; nil означает «все, кроме CART».
	Status *domain.OrderStatus
	// StartDate/EndDate — включительные границы по дате заказа;
	// EndDate расширяется до конца дня.
	StartDate *time.Time
	EndDate   *time.Time
}

// RemovalResult описывает исход удаления из корзины: либо обновлённая
// корзина, либо признак того, что опустевшая корзина удалена целиком.
type RemovalResult struct {
	Cart    *domain.Order
	Deleted bool
	Message string
}

// Engine владеет бизнес-правилами корзины и заказов: мутации корзины,
// checkout со списанием стока, переходы статусов и выборки.
// Все операции принимают явный Principal, никакого неявного
// request-scoped состояния.
type Engine struct {
	store   domain.Store
	logger  *log.Entry
	metrics *metrics.OrderMetrics
	now     func() time.Time
}

// NewEngine создаёт движок заказов с метриками.
func NewEngine(store domain.Store, logger *log.Entry) *Engine {
	if logger == nil {
		logger = log.New().WithField("component", "order-engine")
	}
	return &Engine{
		store:   store,
		logger:  logger,
		metrics: metrics.NewOrderMetrics(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// NewEngineWithoutMetrics создаёт движок без метрик (для тестов).
func NewEngineWithoutMetrics(store domain.Store, logger *log.Entry) *Engine {
	engine := NewEngine(store, logger)
	engine.metrics = nil
	return engine
}

// resolveClient возвращает профиль клиента действующего актора.
// Операции корзины доступны только роли CLIENT.
func (e *Engine) resolveClient(ctx context.Context, p domain.Principal) (domain.Client, error) {
	if p.Role != domain.RoleClient {
		return domain.Client{}, fmt.Errorf("%w: only clients can access this", domain.ErrForbidden)
	}
	return e.store.Clients().GetByUserID(ctx, p.ID)
}

// loadProducts проверяет запрошенные позиции и возвращает товары по id.
// Отсутствующий товар — ErrProductNotFound с первым пропавшим id.
func (e *Engine) loadProducts(ctx context.Context, store domain.Store, items []ItemRequest) (map[int64]domain.Product, error) {
	if len(items) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	ids := make([]int64, 0, len(items))
	seen := make(map[int64]bool, len(items))
	for _, req := range items {
		if req.Quantity < 1 {
			return nil, fmt.Errorf("%w: product %d", domain.ErrInvalidQuantity, req.ProductID)
		}
		if !seen[req.ProductID] {
			seen[req.ProductID] = true
			ids = append(ids, req.ProductID)
		}
	}

	found, err := store.Products().ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	byID := make(map[int64]domain.Product, len(found))
	for _, product := range found {
		byID[product.ID] = product
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("%w: product %d", domain.ErrProductNotFound, id)
		}
	}
	return byID, nil
}

// priceItems превращает запрошенные позиции в строки заказа, снимая
// текущую цену каталога.
func priceItems(items []ItemRequest, products map[int64]domain.Product) []domain.OrderItem {
	result := make([]domain.OrderItem, 0, len(items))
	for _, req := range items {
		product := products[req.ProductID]
		result = append(result, domain.OrderItem{
			ProductID:      product.ID,
			Quantity:       req.Quantity,
			UnitPriceMinor: product.PriceMinor,
			SubtotalMinor:  int64(req.Quantity) * product.PriceMinor,
		})
	}
	return result
}

// Create оформляет заказ напрямую, минуя корзину: статус сразу ORDERED,
// сток на этом пути не списывается (резерв — при переходе в PREPARING).
func (e *Engine) Create(ctx context.Context, p domain.Principal, items []ItemRequest) (domain.Order, error) {
	client, err := e.resolveClient(ctx, p)
	if err != nil {
		return domain.Order{}, err
	}

	var created domain.Order
	err = e.store.WithinTx(ctx, func(tx domain.Store) error {
		products, err := e.loadProducts(ctx, tx, items)
		if err != nil {
			return err
		}

		order := domain.Order{
			ClientID:  client.ID,
			Status:    domain.OrderStatusOrdered,
			OrderDate: e.now(),
			Items:     priceItems(items, products),
		}
		order.RecalculateTotal()

		created, err = tx.Orders().Create(ctx, order)
		if err != nil {
			return err
		}
		if err := e.appendTimeline(ctx, tx, domain.TimelineEvent{
			OrderID:  created.ID,
			Type:     timelineEventOrderPlaced,
			ToStatus: domain.OrderStatusOrdered,
			Occurred: e.now(),
		}); err != nil {
			return err
		}
		return e.enqueueEvent(ctx, tx, created, eventOrderCreated)
	})
	if err != nil {
		return domain.Order{}, err
	}

	e.logger.WithFields(log.Fields{
		"order_id":  created.ID,
		"client_id": created.ClientID,
		"total":     created.TotalMinor,
	}).Info("order placed")
	return created, nil
}

// AddToCart добавляет позиции в активную корзину клиента, создавая её
// при необходимости. Существующая строка увеличивается на запрошенное
// количество, подытог пересчитывается по сохранённой снимочной цене.
func (e *Engine) AddToCart(ctx context.Context, p domain.Principal, items []ItemRequest) (domain.Order, error) {
	client, err := e.resolveClient(ctx, p)
	if err != nil {
		return domain.Order{}, err
	}

	var cartID int64
	err = e.store.WithinTx(ctx, func(tx domain.Store) error {
		products, err := e.loadProducts(ctx, tx, items)
		if err != nil {
			return err
		}
		// Запрошенное количество сверяется с текущим остатком; накопленный
		// объём корзины проверяется в точках фиксации (checkout/PREPARING).
		for _, req := range items {
			product := products[req.ProductID]
			if req.Quantity > product.Stock {
				e.recordStockRejection()
				return fmt.Errorf("%w for product %s", domain.ErrInsufficientStock, product.Name)
			}
		}

		cart, err := tx.Orders().FindCart(ctx, client.ID)
		if errors.Is(err, domain.ErrCartNotFound) {
			order := domain.Order{
				ClientID:  client.ID,
				Status:    domain.OrderStatusCart,
				OrderDate: e.now(),
				Items:     priceItems(items, products),
			}
			order.RecalculateTotal()
			created, err := tx.Orders().Create(ctx, order)
			if err != nil {
				return err
			}
			cartID = created.ID
			if e.metrics != nil {
				e.metrics.RecordCartCreated()
			}
			return nil
		}
		if err != nil {
			return err
		}

		for _, req := range items {
			product := products[req.ProductID]
			if line := cart.FindItem(req.ProductID); line != nil {
				line.Quantity += req.Quantity
				line.SubtotalMinor = int64(line.Quantity) * line.UnitPriceMinor
			} else {
				cart.Items = append(cart.Items, domain.OrderItem{
					OrderID:        cart.ID,
					ProductID:      product.ID,
					Quantity:       req.Quantity,
					UnitPriceMinor: product.PriceMinor,
					SubtotalMinor:  int64(req.Quantity) * product.PriceMinor,
				})
			}
		}
		cart.RecalculateTotal()

		saved, err := tx.Orders().Save(ctx, cart)
		if err != nil {
			return err
		}
		cartID = saved.ID
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	return e.store.Orders().Get(ctx, cartID)
}

// GetCart возвращает активную корзину клиента с позициями.
func (e *Engine) GetCart(ctx context.Context, p domain.Principal) (domain.Order, error) {
	client, err := e.resolveClient(ctx, p)
	if err != nil {
		return domain.Order{}, err
	}
	return e.store.Orders().FindCart(ctx, client.ID)
}

// RemoveFromCart уменьшает количество товара в корзине или удаляет строку.
// Опустевшая корзина удаляется целиком, о чём сообщает RemovalResult.
func (e *Engine) RemoveFromCart(ctx context.Context, p domain.Principal, productID int64, quantityToRemove int32) (RemovalResult, error) {
	if quantityToRemove <= 0 {
		return RemovalResult{}, fmt.Errorf("%w: quantity to remove must be greater than zero", domain.ErrInvalidQuantity)
	}

	client, err := e.resolveClient(ctx, p)
	if err != nil {
		return RemovalResult{}, err
	}

	var result RemovalResult
	err = e.store.WithinTx(ctx, func(tx domain.Store) error {
		cart, err := tx.Orders().FindCart(ctx, client.ID)
		if err != nil {
			return err
		}

		line := cart.FindItem(productID)
		if line == nil {
			return domain.ErrCartItemNotFound
		}

		if quantityToRemove >= line.Quantity {
			remaining := cart.Items[:0]
			for _, item := range cart.Items {
				if item.ProductID != productID {
					remaining = append(remaining, item)
				}
			}
			cart.Items = remaining
		} else {
			line.Quantity -= quantityToRemove
			// Подытог пересчитывается по снимочной цене строки, не по
			// текущей цене каталога.
			line.SubtotalMinor = int64(line.Quantity) * line.UnitPriceMinor
		}

		if len(cart.Items) == 0 {
			if _, err := tx.Orders().Delete(ctx, cart.ID); err != nil {
				return err
			}
			if e.metrics != nil {
				e.metrics.RecordCartDeleted()
			}
			result = RemovalResult{
				Deleted: true,
				Message: "Item removed successfully. Cart is now empty and has been deleted.",
			}
			return nil
		}

		cart.RecalculateTotal()
		saved, err := tx.Orders().Save(ctx, cart)
		if err != nil {
			return err
		}
		result = RemovalResult{Cart: &saved}
		return nil
	})
	if err != nil {
		return RemovalResult{}, err
	}
	return result, nil
}

// Checkout переводит корзину в ORDERED, списывая сток по каждой позиции.
// Либо все списания и смена статуса фиксируются вместе, либо ничего:
// одна недостаточная позиция отменяет весь checkout.
func (e *Engine) Checkout(ctx context.Context, p domain.Principal) (domain.Order, error) {
	start := time.Now()
	if e.metrics != nil {
		e.metrics.RecordCheckoutStarted()
		defer func() {
			e.metrics.RecordCheckoutDuration(time.Since(start))
		}()
	}

	client, err := e.resolveClient(ctx, p)
	if err != nil {
		e.recordCheckoutFailed()
		return domain.Order{}, err
	}

	var finished domain.Order
	err = e.store.WithinTx(ctx, func(tx domain.Store) error {
		cart, err := tx.Orders().FindCart(ctx, client.ID)
		if err != nil {
			return err
		}

		if err := e.deductStock(ctx, tx, cart.Items); err != nil {
			return err
		}

		from := cart.Status
		cart.Status = domain.OrderStatusOrdered
		finished, err = tx.Orders().Save(ctx, cart)
		if err != nil {
			return err
		}
		if err := e.appendTimeline(ctx, tx, domain.TimelineEvent{
			OrderID:    finished.ID,
			Type:       timelineEventStatusChanged,
			FromStatus: from,
			ToStatus:   domain.OrderStatusOrdered,
			Occurred:   e.now(),
		}); err != nil {
			return err
		}
		return e.enqueueEvent(ctx, tx, finished, eventCartCheckedOut)
	})
	if err != nil {
		e.recordCheckoutFailed()
		return domain.Order{}, err
	}

	if e.metrics != nil {
		e.metrics.RecordCheckoutCompleted()
	}
	e.logger.WithFields(log.Fields{
		"order_id":  finished.ID,
		"client_id": finished.ClientID,
		"total":     finished.TotalMinor,
	}).Info("cart checked out")
	return finished, nil
}

// UpdateStatus — общий переход статуса заказа. Роль определяет
// допустимые целевые статусы; переход в PREPARING дополнительно
// списывает сток по всем позициям атомарно.
func (e *Engine) UpdateStatus(ctx context.Context, p domain.Principal, orderID int64, target domain.OrderStatus) (domain.Order, error) {
	order, err := e.store.Orders().Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	if p.Role == domain.RoleClient {
		client, err := e.store.Clients().GetByUserID(ctx, p.ID)
		if err != nil {
			return domain.Order{}, err
		}
		if order.ClientID != client.ID {
			return domain.Order{}, fmt.Errorf("%w: cannot access other client orders", domain.ErrForbidden)
		}
	}

	if err := domain.ValidateTransition(p.Role, target); err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return domain.Order{}, fmt.Errorf("%w: clients cannot set this status", domain.ErrForbidden)
		}
		return domain.Order{}, err
	}

	var updated domain.Order
	err = e.store.WithinTx(ctx, func(tx domain.Store) error {
		current, err := tx.Orders().Get(ctx, orderID)
		if err != nil {
			return err
		}

		if target == domain.OrderStatusPreparing {
			if err := e.deductStock(ctx, tx, current.Items); err != nil {
				return err
			}
		}

		from := current.Status
		current.Status = target
		updated, err = tx.Orders().Save(ctx, current)
		if err != nil {
			return err
		}
		if err := e.appendTimeline(ctx, tx, domain.TimelineEvent{
			OrderID:    updated.ID,
			Type:       timelineEventStatusChanged,
			FromStatus: from,
			ToStatus:   target,
			Occurred:   e.now(),
		}); err != nil {
			return err
		}
		return e.enqueueEvent(ctx, tx, updated, eventOrderStatusChanged)
	})
	if err != nil {
		return domain.Order{}, err
	}

	if e.metrics != nil {
		e.metrics.RecordStatusChange(string(target))
	}
	e.logger.WithFields(log.Fields{
		"order_id": updated.ID,
		"status":   updated.Status,
		"actor":    p.Role,
	}).Info("order status updated")
	return updated, nil
}

// FindOne возвращает заказ с позициями. Клиент видит только собственные
// заказы; администратор и вызов без контекста — любые.
func (e *Engine) FindOne(ctx context.Context, p *domain.Principal, orderID int64) (domain.Order, error) {
	order, err := e.store.Orders().Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	if p != nil && p.Role == domain.RoleClient {
		client, err := e.store.Clients().GetByUserID(ctx, p.ID)
		if err != nil {
			return domain.Order{}, err
		}
		if order.ClientID != client.ID {
			return domain.Order{}, fmt.Errorf("%w: cannot access other client orders", domain.ErrForbidden)
		}
	}
	return order, nil
}

// FindAll возвращает страницу заказов. Администратор видит все заказы
// кроме корзин (если не задан явный фильтр статуса), клиент — только свои.
func (e *Engine) FindAll(ctx context.Context, p domain.Principal, filter ListFilter) (domain.OrderPage, error) {
	if filter.Status != nil && !domain.KnownStatus(*filter.Status) {
		return domain.OrderPage{}, domain.ErrInvalidStatus
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}

	q := domain.OrderQuery{
		Status:    filter.Status,
		StartDate: filter.StartDate,
		Offset:    (page - 1) * domain.PageSize,
		Limit:     domain.PageSize,
	}
	if filter.EndDate != nil {
		end := endOfDay(*filter.EndDate)
		q.EndDate = &end
	}

	if p.Role == domain.RoleClient {
		client, err := e.store.Clients().GetByUserID(ctx, p.ID)
		if err != nil {
			return domain.OrderPage{}, err
		}
		q.ClientID = client.ID
	}

	orders, total, err := e.store.Orders().List(ctx, q)
	if err != nil {
		return domain.OrderPage{}, err
	}
	return domain.OrderPage{
		Data: orders,
		Meta: domain.NewPageMeta(total, len(orders), page),
	}, nil
}

// Remove удаляет заказ. Доступно только администратору; проверка роли
// выполняется раньше проверки существования.
func (e *Engine) Remove(ctx context.Context, p domain.Principal, orderID int64) (domain.Order, error) {
	if !p.IsAdmin() {
		return domain.Order{}, fmt.Errorf("%w: only admins can delete orders", domain.ErrForbidden)
	}

	var deleted domain.Order
	err := e.store.WithinTx(ctx, func(tx domain.Store) error {
		var err error
		deleted, err = tx.Orders().Delete(ctx, orderID)
		if err != nil {
			return err
		}
		return e.enqueueEvent(ctx, tx, deleted, eventOrderDeleted)
	})
	if err != nil {
		return domain.Order{}, err
	}

	if e.metrics != nil {
		e.metrics.RecordOrderDeleted()
	}
	e.logger.WithField("order_id", deleted.ID).Info("order deleted")
	return deleted, nil
}

// History возвращает события жизненного цикла заказа с теми же правами
// доступа, что и FindOne.
func (e *Engine) History(ctx context.Context, p *domain.Principal, orderID int64) ([]domain.TimelineEvent, error) {
	if _, err := e.FindOne(ctx, p, orderID); err != nil {
		return nil, err
	}
	return e.store.Timeline().List(ctx, orderID)
}

// deductStock перечитывает каждый товар и списывает запрошенное
// количество. Вызывается только внутри транзакции: частичные списания
// откатываются вместе с ней.
func (e *Engine) deductStock(ctx context.Context, tx domain.Store, items []domain.OrderItem) error {
	for _, item := range items {
		product, err := tx.Products().Get(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				return fmt.Errorf("%w: product %d", domain.ErrProductNotFound, item.ProductID)
			}
			return err
		}
		if product.Stock < item.Quantity {
			e.recordStockRejection()
			return fmt.Errorf("%w for product %s", domain.ErrInsufficientStock, product.Name)
		}
		if _, err := tx.Products().AdjustStock(ctx, product.ID, -item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// orderEventPayload — тело события заказа для outbox.
type orderEventPayload struct {
	OrderID    int64     `json:"order_id"`
	ClientID   int64     `json:"client_id"`
	Status     string    `json:"status"`
	TotalMinor int64     `json:"total_minor"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e *Engine) enqueueEvent(ctx context.Context, tx domain.Store, order domain.Order, eventType string) error {
	payload, err := json.Marshal(orderEventPayload{
		OrderID:    order.ID,
		ClientID:   order.ClientID,
		Status:     string(order.Status),
		TotalMinor: order.TotalMinor,
		OccurredAt: e.now(),
	})
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	_, err = tx.Outbox().Enqueue(ctx, domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   strconv.FormatInt(order.ID, 10),
		EventType:     eventType,
		Payload:       payload,
	})
	if err != nil {
		return fmt.Errorf("enqueue order event: %w", err)
	}
	if e.metrics != nil {
		e.metrics.RecordOutboxEvent()
	}
	return nil
}

func (e *Engine) appendTimeline(ctx context.Context, tx domain.Store, event domain.TimelineEvent) error {
	if err := tx.Timeline().Append(ctx, event); err != nil {
		return err
	}
	if e.metrics != nil {
		e.metrics.RecordTimelineEvent()
	}
	return nil
}

func (e *Engine) recordCheckoutFailed() {
	if e.metrics != nil {
		e.metrics.RecordCheckoutFailed()
	}
}

func (e *Engine) recordStockRejection() {
	if e.metrics != nil {
		e.metrics.RecordStockRejection()
	}
}

// endOfDay расширяет дату до включительной границы конца дня.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}
