package domain

import "time"

// OrderStatus описывает жизненный цикл заказа в магазине.
type OrderStatus string

const (
	// OrderStatusCart — черновик заказа: активная корзина клиента.
	OrderStatusCart OrderStatus = "CART"
	// OrderStatusOrdered — заказ оформлен (checkout выполнен).
	OrderStatusOrdered OrderStatus = "ORDERED"
	// OrderStatusPreparing — заказ собирается на складе, сток списан.
	OrderStatusPreparing OrderStatus = "PREPARING"
	// OrderStatusShipped — заказ передан в доставку.
	OrderStatusShipped OrderStatus = "SHIPPED"
	// OrderStatusDelivered — заказ доставлен клиенту.
	OrderStatusDelivered OrderStatus = "DELIVERED"
	// OrderStatusReceived — клиент подтвердил получение.
	OrderStatusReceived OrderStatus = "RECEIVED"
	// OrderStatusCanceled — заказ отменён.
	OrderStatusCanceled OrderStatus = "CANCELED"
)

// OrderItem представляет одну позицию заказа.
type OrderItem struct {
	ID      int64
	OrderID int64
	// ProductID — ссылка на товар каталога (заказ им не владеет).
	ProductID int64
	// Quantity — количество единиц товара, всегда >= 1 пока позиция существует.
	Quantity int32
	// UnitPriceMinor — снимок цены товара на момент добавления, в минимальных
	// денежных единицах. Не меняется при последующих изменениях цены каталога.
	UnitPriceMinor int64
	// SubtotalMinor = Quantity * UnitPriceMinor.
	SubtotalMinor int64
}

// Order агрегирует состояние заказа и его позиции.
// Заказ со статусом CART — это активная корзина клиента; у клиента
// в любой момент существует не более одной такой записи.
type Order struct {
	ID       int64
	ClientID int64
	Status   OrderStatus
	// TotalMinor всегда равен сумме SubtotalMinor всех позиций.
	TotalMinor int64
	OrderDate  time.Time
	UpdatedAt  time.Time
	Items      []OrderItem
}

// RecalculateTotal пересчитывает сумму заказа по текущим позициям.
func (o *Order) RecalculateTotal() {
	var total int64
	for _, item := range o.Items {
		total += item.SubtotalMinor
	}
	o.TotalMinor = total
}

// FindItem возвращает позицию по productID или nil, если её нет.
func (o *Order) FindItem(productID int64) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			return &o.Items[i]
		}
	}
	return nil
}

// IsCart сообщает, является ли заказ черновиком-корзиной.
func (o *Order) IsCart() bool {
	return o.Status == OrderStatusCart
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.ClientID == 0 {
		errs = append(errs, ErrClientRequired)
	}
	if o.TotalMinor < 0 {
		errs = append(errs, ErrTotalNegative)
	}

	// Сверяем сумму заказа с суммой позиций: qty * unit price.
	var calc int64
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.UnitPriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
		if item.SubtotalMinor != int64(item.Quantity)*item.UnitPriceMinor {
			errs = append(errs, ErrSubtotalMismatch)
		}
		calc += item.SubtotalMinor
	}
	if calc != o.TotalMinor {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}
