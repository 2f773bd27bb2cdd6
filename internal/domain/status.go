package domain

// managedStatuses — статусы, доступные через общий переход update.
// CART в эту таблицу не входит: корзина создаётся и закрывается
// только операциями самой корзины.
var managedStatuses = map[OrderStatus]bool{
	OrderStatusOrdered:   true,
	OrderStatusPreparing: true,
	OrderStatusShipped:   true,
	OrderStatusDelivered: true,
	OrderStatusReceived:  true,
	OrderStatusCanceled:  true,
}

// clientStatuses — статусы, которые клиент может установить на собственном заказе.
var clientStatuses = map[OrderStatus]bool{
	OrderStatusReceived: true,
	OrderStatusCanceled: true,
}

// ValidateTransition проверяет, может ли роль установить целевой статус.
// Для клиента недопустимый статус — это запрет (ErrForbidden), для
// администратора — некорректное значение (ErrInvalidStatus).
func ValidateTransition(role Role, target OrderStatus) error {
	switch role {
	case RoleClient:
		if !clientStatuses[target] {
			return ErrForbidden
		}
		return nil
	case RoleAdmin:
		if !managedStatuses[target] {
			return ErrInvalidStatus
		}
		return nil
	default:
		return ErrForbidden
	}
}

// KnownStatus сообщает, является ли значение одним из статусов жизненного цикла.
func KnownStatus(status OrderStatus) bool {
	return status == OrderStatusCart || managedStatuses[status]
}
