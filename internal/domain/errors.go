package domain

import "errors"

var (
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrCartNotFound возвращается, если у клиента нет активной корзины.
	ErrCartNotFound = errors.New("cart not found")
	// ErrCartItemNotFound возвращается, если позиции с таким товаром нет в корзине.
	ErrCartItemNotFound = errors.New("item not found in cart")
	// ErrProductNotFound возвращается, если товар отсутствует в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrClientNotFound возвращается, если профиль клиента не найден.
	ErrClientNotFound = errors.New("client profile not found")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")

	// ErrForbidden — у актора нет прав на ресурс или действие.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials — неверная пара email/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken — пользователь с таким email уже зарегистрирован.
	ErrEmailTaken = errors.New("email already registered")
	// ErrClientExists — профиль клиента для этого пользователя уже создан.
	ErrClientExists = errors.New("client already exists for this user")

	// ErrInsufficientStock — остатка товара не хватает для запрошенного количества.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidStatus — недопустимое значение статуса заказа.
	ErrInvalidStatus = errors.New("invalid status value")
	// ErrInvalidQuantity — количество должно быть больше нуля.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	// ErrEmptyOrder — заказ должен содержать хотя бы одну позицию.
	ErrEmptyOrder = errors.New("order must contain at least one item")
	// ErrNegativeStock — остаток товара не может быть отрицательным.
	ErrNegativeStock = errors.New("stock cannot be negative")
	// ErrNegativePrice — цена товара не может быть отрицательной.
	ErrNegativePrice = errors.New("price cannot be negative")
	// ErrInvalidInput — обязательное поле отсутствует или имеет недопустимое значение.
	ErrInvalidInput = errors.New("invalid input")

	// Ошибки инвариантов заказа.
	ErrClientRequired   = errors.New("client_id is required")
	ErrTotalNegative    = errors.New("total must be non-negative")
	ErrItemQtyInvalid   = errors.New("item quantity must be greater than zero")
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	ErrSubtotalMismatch = errors.New("item subtotal does not match quantity * unit price")
	ErrTotalMismatch    = errors.New("order total does not match items sum")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsNotFound проверяет, относится ли ошибка к классу «ресурс не найден».
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrCartNotFound) ||
		errors.Is(err, ErrCartItemNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrClientNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsForbidden проверяет, относится ли ошибка к классу «доступ запрещён».
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsInvalid проверяет, относится ли ошибка к классу «некорректный запрос».
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrEmptyOrder) ||
		errors.Is(err, ErrNegativeStock) ||
		errors.Is(err, ErrNegativePrice) ||
		errors.Is(err, ErrInvalidInput)
}

// IsConflict проверяет, относится ли ошибка к классу «конфликт состояния».
func IsConflict(err error) bool {
	return errors.Is(err, ErrEmailTaken) || errors.Is(err, ErrClientExists)
}
