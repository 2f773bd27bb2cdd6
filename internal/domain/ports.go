package domain

import (
	"context"
	"time"
)

// Store объединяет репозитории хранилища и транзакционное выполнение.
type Store interface {
	Users() UserRepository
	Clients() ClientRepository
	Products() ProductRepository
	Orders() OrderRepository
	Outbox() OutboxRepository
	Timeline() TimelineRepository

	// WithinTx выполняет fn в рамках одной атомарной транзакции: либо все
	// изменения, сделанные через переданный tx, фиксируются вместе, либо
	// ни одно из них. Вложенный вызов присоединяется к внешней транзакции.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// UserRepository описывает требования к хранилищу пользователей.
type UserRepository interface {
	// Create сохраняет нового пользователя. Возвращает ErrEmailTaken,
	// если email уже занят.
	Create(ctx context.Context, user User) (User, error)
	// Get возвращает пользователя по идентификатору или ErrUserNotFound.
	Get(ctx context.Context, id int64) (User, error)
	// GetByEmail возвращает пользователя по email или ErrUserNotFound.
	GetByEmail(ctx context.Context, email string) (User, error)
}

// ClientRepository описывает требования к хранилищу профилей клиентов.
type ClientRepository interface {
	// Create сохраняет профиль. Возвращает ErrClientExists, если профиль
	// для этого пользователя уже есть.
	Create(ctx context.Context, client Client) (Client, error)
	// Get возвращает профиль по идентификатору или ErrClientNotFound.
	Get(ctx context.Context, id int64) (Client, error)
	// GetByUserID возвращает профиль по пользователю или ErrClientNotFound.
	GetByUserID(ctx context.Context, userID int64) (Client, error)
	List(ctx context.Context) ([]Client, error)
	Update(ctx context.Context, client Client) (Client, error)
	// Delete удаляет профиль и возвращает удалённую запись.
	Delete(ctx context.Context, id int64) (Client, error)
}

// ProductRepository описывает требования к каталогу товаров.
type ProductRepository interface {
	Create(ctx context.Context, product Product) (Product, error)
	// Get возвращает товар или ErrProductNotFound.
	Get(ctx context.Context, id int64) (Product, error)
	// ListByIDs возвращает найденные товары; отсутствующие id просто
	// не попадают в результат, проверка полноты — на вызывающей стороне.
	ListByIDs(ctx context.Context, ids []int64) ([]Product, error)
	// List возвращает страницу каталога (сортировка по id) и общее число товаров.
	List(ctx context.Context, offset, limit int) ([]Product, int, error)
	Update(ctx context.Context, product Product) (Product, error)
	Delete(ctx context.Context, id int64) (Product, error)
	// AdjustStock атомарно меняет остаток на delta. Возвращает
	// ErrInsufficientStock, если остаток ушёл бы в минус; проверка и
	// изменение сериализуются по строке товара.
	AdjustStock(ctx context.Context, id int64, delta int32) (Product, error)
}

// OrderQuery задаёт фильтр выборки заказов.
type OrderQuery struct {
	// ClientID сужает выборку до заказов одного клиента (0 — все клиенты).
	ClientID int64
	// Status — явный фильтр по статусу; nil означает «все, кроме CART».
	Status *OrderStatus
	// StartDate/EndDate — включительные границы по OrderDate.
	StartDate *time.Time
	EndDate   *time.Time
	Offset    int
	Limit     int
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ вместе с позициями и возвращает запись
	// с присвоенными идентификаторами.
	Create(ctx context.Context, order Order) (Order, error)
	// Get возвращает заказ с позициями или ErrOrderNotFound.
	Get(ctx context.Context, id int64) (Order, error)
	// FindCart возвращает единственный заказ клиента со статусом CART
	// или ErrCartNotFound.
	FindCart(ctx context.Context, clientID int64) (Order, error)
	// Save перезаписывает статус, сумму и позиции заказа: отсутствующие в
	// переданном наборе позиции удаляются, новые (ID == 0) создаются.
	Save(ctx context.Context, order Order) (Order, error)
	// Delete удаляет заказ вместе с позициями и возвращает удалённую запись.
	Delete(ctx context.Context, id int64) (Order, error)
	// List возвращает страницу заказов (сортировка по id по возрастанию)
	// и общее число записей, удовлетворяющих фильтру.
	List(ctx context.Context, q OrderQuery) ([]Order, int, error)
	// DeleteStaleCarts удаляет корзины старше before, не более limit за вызов.
	DeleteStaleCarts(ctx context.Context, before time.Time, limit int) (int, error)
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(ctx context.Context, msg OutboxMessage) (OutboxMessage, error)
	PullPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	Stats(ctx context.Context) (OutboxStats, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// TimelineRepository хранит события жизненного цикла заказа.
type TimelineRepository interface {
	Append(ctx context.Context, event TimelineEvent) error
	List(ctx context.Context, orderID int64) ([]TimelineEvent, error)
}
