package domain

import "time"

// Role задаёт роль пользователя в системе.
type Role string

const (
	// RoleAdmin — администратор магазина: управление каталогом и заказами.
	RoleAdmin Role = "ADMIN"
	// RoleClient — покупатель: корзина и собственные заказы.
	RoleClient Role = "CLIENT"
)

// KnownRole сообщает, является ли значение поддерживаемой ролью.
func KnownRole(role Role) bool {
	return role == RoleAdmin || role == RoleClient
}

// User — учётная запись с данными для входа.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Principal — аутентифицированный актор, от имени которого выполняется операция.
// Неизменяемое значение, передаётся аргументом во все операции движка,
// никакого неявного request-scoped состояния.
type Principal struct {
	ID   int64
	Role Role
}

// IsAdmin сообщает, действует ли актор с правами администратора.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
