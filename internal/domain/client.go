package domain

import "time"

// Client — профиль покупателя, связанный 1:1 с пользователем.
type Client struct {
	ID       int64
	UserID   int64
	FullName string
	Contact  string
	Address  string
	// Status — активен ли профиль; менять может только администратор.
	Status    bool
	CreatedAt time.Time
}
