package domain

import "time"

// Product — товар каталога.
type Product struct {
	ID          int64
	Name        string
	Description string
	// PriceMinor — цена за единицу в минимальных денежных единицах.
	PriceMinor int64
	// Stock — доступный остаток; списывается при checkout и переходе
	// в PREPARING, никогда не уходит в минус.
	Stock     int32
	CreatedAt time.Time
	UpdatedAt time.Time
}
