package http

import (
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

type orderItemDTO struct {
	ID             int64 `json:"id"`
	ProductID      int64 `json:"productId"`
	Quantity       int32 `json:"quantity"`
	UnitPriceMinor int64 `json:"unitPriceMinor"`
	SubtotalMinor  int64 `json:"subtotalMinor"`
}

type orderDTO struct {
	ID         int64          `json:"id"`
	ClientID   int64          `json:"clientId"`
	Status     string         `json:"status"`
	TotalMinor int64          `json:"totalMinor"`
	OrderDate  time.Time      `json:"orderDate"`
	Items      []orderItemDTO `json:"items"`
}

func toOrderDTO(order domain.Order) orderDTO {
	items := make([]orderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemDTO{
			ID:             item.ID,
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPriceMinor: item.UnitPriceMinor,
			SubtotalMinor:  item.SubtotalMinor,
		})
	}
	return orderDTO{
		ID:         order.ID,
		ClientID:   order.ClientID,
		Status:     string(order.Status),
		TotalMinor: order.TotalMinor,
		OrderDate:  order.OrderDate,
		Items:      items,
	}
}

type orderPageDTO struct {
	Data []orderDTO      `json:"data"`
	Meta domain.PageMeta `json:"meta"`
}

func toOrderPageDTO(page domain.OrderPage) orderPageDTO {
	data := make([]orderDTO, 0, len(page.Data))
	for _, order := range page.Data {
		data = append(data, toOrderDTO(order))
	}
	return orderPageDTO{Data: data, Meta: page.Meta}
}

type productDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceMinor  int64  `json:"priceMinor"`
	Stock       int32  `json:"stock"`
}

func toProductDTO(product domain.Product) productDTO {
	return productDTO{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		PriceMinor:  product.PriceMinor,
		Stock:       product.Stock,
	}
}

type productPageDTO struct {
	Data []productDTO    `json:"data"`
	Meta domain.PageMeta `json:"meta"`
}

type clientDTO struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"userId"`
	FullName string `json:"fullName"`
	Contact  string `json:"contact"`
	Address  string `json:"address"`
	Status   bool   `json:"status"`
}

func toClientDTO(client domain.Client) clientDTO {
	return clientDTO{
		ID:       client.ID,
		UserID:   client.UserID,
		FullName: client.FullName,
		Contact:  client.Contact,
		Address:  client.Address,
		Status:   client.Status,
	}
}

type userDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func toUserDTO(user domain.User) userDTO {
	return userDTO{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.Role),
	}
}

type timelineEventDTO struct {
	OrderID    int64     `json:"orderId"`
	Type       string    `json:"type"`
	FromStatus string    `json:"fromStatus,omitempty"`
	ToStatus   string    `json:"toStatus,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Occurred   time.Time `json:"occurred"`
}

func toTimelineDTOs(events []domain.TimelineEvent) []timelineEventDTO {
	result := make([]timelineEventDTO, 0, len(events))
	for _, event := range events {
		result = append(result, timelineEventDTO{
			OrderID:    event.OrderID,
			Type:       event.Type,
			FromStatus: string(event.FromStatus),
			ToStatus:   string(event.ToStatus),
			Reason:     event.Reason,
			Occurred:   event.Occurred,
		})
	}
	return result
}
