package domain

// PageSize — фиксированный размер страницы для всех списочных выборок.
const PageSize = 20

// PageMeta описывает метаданные страницы выборки.
type PageMeta struct {
	TotalItems   int `json:"totalItems"`
	ItemCount    int `json:"itemCount"`
	ItemsPerPage int `json:"itemsPerPage"`
	TotalPages   int `json:"totalPages"`
	CurrentPage  int `json:"currentPage"`
}

// NewPageMeta собирает метаданные страницы: totalPages = ceil(total/pageSize).
func NewPageMeta(totalItems, itemCount, page int) PageMeta {
	totalPages := (totalItems + PageSize - 1) / PageSize
	return PageMeta{
		TotalItems:   totalItems,
		ItemCount:    itemCount,
		ItemsPerPage: PageSize,
		TotalPages:   totalPages,
		CurrentPage:  page,
	}
}

// OrderPage — страница заказов.
type OrderPage struct {
	Data []Order
	Meta PageMeta
}

// ProductPage — страница каталога.
type ProductPage struct {
	Data []Product
	Meta PageMeta
}
