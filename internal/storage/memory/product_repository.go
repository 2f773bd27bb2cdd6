package memory

import (
	"context"
	"sort"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// productRepository — in-memory реализация ProductRepository.
type productRepository struct {
	s *Store
}

func (r *productRepository) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	unlock := r.s.lock()
	defer unlock()

	product.ID = r.s.data.nextID("products")
	now := r.s.now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	r.s.data.products[product.ID] = product
	return product, nil
}

// Get возвращает товар или ErrProductNotFound.
func (r *productRepository) Get(ctx context.Context, id int64) (domain.Product, error) {
	unlock := r.s.rlock()
	defer unlock()

	product, ok := r.s.data.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// ListByIDs возвращает найденные товары; отсутствующие id пропускаются.
func (r *productRepository) ListByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	unlock := r.s.rlock()
	defer unlock()

	result := make([]domain.Product, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if product, ok := r.s.data.products[id]; ok {
			result = append(result, product)
		}
	}
	return result, nil
}

// List возвращает страницу каталога по id и общее число товаров.
func (r *productRepository) List(ctx context.Context, offset, limit int) ([]domain.Product, int, error) {
	unlock := r.s.rlock()
	defer unlock()

	all := make([]domain.Product, 0, len(r.s.data.products))
	for _, product := range r.s.data.products {
		all = append(all, product)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := len(all)
	if offset >= total {
		return []domain.Product{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *productRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	unlock := r.s.lock()
	defer unlock()

	current, ok := r.s.data.products[product.ID]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	product.CreatedAt = current.CreatedAt
	product.UpdatedAt = r.s.now()
	r.s.data.products[product.ID] = product
	return product, nil
}

func (r *productRepository) Delete(ctx context.Context, id int64) (domain.Product, error) {
	unlock := r.s.lock()
	defer unlock()

	product, ok := r.s.data.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	delete(r.s.data.products, id)
	return product, nil
}

// AdjustStock атомарно меняет остаток; в минус остаток не уходит.
func (r *productRepository) AdjustStock(ctx context.Context, id int64, delta int32) (domain.Product, error) {
	unlock := r.s.lock()
	defer unlock()

	product, ok := r.s.data.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if product.Stock+delta < 0 {
		return domain.Product{}, domain.ErrInsufficientStock
	}
	product.Stock += delta
	product.UpdatedAt = r.s.now()
	r.s.data.products[id] = product
	return product, nil
}

var _ domain.ProductRepository = (*productRepository)(nil)
