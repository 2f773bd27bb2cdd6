package product

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// Input описывает данные товара при создании и обновлении.
type Input struct {
	Name        string
	Description string
	PriceMinor  int64
	Stock       int32
}

// Service реализует каталог товаров: чтение открыто всем
// аутентифицированным, изменения доступны только администраторам.
type Service struct {
	store  domain.Store
	logger *log.Entry
}

// NewService создаёт сервис каталога.
func NewService(store domain.Store, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "product_service")
	}
	return &Service{store: store, logger: logger}
}

func validateInput(in Input) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: product name is required", domain.ErrInvalidInput)
	}
	if in.PriceMinor < 0 {
		return domain.ErrNegativePrice
	}
	if in.Stock < 0 {
		return domain.ErrNegativeStock
	}
	return nil
}

func requireAdmin(p domain.Principal) error {
	if !p.IsAdmin() {
		return fmt.Errorf("%w: only admins can manage products", domain.ErrForbidden)
	}
	return nil
}

// Create добавляет товар в каталог.
func (s *Service) Create(ctx context.Context, p domain.Principal, in Input) (domain.Product, error) {
	if err := requireAdmin(p); err != nil {
		return domain.Product{}, err
	}
	if err := validateInput(in); err != nil {
		return domain.Product{}, err
	}

	created, err := s.store.Products().Create(ctx, domain.Product{
		Name:        in.Name,
		Description: in.Description,
		PriceMinor:  in.PriceMinor,
		Stock:       in.Stock,
	})
	if err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}

	s.logger.WithField("product_id", created.ID).Info("product created")
	return created, nil
}

// Get возвращает товар по идентификатору.
func (s *Service) Get(ctx context.Context, id int64) (domain.Product, error) {
	return s.store.Products().Get(ctx, id)
}

// List возвращает страницу каталога.
func (s *Service) List(ctx context.Context, page int) (domain.ProductPage, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * domain.PageSize

	products, total, err := s.store.Products().List(ctx, offset, domain.PageSize)
	if err != nil {
		return domain.ProductPage{}, fmt.Errorf("list products: %w", err)
	}

	return domain.ProductPage{
		Data: products,
		Meta: domain.NewPageMeta(total, len(products), page),
	}, nil
}

// Update заменяет данные товара; сток меняется вместе с остальными полями.
func (s *Service) Update(ctx context.Context, p domain.Principal, id int64, in Input) (domain.Product, error) {
	if err := requireAdmin(p); err != nil {
		return domain.Product{}, err
	}
	if err := validateInput(in); err != nil {
		return domain.Product{}, err
	}

	existing, err := s.store.Products().Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	existing.Name = in.Name
	existing.Description = in.Description
	existing.PriceMinor = in.PriceMinor
	existing.Stock = in.Stock

	updated, err := s.store.Products().Update(ctx, existing)
	if err != nil {
		return domain.Product{}, fmt.Errorf("update product: %w", err)
	}

	s.logger.WithField("product_id", updated.ID).Info("product updated")
	return updated, nil
}

// Delete удаляет товар из каталога.
func (s *Service) Delete(ctx context.Context, p domain.Principal, id int64) (domain.Product, error) {
	if err := requireAdmin(p); err != nil {
		return domain.Product{}, err
	}

	deleted, err := s.store.Products().Delete(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	s.logger.WithField("product_id", deleted.ID).Info("product deleted")
	return deleted, nil
}
