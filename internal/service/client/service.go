package client

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// Input описывает изменяемые поля профиля клиента.
type Input struct {
	FullName string
	Contact  string
	Address  string
	// Status управляется только администратором; для остальных игнорируется.
	Status *bool
}

// Service управляет профилями клиентов. Профиль один на пользователя,
// читать и менять его может владелец или администратор.
type Service struct {
	store  domain.Store
	logger *log.Entry
}

// NewService создаёт сервис профилей клиентов.
func NewService(store domain.Store, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "client_service")
	}
	return &Service{store: store, logger: logger}
}

// Create заводит профиль клиента для текущего пользователя.
// Повторное создание возвращает ErrClientExists.
func (s *Service) Create(ctx context.Context, p domain.Principal, in Input) (domain.Client, error) {
	if strings.TrimSpace(in.FullName) == "" {
		return domain.Client{}, fmt.Errorf("%w: full name is required", domain.ErrInvalidInput)
	}

	created, err := s.store.Clients().Create(ctx, domain.Client{
		UserID:   p.ID,
		FullName: in.FullName,
		Contact:  in.Contact,
		Address:  in.Address,
		Status:   true,
	})
	if err != nil {
		return domain.Client{}, err
	}

	s.logger.WithField("client_id", created.ID).Info("client profile created")
	return created, nil
}

// Get возвращает профиль по идентификатору. Клиент видит только свой профиль.
func (s *Service) Get(ctx context.Context, p domain.Principal, id int64) (domain.Client, error) {
	client, err := s.store.Clients().Get(ctx, id)
	if err != nil {
		return domain.Client{}, err
	}
	if !p.IsAdmin() && client.UserID != p.ID {
		return domain.Client{}, fmt.Errorf("%w: cannot access other client profiles", domain.ErrForbidden)
	}
	return client, nil
}

// GetOwn возвращает профиль текущего пользователя.
func (s *Service) GetOwn(ctx context.Context, p domain.Principal) (domain.Client, error) {
	return s.store.Clients().GetByUserID(ctx, p.ID)
}

// List возвращает все профили; операция только для администраторов.
func (s *Service) List(ctx context.Context, p domain.Principal) ([]domain.Client, error) {
	if !p.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can list clients", domain.ErrForbidden)
	}
	return s.store.Clients().List(ctx)
}

// Update меняет профиль. Поле Status подчиняется только администратору,
// запрос клиента с этим полем его не трогает.
func (s *Service) Update(ctx context.Context, p domain.Principal, id int64, in Input) (domain.Client, error) {
	client, err := s.store.Clients().Get(ctx, id)
	if err != nil {
		return domain.Client{}, err
	}
	if !p.IsAdmin() && client.UserID != p.ID {
		return domain.Client{}, fmt.Errorf("%w: cannot update other client profiles", domain.ErrForbidden)
	}

	if strings.TrimSpace(in.FullName) != "" {
		client.FullName = in.FullName
	}
	if in.Contact != "" {
		client.Contact = in.Contact
	}
	if in.Address != "" {
		client.Address = in.Address
	}
	if in.Status != nil && p.IsAdmin() {
		client.Status = *in.Status
	}

	updated, err := s.store.Clients().Update(ctx, client)
	if err != nil {
		return domain.Client{}, fmt.Errorf("update client: %w", err)
	}

	s.logger.WithField("client_id", updated.ID).Info("client profile updated")
	return updated, nil
}

// Delete удаляет профиль клиента; операция только для администраторов.
func (s *Service) Delete(ctx context.Context, p domain.Principal, id int64) (domain.Client, error) {
	if !p.IsAdmin() {
		return domain.Client{}, fmt.Errorf("%w: only admins can delete clients", domain.ErrForbidden)
	}

	deleted, err := s.store.Clients().Delete(ctx, id)
	if err != nil {
		return domain.Client{}, err
	}

	s.logger.WithField("client_id", deleted.ID).Info("client profile deleted")
	return deleted, nil
}
