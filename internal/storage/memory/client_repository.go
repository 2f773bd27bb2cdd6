package memory

import (
	"context"
	"sort"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// clientRepository — in-memory реализация ClientRepository.
type clientRepository struct {
	s *Store
}

// Create сохраняет профиль, проверяя что у пользователя его ещё нет.
func (r *clientRepository) Create(ctx context.Context, client domain.Client) (domain.Client, error) {
	unlock := r.s.lock()
	defer unlock()

	for _, existing := range r.s.data.clients {
		if existing.UserID == client.UserID {
			return domain.Client{}, domain.ErrClientExists
		}
	}

	client.ID = r.s.data.nextID("clients")
	if client.CreatedAt.IsZero() {
		client.CreatedAt = r.s.now()
	}
	r.s.data.clients[client.ID] = client
	return client, nil
}

// Get возвращает профиль или ErrClientNotFound.
func (r *clientRepository) Get(ctx context.Context, id int64) (domain.Client, error) {
	unlock := r.s.rlock()
	defer unlock()

	client, ok := r.s.data.clients[id]
	if !ok {
		return domain.Client{}, domain.ErrClientNotFound
	}
	return client, nil
}

// GetByUserID возвращает профиль по владельцу-пользователю.
func (r *clientRepository) GetByUserID(ctx context.Context, userID int64) (domain.Client, error) {
	unlock := r.s.rlock()
	defer unlock()

	for _, client := range r.s.data.clients {
		if client.UserID == userID {
			return client, nil
		}
	}
	return domain.Client{}, domain.ErrClientNotFound
}

// List возвращает все профили, отсортированные по id.
func (r *clientRepository) List(ctx context.Context) ([]domain.Client, error) {
	unlock := r.s.rlock()
	defer unlock()

	result := make([]domain.Client, 0, len(r.s.data.clients))
	for _, client := range r.s.data.clients {
		result = append(result, client)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Update перезаписывает существующий профиль.
func (r *clientRepository) Update(ctx context.Context, client domain.Client) (domain.Client, error) {
	unlock := r.s.lock()
	defer unlock()

	if _, ok := r.s.data.clients[client.ID]; !ok {
		return domain.Client{}, domain.ErrClientNotFound
	}
	r.s.data.clients[client.ID] = client
	return client, nil
}

// Delete удаляет профиль и возвращает удалённую запись.
func (r *clientRepository) Delete(ctx context.Context, id int64) (domain.Client, error) {
	unlock := r.s.lock()
	defer unlock()

	client, ok := r.s.data.clients[id]
	if !ok {
		return domain.Client{}, domain.ErrClientNotFound
	}
	delete(r.s.data.clients, id)
	return client, nil
}

var _ domain.ClientRepository = (*clientRepository)(nil)
