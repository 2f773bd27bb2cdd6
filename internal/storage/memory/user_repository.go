package memory

import (
	"context"
	"strings"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// userRepository — in-memory реализация UserRepository.
type userRepository struct {
	s *Store
}

// Create сохраняет пользователя, проверяя уникальность email.
func (r *userRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	unlock := r.s.lock()
	defer unlock()

	for _, existing := range r.s.data.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return domain.User{}, domain.ErrEmailTaken
		}
	}

	user.ID = r.s.data.nextID("users")
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.s.now()
	}
	r.s.data.users[user.ID] = user
	return user, nil
}

// Get возвращает пользователя или ErrUserNotFound.
func (r *userRepository) Get(ctx context.Context, id int64) (domain.User, error) {
	unlock := r.s.rlock()
	defer unlock()

	user, ok := r.s.data.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

// GetByEmail возвращает пользователя по email или ErrUserNotFound.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	unlock := r.s.rlock()
	defer unlock()

	for _, user := range r.s.data.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

var _ domain.UserRepository = (*userRepository)(nil)
