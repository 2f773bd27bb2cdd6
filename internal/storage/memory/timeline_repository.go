package memory

import (
	"context"
	"sort"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// timelineRepository хранит события жизненного цикла заказов в памяти.
type timelineRepository struct {
	s *Store
}

// Append добавляет событие в хранилище.
func (r *timelineRepository) Append(ctx context.Context, event domain.TimelineEvent) error {
	unlock := r.s.lock()
	defer unlock()

	if event.Occurred.IsZero() {
		event.Occurred = r.s.now()
	}
	events := append(r.s.data.timeline[event.OrderID], event)
	sort.Slice(events, func(i, j int) bool {
		return events[i].Occurred.Before(events[j].Occurred)
	})
	r.s.data.timeline[event.OrderID] = events
	return nil
}

// List возвращает события заказа в хронологическом порядке.
func (r *timelineRepository) List(ctx context.Context, orderID int64) ([]domain.TimelineEvent, error) {
	unlock := r.s.rlock()
	defer unlock()

	events := r.s.data.timeline[orderID]
	result := make([]domain.TimelineEvent, len(events))
	copy(result, events)
	return result, nil
}

var _ domain.TimelineRepository = (*timelineRepository)(nil)
