package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// storeData содержит всё состояние in-memory хранилища.
type storeData struct {
	users    map[int64]domain.User
	clients  map[int64]domain.Client
	products map[int64]domain.Product
	orders   map[int64]domain.Order
	outbox   map[string]*outboxRecord
	timeline map[int64][]domain.TimelineEvent
	seq      map[string]int64
}

func newStoreData() *storeData {
	return &storeData{
		users:    make(map[int64]domain.User),
		clients:  make(map[int64]domain.Client),
		products: make(map[int64]domain.Product),
		orders:   make(map[int64]domain.Order),
		outbox:   make(map[string]*outboxRecord),
		timeline: make(map[int64][]domain.TimelineEvent),
		seq:      make(map[string]int64),
	}
}

// nextID выдаёт следующий идентификатор для «таблицы».
func (d *storeData) nextID(table string) int64 {
	d.seq[table]++
	return d.seq[table]
}

// clone делает глубокую копию состояния для отката транзакции.
func (d *storeData) clone() *storeData {
	cp := newStoreData()
	for id, u := range d.users {
		cp.users[id] = u
	}
	for id, c := range d.clients {
		cp.clients[id] = c
	}
	for id, p := range d.products {
		cp.products[id] = p
	}
	for id, o := range d.orders {
		cp.orders[id] = cloneOrder(o)
	}
	for id, rec := range d.outbox {
		recCopy := *rec
		cp.outbox[id] = &recCopy
	}
	for id, events := range d.timeline {
		evCopy := make([]domain.TimelineEvent, len(events))
		copy(evCopy, events)
		cp.timeline[id] = evCopy
	}
	for table, v := range d.seq {
		cp.seq[table] = v
	}
	return cp
}

// cloneOrder копирует заказ вместе с позициями, чтобы избежать
// непредсказуемых мутаций извне.
func cloneOrder(o domain.Order) domain.Order {
	cp := o
	cp.Items = make([]domain.OrderItem, len(o.Items))
	copy(cp.Items, o.Items)
	return cp
}

// Store — in-memory реализация domain.Store для локальной разработки и тестов.
// Транзакция реализована снимком состояния: WithinTx держит эксклюзивную
// блокировку на всё время функции и откатывает состояние при ошибке.
type Store struct {
	mu   *sync.RWMutex
	data *storeData
	inTx bool
	now  func() time.Time
}

// NewStore создаёт пустое in-memory хранилище.
func NewStore() *Store {
	return &Store{
		mu:   &sync.RWMutex{},
		data: newStoreData(),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Users() domain.UserRepository       { return &userRepository{s: s} }
func (s *Store) Clients() domain.ClientRepository   { return &clientRepository{s: s} }
func (s *Store) Products() domain.ProductRepository { return &productRepository{s: s} }
func (s *Store) Orders() domain.OrderRepository     { return &orderRepository{s: s} }
func (s *Store) Outbox() domain.OutboxRepository    { return &outboxRepository{s: s} }
func (s *Store) Timeline() domain.TimelineRepository {
	return &timelineRepository{s: s}
}

// WithinTx выполняет fn атомарно. Вложенный вызов присоединяется к внешней
// транзакции; ошибка fn откатывает все изменения к снимку.
func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	tx := &Store{mu: s.mu, data: s.data, inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		*s.data = *snapshot
		return err
	}
	return nil
}

// lock берёт write-блокировку вне транзакции; внутри транзакции блокировка
// уже удерживается WithinTx.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) rlock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

var _ domain.Store = (*Store)(nil)
