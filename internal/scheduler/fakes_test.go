package scheduler

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"kitchenline/internal/notify"
	"kitchenline/internal/store"

	"github.com/google/uuid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type fakeSettings struct {
	mu     sync.Mutex
	values map[string]int
	getErr error
	setErr error
	sets   map[string]int
}

func newFakeSettings(values map[string]int) *fakeSettings {
	if values == nil {
		values = map[string]int{}
	}
	return &fakeSettings{values: values, sets: map[string]int{}}
}

func (f *fakeSettings) GetInt(_ context.Context, key string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return 0, f.getErr
	}
	v, ok := f.values[key]
	if !ok {
		return 0, sql.ErrNoRows
	}
	return v, nil
}

func (f *fakeSettings) SetInt(_ context.Context, key string, value int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value
	f.sets[key] = value
	return nil
}

type stagedPromotion struct {
	startAt  time.Time
	finishAt time.Time
}

// fakeStore is an in-memory stand-in for the postgres store. SelectBacklog
// honors lock-and-skip semantics: rows claimed by one open transaction are
// invisible to another until commit or rollback. AcquireAdmissionLock
// emulates the advisory lock: a second caller blocks until the holding
// transaction commits or rolls back.
type fakeStore struct {
	mu       sync.Mutex
	lockFree *sync.Cond
	orders   map[uuid.UUID]*store.Order
	items    map[uuid.UUID][]store.OrderItem

	completed  []store.CompletedOrder
	nextFinish *time.Time

	locked     map[uuid.UUID]*fakeTx
	lockHolder *fakeTx

	// selectHook, when set, runs after SelectBacklog returns its rows and
	// releases the store mutex. Tests use it to stall a pass between
	// selection and commit.
	selectHook func()

	beginErr   error
	selectErr  error
	promoteErr map[uuid.UUID]error
	countErr   error
	lateErr    error

	begins  int
	commits int
}

func newFakeStore() *fakeStore {
	s := &fakeStore{
		orders:     map[uuid.UUID]*store.Order{},
		items:      map[uuid.UUID][]store.OrderItem{},
		locked:     map[uuid.UUID]*fakeTx{},
		promoteErr: map[uuid.UUID]error{},
	}
	s.lockFree = sync.NewCond(&s.mu)
	return s
}

func (s *fakeStore) add(o store.Order) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	cp := o
	s.orders[o.ID] = &cp
	return o.ID
}

func (s *fakeStore) get(id uuid.UUID) store.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.orders[id]
}

func (s *fakeStore) setStatus(id uuid.UUID, status store.OrderStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[id].Status = status
}

func (s *fakeStore) countStatus(status store.OrderStatus) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, o := range s.orders {
		if o.Status == status {
			n++
		}
	}
	return n
}

type fakeTx struct {
	s          *fakeStore
	staged     map[uuid.UUID]stagedPromotion
	committed  bool
	rolledBack bool
}

func (t *fakeTx) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, nil
}

func (t *fakeTx) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, nil
}

func (t *fakeTx) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return nil
}

func (t *fakeTx) Commit() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for id, p := range t.staged {
		o := t.s.orders[id]
		o.Status = store.OrderStatusInPreparation
		startAt, finishAt := p.startAt, p.finishAt
		o.PreparationStartAt = &startAt
		o.ExpectedFinishAt = &finishAt
	}
	t.releaseLocks()
	t.committed = true
	t.s.commits++
	return nil
}

func (t *fakeTx) Rollback() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.committed {
		return sql.ErrTxDone
	}
	t.releaseLocks()
	t.rolledBack = true
	return nil
}

// caller holds s.mu
func (t *fakeTx) releaseLocks() {
	for id, owner := range t.s.locked {
		if owner == t {
			delete(t.s.locked, id)
		}
	}
	if t.s.lockHolder == t {
		t.s.lockHolder = nil
		t.s.lockFree.Broadcast()
	}
}

func (s *fakeStore) BeginTx(context.Context) (store.Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	s.begins++
	return &fakeTx{s: s, staged: map[uuid.UUID]stagedPromotion{}}, nil
}

func (s *fakeStore) AcquireAdmissionLock(_ context.Context, tx store.DBTransaction) error {
	ft := tx.(*fakeTx)
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.lockHolder != nil && s.lockHolder != ft {
		s.lockFree.Wait()
	}
	s.lockHolder = ft
	return nil
}

func (s *fakeStore) SelectBacklog(_ context.Context, tx store.DBTransaction, limit int) ([]store.Order, error) {
	s.mu.Lock()
	if s.selectErr != nil {
		s.mu.Unlock()
		return nil, s.selectErr
	}

	ft := tx.(*fakeTx)
	var candidates []store.Order
	for _, o := range s.orders {
		if o.Status != store.OrderStatusReceived || !o.AutoPromote {
			continue
		}
		if owner, held := s.locked[o.ID]; held && owner != ft {
			continue
		}
		candidates = append(candidates, *o)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority == store.PriorityHigh
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	for _, o := range candidates {
		s.locked[o.ID] = ft
	}
	hook := s.selectHook
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return candidates, nil
}

func (s *fakeStore) Promote(_ context.Context, tx store.DBTransaction, id uuid.UUID, startAt, finishAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.promoteErr[id]; err != nil {
		return err
	}

	o, ok := s.orders[id]
	if !ok || o.Status != store.OrderStatusReceived {
		return sql.ErrNoRows
	}

	ft := tx.(*fakeTx)
	ft.staged[id] = stagedPromotion{startAt: startAt, finishAt: finishAt}
	return nil
}

func (s *fakeStore) CountInPreparationToday(context.Context) (int, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	return s.countStatus(store.OrderStatusInPreparation), nil
}

func (s *fakeStore) CountInPreparation(ctx context.Context, _ store.DBTransaction) (int, error) {
	return s.CountInPreparationToday(ctx)
}

func (s *fakeStore) ListItems(_ context.Context, _ store.DBTransaction, orderID uuid.UUID) ([]store.OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[orderID], nil
}

func (s *fakeStore) LateOrders(_ context.Context, now time.Time) ([]store.LateOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lateErr != nil {
		return nil, s.lateErr
	}

	var late []store.LateOrder
	for _, o := range s.orders {
		if o.Status != store.OrderStatusInPreparation || o.ExpectedFinishAt == nil {
			continue
		}
		if o.ExpectedFinishAt.Before(now) {
			late = append(late, store.LateOrder{
				ID:               o.ID,
				Number:           o.Number,
				ExpectedFinishAt: *o.ExpectedFinishAt,
				LateMinutes:      int(now.Sub(*o.ExpectedFinishAt).Minutes()),
			})
		}
	}
	sort.Slice(late, func(i, j int) bool {
		return late[i].ExpectedFinishAt.Before(late[j].ExpectedFinishAt)
	})
	return late, nil
}

func (s *fakeStore) CompletedSince(_ context.Context, cutoff time.Time, limit int) ([]store.CompletedOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.CompletedOrder
	for _, c := range s.completed {
		if !c.FinishedAt.Before(cutoff) {
			out = append(out, c)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) NextExpectedFinish(context.Context) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextFinish, nil
}

type fakeTickets struct {
	mu    sync.Mutex
	calls []uuid.UUID
	err   error
}

func (f *fakeTickets) Create(_ context.Context, o store.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, o.ID)
	return nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	statuses []notify.OrderStatusChangedEvent
	capacity []notify.CapacityUpdatedEvent
	late     []notify.LateOrdersEvent
	tickets  []notify.TicketCreatedEvent
}

func (n *recordingNotifier) OrderStatusChanged(_ context.Context, e notify.OrderStatusChangedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, e)
	return nil
}

func (n *recordingNotifier) CapacityUpdated(_ context.Context, e notify.CapacityUpdatedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.capacity = append(n.capacity, e)
	return nil
}

func (n *recordingNotifier) LateOrders(_ context.Context, e notify.LateOrdersEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.late = append(n.late, e)
	return nil
}

func (n *recordingNotifier) TicketCreated(_ context.Context, e notify.TicketCreatedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tickets = append(n.tickets, e)
	return nil
}
