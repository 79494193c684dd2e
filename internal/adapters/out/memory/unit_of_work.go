package memory

import (
	"context"
	"errors"
	"fmt"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/core/domain/model/order"
	"tradeerp/internal/core/domain/model/ordernumber"
	"tradeerp/internal/core/ports"
	"tradeerp/internal/pkg/errs"

	"golang.org/x/sync/semaphore"
)

var (
	ErrNoActiveTransaction = errors.New("no active transaction")
	ErrDuplicateOrder      = fmt.Errorf("duplicate order: %w", errs.ErrObjectAlreadyExists)
)

// UnitOfWork buffers writes until Commit and holds the keys it locked until
// Commit or Rollback. Without Begin every repository call commits on its own.
type UnitOfWork struct {
	store  *Store
	active bool

	held map[string]*semaphore.Weighted

	added      []*order.Order
	updated    map[kernel.UUID]*order.Order
	lineItems  map[kernel.UUID]*order.LineItem
	sequences  map[sequenceKey]int
	lineOrders map[kernel.UUID]kernel.UUID
}

func newUnitOfWork(store *Store) *UnitOfWork {
	uow := &UnitOfWork{store: store}
	uow.reset()
	return uow
}

// Begin starts the transaction. Calling Begin twice is a no-op.
func (uow *UnitOfWork) Begin(_ context.Context) error {
	uow.active = true
	return nil
}

// Commit applies the buffered writes atomically and releases all held locks.
// A write that conflicts with committed state aborts the whole commit.
func (uow *UnitOfWork) Commit(_ context.Context) error {
	if !uow.active {
		return ErrNoActiveTransaction
	}
	defer uow.end()

	return uow.apply()
}

// Rollback drops the buffered writes and releases all held locks. Returns
// ErrNoActiveTransaction after Commit.
func (uow *UnitOfWork) Rollback(_ context.Context) error {
	if !uow.active {
		return ErrNoActiveTransaction
	}
	uow.end()
	return nil
}

func (uow *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &orderRepository{uow: uow}
}

func (uow *UnitOfWork) SequenceRepository() ports.SequenceRepository {
	return &sequenceRepository{uow: uow}
}

func (uow *UnitOfWork) apply() error {
	s := uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range uow.added {
		if _, dup := s.orders[o.ID()]; dup {
			return fmt.Errorf("%w: id %s", ErrDuplicateOrder, o.ID())
		}
		if _, dup := s.byNumber[o.Number().String()]; dup {
			return fmt.Errorf("%w: number %s", ErrDuplicateOrder, o.Number())
		}
	}

	fresh := make(map[kernel.UUID]*order.Order, len(uow.added))
	for _, o := range uow.added {
		fresh[o.ID()] = o
	}

	next := make(map[kernel.UUID]*order.Order, len(uow.updated)+len(uow.lineItems))
	committed := func(id kernel.UUID) (*order.Order, error) {
		if o, ok := next[id]; ok {
			return o, nil
		}
		if o, ok := fresh[id]; ok {
			return o, nil
		}
		if o, ok := s.orders[id]; ok {
			return o, nil
		}
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}

	for id, pending := range uow.updated {
		base, err := committed(id)
		if err != nil {
			return err
		}
		merged, err := cloneOrder(base)
		if err != nil {
			return err
		}
		if err := appendMissingHistory(merged, pending.History()); err != nil {
			return err
		}
		next[id] = merged
	}

	for lineID, li := range uow.lineItems {
		orderID := uow.lineOrders[lineID]
		base, err := committed(orderID)
		if err != nil {
			return err
		}
		merged, err := withLineItem(base, li)
		if err != nil {
			return err
		}
		next[orderID] = merged
	}

	for _, o := range uow.added {
		s.orders[o.ID()] = o
		s.byNumber[o.Number().String()] = o.ID()
	}
	for id, o := range next {
		s.orders[id] = o
	}
	for key, value := range uow.sequences {
		s.sequences[key] = value
	}
	return nil
}

func appendMissingHistory(o *order.Order, entries []order.HistoryEntry) error {
	stored := make(map[kernel.UUID]struct{})
	for _, h := range o.History() {
		stored[h.ID()] = struct{}{}
	}
	for _, h := range entries {
		if _, ok := stored[h.ID()]; ok {
			continue
		}
		if err := o.AppendHistory(h); err != nil {
			return err
		}
	}
	return nil
}

func (uow *UnitOfWork) end() {
	for _, l := range uow.held {
		l.Release(1)
	}
	uow.active = false
	uow.reset()
}

func (uow *UnitOfWork) reset() {
	uow.held = make(map[string]*semaphore.Weighted)
	uow.added = nil
	uow.updated = make(map[kernel.UUID]*order.Order)
	uow.lineItems = make(map[kernel.UUID]*order.LineItem)
	uow.sequences = make(map[sequenceKey]int)
	uow.lineOrders = make(map[kernel.UUID]kernel.UUID)
}

// hold acquires key for the rest of the transaction. Keys already held by
// this unit of work are not acquired again.
func (uow *UnitOfWork) hold(ctx context.Context, key string) error {
	if _, ok := uow.held[key]; ok {
		return nil
	}
	l, err := uow.store.acquire(ctx, key)
	if err != nil {
		return err
	}
	uow.held[key] = l
	return nil
}

// run executes fn inside the open transaction, or inside an implicit one
// that commits when fn succeeds.
func (uow *UnitOfWork) run(ctx context.Context, fn func() error) error {
	if uow.active {
		return fn()
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	if err := fn(); err != nil {
		_ = uow.Rollback(ctx)
		return err
	}
	return uow.Commit(ctx)
}

// visible returns the order as this unit of work sees it: its own pending
// writes first, then committed state.
func (uow *UnitOfWork) visible(id kernel.UUID) (*order.Order, bool) {
	if o, ok := uow.updated[id]; ok {
		return o, true
	}
	for _, o := range uow.added {
		if o.ID().IsEqual(id) {
			return o, true
		}
	}
	return uow.store.order(id)
}

func orderLockKey(id kernel.UUID) string { return "order:" + id.String() }
func lineLockKey(id kernel.UUID) string  { return "line:" + id.String() }

type sequenceRepository struct {
	uow *UnitOfWork
}

var _ ports.SequenceRepository = (*sequenceRepository)(nil)

// Next holds the period's lock until the transaction ends, so numbers are
// contiguous and a rolled back creation releases its number.
func (r *sequenceRepository) Next(ctx context.Context, scheme ordernumber.Scheme, periodKey string) (int, error) {
	key := sequenceKey{scheme: scheme.String(), period: periodKey}

	var next int
	err := r.uow.run(ctx, func() error {
		if err := r.uow.hold(ctx, key.String()); err != nil {
			return errs.NewSequenceAllocationFailedError(periodKey, err)
		}
		current, ok := r.uow.sequences[key]
		if !ok {
			current = r.uow.store.sequence(key)
		}
		if current >= ordernumber.MaxSequence {
			return errs.NewSequenceAllocationFailedError(periodKey, errors.New("period exhausted"))
		}
		next = current + 1
		r.uow.sequences[key] = next
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}
