// Package memory provides an in-process implementation of the unit of work
// for single-instance deployments and tests.
//
// Committed state lives in a Store. A unit of work buffers its writes and
// applies them to the store on Commit; Rollback drops them. Row locks of the
// SQL driver are emulated with per-key weighted semaphores that a unit of work
// holds until it ends:
//
//   - order:<id> for GetForUpdate
//   - line:<id> for GetLineItemForUpdate
//   - seq:<scheme>:<period> for SequenceRepository.Next
//
// so that concurrent transitions of one order, batch changes of one line item
// and number allocations in one period serialise exactly as they do on
// PostgreSQL.
package memory

import (
	"context"
	"fmt"
	"sync"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/core/domain/model/order"
	"tradeerp/internal/core/ports"

	"golang.org/x/sync/semaphore"
)

type sequenceKey struct {
	scheme string
	period string
}

func (k sequenceKey) String() string {
	return fmt.Sprintf("seq:%s:%s", k.scheme, k.period)
}

// Store holds committed orders and sequence counters.
type Store struct {
	mu        sync.RWMutex
	orders    map[kernel.UUID]*order.Order
	byNumber  map[string]kernel.UUID
	sequences map[sequenceKey]int

	locksMu sync.Mutex
	locks   map[string]*semaphore.Weighted
}

func NewStore() *Store {
	return &Store{
		orders:    make(map[kernel.UUID]*order.Order),
		byNumber:  make(map[string]kernel.UUID),
		sequences: make(map[sequenceKey]int),
		locks:     make(map[string]*semaphore.Weighted),
	}
}

// UnitOfWorkFactory creates units of work over one Store.
type UnitOfWorkFactory struct {
	store *Store
}

func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

// Create produces a fresh unit of work. Instances are not safe for concurrent use.
func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return newUnitOfWork(f.store)
}

// lock returns the semaphore guarding key, creating it on first use.
func (s *Store) lock(key string) *semaphore.Weighted {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l, ok := s.locks[key]
	if !ok {
		l = semaphore.NewWeighted(1)
		s.locks[key] = l
	}
	return l
}

func (s *Store) order(id kernel.UUID) (*order.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, false
	}
	return o, true
}

func (s *Store) sequence(key sequenceKey) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sequences[key]
}

// snapshot returns every committed order. Callers must clone before handing
// orders out.
func (s *Store) snapshot() []*order.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*order.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	return out
}

func cloneOrder(o *order.Order) (*order.Order, error) {
	src := o.LineItems()
	lines := make([]*order.LineItem, 0, len(src))
	for _, li := range src {
		c, err := cloneLineItem(li)
		if err != nil {
			return nil, err
		}
		lines = append(lines, c)
	}
	return order.RestoreOrder(order.RestoreOrderParams{
		ID:            o.ID(),
		Number:        o.Number(),
		InitialStatus: o.InitialStatus(),
		CustomerName:  o.CustomerName(),
		CreatedAt:     o.CreatedAt(),
		LineItems:     lines,
		History:       o.History(),
	})
}

func cloneLineItem(li *order.LineItem) (*order.LineItem, error) {
	return order.RestoreLineItem(order.RestoreLineItemParams{
		ID:              li.ID(),
		OrderID:         li.OrderID(),
		PartNo:          li.PartNo(),
		QuantityOrdered: li.QuantityOrdered(),
		UnitPrice:       li.UnitPrice(),
		Currency:        li.Currency(),
		LastBatchNumber: li.LastBatchNumber(),
		Batches:         li.Batches(),
	})
}

// withLineItem rebuilds o with the line item of the same id replaced.
func withLineItem(o *order.Order, replacement *order.LineItem) (*order.Order, error) {
	src := o.LineItems()
	lines := make([]*order.LineItem, 0, len(src))
	found := false
	for _, li := range src {
		if li.ID().IsEqual(replacement.ID()) {
			li = replacement
			found = true
		}
		c, err := cloneLineItem(li)
		if err != nil {
			return nil, err
		}
		lines = append(lines, c)
	}
	if !found {
		return nil, fmt.Errorf("line item %s is not part of order %s", replacement.ID(), o.ID())
	}
	return order.RestoreOrder(order.RestoreOrderParams{
		ID:            o.ID(),
		Number:        o.Number(),
		InitialStatus: o.InitialStatus(),
		CustomerName:  o.CustomerName(),
		CreatedAt:     o.CreatedAt(),
		LineItems:     lines,
		History:       o.History(),
	})
}

// acquire blocks until the semaphore for key is free or ctx is done.
func (s *Store) acquire(ctx context.Context, key string) (*semaphore.Weighted, error) {
	l := s.lock(key)
	if err := l.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("lock %s: %w", key, err)
	}
	return l, nil
}
