// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS architecture.
// All commands follow a consistent pattern: validation, transaction management, and persistence.
package commands

import (
	"context"

	"tradeerp/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides access to the order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// SequenceRepoFactory provides access to the sequence repository within a transaction.
	SequenceRepoFactory interface {
		SequenceRepository() ports.SequenceRepository
	}

	// OrderUoW manages transactions for operations on existing orders:
	// transitions and batch changes.
	OrderUoW interface {
		TxManager
		OrderRepoFactory
	}

	// OrderUoWFactory creates new order unit of work instances.
	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// UoW spans order and sequence storage. Order creation uses it so that the
	// sequence increment and the new order commit or roll back together.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   seq, err := uow.SequenceRepository().Next(ctx, scheme, periodKey)
	//   // ... build the order
	//   err = uow.OrderRepository().Add(ctx, o)
	//
	//   err = uow.Commit(ctx)
	UoW interface {
		TxManager
		OrderRepoFactory
		SequenceRepoFactory
	}

	// UoWFactory creates new unit of work instances for order creation.
	UoWFactory interface {
		Create() UoW
	}
)
