package orderrepo

import (
	"context"
	"errors"
	"time"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/core/domain/model/order"
	"tradeerp/internal/core/domain/model/workflow"
	"tradeerp/internal/core/ports"
	"tradeerp/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements ports.OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Add saves a new order with its line items, batches and history.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if isUniqueViolation(err) {
			return errs.NewObjectAlreadyExistsErrorWithCause("order", aggregate.ID().String(), err)
		}
		return err
	}

	return nil
}

// Update moves the denormalised status columns to the head of the history
// and inserts history rows not stored yet. Stored rows are left untouched.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	db := r.db.WithContext(ctx)

	result := db.Model(&OrderDTO{}).Where("id = ?", dto.ID).Updates(map[string]any{
		"status":            dto.Status,
		"status_changed_at": dto.StatusChangedAt,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("order", aggregate.ID().String())
	}

	if len(dto.History) > 0 {
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).Create(&dto.History).Error
		if err != nil {
			return err
		}
	}

	return nil
}

// Get retrieves an order by ID.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return r.first(r.withAggregate(r.db.WithContext(ctx)), "id = ?", id.Bytes())
}

// GetForUpdate retrieves an order by ID and locks its row until the
// surrounding transaction ends.
func (r *GormOrderRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	db := r.withAggregate(r.db.WithContext(ctx)).Clauses(clause.Locking{Strength: "UPDATE"})
	return r.first(db, "id = ?", id.Bytes())
}

// GetByNumber retrieves an order by its rendered order number.
func (r *GormOrderRepository) GetByNumber(ctx context.Context, number string) (*order.Order, error) {
	if number == "" {
		return nil, errs.NewValueIsRequiredError("order number")
	}
	return r.first(r.withAggregate(r.db.WithContext(ctx)), "number = ?", number)
}

// List returns orders newest first.
func (r *GormOrderRepository) List(ctx context.Context, filter ports.OrderFilter) ([]*order.Order, error) {
	db := r.withAggregate(r.db.WithContext(ctx)).Order("created_at DESC").Order("number DESC")
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status.String())
	}
	if filter.Limit > 0 {
		db = db.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		db = db.Offset(filter.Offset)
	}

	var dtos []OrderDTO
	if err := db.Find(&dtos).Error; err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// GetLineItemForUpdate locks one line item row. The order row is not locked,
// so transitions of the order proceed while batches are edited.
func (r *GormOrderRepository) GetLineItemForUpdate(
	ctx context.Context,
	orderID, lineItemID kernel.UUID,
) (*order.LineItem, error) {
	if err := errors.Join(orderID.Validate(), lineItemID.Validate()); err != nil {
		return nil, err
	}

	var dto LineItemDTO
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Batches", func(db *gorm.DB) *gorm.DB { return db.Order("number") }).
		First(&dto, "id = ? AND order_id = ?", lineItemID.Bytes(), orderID.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("line item", lineItemID.String())
		}
		return nil, err
	}

	return lineItemToDomain(dto)
}

// SaveLineItem writes the batch counter and the batch set of a line item.
// Batches no longer on the line item are deleted; the rest are upserted.
func (r *GormOrderRepository) SaveLineItem(ctx context.Context, lineItem *order.LineItem) error {
	if err := lineItem.Validate(); err != nil {
		return err
	}

	dto := lineItemFromDomain(lineItem, 0)
	db := r.db.WithContext(ctx)

	result := db.Model(&LineItemDTO{}).Where("id = ?", dto.ID).Update("last_batch_number", dto.LastBatchNumber)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("line item", lineItem.ID().String())
	}

	keep := make([]uuid.UUID, 0, len(dto.Batches))
	for _, b := range dto.Batches {
		keep = append(keep, b.ID)
	}

	remove := db.Where("line_item_id = ?", dto.ID)
	if len(keep) > 0 {
		remove = remove.Where("id NOT IN ?", keep)
	}
	if err := remove.Delete(&BatchDTO{}).Error; err != nil {
		return err
	}

	if len(dto.Batches) > 0 {
		err := db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"quantity", "planned_ship_date", "actual_ship_date", "status", "tracking_number",
			}),
		}).Create(&dto.Batches).Error
		if err != nil {
			return err
		}
	}

	return nil
}

// ListInStatuses returns the orders sitting in any of statuses since at least
// enteredBefore, longest waiting first.
func (r *GormOrderRepository) ListInStatuses(
	ctx context.Context,
	statuses []workflow.StatusID,
	enteredBefore time.Time,
	limit int,
) ([]ports.StatusSnapshot, error) {
	if len(statuses) == 0 {
		return []ports.StatusSnapshot{}, nil
	}

	raw := make([]string, 0, len(statuses))
	for _, s := range statuses {
		raw = append(raw, s.String())
	}

	var rows []struct {
		ID              uuid.UUID
		Status          string
		StatusChangedAt time.Time
	}
	db := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Select("id", "status", "status_changed_at").
		Where("status IN ? AND status_changed_at <= ?", raw, enteredBefore).
		Order("status_changed_at")
	if limit > 0 {
		db = db.Limit(limit)
	}
	if err := db.Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]ports.StatusSnapshot, 0, len(rows))
	for _, row := range rows {
		id, err := kernel.UUIDFromBytes(row.ID[:])
		if err != nil {
			return nil, err
		}
		out = append(out, ports.StatusSnapshot{
			OrderID:   id,
			Status:    workflow.StatusID(row.Status),
			EnteredAt: row.StatusChangedAt,
		})
	}
	return out, nil
}

func (r *GormOrderRepository) withAggregate(db *gorm.DB) *gorm.DB {
	return db.
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("LineItems.Batches", func(db *gorm.DB) *gorm.DB { return db.Order("number") }).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("seq") })
}

func (r *GormOrderRepository) first(db *gorm.DB, query string, arg any) (*order.Order, error) {
	var dto OrderDTO
	if err := db.First(&dto, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", arg)
		}
		return nil, err
	}
	return toDomain(dto)
}

const uniqueViolation = "23505"

// isUniqueViolation reports a primary key or unique index clash, raw from
// pgx or translated by gorm.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
