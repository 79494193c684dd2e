// Package sequencerepo persists the order number counters, one row per
// scheme and period key.
package sequencerepo

import (
	"context"
	"fmt"
	"strings"

	"tradeerp/internal/core/domain/model/ordernumber"
	"tradeerp/internal/pkg/errs"

	"gorm.io/gorm"
)

// SequenceDTO represents the order_sequences table.
type SequenceDTO struct {
	Scheme    string `gorm:"type:varchar(16);primaryKey"`
	PeriodKey string `gorm:"type:varchar(8);primaryKey"`
	LastValue int    `gorm:"type:int;not null"`
}

func (SequenceDTO) TableName() string {
	return "order_sequences"
}

// GormSequenceRepository implements ports.SequenceRepository.
//
// Next increments the counter with a single upsert. The row lock it takes is
// held until the surrounding transaction ends, so concurrent creations in one
// period serialise, and a rolled back creation gives its number back.
type GormSequenceRepository struct {
	db *gorm.DB
}

func NewGormSequenceRepository(db *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{db: db}
}

const nextSQL = `
	INSERT INTO order_sequences (scheme, period_key, last_value)
	VALUES (?, ?, 1)
	ON CONFLICT (scheme, period_key)
	DO UPDATE SET last_value = order_sequences.last_value + 1
	RETURNING last_value
`

// Next returns the next sequence of the period. Returns
// errs.SequenceAllocationFailedError when storage fails or the period has run
// out of numbers.
func (r *GormSequenceRepository) Next(ctx context.Context, scheme ordernumber.Scheme, periodKey string) (int, error) {
	if err := scheme.Validate(); err != nil {
		return 0, err
	}
	periodKey = strings.TrimSpace(periodKey)
	if periodKey == "" {
		return 0, errs.NewValueIsRequiredError("period key")
	}

	var next int
	if err := r.db.WithContext(ctx).Raw(nextSQL, scheme.String(), periodKey).Scan(&next).Error; err != nil {
		return 0, errs.NewSequenceAllocationFailedError(periodKey, err)
	}
	if next < 1 || next > ordernumber.MaxSequence {
		return 0, errs.NewSequenceAllocationFailedError(periodKey,
			fmt.Errorf("period exhausted at %d", ordernumber.MaxSequence))
	}
	return next, nil
}
