package order

import (
	"fmt"
	"strings"

	"tradeerp/internal/pkg/errs"
)

// BatchStatus is the sub-status of a shipment batch. It is independent of the
// parent order status.
//
// Any status may be set from any other. Cancelled is special: a cancelled
// batch keeps its quantity but does not count towards the allocated total.
type BatchStatus int

const (
	// BatchUnknown represents an invalid or undefined status.
	BatchUnknown BatchStatus = iota
	BatchPending
	BatchScheduled
	BatchInProduction
	BatchReady
	BatchShipped
	BatchDelivered
	BatchDelayed
	BatchCancelled
)

func getBatchStatusStrings() map[BatchStatus]string {
	return map[BatchStatus]string{
		BatchUnknown:      "unknown",
		BatchPending:      "pending",
		BatchScheduled:    "scheduled",
		BatchInProduction: "in_production",
		BatchReady:        "ready",
		BatchShipped:      "shipped",
		BatchDelivered:    "delivered",
		BatchDelayed:      "delayed",
		BatchCancelled:    "cancelled",
	}
}

func getValidBatchStatusStrings() map[BatchStatus]string {
	//nolint:exhaustive // BatchUnknown is intentionally excluded as it's invalid
	return map[BatchStatus]string{
		BatchPending:      "pending",
		BatchScheduled:    "scheduled",
		BatchInProduction: "in_production",
		BatchReady:        "ready",
		BatchShipped:      "shipped",
		BatchDelivered:    "delivered",
		BatchDelayed:      "delayed",
		BatchCancelled:    "cancelled",
	}
}

// ParseBatchStatus maps the persisted/wire form back to a BatchStatus.
func ParseBatchStatus(raw string) (BatchStatus, error) {
	needle := strings.ToLower(strings.TrimSpace(raw))
	for s, str := range getValidBatchStatusStrings() {
		if str == needle {
			return s, nil
		}
	}
	return BatchUnknown, errs.NewValueIsInvalidErrorWithCause(
		"batch status is invalid",
		fmt.Errorf("%q is not a valid batch status", raw),
	)
}

// Validate checks if the BatchStatus value is valid.
func (s BatchStatus) Validate() error {
	if _, ok := getValidBatchStatusStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("batch status is invalid", fmt.Errorf("%d is not a valid batch status", s))
	}
	return nil
}

func (s BatchStatus) String() string {
	if str, ok := getBatchStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// IsCancelled reports whether the batch quantity is released.
func (s BatchStatus) IsCancelled() bool {
	return s == BatchCancelled
}

// IsReadyOrLater reports whether goods of the batch are ready to leave or already left.
func (s BatchStatus) IsReadyOrLater() bool {
	return s == BatchReady || s == BatchShipped || s == BatchDelivered
}
