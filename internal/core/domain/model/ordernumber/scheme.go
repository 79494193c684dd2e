// Package ordernumber formats and parses human-readable order numbers.
//
// Two interchangeable schemes are supported:
//
//	Monthly  YYMM + 5-digit sequence         250500001         period key "2505"
//	Yearly   L-YYYYMMDD- + 5-digit sequence  L-20250517-00042  period key "2025"
//
// Sequences are unique per scheme and period key; issuing them is the job of
// the sequence repository, this package only renders and validates.
package ordernumber

import (
	"fmt"
	"strings"

	"tradeerp/internal/pkg/errs"
)

// Scheme selects the numbering rule.
type Scheme int

const (
	SchemeUnknown Scheme = iota
	// SchemeMonthly resets every calendar month.
	SchemeMonthly
	// SchemeYearly resets every calendar year and embeds the issue date.
	SchemeYearly
)

const (
	SequenceDigits = 5
	MaxSequence    = 99999

	yearlyPrefix = "L-"
)

// ParseScheme maps configuration values ("monthly", "yearly") to a Scheme.
func ParseScheme(raw string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "monthly", "yymm":
		return SchemeMonthly, nil
	case "yearly", "l-yyyymmdd":
		return SchemeYearly, nil
	default:
		return SchemeUnknown, errs.NewValueIsInvalidErrorWithCause(
			"order number scheme",
			fmt.Errorf("%q is not one of monthly, yearly", raw),
		)
	}
}

func (s Scheme) String() string {
	switch s {
	case SchemeMonthly:
		return "monthly"
	case SchemeYearly:
		return "yearly"
	default:
		return "unknown"
	}
}

// Validate rejects SchemeUnknown and out-of-range values.
func (s Scheme) Validate() error {
	if s != SchemeMonthly && s != SchemeYearly {
		return errs.NewValueIsInvalidErrorWithCause("order number scheme", fmt.Errorf("%d is not a valid scheme", s))
	}
	return nil
}

// PeriodKey returns the key sequences are unique within.
func (s Scheme) PeriodKey(p Period) string {
	switch s {
	case SchemeMonthly:
		return fmt.Sprintf("%02d%02d", p.year%100, p.month)
	case SchemeYearly:
		return fmt.Sprintf("%04d", p.year)
	default:
		return ""
	}
}
