package ordernumber

import (
	"fmt"
	"time"

	"tradeerp/internal/pkg/errs"
)

// Period is the calendar part of an order number. Monthly periods carry year
// and month; daily periods (yearly scheme) additionally carry the issue day.
type Period struct {
	year  int
	month int
	day   int
}

// NewMonthlyPeriod builds a year+month period. Two-digit rendering limits the
// year to 2000..2099.
func NewMonthlyPeriod(year, month int) (Period, error) {
	if year < 2000 || year > 2099 {
		return Period{}, errs.NewValueIsOutOfRangeError("year", year, 2000, 2099)
	}
	if month < 1 || month > 12 {
		return Period{}, errs.NewValueIsOutOfRangeError("month", month, 1, 12)
	}
	return Period{year: year, month: month}, nil
}

// NewDailyPeriod builds a calendar date period.
func NewDailyPeriod(year, month, day int) (Period, error) {
	if year < 1000 || year > 9999 {
		return Period{}, errs.NewValueIsOutOfRangeError("year", year, 1000, 9999)
	}
	if month < 1 || month > 12 {
		return Period{}, errs.NewValueIsOutOfRangeError("month", month, 1, 12)
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Year() != year || int(date.Month()) != month || date.Day() != day {
		return Period{}, errs.NewValueIsInvalidErrorWithCause(
			"day",
			fmt.Errorf("%04d-%02d-%02d is not a calendar date", year, month, day),
		)
	}
	return Period{year: year, month: month, day: day}, nil
}

// PeriodFor derives the period an order issued at t belongs to.
func PeriodFor(scheme Scheme, t time.Time) (Period, error) {
	switch scheme {
	case SchemeMonthly:
		return NewMonthlyPeriod(t.Year(), int(t.Month()))
	case SchemeYearly:
		return NewDailyPeriod(t.Year(), int(t.Month()), t.Day())
	default:
		return Period{}, scheme.Validate()
	}
}

func (p Period) Year() int  { return p.year }
func (p Period) Month() int { return p.month }

// Day is zero for monthly periods.
func (p Period) Day() int { return p.day }

func (p Period) IsDaily() bool { return p.day != 0 }

func (p Period) IsZero() bool { return p == Period{} }
