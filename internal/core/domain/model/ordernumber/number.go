package ordernumber

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"tradeerp/internal/pkg/errs"
)

var yearlyPattern = regexp.MustCompile(`^L-([0-9]{8})-([0-9]{5})$`)

// Number is an issued order number. Its parts are immutable once formatted.
type Number struct {
	scheme   Scheme
	period   Period
	sequence int
	rendered string
}

// Format renders sequence within period under scheme.
func Format(scheme Scheme, period Period, sequence int) (Number, error) {
	if err := scheme.Validate(); err != nil {
		return Number{}, errs.NewMalformedIdentifierError("", scheme.String(), err)
	}
	if sequence < 1 || sequence > MaxSequence {
		return Number{}, errs.NewMalformedIdentifierError(
			strconv.Itoa(sequence),
			scheme.String(),
			errs.NewValueIsOutOfRangeError("sequence", sequence, 1, MaxSequence),
		)
	}

	var rendered string
	switch scheme {
	case SchemeMonthly:
		if period.IsZero() || period.IsDaily() || period.year < 2000 || period.year > 2099 {
			return Number{}, errs.NewMalformedIdentifierError("", scheme.String(),
				errors.New("monthly scheme requires a year+month period in 2000..2099"))
		}
		rendered = fmt.Sprintf("%s%0*d", scheme.PeriodKey(period), SequenceDigits, sequence)
	case SchemeYearly:
		if !period.IsDaily() {
			return Number{}, errs.NewMalformedIdentifierError("", scheme.String(),
				errors.New("yearly scheme requires a calendar date period"))
		}
		rendered = fmt.Sprintf("%s%04d%02d%02d-%0*d",
			yearlyPrefix, period.year, period.month, period.day, SequenceDigits, sequence)
	}

	return Number{
		scheme:   scheme,
		period:   period,
		sequence: sequence,
		rendered: rendered,
	}, nil
}

// Parse reads a rendered order number under the given scheme.
func Parse(rendered string, scheme Scheme) (Number, error) {
	switch scheme {
	case SchemeMonthly:
		return parseMonthly(rendered)
	case SchemeYearly:
		return parseYearly(rendered)
	default:
		return Number{}, errs.NewMalformedIdentifierError(rendered, scheme.String(), scheme.Validate())
	}
}

// ParseAny tries every scheme, for numbers read back from storage.
func ParseAny(rendered string) (Number, error) {
	if n, err := parseMonthly(rendered); err == nil {
		return n, nil
	}
	if n, err := parseYearly(rendered); err == nil {
		return n, nil
	}
	return Number{}, errs.NewMalformedIdentifierError(rendered, "any", nil)
}

func parseMonthly(rendered string) (Number, error) {
	const width = 4 + SequenceDigits
	if len(rendered) != width || !allDigits(rendered) {
		return Number{}, errs.NewMalformedIdentifierError(rendered, SchemeMonthly.String(),
			fmt.Errorf("expected %d digits", width))
	}
	yy, _ := strconv.Atoi(rendered[0:2])
	mm, _ := strconv.Atoi(rendered[2:4])
	seq, _ := strconv.Atoi(rendered[4:])

	period, err := NewMonthlyPeriod(2000+yy, mm)
	if err != nil {
		return Number{}, errs.NewMalformedIdentifierError(rendered, SchemeMonthly.String(), err)
	}
	n, err := Format(SchemeMonthly, period, seq)
	if err != nil {
		return Number{}, errs.NewMalformedIdentifierError(rendered, SchemeMonthly.String(), err)
	}
	return n, nil
}

func parseYearly(rendered string) (Number, error) {
	m := yearlyPattern.FindStringSubmatch(rendered)
	if m == nil {
		return Number{}, errs.NewMalformedIdentifierError(rendered, SchemeYearly.String(),
			errors.New("expected L-YYYYMMDD-NNNNN"))
	}
	year, _ := strconv.Atoi(m[1][0:4])
	month, _ := strconv.Atoi(m[1][4:6])
	day, _ := strconv.Atoi(m[1][6:8])
	seq, _ := strconv.Atoi(m[2])

	period, err := NewDailyPeriod(year, month, day)
	if err != nil {
		return Number{}, errs.NewMalformedIdentifierError(rendered, SchemeYearly.String(), err)
	}
	n, err := Format(SchemeYearly, period, seq)
	if err != nil {
		return Number{}, errs.NewMalformedIdentifierError(rendered, SchemeYearly.String(), err)
	}
	return n, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (n Number) Scheme() Scheme    { return n.scheme }
func (n Number) Period() Period    { return n.period }
func (n Number) Sequence() int     { return n.sequence }
func (n Number) String() string    { return n.rendered }
func (n Number) PeriodKey() string { return n.scheme.PeriodKey(n.period) }

func (n Number) IsZero() bool { return n.rendered == "" }

func (n Number) IsEqual(other Number) bool {
	return n.rendered == other.rendered
}
