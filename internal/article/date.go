package article

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DateLayout is the layout of parsed_date and of the crawl cutoff date.
// Dates in this layout sort lexically in chronological order, which is what
// the crawl cutoff comparison relies on.
const DateLayout = "2006-01-02"

// Orders for numeric dates such as 03.04.2024, used when no layout is set.
const (
	OrderDayFirst   = "dmy" // default
	OrderMonthFirst = "mdy"
	OrderStrict     = "strict" // reject ambiguous numeric dates
)

// dateparse reads dotted dates month first regardless of its options.
var dayFirstLayouts = []string{
	"2.1.2006",
	"2.1.2006 15:04",
	"2.1.2006, 15:04",
	"2.1.2006 15:04:05",
	"2.1.2006, 15:04:05",
	"2.1.06",
}

// ParseDate parses raw with the given Go layout, or detects the format when
// layout is empty. order decides how ambiguous numeric dates are read.
func ParseDate(raw, layout, order string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if layout != "" {
		return time.Parse(layout, raw)
	}

	switch order {
	case "", OrderDayFirst:
		for _, l := range dayFirstLayouts {
			if t, err := time.Parse(l, raw); err == nil {
				return t, nil
			}
		}
		return dateparse.ParseAny(raw, dateparse.PreferMonthFirst(false))
	case OrderMonthFirst:
		return dateparse.ParseAny(raw, dateparse.PreferMonthFirst(true))
	case OrderStrict:
		return dateparse.ParseStrict(raw)
	default:
		return time.Time{}, fmt.Errorf("unknown date order %q", order)
	}
}

// ValidateCutoff checks that date is a YYYY-MM-DD date.
func ValidateCutoff(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("date %q must use the YYYY-MM-DD format: %w", date, err)
	}
	return nil
}
