package providers

import (
	"sort"
	"strconv"
	"strings"
)

// SortLocally applies the sort fields the REST API cannot order by
// (customer and total). The sort is stable so equal keys keep the store's
// order. Other sort fields are left to the store.
func SortLocally(orders []Order, filters OrderFilters) {
	var less func(a, b Order) bool
	switch filters.SortBy {
	case SortByCustomer:
		less = func(a, b Order) bool {
			return strings.ToLower(a.Billing.FullName()) < strings.ToLower(b.Billing.FullName())
		}
	case SortByTotal:
		less = func(a, b Order) bool {
			return ParseDecimal(a.Total) < ParseDecimal(b.Total)
		}
	default:
		return
	}

	desc := strings.EqualFold(filters.SortOrder, "desc")
	sort.SliceStable(orders, func(i, j int) bool {
		if desc {
			return less(orders[j], orders[i])
		}
		return less(orders[i], orders[j])
	})
}

// ParseDecimal parses a decimal money string, treating garbage as zero.
func ParseDecimal(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
