package report

import (
	"strings"
	"time"

	"github.com/mmeshcher/seller-tracker/internal/model"
)

// Range задаёт период отбора заказов.
type Range string

const (
	RangeAll   Range = "all"
	RangeToday Range = "today"
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
)

// ParseRange разбирает значение селектора периода; неизвестные значения означают «все».
func ParseRange(s string) Range {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today":
		return RangeToday
	case "week", "this-week":
		return RangeWeek
	case "month", "this-month":
		return RangeMonth
	default:
		return RangeAll
	}
}

// maxDays возвращает глубину периода в календарных сутках.
func (r Range) maxDays() (int, bool) {
	switch r {
	case RangeToday:
		return 0, true
	case RangeWeek:
		return 7, true
	case RangeMonth:
		return 30, true
	default:
		return 0, false
	}
}

// Query описывает активный отбор: строку поиска и период.
type Query struct {
	Text  string `json:"q"`
	Range Range  `json:"range"`
}

// IndexedOrder хранит заказ вместе с его позицией в хранилище.
type IndexedOrder struct {
	Index int         `json:"index"`
	Order model.Order `json:"order"`
}

// Filter отбирает заказы по периоду и строке поиска, сохраняя исходные позиции и порядок.
func Filter(orders []model.Order, q Query, now time.Time) []IndexedOrder {
	needle := strings.ToLower(strings.TrimSpace(q.Text))
	limit, dated := q.Range.maxDays()

	res := make([]IndexedOrder, 0, len(orders))
	for i, o := range orders {
		if dated {
			date, ok := ResolveDate(o, now.Location())
			if !ok {
				continue
			}
			days := calendarDays(date, now)
			if days < 0 || days > limit {
				continue
			}
		}
		if needle != "" && !strings.Contains(haystack(o), needle) {
			continue
		}
		res = append(res, IndexedOrder{Index: i, Order: o})
	}
	return res
}

func haystack(o model.Order) string {
	parts := []string{
		o.CustomerName,
		o.CustomerPhone,
		o.Platform,
		string(o.PaymentStatus),
		o.Notes,
	}
	for _, it := range o.Items {
		parts = append(parts, it.Name)
	}
	return strings.ToLower(strings.Join(parts, " "))
}
