// Package report содержит производные представления списка заказов: сводку и фильтр.
// Все функции чистые и зависят только от списка заказов и текущего момента.
package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/montanaflynn/stats"

	"github.com/mmeshcher/seller-tracker/internal/model"
	"github.com/mmeshcher/seller-tracker/internal/money"
)

// NoPlatform возвращается как самая частая платформа, если заказов нет.
const NoPlatform = "none"

// Dashboard содержит сводные показатели по заказам.
type Dashboard struct {
	TotalRevenue float64 `json:"totalRevenue"`
	TodayRevenue float64 `json:"todayRevenue"`
	PendingCount int     `json:"pendingCount"`
	TopPlatform  string  `json:"topPlatform"`
	OrderCount   int     `json:"orderCount"`
	AverageOrder float64 `json:"averageOrder"`
	Summary      string  `json:"summary"`
}

// ResolveDate возвращает дату заказа для отбора: точную отметку создания,
// а для старых записей разобранную отображаемую дату.
func ResolveDate(o model.Order, loc *time.Location) (time.Time, bool) {
	if !o.CreatedAt.IsZero() {
		return o.CreatedAt, true
	}
	if strings.TrimSpace(o.DisplayDate) == "" {
		return time.Time{}, false
	}
	return parseDisplayDate(o.DisplayDate, loc)
}

// displayDateLayouts перечисляет форматы отображаемой даты с днём впереди.
// Прочие строки разбирает dateparse, тоже с днём впереди.
var displayDateLayouts = []string{
	"2/1/2006, 3:04:05 pm",
	"2/1/2006, 3:04:05 PM",
	"2/1/2006, 15:04:05",
}

var displaySpaces = strings.NewReplacer("\u202f", " ", "\u00a0", " ")

func parseDisplayDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(displaySpaces.Replace(s))
	for _, layout := range displayDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}

	for _, candidate := range []string{s, strings.Replace(s, ", ", " ", 1)} {
		if t, err := dateparse.ParseIn(candidate, loc, dateparse.PreferMonthFirst(false)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Aggregate вычисляет сводку. Календарные сутки берутся в часовом поясе now.
func Aggregate(orders []model.Order, now time.Time) Dashboard {
	d := Dashboard{
		TopPlatform: NoPlatform,
		OrderCount:  len(orders),
	}

	totals := make([]float64, 0, len(orders))
	var today []float64
	for _, o := range orders {
		totals = append(totals, o.Total)
		if date, ok := ResolveDate(o, now.Location()); ok && calendarDays(date, now) == 0 {
			today = append(today, o.Total)
		}
		if o.PaymentStatus.AwaitsPayment() {
			d.PendingCount++
		}
	}

	d.TotalRevenue = money.Sum(totals...)
	d.TodayRevenue = money.Sum(today...)
	if mean, err := stats.Mean(totals); err == nil {
		d.AverageOrder = math.Round(mean*100) / 100
	}
	d.TopPlatform = topPlatform(orders)
	d.Summary = fmt.Sprintf("Total Revenue: %s%s | Orders: %d", money.Symbol, money.Grouped(d.TotalRevenue), d.OrderCount)

	return d
}

// topPlatform выбирает самую частую платформу; при равенстве побеждает встреченная раньше.
func topPlatform(orders []model.Order) string {
	counts := make(map[string]int)
	var seen []string
	for _, o := range orders {
		p := strings.TrimSpace(o.Platform)
		if p == "" {
			continue
		}
		if counts[p] == 0 {
			seen = append(seen, p)
		}
		counts[p]++
	}

	best, bestCount := NoPlatform, 0
	for _, p := range seen {
		if counts[p] > bestCount {
			best, bestCount = p, counts[p]
		}
	}
	return best
}

// calendarDays возвращает число календарных суток от date до now в часовом поясе now.
func calendarDays(date, now time.Time) int {
	loc := now.Location()
	d := date.In(loc)
	from := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	return int(math.Round(to.Sub(from).Hours() / 24))
}
