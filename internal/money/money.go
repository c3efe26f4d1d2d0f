// Package money содержит денежную арифметику и форматирование сумм.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Symbol задаёт обозначение валюты на чеках и в выгрузках.
const Symbol = "J$"

var printer = message.NewPrinter(language.English)

// Line возвращает стоимость позиции qty × price.
func Line(qty int, price float64) float64 {
	return decimal.NewFromInt(int64(qty)).Mul(decimal.NewFromFloat(price)).InexactFloat64()
}

// Sum складывает суммы без накопления ошибки двоичного представления.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.InexactFloat64()
}

// Fixed форматирует сумму ровно с двумя знаками после запятой.
func Fixed(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Amount форматирует сумму с символом валюты: J$12.50.
func Amount(v float64) string {
	return Symbol + Fixed(v)
}

// Grouped форматирует итоговую сумму с разделителями разрядов: 1,234.50.
func Grouped(v float64) string {
	return printer.Sprintf("%.2f", decimal.NewFromFloat(v).Round(2).InexactFloat64())
}
