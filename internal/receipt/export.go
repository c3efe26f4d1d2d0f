package receipt

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"

	"github.com/mmeshcher/seller-tracker/internal/model"
	"github.com/mmeshcher/seller-tracker/internal/money"
)

// ErrNothingToExport возвращается при выгрузке пустого списка заказов.
var ErrNothingToExport = errors.New("no orders to export yet")

// ExportHeaders содержит заголовки колонок выгрузки.
var ExportHeaders = []string{
	"Order #", "Date", "Customer Name", "Customer Phone", "Platform", "Payment Status",
	"Notes", "Items", "Subtotal", "Delivery Fee", "Total",
}

const exportSheet = "Sheet1"

// exportRow возвращает значения колонок для заказа с позицией index.
func exportRow(index int, o model.Order) []string {
	return []string{
		strconv.Itoa(index + 1),
		o.DisplayDate,
		o.CustomerName,
		o.CustomerPhone,
		o.Platform,
		string(o.PaymentStatus),
		o.Notes,
		ItemsSummary(o.Items),
		money.Fixed(o.Subtotal),
		money.Fixed(o.DeliveryFee),
		money.Fixed(o.Total),
	}
}

// ItemsSummary сворачивает позиции в одну строку: 2x Cake @ J$10.00 | 1x Tea @ J$2.50.
func ItemsSummary(items []model.Item) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%dx %s @ %s", it.Quantity, it.Name, money.Amount(it.UnitPrice)))
	}
	return strings.Join(parts, " | ")
}

// CSV выгружает заказы; каждое поле заключено в кавычки, строки разделены \n.
func CSV(orders []model.Order) ([]byte, error) {
	if len(orders) == 0 {
		return nil, ErrNothingToExport
	}

	var buf bytes.Buffer
	writeCSVLine(&buf, ExportHeaders)
	for i, o := range orders {
		buf.WriteByte('\n')
		writeCSVLine(&buf, exportRow(i, o))
	}
	return buf.Bytes(), nil
}

func writeCSVLine(buf *bytes.Buffer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(f, `"`, `""`))
		buf.WriteByte('"')
	}
}

// XLSX выгружает заказы в книгу Excel с теми же колонками, что и CSV.
func XLSX(orders []model.Order) ([]byte, error) {
	if len(orders) == 0 {
		return nil, ErrNothingToExport
	}

	f := excelize.NewFile()
	for col, h := range ExportHeaders {
		f.SetCellValue(exportSheet, cellName(col, 1), h)
	}

	for i, o := range orders {
		row := i + 2
		values := exportRow(i, o)
		for col, v := range values {
			f.SetCellValue(exportSheet, cellName(col, row), v)
		}
		// номер и суммы пишем числами, чтобы по ним работали формулы
		f.SetCellValue(exportSheet, cellName(0, row), i+1)
		f.SetCellValue(exportSheet, cellName(8, row), o.Subtotal)
		f.SetCellValue(exportSheet, cellName(9, row), o.DeliveryFee)
		f.SetCellValue(exportSheet, cellName(10, row), o.Total)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// cellName возвращает адрес ячейки по номеру колонки с нуля и строки с единицы.
func cellName(col, row int) string {
	return string(rune('A'+col)) + strconv.Itoa(row)
}

// ExportFilename возвращает имя файла выгрузки с датой по UTC: seller_tracker_orders_2026-10-15.csv.
func ExportFilename(now time.Time, ext string) string {
	return fmt.Sprintf("seller_tracker_orders_%s.%s", now.UTC().Format("2006-01-02"), ext)
}
