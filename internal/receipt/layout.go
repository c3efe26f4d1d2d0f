// Package receipt строит чек заказа в виде инструкций отрисовки и выгружает заказы в CSV и XLSX.
package receipt

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/mmeshcher/seller-tracker/internal/model"
	"github.com/mmeshcher/seller-tracker/internal/money"
)

// ErrFeatureUnavailable возвращается, если отрисовка документа недоступна.
var ErrFeatureUnavailable = errors.New("receipt rendering is unavailable")

// Kind определяет тип инструкции отрисовки.
type Kind int

const (
	KindText Kind = iota
	KindImage
	KindPageBreak
)

// Align задаёт выравнивание текста относительно X.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
)

// Color задаёт цвет текста в RGB.
type Color struct {
	R, G, B int
}

var (
	colorBlack = Color{}
	colorGreen = Color{R: 0, G: 100, B: 0}
	colorGold  = Color{R: 212, G: 175, B: 55}
)

// Image описывает растровое изображение для вставки в документ.
type Image struct {
	Data          []byte
	Type          string
	Width, Height float64
}

// Instruction описывает одну операцию отрисовки. Координаты в миллиметрах от левого верхнего угла A4.
type Instruction struct {
	Kind     Kind
	Text     string
	X, Y     float64
	Align    Align
	FontSize float64
	Color    Color
	Bold     bool
	Image    *Image
}

// Document содержит чек, готовый к отрисовке.
type Document struct {
	Title        string
	Subject      string
	Filename     string
	Instructions []Instruction
}

const (
	pageTop    = 20.0
	pageBottom = 280.0
	centerX    = 105.0
	leftX      = 20.0
	itemX      = 25.0
	logoX      = 80.0
	logoSize   = 50.0
)

type builder struct {
	y     float64
	size  float64
	color Color
	out   []Instruction
}

// move сдвигает курсор вниз и начинает новую страницу, если курсор вышел за нижнее поле.
func (b *builder) move(dy float64) {
	b.y += dy
	if b.y > pageBottom {
		b.out = append(b.out, Instruction{Kind: KindPageBreak})
		b.y = pageTop
	}
}

func (b *builder) style(size float64, c Color) {
	b.size = size
	b.color = c
}

func (b *builder) text(x float64, align Align, s string) {
	b.out = append(b.out, Instruction{
		Kind:     KindText,
		Text:     s,
		X:        x,
		Y:        b.y,
		Align:    align,
		FontSize: b.size,
		Color:    b.color,
		Bold:     b.color == colorGold,
	})
}

// Layout раскладывает чек заказа с порядковым номером index+1 и реквизитами продавца.
func Layout(order model.Order, index int, profile model.Profile) Document {
	profile = profile.WithDefaults()
	b := &builder{y: pageTop}

	if img, ok := DecodeLogo(profile.LogoData); ok {
		b.out = append(b.out, Instruction{Kind: KindImage, X: logoX, Y: b.y, Image: img})
		b.move(logoSize + 5)
	}

	name := profile.Name
	if name == "" {
		name = model.DefaultBusinessName
	}
	b.style(18, colorGreen)
	b.text(centerX, AlignCenter, name)
	b.move(10)

	b.style(10, colorBlack)
	if profile.Email != "" {
		b.text(centerX, AlignCenter, "Email: "+profile.Email)
	}
	if profile.Phone != "" {
		b.move(6)
		b.text(centerX, AlignCenter, "WhatsApp: "+profile.Phone)
	}
	if profile.SocialHandle != "" {
		b.move(6)
		b.text(centerX, AlignCenter, fmt.Sprintf("Follow us on %s: %s", profile.SocialLabel(), profile.SocialHandle))
	}
	b.move(10)

	b.style(16, colorBlack)
	b.text(centerX, AlignCenter, "Receipt")
	b.move(12)

	b.style(12, colorBlack)
	b.text(leftX, AlignLeft, fmt.Sprintf("Order #%d - %s", index+1, order.DisplayDate))
	b.move(10)
	b.text(leftX, AlignLeft, "Customer: "+order.CustomerName)
	b.move(7)
	b.text(leftX, AlignLeft, "Phone: "+order.CustomerPhone)
	b.move(7)
	b.text(leftX, AlignLeft, "Platform: "+order.Platform)
	if order.Notes != "" {
		b.move(7)
		b.text(leftX, AlignLeft, "Notes: "+order.Notes)
	}
	b.move(12)

	b.text(leftX, AlignLeft, "Items:")
	b.move(8)
	for _, it := range order.Items {
		b.text(itemX, AlignLeft, ItemLine(it))
		b.move(8)
	}
	b.move(8)

	b.text(leftX, AlignLeft, "Subtotal: "+money.Amount(order.Subtotal))
	b.move(8)
	b.text(leftX, AlignLeft, "Delivery: "+money.Amount(order.DeliveryFee))
	b.move(10)
	b.style(14, colorGold)
	b.text(leftX, AlignLeft, "TOTAL: "+money.Amount(order.Total))

	b.style(10, colorBlack)
	b.move(15)
	b.text(centerX, AlignCenter, ClosingNote(profile))

	return Document{
		Title:        fmt.Sprintf("Receipt #%d", index+1),
		Subject:      "Order receipt for " + order.CustomerName,
		Filename:     ReceiptFilename(index),
		Instructions: b.out,
	}
}

// ItemLine форматирует строку позиции: 2 × Cake @ J$10.00 = J$20.00.
func ItemLine(it model.Item) string {
	return fmt.Sprintf("%d × %s @ %s = %s", it.Quantity, it.Name, money.Amount(it.UnitPrice), money.Amount(it.LineTotal()))
}

// ClosingNote возвращает завершающую фразу чека; при указанной соцсети это приглашение подписаться.
func ClosingNote(p model.Profile) string {
	if p.SocialHandle != "" {
		return fmt.Sprintf("Thank you! Follow us on %s %s for more.", p.SocialLabel(), p.SocialHandle)
	}
	if p.ReceiptNote == "" {
		return model.DefaultReceiptNote
	}
	return p.ReceiptNote
}

// ReceiptFilename возвращает имя файла чека: receipt_3.pdf.
func ReceiptFilename(index int) string {
	return fmt.Sprintf("receipt_%d.pdf", index+1)
}

// DecodeLogo разбирает логотип из data URL. Нераспознанные данные пропускаются.
func DecodeLogo(dataURL string) (*Image, bool) {
	if dataURL == "" {
		return nil, false
	}

	header, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, false
	}

	var imgType string
	switch strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64") {
	case "image/png":
		imgType = "PNG"
	case "image/jpeg", "image/jpg":
		imgType = "JPG"
	case "image/gif":
		imgType = "GIF"
	default:
		return nil, false
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return nil, false
	}

	return &Image{Data: data, Type: imgType, Width: logoSize, Height: logoSize}, true
}
