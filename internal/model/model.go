// Package model содержит доменные сущности трекера продаж.
package model

import (
	"strings"
	"time"

	"github.com/mmeshcher/seller-tracker/internal/money"
	"github.com/mmeshcher/seller-tracker/internal/validation"
)

// PaymentStatus описывает статус оплаты заказа.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPartial PaymentStatus = "Partial"
	PaymentPaid    PaymentStatus = "Paid"
)

// AwaitsPayment сообщает, ожидает ли заказ оплаты (полной или частичной).
func (s PaymentStatus) AwaitsPayment() bool {
	return strings.EqualFold(string(s), string(PaymentPending)) ||
		strings.EqualFold(string(s), string(PaymentPartial))
}

// Платформы продаж, предлагаемые в форме. Хранится произвольная строка.
const (
	PlatformInstagram = "Instagram"
	PlatformWhatsApp  = "WhatsApp"
	PlatformFacebook  = "Facebook"
	PlatformTikTok    = "TikTok"
	PlatformOther     = "Other"
)

// Item описывает позицию заказа.
type Item struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"qty"`
	UnitPrice float64 `json:"price"`
}

// Valid сообщает, годится ли позиция для сохранения.
func (i Item) Valid() bool {
	return strings.TrimSpace(i.Name) != "" && i.Quantity > 0
}

// LineTotal возвращает стоимость позиции.
func (i Item) LineTotal() float64 {
	return money.Line(i.Quantity, i.UnitPrice)
}

// DisplayDateLayout задаёт формат отображаемой даты заказа: день, месяц, год
// и 12-часовое время со строчным am/pm, как в записях веб-версии трекера.
const DisplayDateLayout = "02/01/2006, 3:04:05 pm"

// Order описывает одну продажу.
type Order struct {
	CreatedAt     time.Time     `json:"createdAt,omitzero"`
	DisplayDate   string        `json:"date"`
	CustomerName  string        `json:"customerName"`
	CustomerPhone string        `json:"customerPhone"`
	Platform      string        `json:"platform"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	Notes         string        `json:"notes"`
	Items         []Item        `json:"items"`
	DeliveryFee   float64       `json:"deliveryFee"`
	Subtotal      float64       `json:"subtotal"`
	Total         float64       `json:"total"`
}

// Recalculate пересчитывает промежуточный итог и итог по позициям и доставке.
func (o *Order) Recalculate() {
	lines := make([]float64, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, it.LineTotal())
	}
	o.Subtotal = money.Sum(lines...)
	o.Total = money.Sum(o.Subtotal, o.DeliveryFee)
}

// Clone возвращает копию заказа, не разделяющую срез позиций.
func (o Order) Clone() Order {
	o.Items = append([]Item(nil), o.Items...)
	return o
}

// OrderInput содержит данные формы нового заказа. Phone содержит локальные цифры без кода региона.
type OrderInput struct {
	CustomerName  string        `json:"customerName"`
	Phone         string        `json:"phone"`
	Platform      string        `json:"platform"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	Notes         string        `json:"notes"`
	Items         []Item        `json:"items"`
	DeliveryFee   float64       `json:"deliveryFee"`
}

// OrderPatch содержит изменяемые поля заказа; nil означает «не менять».
type OrderPatch struct {
	CustomerName  *string
	Phone         *string
	Platform      *string
	PaymentStatus *PaymentStatus
	Notes         *string
	Items         []Item
	DeliveryFee   *float64
}

// Значения профиля по умолчанию.
const (
	DefaultAreaCode     = validation.DefaultAreaCode
	DefaultReceiptNote  = "Thank you for your order!"
	DefaultBusinessName = "Business Name"
	DefaultSocialLabel  = "social media"
)

// Profile описывает реквизиты продавца, печатаемые на чеке.
type Profile struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	SocialHandle   string `json:"social"`
	SocialPlatform string `json:"socialPlatform"`
	AreaCode       string `json:"areaCode"`
	Phone          string `json:"phone"`
	LogoData       string `json:"logoData"`
	ReceiptNote    string `json:"note"`
}

// DefaultProfile возвращает профиль новой установки.
func DefaultProfile() Profile {
	return Profile{
		AreaCode:    DefaultAreaCode,
		ReceiptNote: DefaultReceiptNote,
	}
}

// WithDefaults подставляет значения по умолчанию вместо отсутствующих полей.
func (p Profile) WithDefaults() Profile {
	if p.AreaCode == "" {
		p.AreaCode = DefaultAreaCode
	}
	if p.ReceiptNote == "" {
		p.ReceiptNote = DefaultReceiptNote
	}
	return p
}

// SocialLabel возвращает название соцсети для подписи на чеке.
func (p Profile) SocialLabel() string {
	if p.SocialPlatform == "" {
		return DefaultSocialLabel
	}
	return p.SocialPlatform
}

// ProfileInput содержит данные формы профиля. LogoData == nil сохраняет текущий логотип.
type ProfileInput struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	SocialHandle   string  `json:"social"`
	SocialPlatform string  `json:"socialPlatform"`
	AreaCode       string  `json:"areaCode"`
	Phone          string  `json:"phone"`
	LogoData       *string `json:"logoData,omitempty"`
	ReceiptNote    string  `json:"note"`
}

// ProfileForm представляет профиль в виде, пригодном для заполнения формы редактирования.
type ProfileForm struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	SocialHandle   string `json:"social"`
	SocialPlatform string `json:"socialPlatform"`
	AreaCode       string `json:"areaCode"`
	Phone          string `json:"phone"`
	ReceiptNote    string `json:"note"`
	HasLogo        bool   `json:"hasLogo"`
}

// Signup описывает заявку на участие в бета-тесте.
type Signup struct {
	ID        int64  `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	Email     string `json:"email" db:"email"`
	Source    string `json:"source" db:"source"`
	CreatedAt string `json:"createdAt" db:"created_at"`
}
