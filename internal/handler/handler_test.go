package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/mmeshcher/seller-tracker/internal/middleware"
	"github.com/mmeshcher/seller-tracker/internal/model"
	"github.com/mmeshcher/seller-tracker/internal/receipt"
	"github.com/mmeshcher/seller-tracker/internal/report"
	"github.com/mmeshcher/seller-tracker/internal/service"
	"github.com/mmeshcher/seller-tracker/internal/store"
)

type stubTracker struct {
	createIn    model.OrderInput
	createIndex int
	createOrder model.Order
	createErr   error

	patch     model.OrderPatch
	updateErr error

	deleteConfirmed bool
	deleteErr       error

	order      model.Order
	phoneLocal string
	orderErr   error

	filterQuery report.Query
	view        []report.IndexedOrder

	dashboard report.Dashboard

	profile      model.Profile
	form         model.ProfileForm
	savedProfile model.ProfileInput

	receiptData []byte
	receiptErr  error

	exportData []byte
	exportErr  error
}

func (s *stubTracker) CreateOrder(ctx context.Context, in model.OrderInput) (int, model.Order, error) {
	s.createIn = in
	return s.createIndex, s.createOrder, s.createErr
}

func (s *stubTracker) UpdateOrder(ctx context.Context, index int, patch model.OrderPatch) (model.Order, error) {
	s.patch = patch
	return s.order, s.updateErr
}

func (s *stubTracker) DeleteOrder(ctx context.Context, index int, confirmed bool) (bool, error) {
	s.deleteConfirmed = confirmed
	return confirmed && s.deleteErr == nil, s.deleteErr
}

func (s *stubTracker) Order(index int) (model.Order, string, error) {
	return s.order, s.phoneLocal, s.orderErr
}

func (s *stubTracker) FilterOrders(q report.Query) []report.IndexedOrder {
	s.filterQuery = q
	return s.view
}

func (s *stubTracker) View() (report.Query, []report.IndexedOrder) {
	return report.Query{Range: report.RangeAll}, s.view
}

func (s *stubTracker) Dashboard() report.Dashboard { return s.dashboard }

func (s *stubTracker) Profile() (model.Profile, model.ProfileForm) { return s.profile, s.form }

func (s *stubTracker) SaveProfile(ctx context.Context, in model.ProfileInput) (model.Profile, error) {
	s.savedProfile = in
	return model.Profile{Name: in.Name}, nil
}

func (s *stubTracker) Receipt(index int) ([]byte, string, error) {
	return s.receiptData, receipt.ReceiptFilename(index), s.receiptErr
}

func (s *stubTracker) ExportCSV() ([]byte, string, error) {
	return s.exportData, "seller_tracker_orders_2026-10-15.csv", s.exportErr
}

func (s *stubTracker) ExportXLSX() ([]byte, string, error) {
	return s.exportData, "seller_tracker_orders_2026-10-15.xlsx", s.exportErr
}

type stubSignups struct {
	name, email string
	duplicate   bool
	registerErr error
	list        []model.Signup
}

func (s *stubSignups) Register(ctx context.Context, name, email string) (bool, error) {
	s.name, s.email = name, email
	return s.duplicate, s.registerErr
}

func (s *stubSignups) List(ctx context.Context) ([]model.Signup, error) {
	return s.list, nil
}

func newTestHandler(t *testing.T, tracker Tracker, signups Signups) (*Handler, string) {
	t.Helper()

	dir := t.TempDir()
	auth := middleware.NewBasicAuth("admin", "secret", "")
	return NewHandler(tracker, signups, zap.NewNop(), auth, dir, "seller-tracker"), dir
}

func serve(h *Handler, method, target, body string, authorized bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if authorized {
		req.SetBasicAuth("admin", "secret")
	}
	rec := httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestCreateOrder_LenientNumbers(t *testing.T) {
	tr := &stubTracker{createIndex: 3}
	h, _ := newTestHandler(t, tr, &stubSignups{})

	body := `{"customerName":"Jane","phone":"555-1234","items":[{"name":"Cake","qty":"2","price":"1500.50"},{"name":"Tea","qty":1,"price":"abc"}],"deliveryFee":"500"}`
	rec := serve(h, http.MethodPost, "/api/orders", body, true)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	in := tr.createIn
	if in.Items[0].Quantity != 2 || in.Items[0].UnitPrice != 1500.5 {
		t.Fatalf("first item = %+v", in.Items[0])
	}
	if in.Items[1].UnitPrice != 0 {
		t.Fatalf("non-numeric price must become 0, got %v", in.Items[1].UnitPrice)
	}
	if in.DeliveryFee != 500 {
		t.Fatalf("delivery fee = %v", in.DeliveryFee)
	}
	if got := decode(t, rec)["index"]; got != 3.0 {
		t.Fatalf("index = %v", got)
	}
}

func TestCreateOrder_FormNumbers(t *testing.T) {
	tests := []struct {
		name      string
		qty       string
		price     string
		fee       string
		wantQty   int
		wantPrice float64
		wantFee   float64
	}{
		{name: "leading zero is decimal", qty: `"010"`, price: `"0x10"`, fee: `"007.5"`, wantQty: 10, wantPrice: 0, wantFee: 7.5},
		{name: "fractional quantity truncated", qty: `"2.9"`, price: `12.5`, fee: `0`, wantQty: 2, wantPrice: 12.5},
		{name: "NaN price", qty: `1`, price: `"NaN"`, fee: `"nan"`, wantQty: 1},
		{name: "infinite values", qty: `"Inf"`, price: `"-Inf"`, fee: `"+Inf"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &stubTracker{}
			h, _ := newTestHandler(t, tr, &stubSignups{})

			body := `{"customerName":"Jane","items":[{"name":"Cake","qty":` + tt.qty + `,"price":` + tt.price + `}],"deliveryFee":` + tt.fee + `}`
			rec := serve(h, http.MethodPost, "/api/orders", body, true)
			if rec.Code != http.StatusCreated {
				t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
			}

			it := tr.createIn.Items[0]
			if it.Quantity != tt.wantQty || it.UnitPrice != tt.wantPrice {
				t.Fatalf("item = %+v, want qty %d price %v", it, tt.wantQty, tt.wantPrice)
			}
			if tr.createIn.DeliveryFee != tt.wantFee {
				t.Fatalf("delivery fee = %v, want %v", tr.createIn.DeliveryFee, tt.wantFee)
			}
		})
	}
}

func TestUpdateOrder_NonFiniteFeeBecomesZero(t *testing.T) {
	tr := &stubTracker{}
	h, _ := newTestHandler(t, tr, &stubSignups{})

	rec := serve(h, http.MethodPatch, "/api/orders/0", `{"deliveryFee":"Inf","items":[{"name":"Cake","qty":1,"price":"NaN"}]}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if tr.patch.DeliveryFee == nil || *tr.patch.DeliveryFee != 0 {
		t.Fatalf("delivery fee = %v, want 0", tr.patch.DeliveryFee)
	}
	if tr.patch.Items[0].UnitPrice != 0 {
		t.Fatalf("price = %v, want 0", tr.patch.Items[0].UnitPrice)
	}
}

func TestCreateOrder_ValidationError(t *testing.T) {
	tr := &stubTracker{createErr: &store.ValidationError{Field: "customerName", Message: "Customer name is required"}}
	h, _ := newTestHandler(t, tr, &stubSignups{})

	rec := serve(h, http.MethodPost, "/api/orders", `{"customerName":""}`, true)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	resp := decode(t, rec)
	if resp["field"] != "customerName" || resp["error"] != "Customer name is required" {
		t.Fatalf("response = %v", resp)
	}
}

func TestOrders_RequireAuth(t *testing.T) {
	h, _ := newTestHandler(t, &stubTracker{}, &stubSignups{})

	rec := serve(h, http.MethodGet, "/api/orders", "", false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestListOrders_FilterQuery(t *testing.T) {
	tr := &stubTracker{view: []report.IndexedOrder{{Index: 4, Order: model.Order{CustomerName: "Jane"}}}}
	h, _ := newTestHandler(t, tr, &stubSignups{})

	rec := serve(h, http.MethodGet, "/api/orders?q=jane&range=this-week", "", true)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if tr.filterQuery.Text != "jane" || tr.filterQuery.Range != report.RangeWeek {
		t.Fatalf("query = %+v", tr.filterQuery)
	}
	orders := decode(t, rec)["orders"].([]any)
	first := orders[0].(map[string]any)
	if first["index"] != 4.0 || first["number"] != 5.0 {
		t.Fatalf("order view = %v", first)
	}
}

func TestUpdateOrder(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		err        error
		wantStatus int
	}{
		{name: "ok", target: "/api/orders/0", wantStatus: http.StatusOK},
		{name: "out of range", target: "/api/orders/9", err: store.ErrIndexOutOfRange, wantStatus: http.StatusNotFound},
		{name: "bad index", target: "/api/orders/x", wantStatus: http.StatusBadRequest},
		{name: "storage failure", target: "/api/orders/0", err: errors.New("disk full"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &stubTracker{updateErr: tt.err}
			h, _ := newTestHandler(t, tr, &stubSignups{})

			rec := serve(h, http.MethodPatch, tt.target, `{"paymentStatus":"Paid","deliveryFee":0}`, true)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestUpdateOrder_PatchOnlySentFields(t *testing.T) {
	tr := &stubTracker{}
	h, _ := newTestHandler(t, tr, &stubSignups{})

	serve(h, http.MethodPatch, "/api/orders/0", `{"paymentStatus":"Paid","deliveryFee":"0"}`, true)

	p := tr.patch
	if p.PaymentStatus == nil || *p.PaymentStatus != model.PaymentPaid {
		t.Fatalf("payment status = %v", p.PaymentStatus)
	}
	if p.DeliveryFee == nil || *p.DeliveryFee != 0 {
		t.Fatalf("delivery fee = %v", p.DeliveryFee)
	}
	if p.CustomerName != nil || p.Items != nil {
		t.Fatalf("unexpected fields in patch: %+v", p)
	}
}

func TestDeleteOrder_RequiresConfirmation(t *testing.T) {
	tr := &stubTracker{}
	h, _ := newTestHandler(t, tr, &stubSignups{})

	rec := serve(h, http.MethodDelete, "/api/orders/1", "", true)
	if rec.Code != http.StatusOK || decode(t, rec)["deleted"] != false {
		t.Fatalf("unconfirmed delete: %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(h, http.MethodDelete, "/api/orders/1?confirm=true", "", true)
	if !tr.deleteConfirmed || decode(t, rec)["deleted"] != true {
		t.Fatalf("confirmed delete: %s", rec.Body.String())
	}
}

func TestReceipt(t *testing.T) {
	tr := &stubTracker{receiptData: []byte("%PDF-1.3")}
	h, _ := newTestHandler(t, tr, &stubSignups{})

	rec := serve(h, http.MethodGet, "/api/orders/2/receipt", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content-type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="receipt_3.pdf"` {
		t.Fatalf("content-disposition = %q", cd)
	}

	tr.receiptErr = receipt.ErrFeatureUnavailable
	rec = serve(h, http.MethodGet, "/api/orders/2/receipt", "", true)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestExport(t *testing.T) {
	tr := &stubTracker{exportErr: receipt.ErrNothingToExport}
	h, _ := newTestHandler(t, tr, &stubSignups{})

	rec := serve(h, http.MethodGet, "/api/export/orders.csv", "", true)
	if rec.Code != http.StatusNotFound || decode(t, rec)["error"] != "No orders to export yet." {
		t.Fatalf("empty export: %d %s", rec.Code, rec.Body.String())
	}

	tr.exportErr = nil
	tr.exportData = []byte(`"Order #"`)
	rec = serve(h, http.MethodGet, "/api/export/orders.xlsx", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "seller_tracker_orders_2026-10-15.xlsx") {
		t.Fatalf("content-disposition = %q", cd)
	}
}

func TestProfile(t *testing.T) {
	tr := &stubTracker{form: model.ProfileForm{Phone: "555-1234", HasLogo: true}}
	h, _ := newTestHandler(t, tr, &stubSignups{})

	rec := serve(h, http.MethodGet, "/api/profile", "", true)
	form := decode(t, rec)["form"].(map[string]any)
	if form["phone"] != "555-1234" || form["hasLogo"] != true {
		t.Fatalf("form = %v", form)
	}

	rec = serve(h, http.MethodPut, "/api/profile", `{"name":"Island Treats","social":"islandtreats"}`, true)
	if rec.Code != http.StatusOK || tr.savedProfile.Name != "Island Treats" || tr.savedProfile.LogoData != nil {
		t.Fatalf("save profile: %d %+v", rec.Code, tr.savedProfile)
	}
}

func TestCreateSignup(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		duplicate   bool
		registerErr error
		wantStatus  int
		wantField   string
		wantValue   any
	}{
		{name: "created", body: `{"name":"Jane","email":"jane@example.com"}`, wantStatus: http.StatusCreated, wantField: "message", wantValue: "Signup received"},
		{name: "duplicate", body: `{"email":"jane@example.com"}`, duplicate: true, wantStatus: http.StatusOK, wantField: "duplicate", wantValue: true},
		{name: "invalid email", body: `{"email":"nope"}`, registerErr: service.ErrInvalidEmail, wantStatus: http.StatusBadRequest, wantField: "error", wantValue: "A valid email is required"},
		{name: "empty body", body: ``, registerErr: service.ErrInvalidEmail, wantStatus: http.StatusBadRequest, wantField: "error", wantValue: "A valid email is required"},
		{name: "broken json", body: `{"email":`, wantStatus: http.StatusBadRequest, wantField: "error", wantValue: "Invalid JSON payload"},
		{name: "too large", body: `{"email":"` + strings.Repeat("a", maxSignupBody) + `"}`, wantStatus: http.StatusBadRequest, wantField: "error", wantValue: "Invalid JSON payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t, &stubTracker{}, &stubSignups{duplicate: tt.duplicate, registerErr: tt.registerErr})

			rec := serve(h, http.MethodPost, "/api/signups", tt.body, false)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if got := decode(t, rec)[tt.wantField]; got != tt.wantValue {
				t.Fatalf("%s = %v, want %v", tt.wantField, got, tt.wantValue)
			}
			if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
				t.Fatalf("cors origin = %q", origin)
			}
		})
	}
}

func TestCreateSignup_CoercesTypes(t *testing.T) {
	s := &stubSignups{}
	h, _ := newTestHandler(t, &stubTracker{}, s)

	serve(h, http.MethodPost, "/api/signups", `{"name":42,"email":"a@b.c"}`, false)
	if s.name != "42" || s.email != "a@b.c" {
		t.Fatalf("register got %q %q", s.name, s.email)
	}
}

func TestListSignups(t *testing.T) {
	s := &stubSignups{list: []model.Signup{{ID: 1, Name: "Guest", Email: "a@b.c"}}}
	h, _ := newTestHandler(t, &stubTracker{}, s)

	rec := serve(h, http.MethodGet, "/api/signups", "", false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if rec.Header().Get("WWW-Authenticate") != `Basic realm="Beta Signups"` {
		t.Fatalf("missing challenge")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/signups", nil)
	req.SetBasicAuth("admin", "wrong")
	wrong := httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(wrong, req)
	if wrong.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", wrong.Code, http.StatusForbidden)
	}

	rec = serve(h, http.MethodGet, "/api/signups", "", true)
	resp := decode(t, rec)
	if resp["ok"] != true || resp["total"] != 1.0 {
		t.Fatalf("response = %v", resp)
	}
}

func TestHealthAndPreflight(t *testing.T) {
	h, _ := newTestHandler(t, &stubTracker{}, &stubSignups{})

	rec := serve(h, http.MethodGet, "/api/health", "", false)
	resp := decode(t, rec)
	if resp["ok"] != true || resp["service"] != "seller-tracker" {
		t.Fatalf("health = %v", resp)
	}

	rec = serve(h, http.MethodOptions, "/api/orders", "", false)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestStatic(t *testing.T) {
	h, dir := newTestHandler(t, &stubTracker{}, &stubSignups{})

	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Tracker</h1>"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "assets"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "data.bin"), []byte{0, 1}, 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		target      string
		wantStatus  int
		contentType string
		body        string
	}{
		{target: "/", wantStatus: http.StatusOK, contentType: "text/html; charset=utf-8", body: "<h1>Tracker</h1>"},
		{target: "/app.js", wantStatus: http.StatusOK, contentType: "application/javascript; charset=utf-8"},
		{target: "/data.bin", wantStatus: http.StatusOK, contentType: "application/octet-stream"},
		{target: "/assets", wantStatus: http.StatusNotFound, body: `{"error":"Not found"}`},
		{target: "/missing.css", wantStatus: http.StatusNotFound},
		{target: "/../secret.txt", wantStatus: http.StatusForbidden, body: `{"error":"Forbidden"}`},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := serve(h, http.MethodGet, tt.target, "", false)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.contentType != "" && rec.Header().Get("Content-Type") != tt.contentType {
				t.Fatalf("content-type = %q, want %q", rec.Header().Get("Content-Type"), tt.contentType)
			}
			if tt.body != "" && strings.TrimSpace(rec.Body.String()) != tt.body {
				t.Fatalf("body = %q, want %q", rec.Body.String(), tt.body)
			}
		})
	}
}

func TestGzipResponse(t *testing.T) {
	tr := &stubTracker{dashboard: report.Dashboard{Summary: "Total Revenue: J$0.00 | Orders: 0"}}
	h, _ := newTestHandler(t, tr, &stubSignups{})

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", bytes.NewReader(nil))
	req.SetBasicAuth("admin", "secret")
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("dashboard response must be compressed")
	}
}
