package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBasicAuth_WithValidCredentials(t *testing.T) {
	m := NewBasicAuth("admin", "secret", "")

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	})

	r := httptest.NewRequest(http.MethodGet, "/api/signups", nil)
	r.SetBasicAuth("admin", "secret")

	m.Middleware(next).ServeHTTP(httptest.NewRecorder(), r)

	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
}

func TestBasicAuth_WithoutCredentials(t *testing.T) {
	m := NewBasicAuth("admin", "secret", "")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/signups", nil)

	m.Middleware(next).ServeHTTP(w, r)

	res := w.Result()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusUnauthorized)
	}
	if got := res.Header.Get("WWW-Authenticate"); got != `Basic realm="Beta Signups"` {
		t.Fatalf("WWW-Authenticate = %q", got)
	}
}

func TestBasicAuth_WithWrongCredentials(t *testing.T) {
	m := NewBasicAuth("admin", "secret", "")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})

	for _, creds := range [][2]string{{"admin", "wrong"}, {"other", "secret"}, {"", ""}} {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/signups", nil)
		r.SetBasicAuth(creds[0], creds[1])

		m.Middleware(next).ServeHTTP(w, r)

		if w.Code != http.StatusForbidden {
			t.Fatalf("%v: status = %d, want %d", creds, w.Code, http.StatusForbidden)
		}
	}
}
