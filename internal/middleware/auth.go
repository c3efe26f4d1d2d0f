// Package middleware содержит HTTP middleware трекера продаж.
package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
)

// DefaultRealm задаёт область защиты, сообщаемая клиенту в заголовке WWW-Authenticate.
const DefaultRealm = "Beta Signups"

// BasicAuth проверяет учётные данные администратора по схеме HTTP Basic.
type BasicAuth struct {
	user     []byte
	password []byte
	realm    string
}

// NewBasicAuth создаёт проверку для указанных логина и пароля.
func NewBasicAuth(user, password, realm string) *BasicAuth {
	if realm == "" {
		realm = DefaultRealm
	}
	return &BasicAuth{
		user:     []byte(user),
		password: []byte(password),
		realm:    realm,
	}
}

// Middleware пропускает запрос с верными учётными данными.
// Без заголовка Authorization отвечает 401 с вызовом, с неверными данными 403.
func (a *BasicAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", a.realm))
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		if !a.Check(user, password) {
			writeError(w, http.StatusForbidden, "Invalid credentials")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Check сравнивает учётные данные за постоянное время.
func (a *BasicAuth) Check(user, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), a.user) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), a.password) == 1
	return userOK && passOK
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
