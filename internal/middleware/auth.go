// Package middleware содержит HTTP middleware админ-панели.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type contextKey string

const sessionExpiryKey contextKey = "sessionExpiry"

const (
	sessionCookieName = "admin_session"
	sessionTTL        = 12 * time.Hour
)

// AuthMiddleware проверяет сессию администратора по подписанному cookie.
// Без пароля администратора проверка отключена: панель рассчитана на закрытую сеть.
type AuthMiddleware struct {
	secretKey []byte
	password  string
	now       func() time.Time
}

// NewAuthMiddleware создаёт AuthMiddleware. Пустой secret заменяется случайным ключом,
// и сессии не переживают перезапуск процесса.
func NewAuthMiddleware(secret, password string) *AuthMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &AuthMiddleware{
		secretKey: key,
		password:  password,
		now:       time.Now,
	}
}

// Enabled сообщает, включена ли проверка сессии.
func (a *AuthMiddleware) Enabled() bool {
	return a.password != ""
}

// Middleware пропускает запрос только с действующей сессией и кладёт срок её действия в контекст.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		expiry, ok := a.parseCookie(cookie.Value)
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), sessionExpiryKey, expiry)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Login сверяет пароль и при успехе выдаёт cookie сессии.
func (a *AuthMiddleware) Login(w http.ResponseWriter, password string) bool {
	if !a.Enabled() {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) != 1 {
		return false
	}

	expiry := a.now().Add(sessionTTL)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    a.sign(strconv.FormatInt(expiry.Unix(), 10)),
		Path:     "/",
		Expires:  expiry,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return true
}

func (a *AuthMiddleware) sign(payload string) string {
	mac := hmac.New(sha256.New, a.secretKey)
	mac.Write([]byte(payload))
	return payload + "." + hex.EncodeToString(mac.Sum(nil))
}

func (a *AuthMiddleware) parseCookie(value string) (time.Time, bool) {
	payload, signature, ok := strings.Cut(value, ".")
	if !ok {
		return time.Time{}, false
	}

	_, expected, _ := strings.Cut(a.sign(payload), ".")
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return time.Time{}, false
	}

	unix, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return time.Time{}, false
	}

	expiry := time.Unix(unix, 0)
	if !a.now().Before(expiry) {
		return time.Time{}, false
	}
	return expiry, true
}

// SessionExpiryFromContext извлекает срок действия сессии из контекста запроса.
func SessionExpiryFromContext(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(sessionExpiryKey).(time.Time)
	return t, ok
}
