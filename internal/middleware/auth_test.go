package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAuthMiddleware_WithValidSession(t *testing.T) {
	m := NewAuthMiddleware("test-secret", "hunter2")

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		expiry, ok := SessionExpiryFromContext(r.Context())
		if !ok {
			t.Fatalf("session expiry not in context")
		}
		if !expiry.After(time.Now()) {
			t.Fatalf("session expiry %v must be in the future", expiry)
		}
	})

	w := httptest.NewRecorder()
	if !m.Login(w, "hunter2") {
		t.Fatalf("login with the right password failed")
	}
	resCookies := w.Result().Cookies()
	if len(resCookies) == 0 {
		t.Fatalf("no cookies set by Login")
	}

	r := httptest.NewRequest(http.MethodGet, "/api/codes", nil)
	r.AddCookie(resCookies[0])

	m.Middleware(next).ServeHTTP(httptest.NewRecorder(), r)

	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	m := NewAuthMiddleware("test-secret", "hunter2")

	expired := NewAuthMiddleware("test-secret", "hunter2")
	expired.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	wExpired := httptest.NewRecorder()
	expired.Login(wExpired, "hunter2")

	other := NewAuthMiddleware("other-secret", "hunter2")
	wOther := httptest.NewRecorder()
	other.Login(wOther, "hunter2")

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{name: "no cookie"},
		{name: "garbage", cookie: &http.Cookie{Name: sessionCookieName, Value: "nope"}},
		{name: "expired", cookie: wExpired.Result().Cookies()[0]},
		{name: "foreign signature", cookie: wOther.Result().Cookies()[0]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatalf("next handler should not be called")
			})

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/codes", nil)
			if tt.cookie != nil {
				r.AddCookie(tt.cookie)
			}

			m.Middleware(next).ServeHTTP(w, r)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestAuthMiddleware_WrongPassword(t *testing.T) {
	m := NewAuthMiddleware("test-secret", "hunter2")

	w := httptest.NewRecorder()
	if m.Login(w, "hunter3") {
		t.Fatalf("login with a wrong password must fail")
	}
	if len(w.Result().Cookies()) != 0 {
		t.Fatalf("no cookie must be set on failed login")
	}
}

func TestAuthMiddleware_DisabledWithoutPassword(t *testing.T) {
	m := NewAuthMiddleware("", "")
	if m.Enabled() {
		t.Fatalf("auth must be disabled without password")
	}

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { nextCalled = true })

	m.Middleware(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/codes", nil))
	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
}
