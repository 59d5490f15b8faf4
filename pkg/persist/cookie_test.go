package persist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	serrors "github.com/hoka-shop/storefront/internal/errors"
)

func TestCookiesRoundTrip(t *testing.T) {
	ctx := context.Background()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/cart/items", nil)
	cookies := NewCookies(rec, req, CookieOptions{SameSite: http.SameSiteLaxMode, HTTPOnly: true})

	payload := `[{"id":1,"name":"Bondi 8, wide","quantity":2}]`
	if err := cookies.Put(ctx, "cart", []byte(payload)); err != nil {
		t.Fatal(err)
	}

	// Same request observes its own write.
	got, ok, err := cookies.Get(ctx, "cart")
	if err != nil || !ok || string(got) != payload {
		t.Fatalf("Get() after Put = %q, %v, %v", got, ok, err)
	}

	set := rec.Result().Cookies()
	if len(set) != 1 {
		t.Fatalf("Set-Cookie count = %d, want 1", len(set))
	}
	if set[0].Name != "cart" || set[0].Path != "/" || !set[0].HttpOnly {
		t.Errorf("cookie = %+v", set[0])
	}
	if strings.ContainsAny(set[0].Value, `",; `) {
		t.Errorf("cookie value not escaped: %q", set[0].Value)
	}

	next := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	next.AddCookie(set[0])
	got, ok, err = NewCookies(nil, next, CookieOptions{}).Get(ctx, "cart")
	if err != nil || !ok || string(got) != payload {
		t.Errorf("Get() on next request = %q, %v, %v", got, ok, err)
	}
}

func TestCookiesMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok, err := NewCookies(nil, req, CookieOptions{}).Get(context.Background(), "cart")
	if ok || err != nil {
		t.Errorf("Get() = %v, %v; want false, nil", ok, err)
	}
}

func TestCookiesTooLarge(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	cookies := NewCookies(rec, req, CookieOptions{})

	err := cookies.Put(context.Background(), "cart", []byte(strings.Repeat("x", MaxCookieSize)))
	if serrors.Code(err) != "S201" {
		t.Fatalf("Put() err = %v, want S201", err)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("oversized cookie was written")
	}
}

func TestCookiesReadOnly(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	cookies := NewCookies(nil, req, CookieOptions{})

	if err := cookies.Put(context.Background(), "cart", []byte("[]")); serrors.Code(err) != "S204" {
		t.Errorf("Put() err = %v, want S204", err)
	}
}

func TestCookiesDelete(t *testing.T) {
	ctx := context.Background()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "darkMode", Value: "true"})

	rec := httptest.NewRecorder()
	cookies := NewCookies(rec, req, CookieOptions{})
	if err := cookies.Delete(ctx, "darkMode"); err != nil {
		t.Fatal(err)
	}

	if _, ok, _ := cookies.Get(ctx, "darkMode"); ok {
		t.Error("Get() after Delete should miss")
	}
	set := rec.Result().Cookies()
	if len(set) != 1 || set[0].MaxAge >= 0 {
		t.Errorf("expected expiring cookie, got %+v", set)
	}
}

func TestCookiesBadEscape(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "cart", Value: "%zz"})

	_, _, err := NewCookies(nil, req, CookieOptions{}).Get(context.Background(), "cart")
	if serrors.Code(err) != "S200" {
		t.Errorf("Get() err = %v, want S200", err)
	}
}
