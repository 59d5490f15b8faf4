package persist

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hoka-shop/storefront/internal/errors"
)

// MaxCookieSize is the largest Set-Cookie value browsers reliably keep.
const MaxCookieSize = 4096

// CookieOptions are the attributes written with every cookie.
type CookieOptions struct {
	Path     string
	Domain   string
	MaxAge   int
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
}

// Cookies is a Blobs backend over one HTTP exchange: Get reads the request
// cookie, Put writes a Set-Cookie header. Values are query-escaped so JSON
// survives cookie syntax.
//
// A Cookies value belongs to one request and is not safe for concurrent use.
// Reads after a Put in the same request observe the written value.
type Cookies struct {
	r       *http.Request
	w       http.ResponseWriter
	opts    CookieOptions
	written map[string][]byte
	deleted map[string]bool
}

// NewCookies binds a cookie backend to one request/response pair.
// w may be nil for read-only use.
func NewCookies(w http.ResponseWriter, r *http.Request, opts CookieOptions) *Cookies {
	if opts.Path == "" {
		opts.Path = "/"
	}
	return &Cookies{
		r:       r,
		w:       w,
		opts:    opts,
		written: make(map[string][]byte),
		deleted: make(map[string]bool),
	}
}

// Get returns the decoded value of the named cookie.
func (c *Cookies) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if data, ok := c.written[key]; ok {
		return data, true, nil
	}
	if c.deleted[key] || c.r == nil {
		return nil, false, nil
	}

	cookie, err := c.r.Cookie(key)
	if err == http.ErrNoCookie {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	value, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil, false, errors.New("S200").WithDetail("cookie " + key).Wrap(err)
	}
	return []byte(value), true, nil
}

// Put writes the named cookie.
func (c *Cookies) Put(ctx context.Context, key string, data []byte) error {
	if c.w == nil {
		return errors.New("S204")
	}

	cookie := c.cookie(key, url.QueryEscape(string(data)))
	if size := len(cookie.String()); size > MaxCookieSize {
		return errors.New("S201").
			WithDetail(fmt.Sprintf("cookie %s is %d bytes, limit is %d", key, size, MaxCookieSize)).
			WithSuggestion("Set persistence.backend to memory, file, redis or s3")
	}

	http.SetCookie(c.w, cookie)
	c.written[key] = append([]byte(nil), data...)
	delete(c.deleted, key)
	return nil
}

// Delete expires the named cookie.
func (c *Cookies) Delete(ctx context.Context, key string) error {
	if c.w == nil {
		return errors.New("S204")
	}

	cookie := c.cookie(key, "")
	cookie.MaxAge = -1
	http.SetCookie(c.w, cookie)
	delete(c.written, key)
	c.deleted[key] = true
	return nil
}

func (c *Cookies) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     c.opts.Path,
		Domain:   c.opts.Domain,
		MaxAge:   c.opts.MaxAge,
		Secure:   c.opts.Secure,
		HttpOnly: c.opts.HTTPOnly,
		SameSite: c.opts.SameSite,
	}
}
