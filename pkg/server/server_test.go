package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoka-shop/storefront/pkg/persist"
	"github.com/hoka-shop/storefront/pkg/product"
	"github.com/hoka-shop/storefront/pkg/toast"
)

type testClient struct {
	t    *testing.T
	base string
	http *http.Client
}

func newTestServer(t *testing.T, modify func(*Config)) (*Server, *httptest.Server) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Registry = prometheus.NewRegistry()
	if modify != nil {
		modify(cfg)
	}
	srv := New(cfg)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.visitors.closeAll()
	})
	return srv, ts
}

func newClient(t *testing.T, ts *httptest.Server) *testClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{t: t, base: ts.URL, http: &http.Client{Jar: jar}}
}

func (c *testClient) do(method, path string, body any) (int, []byte) {
	c.t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.base+path, r)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, data
}

func (c *testClient) cart(method, path string, body any) (int, cartResponse) {
	c.t.Helper()
	status, data := c.do(method, path, body)
	var out cartResponse
	if status == http.StatusOK {
		require.NoError(c.t, json.Unmarshal(data, &out))
	}
	return status, out
}

func (c *testClient) cookie(name string) *http.Cookie {
	req, _ := http.NewRequest(http.MethodGet, c.base, nil)
	for _, ck := range c.http.Jar.Cookies(req.URL) {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

var shoe = product.Product{ID: 7, Name: "Clifton 9", Price: 145, Quantity: 1}

func TestCartFlowOverCookies(t *testing.T) {
	_, ts := newTestServer(t, nil)
	c := newClient(t, ts)

	status, got := c.cart(http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, got.Items)

	status, got = c.cart(http.MethodPost, "/api/cart/items", shoe)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, got.Items, 1)

	twice := shoe
	twice.Quantity = 2
	_, got = c.cart(http.MethodPost, "/api/cart/items", twice)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 3, got.Items[0].Quantity)
	assert.Equal(t, 3, got.Count)
	assert.InDelta(t, 435.0, got.Total, 1e-9)

	require.NotNil(t, c.cookie("cart"), "cart cookie should be set")

	_, got = c.cart(http.MethodPost, "/api/cart/items/7/increase", nil)
	assert.Equal(t, 4, got.Items[0].Quantity)

	for i := 0; i < 3; i++ {
		status, got = c.cart(http.MethodPost, "/api/cart/items/7/decrease", nil)
		require.Equal(t, http.StatusOK, status)
	}
	assert.Equal(t, 1, got.Items[0].Quantity)

	status, _ = c.cart(http.MethodPost, "/api/cart/items/7/decrease", nil)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = c.cart(http.MethodPost, "/api/cart/items/99/increase", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, got = c.cart(http.MethodDelete, "/api/cart/items/7", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, got.Items)

	status, _ = c.cart(http.MethodDelete, "/api/cart/items/7", nil)
	assert.Equal(t, http.StatusNotFound, status)

	c.cart(http.MethodPost, "/api/cart/items", shoe)
	status, got = c.cart(http.MethodDelete, "/api/cart", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, got.Items)
	assert.Zero(t, got.Count)
}

func TestCartServerBackendIsolatesSessions(t *testing.T) {
	mem := persist.NewMemory()
	_, ts := newTestServer(t, func(c *Config) { c.Backend = mem })

	alice := newClient(t, ts)
	bob := newClient(t, ts)

	alice.cart(http.MethodPost, "/api/cart/items", shoe)

	_, got := bob.cart(http.MethodGet, "/api/cart", nil)
	assert.Empty(t, got.Items)

	_, got = alice.cart(http.MethodGet, "/api/cart", nil)
	assert.Len(t, got.Items, 1)

	assert.Nil(t, alice.cookie("cart"), "server backend must not write the cart cookie")
	assert.Equal(t, 1, mem.Len())
}

func TestCartRejectsBadInput(t *testing.T) {
	_, ts := newTestServer(t, nil)
	c := newClient(t, ts)

	status, data := c.do(http.MethodPost, "/api/cart/items", product.Product{ID: 0, Name: "ghost"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(data), `"code":"S300"`)

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/cart/items", strings.NewReader("{"))
	resp, err := c.http.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	status, data = c.do(http.MethodDelete, "/api/cart/items/abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(data), `"code":"S302"`)
}

func TestCartDiscardsUnreadableCookie(t *testing.T) {
	_, ts := newTestServer(t, nil)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/cart", nil)
	req.AddCookie(&http.Cookie{Name: "cart", Value: "not-json"})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDarkModeDefaultAndToggle(t *testing.T) {
	_, ts := newTestServer(t, nil)
	c := newClient(t, ts)

	var state themeState
	status, data := c.do(http.MethodGet, "/api/darkmode", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(data, &state))
	assert.True(t, state.Enabled)
	assert.Equal(t, "dark", state.ThemeClass)

	status, data = c.do(http.MethodPost, "/api/darkmode/toggle", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(data, &state))
	assert.False(t, state.Enabled)
	assert.Equal(t, "", state.ThemeClass)

	_, data = c.do(http.MethodGet, "/api/darkmode", nil)
	require.NoError(t, json.Unmarshal(data, &state))
	assert.False(t, state.Enabled, "toggle should persist")
}

func TestDarkModeConfiguredDefault(t *testing.T) {
	_, ts := newTestServer(t, func(c *Config) { c.DarkModeDefault = false })
	c := newClient(t, ts)

	var state themeState
	_, data := c.do(http.MethodGet, "/api/darkmode", nil)
	require.NoError(t, json.Unmarshal(data, &state))
	assert.False(t, state.Enabled)
}

func TestToasts(t *testing.T) {
	_, ts := newTestServer(t, nil)
	c := newClient(t, ts)

	status, data := c.do(http.MethodPost, "/api/toasts", toastRequest{Message: "Added to cart", Type: "success"})
	require.Equal(t, http.StatusCreated, status)
	var created toast.Toast
	require.NoError(t, json.Unmarshal(data, &created))
	assert.Equal(t, toast.TypeSuccess, created.Type)
	assert.NotZero(t, created.ID)

	var list struct {
		Toasts []toast.Toast `json:"toasts"`
	}
	_, data = c.do(http.MethodGet, "/api/toasts", nil)
	require.NoError(t, json.Unmarshal(data, &list))
	require.Len(t, list.Toasts, 1)

	other := newClient(t, ts)
	_, data = other.do(http.MethodGet, "/api/toasts", nil)
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Empty(t, list.Toasts, "toasts are per session")

	path := "/api/toasts/" + jsonNumber(created.ID)
	status, _ = c.do(http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = c.do(http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, data = c.do(http.MethodPost, "/api/toasts", toastRequest{Message: "x", Type: "fatal"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(data), `"code":"S301"`)

	status, _ = c.do(http.MethodPost, "/api/toasts", toastRequest{Message: "  "})
	assert.Equal(t, http.StatusBadRequest, status)
}

func jsonNumber(id int64) string {
	data, _ := json.Marshal(id)
	return string(data)
}

func TestToastExpiresAfterDuration(t *testing.T) {
	_, ts := newTestServer(t, func(c *Config) { c.ToastDuration = 20 * time.Millisecond })
	c := newClient(t, ts)

	status, _ := c.do(http.MethodPost, "/api/toasts", toastRequest{Message: "brief"})
	require.Equal(t, http.StatusCreated, status)

	assert.Eventually(t, func() bool {
		_, data := c.do(http.MethodGet, "/api/toasts", nil)
		return strings.Contains(string(data), `"toasts":[]`)
	}, time.Second, 10*time.Millisecond)
}

func TestWebSocketReceivesSessionEvents(t *testing.T) {
	srv, ts := newTestServer(t, nil)
	c := newClient(t, ts)
	c.do(http.MethodGet, "/api/cart", nil)
	session := c.cookie(SessionCookieName)
	require.NotNil(t, session)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	header := http.Header{}
	header.Set("Cookie", session.Name+"="+session.Value)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return srv.Hub().ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	// Another visitor's toast must not reach this connection.
	newClient(t, ts).do(http.MethodPost, "/api/toasts", toastRequest{Message: "not yours"})
	c.do(http.MethodPost, "/api/toasts", toastRequest{Message: "hello", Type: "info"})

	var ev struct {
		Event string         `json:"event"`
		Data  map[string]any `json:"data"`
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, toast.EventName, ev.Event)
	assert.Equal(t, "add", ev.Data["action"])
	assert.Equal(t, "hello", ev.Data["message"])
	assert.Equal(t, "info", ev.Data["level"])

	c.do(http.MethodPost, "/api/darkmode/toggle", nil)
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, ThemeEventName, ev.Event)
	assert.Equal(t, false, ev.Data["enabled"])
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	_, ts := newTestServer(t, nil)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	header := http.Header{}
	header.Set("Origin", "https://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}
}

func TestSessionCookieIsReused(t *testing.T) {
	_, ts := newTestServer(t, nil)
	c := newClient(t, ts)

	c.do(http.MethodGet, "/api/toasts", nil)
	first := c.cookie(SessionCookieName)
	require.NotNil(t, first)

	c.do(http.MethodGet, "/api/toasts", nil)
	assert.Equal(t, first.Value, c.cookie(SessionCookieName).Value)
}

func TestMetricsAndHealth(t *testing.T) {
	_, ts := newTestServer(t, nil)
	c := newClient(t, ts)
	c.do(http.MethodPost, "/api/cart/items", shoe)
	c.do(http.MethodPost, "/api/toasts", toastRequest{Message: "m", Type: "warning"})

	status, data := c.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(data), `"status":"ok"`)

	status, data = c.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	body := string(data)
	assert.Contains(t, body, `storefront_http_requests_total{method="POST",route="/api/cart/items",status="200"} 1`)
	assert.Contains(t, body, `storefront_store_operations_total{op="add",result="ok",store="cart"} 1`)
	assert.Contains(t, body, `storefront_toasts_shown_total{type="warning"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	_, ts := newTestServer(t, func(c *Config) { c.Registry = nil })
	status, _ := newClient(t, ts).do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestVisitorsSweep(t *testing.T) {
	now := time.Unix(1000, 0)
	v := newVisitors(func(string) *toast.Store { return toast.NewStore() })
	v.now = func() time.Time { return now }

	v.toasts("a")
	now = now.Add(10 * time.Minute)
	v.toasts("b").Info("pending")

	assert.Equal(t, 1, v.sweep(5*time.Minute))
	assert.Equal(t, 1, v.len())

	now = now.Add(10 * time.Minute)
	assert.Equal(t, 1, v.sweep(5*time.Minute))
	assert.Zero(t, v.len())
}

func TestVisitorsSweepKeepsConnected(t *testing.T) {
	now := time.Unix(1000, 0)
	v := newVisitors(func(string) *toast.Store { return toast.NewStore() })
	v.now = func() time.Time { return now }
	v.connected = func(id string) bool { return id == "live" }

	v.toasts("live")
	v.toasts("gone")
	now = now.Add(time.Hour)

	assert.Equal(t, 1, v.sweep(5*time.Minute))
	assert.Equal(t, 1, v.len())
}

func TestWebSocketKeepsSessionThroughSweep(t *testing.T) {
	srv, ts := newTestServer(t, nil)
	c := newClient(t, ts)
	c.do(http.MethodPost, "/api/toasts", toastRequest{Message: "stay", Type: "info"})
	session := c.cookie(SessionCookieName)
	require.NotNil(t, session)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	header := http.Header{}
	header.Set("Cookie", session.Name+"="+session.Value)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return srv.Hub().ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	assert.Zero(t, srv.visitors.sweep(0))

	var list struct {
		Toasts []toast.Toast `json:"toasts"`
	}
	status, data := c.do(http.MethodGet, "/api/toasts", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(data, &list))
	require.Len(t, list.Toasts, 1)
	assert.Equal(t, "stay", list.Toasts[0].Message)

	conn.Close()
	require.Eventually(t, func() bool { return srv.Hub().ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, srv.visitors.sweep(time.Hour))
}

func TestSessionAttributesSkipMalformedCookie(t *testing.T) {
	id := "0f8fad5b-d9cb-469f-a165-70867728950e"

	for _, tc := range []struct {
		name   string
		cookie string
		want   string
	}{
		{"well formed", id, id},
		{"uppercase normalized", strings.ToUpper(id), id},
		{"malformed", "<script>alert(1)</script>", ""},
		{"missing", "", ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tc.cookie})
			}
			attrs := sessionAttributes(req)
			if tc.want == "" {
				assert.Empty(t, attrs)
				return
			}
			require.Len(t, attrs, 1)
			assert.Equal(t, "storefront.session", string(attrs[0].Key))
			assert.Equal(t, tc.want, attrs[0].Value.AsString())
		})
	}
}

func TestRunAndShutdown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ShutdownTimeout = time.Second
	srv := New(cfg)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestAllowOrigins(t *testing.T) {
	check := AllowOrigins("https://shop.example")

	r := httptest.NewRequest(http.MethodGet, "http://api.example/ws", nil)
	r.Header.Set("Origin", "https://shop.example")
	assert.True(t, check(r))

	r.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(r))

	r.Header.Set("Origin", "http://api.example")
	assert.True(t, check(r))
}
