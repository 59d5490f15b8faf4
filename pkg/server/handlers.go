package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hoka-shop/storefront/internal/errors"
	"github.com/hoka-shop/storefront/pkg/cart"
	"github.com/hoka-shop/storefront/pkg/darkmode"
	"github.com/hoka-shop/storefront/pkg/middleware"
	"github.com/hoka-shop/storefront/pkg/persist"
	"github.com/hoka-shop/storefront/pkg/product"
	"github.com/hoka-shop/storefront/pkg/toast"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 64 << 10

type cartResponse struct {
	Items []product.Product `json:"items"`
	Count int               `json:"count"`
	Total float64           `json:"total"`
}

type themeState struct {
	Enabled    bool   `json:"enabled"`
	ThemeClass string `json:"themeClass"`
}

func themeResponse(enabled bool) themeState {
	return themeState{Enabled: enabled, ThemeClass: darkmode.Class(enabled)}
}

type toastRequest struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"websocket": s.hub.ClientCount(),
		"sessions":  s.visitors.len(),
	})
}

// blobs returns the persistence backend for this request's visitor.
func (s *Server) blobs(w http.ResponseWriter, r *http.Request) persist.Blobs {
	if s.config.Backend != nil {
		return persist.Prefixed(s.config.Backend, SessionID(r.Context())+":")
	}
	return persist.NewCookies(w, r, s.config.Cookie)
}

func (s *Server) observer(store string) func(op, result string) {
	if s.metrics == nil {
		return nil
	}
	return s.metrics.ObserveStore(store)
}

// openCart builds the visitor's cart and loads it. A payload that cannot be
// decoded is discarded so the next write replaces it.
func (s *Server) openCart(w http.ResponseWriter, r *http.Request) (*cart.Store, bool) {
	ctx, span := middleware.StartStoreSpan(r.Context(), "cart", "load")
	store := cart.New(
		persist.JSON[[]product.Product](s.blobs(w, r), cart.CookieName),
		cart.WithLogger(s.logger),
		cart.WithObserver(s.observer("cart")),
	)
	err := store.Load(ctx)
	middleware.EndStoreSpan(span, err)

	if err != nil {
		if errors.Code(err) == "S200" {
			s.logger.Warn("discarding unreadable cart", "session", SessionID(ctx), "error", err)
			return store, true
		}
		s.writeStoreError(w, err)
		return nil, false
	}
	return store, true
}

func (s *Server) writeCart(w http.ResponseWriter, status int, store *cart.Store) {
	writeJSON(w, status, cartResponse{
		Items: store.Items(),
		Count: store.Count(),
		Total: store.Total(),
	})
}

func (s *Server) handleCartGet(w http.ResponseWriter, r *http.Request) {
	store, ok := s.openCart(w, r)
	if !ok {
		return
	}
	s.writeCart(w, http.StatusOK, store)
}

func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	var p product.Product
	if !s.decode(w, r, &p) {
		return
	}
	if err := product.Validate(p); err != nil {
		s.writeStoreError(w, errors.New("S300").WithDetail(err.Error()))
		return
	}

	store, ok := s.openCart(w, r)
	if !ok {
		return
	}
	ctx, span := middleware.StartStoreSpan(r.Context(), "cart", "add")
	err := store.Add(ctx, p)
	middleware.EndStoreSpan(span, err)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeCart(w, http.StatusOK, store)
}

func (s *Server) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	s.cartByID(w, r, "remove", (*cart.Store).Remove)
}

func (s *Server) handleCartIncrease(w http.ResponseWriter, r *http.Request) {
	s.cartByID(w, r, "increase", (*cart.Store).IncreaseQuantity)
}

func (s *Server) handleCartDecrease(w http.ResponseWriter, r *http.Request) {
	s.cartByID(w, r, "decrease", (*cart.Store).DecreaseQuantity)
}

// cartByID runs an id-addressed cart operation. A miss answers 404 except
// for decrease, where an entry held at quantity 1 answers 409.
func (s *Server) cartByID(w http.ResponseWriter, r *http.Request, op string, fn func(*cart.Store, context.Context, int) (bool, error)) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		s.writeStoreError(w, errors.New("S302").WithDetail("product id must be a positive integer"))
		return
	}

	store, ok := s.openCart(w, r)
	if !ok {
		return
	}
	ctx, span := middleware.StartStoreSpan(r.Context(), "cart", op)
	hit, err := fn(store, ctx, id)
	middleware.EndStoreSpan(span, err)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if !hit {
		if _, present := store.Get(id); present {
			writeJSON(w, http.StatusConflict, errorResponse{Error: "quantity is already at its minimum"})
			return
		}
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "product " + strconv.Itoa(id) + " is not in the cart"})
		return
	}
	s.writeCart(w, http.StatusOK, store)
}

func (s *Server) handleCartReset(w http.ResponseWriter, r *http.Request) {
	store, ok := s.openCart(w, r)
	if !ok {
		return
	}
	ctx, span := middleware.StartStoreSpan(r.Context(), "cart", "reset")
	err := store.Reset(ctx)
	middleware.EndStoreSpan(span, err)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeCart(w, http.StatusOK, store)
}

// openDarkMode builds the visitor's preference store. Theme changes are
// pushed to the visitor's WebSocket connections.
func (s *Server) openDarkMode(w http.ResponseWriter, r *http.Request) (*darkmode.Store, bool) {
	session := SessionID(r.Context())
	store, err := darkmode.New(r.Context(),
		persist.JSON[bool](s.blobs(w, r), darkmode.CookieName),
		s.hub.Theme(session),
		darkmode.WithDefault(s.config.DarkModeDefault),
		darkmode.WithLogger(s.logger),
		darkmode.WithObserver(s.observer("darkmode")),
	)
	if err != nil && errors.Code(err) != "S200" {
		s.writeStoreError(w, err)
		return nil, false
	}
	return store, true
}

func (s *Server) handleDarkModeGet(w http.ResponseWriter, r *http.Request) {
	store, ok := s.openDarkMode(w, r)
	if !ok {
		return
	}
	ctx, span := middleware.StartStoreSpan(r.Context(), "darkmode", "load")
	err := store.Load(ctx)
	middleware.EndStoreSpan(span, err)
	if err != nil && errors.Code(err) != "S200" {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, themeResponse(store.Enabled()))
}

func (s *Server) handleDarkModeToggle(w http.ResponseWriter, r *http.Request) {
	store, ok := s.openDarkMode(w, r)
	if !ok {
		return
	}
	ctx, span := middleware.StartStoreSpan(r.Context(), "darkmode", "toggle")
	enabled, err := store.Toggle(ctx)
	middleware.EndStoreSpan(span, err)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, themeResponse(enabled))
}

func (s *Server) handleToastList(w http.ResponseWriter, r *http.Request) {
	store := s.visitors.toasts(SessionID(r.Context()))
	writeJSON(w, http.StatusOK, map[string]any{"toasts": store.List()})
}

func (s *Server) handleToastAdd(w http.ResponseWriter, r *http.Request) {
	var req toastRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeStoreError(w, errors.New("S400").WithDetail("message is required"))
		return
	}
	if req.Type == "" {
		req.Type = string(toast.TypeInfo)
	}
	typ, err := toast.ParseType(req.Type)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	t := s.visitors.toasts(SessionID(r.Context())).Add(req.Message, typ)
	if s.metrics != nil {
		s.metrics.RecordToast(string(typ))
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleToastRemove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeStoreError(w, errors.New("S302").WithDetail("toast id must be an integer"))
		return
	}
	if !s.visitors.toasts(SessionID(r.Context())).Remove(id) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "toast " + strconv.FormatInt(id, 10) + " is not visible"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	session := SessionID(r.Context())
	s.visitors.toasts(session)
	s.hub.Serve(w, r, session)
	// Serve returns on disconnect; the idle clock starts from here.
	s.visitors.toasts(session)
}

// decode reads a JSON body into v, answering 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		s.writeStoreError(w, errors.New("S400").WithDetail("invalid JSON body: "+err.Error()))
		return false
	}
	return true
}

// writeStoreError maps a coded error to an HTTP status and JSON body.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Code(err) == "S201":
		status = http.StatusRequestEntityTooLarge
	case errors.IsCategory(err, errors.CategoryValidation), errors.Code(err) == "S400":
		status = http.StatusBadRequest
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("store operation failed", "error", err)
	}

	resp := errorResponse{Error: err.Error(), Code: errors.Code(err)}
	if resp.Code != "" {
		se := errors.FromError(err, resp.Code)
		resp.Error = se.Message
		if se.Detail != "" {
			resp.Error += ": " + se.Detail
		}
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
