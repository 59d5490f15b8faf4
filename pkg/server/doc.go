// Package server exposes the storefront stores over HTTP.
//
// Every visitor is identified by an opaque session cookie. Cart and
// dark-mode state is persisted per request through a persist.Blobs backend:
// the visitor's own cookies by default, or a shared server-side backend
// scoped by session ID. Toasts are transient and live in memory for the
// lifetime of the session.
//
// # Routes
//
//	GET    /api/cart                       cart contents, count and total
//	POST   /api/cart/items                 add a product
//	DELETE /api/cart/items/{id}            remove a product
//	POST   /api/cart/items/{id}/increase   quantity +1
//	POST   /api/cart/items/{id}/decrease   quantity -1 (floor 1)
//	DELETE /api/cart                       empty the cart
//	GET    /api/darkmode                   current preference
//	POST   /api/darkmode/toggle            flip the preference
//	GET    /api/toasts                     visible toasts
//	POST   /api/toasts                     show a toast
//	DELETE /api/toasts/{id}                hide a toast
//	GET    /ws                             toast and theme events
//	GET    /metrics                        Prometheus exposition
//	GET    /healthz                        liveness
//
// # Events
//
// Connected WebSocket clients receive JSON frames of the form
//
//	{"event": "storefront:toast", "data": {"action": "add", ...}}
//	{"event": "storefront:theme", "data": {"enabled": true, "themeClass": "dark"}}
//
// Events are delivered only to the connections of the session that caused
// them.
//
// # Example Usage
//
//	srv := server.New(server.DefaultConfig())
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
