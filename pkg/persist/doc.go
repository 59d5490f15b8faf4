// Package persist separates store state from the medium it is saved to.
//
// Stores depend on Adapter[T], a whole-value Load/Save pair. The usual
// adapter is JSON, which encodes the value and hands the bytes to a Blobs
// backend under a fixed key:
//
//	// Per request, in an HTTP handler:
//	cookies := persist.NewCookies(w, r, persist.CookieOptions{Path: "/"})
//	items := persist.JSON[[]product.Product](cookies, "cart")
//
//	// Server-side, scoped to one visitor:
//	blobs := persist.Prefixed(persist.NewRedis(client), sessionID+":")
//	items := persist.JSON[[]product.Product](blobs, "cart")
//
// Backends:
//   - Cookies: request cookie in, Set-Cookie out (one instance per request)
//   - Memory: process-local map
//   - Dir: one file per key in a directory
//   - Redis: go-redis client with key prefix and optional TTL
//   - S3: one object per key under a bucket prefix
//
// Every Save overwrites the whole value; there are no partial writes.
package persist
