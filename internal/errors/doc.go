// Package errors provides coded, actionable errors for the storefront.
//
// Each error carries a code (e.g., "S120") that maps to a category, a short
// message, a longer explanation and a documentation link. Callers attach a
// suggestion or wrap the underlying cause:
//
//	return errors.New("S201").
//	    WithDetail("cookie cart is 5120 bytes").
//	    WithSuggestion("Switch persistence.backend to redis or s3")
//
// # Categories
//
//   - config: storefront.json / storefront.yaml problems
//   - persistence: cookie, file, Redis and S3 backend failures
//   - validation: bad input arriving over HTTP or the CLI
//   - cli: command line misuse
//
// Errors support errors.Is / errors.As through Unwrap, and Format renders a
// colored multi-line report for terminals.
package errors
