package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://github.com/hoka-shop/storefront/blob/main/docs/errors.md#"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Configuration Errors (S100-S119)
	// ============================================

	"S100": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be read or parsed.",
		DocURL:   docBase + "S100",
	},
	"S101": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "No storefront.json or storefront.yaml was found.",
		DocURL:   docBase + "S101",
	},
	"S102": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration field holds a value outside its allowed range.",
		DocURL:   docBase + "S102",
	},
	"S103": {
		Category: CategoryConfig,
		Message:  "Unknown persistence backend",
		Detail:   "persistence.backend must be one of cookie, memory, file, redis or s3.",
		DocURL:   docBase + "S103",
	},

	// ============================================
	// Persistence Errors (S200-S219)
	// ============================================

	"S200": {
		Category: CategoryPersistence,
		Message:  "Persisted value could not be decoded",
		Detail:   "The stored value is not valid JSON for this store. It was left untouched.",
		DocURL:   docBase + "S200",
	},
	"S201": {
		Category: CategoryPersistence,
		Message:  "Cookie value too large",
		Detail:   "Browsers drop cookies larger than 4096 bytes.",
		DocURL:   docBase + "S201",
	},
	"S202": {
		Category: CategoryPersistence,
		Message:  "Persistence backend read failed",
		DocURL:   docBase + "S202",
	},
	"S203": {
		Category: CategoryPersistence,
		Message:  "Persistence backend write failed",
		DocURL:   docBase + "S203",
	},
	"S204": {
		Category: CategoryPersistence,
		Message:  "Cookie writer unavailable",
		Detail:   "The cookie backend has no response to write Set-Cookie headers to.",
		DocURL:   docBase + "S204",
	},

	// ============================================
	// Validation Errors (S300-S319)
	// ============================================

	"S300": {
		Category: CategoryValidation,
		Message:  "Invalid product",
		DocURL:   docBase + "S300",
	},
	"S301": {
		Category: CategoryValidation,
		Message:  "Invalid toast type",
		Detail:   "Toast type must be one of success, error, info or warning.",
		DocURL:   docBase + "S301",
	},
	"S302": {
		Category: CategoryValidation,
		Message:  "Invalid identifier",
		DocURL:   docBase + "S302",
	},

	// ============================================
	// CLI Errors (S400-S419)
	// ============================================

	"S400": {
		Category: CategoryCLI,
		Message:  "Invalid argument",
		DocURL:   docBase + "S400",
	},
	"S401": {
		Category: CategoryCLI,
		Message:  "Server failed",
		DocURL:   docBase + "S401",
	},
}

// Lookup returns the template for a registered code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
