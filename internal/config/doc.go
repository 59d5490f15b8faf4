// Package config provides configuration parsing for the storefront.
//
// The configuration is stored in storefront.json (or storefront.yaml) at
// the working directory. This package handles loading, saving, defaults and
// validation.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "addr": ":3000",
//	    "shutdownTimeout": "10s"
//	  },
//	  "cookie": {
//	    "path": "/",
//	    "secure": true,
//	    "sameSite": "lax"
//	  },
//	  "persistence": {
//	    "backend": "redis",
//	    "redis": { "addr": "localhost:6379", "ttl": "720h" }
//	  },
//	  "toast": { "duration": "5s" },
//	  "darkMode": { "default": true },
//	  "telemetry": { "exporter": "stdout" },
//	  "log": { "level": "info", "format": "json" }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Server.Addr)
package config
