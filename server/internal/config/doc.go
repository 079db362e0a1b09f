// Package config loads the seisplot configuration from config.yaml.
//
// Config fields:
//   - Server.HTTPPort          port for the web endpoints and websocket routes (default 8080)
//   - Server.ShutdownTimeout   graceful shutdown bound (default 10s)
//   - Server.Log               level, optional rotated log file
//   - Server.Auth              "apikey", "jwt" or "none" for the websocket routes
//   - Renderer.Endpoint        URL of the external plotting service (required)
//   - Renderer.Timeout         per-render timeout (default 30s)
//   - Renderer.CacheTTL        image cache retention, 0 disables (default 5m)
//   - Renderer.CacheMaxEntries image cache size bound, 0 unbounded (default 128)
//   - Renderer.Auth            "apikey", "bearer" or "none" for outbound calls
//
// Secrets are never stored in the file; *_env fields name the environment
// variables that hold them.
//
// Load(path) applies defaults before unmarshalling, then validates.
// Watch(ctx, path, onChange) reloads the file on change via fsnotify.
package config
