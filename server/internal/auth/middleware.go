package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/seisplot/seisplot/server/internal/config"
)

// Middleware returns an http middleware enforcing cfg on every request.
//
// Behaviour:
//   - mode "none" or "": all requests pass through.
//   - mode "apikey": the value of cfg.EffectiveHeader() must equal cfg.Key().
//     An unconfigured key (empty env var) lets everything through, as for
//     local development.
//   - mode "jwt": an HS256 token signed with cfg.Secret() is read from the
//     "Authorization: Bearer" header or, since browsers cannot set headers on
//     websocket upgrades, from the "token" query parameter.
//
// Rejected requests get 401 with a JSON error body.
func Middleware(cfg config.AuthConfig) func(http.Handler) http.Handler {
	switch cfg.Mode {
	case "apikey":
		return apiKey(cfg.EffectiveHeader(), cfg.Key())
	case "jwt":
		return bearerJWT([]byte(cfg.Secret()))
	default:
		return func(next http.Handler) http.Handler { return next }
	}
}

func apiKey(header, key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(header) != key {
				unauthorized(w, "invalid api key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerJWT(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := tokenFromRequest(r)
			if raw == "" {
				unauthorized(w, "missing token")
				return
			}
			if err := verifyHS256(raw, secret); err != nil {
				unauthorized(w, "invalid token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// verifyHS256 checks the signature and standard time claims of raw.
func verifyHS256(raw string, secret []byte) error {
	if len(secret) == 0 {
		return fmt.Errorf("no signing secret configured")
	}
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return fmt.Errorf("invalid token")
	}
	return nil
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if after, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(after)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg}) //nolint:errcheck
}
