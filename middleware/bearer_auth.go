package middleware

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/torhal/flomvakt/secret"
)

// BearerAuth guards a route with the service's bearer token, looked up
// from the secret store under secret.KeyAPIToken. Tokens are compared in
// constant time.
func BearerAuth(h httprouter.Handle, secretStore secret.Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || len(authHeader) < 7 {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		authType := strings.ToLower(strings.TrimSpace(authHeader[:7]))
		if authType != "bearer" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "Unsupported authorization type", http.StatusBadRequest)
			return
		}

		token := strings.TrimSpace(authHeader[7:])
		if token == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if secretStore == nil {
			http.Error(w, "Service is not ready", http.StatusInternalServerError)
			return
		}

		expected, err := secretStore.Get(secret.KeyAPIToken)
		if err != nil {
			if errors.Is(err, secret.ErrSecretNotFound) {
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			http.Error(w, fmt.Sprintf("Failed to resolve token: %s", err), http.StatusInternalServerError)
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		h(w, r, ps)
	}
}
