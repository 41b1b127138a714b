package middleware

import (
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	apierrors "retailpulse/internal/errors"
)

// APIKeyHeader carries the API key on mutating requests.
const APIKeyHeader = "X-API-Key"

// APIKeyAuth guards unsafe methods (POST, PUT, PATCH, DELETE) with a key
// checked against a bcrypt hash. Reads stay open. An empty hash disables
// the check.
func APIKeyAuth(hash string, logger *slog.Logger, h *apierrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if hash == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			key := r.Header.Get(APIKeyHeader)
			if key == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) != nil {
				logger.WarnContext(r.Context(), "rejected API key",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Bool("missing", key == ""))
				h.HandleError(w, r, apierrors.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isSafeMethod(m string) bool {
	return m == http.MethodGet || m == http.MethodHead || m == http.MethodOptions
}

// HashAPIKey returns the bcrypt hash to store in the configuration.
func HashAPIKey(key string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
