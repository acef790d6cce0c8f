package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/labinventory/internal/auth"
	"github.com/google/uuid"
)

type webContextKey string

const storageIDKey webContextKey = "storageid"

// StorageCookie names the cookie that carries the signed browser storage ID.
const StorageCookie = "lab_session"

// StorageMiddleware resolves the browser's storage ID from its signed cookie
// and adds it to the context. Browsers without a valid cookie get a new ID.
func StorageMiddleware(secret string, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var storageID string
			if cookie, err := r.Cookie(StorageCookie); err == nil && cookie.Value != "" {
				if claims, err := auth.ParseStorageID(secret, cookie.Value); err == nil {
					storageID = claims.StorageID
				} else {
					slog.Debug("discarding invalid storage cookie", "error", err)
				}
			}

			if storageID == "" {
				storageID = uuid.NewString()
				value, err := auth.SignStorageID(secret, storageID)
				if err != nil {
					slog.Error("failed to sign storage cookie", "error", err)
					http.Error(w, "internal error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     StorageCookie,
					Value:    value,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteStrictMode,
					MaxAge:   int(auth.CookieExpiry / time.Second),
				})
			}

			ctx := context.WithValue(r.Context(), storageIDKey, storageID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// clearStorageCookie expires the storage cookie with consistent attributes.
func clearStorageCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     StorageCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// GetStorageID retrieves the browser storage ID from context.
func GetStorageID(ctx context.Context) string {
	id, _ := ctx.Value(storageIDKey).(string)
	return id
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy",
			"default-src 'self'; script-src 'self'; style-src 'self'; img-src 'self' data:; connect-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs HTTP requests with method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}
