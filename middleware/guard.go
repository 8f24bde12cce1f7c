package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	vigil "github.com/vigil-auth/vigil"
)

type sessionContextKey struct{}

// SessionFromContext retrieves the session injected by a guard.
func SessionFromContext(ctx context.Context) (vigil.Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(vigil.Session)
	return session, ok
}

// Guard authenticates the bearer access token and passes the request on
// with the session attached. Rejections use the status the engine maps
// for the error: 401 for token failures, 403 for inactive or unverified
// accounts.
func Guard(engine *vigil.Engine, opts ...vigil.AuthOption) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := vigil.WithClientIP(r.Context(), clientIP(r))
			session, err := engine.Authenticate(ctx, token, opts...)
			if err != nil {
				status := vigil.HTTPStatus(err)
				http.Error(w, http.StatusText(status), status)
				return
			}

			ctx = context.WithValue(ctx, sessionContextKey{}, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireVerified is [Guard] with the verified-account check enabled.
func RequireVerified(engine *vigil.Engine) func(http.Handler) http.Handler {
	return Guard(engine, vigil.RequireVerified())
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// Bare address without a port.
		return r.RemoteAddr
	}
	return host
}
