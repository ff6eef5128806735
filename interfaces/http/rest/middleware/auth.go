package middleware

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"pathfinder-backend/pkg/auth"
	pkgerrors "pathfinder-backend/pkg/errors"
)

// TokenValidator checks an access token and returns its claims
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// RateLimits configures the authenticator's limiters. A nil limiter
// disables that limit; the per-minute figures are only reported to clients.
type RateLimits struct {
	IP            auth.RateLimiter
	IPPerMinute   int
	User          auth.RateLimiter
	UserPerMinute int
}

// Authenticator validates bearer tokens and applies per-IP and per-user
// rate limits
type Authenticator struct {
	validator TokenValidator
	limits    RateLimits
	errors    *pkgerrors.ErrorHandler
	logger    *zap.Logger
}

// NewAuthenticator creates the middleware
func NewAuthenticator(validator TokenValidator, limits RateLimits, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		validator: validator,
		limits:    limits,
		errors:    errs,
		logger:    logger,
	}
}

// LimitIP applies only the per-IP limit; used on the public auth routes
func (a *Authenticator) LimitIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.allow(w, r, a.limits.IP, a.limits.IPPerMinute, clientIP(r)) {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Authenticate requires a valid bearer token
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !a.allow(w, r, a.limits.IP, a.limits.IPPerMinute, ip) {
			return
		}

		token := extractToken(r)
		if token == "" {
			a.errors.Handle(w, r, pkgerrors.NewUnauthorizedError("missing authentication token").WithCode("MISSING_TOKEN"))
			return
		}

		claims, err := a.validator.ValidateToken(token)
		if err != nil {
			a.logger.Warn("Invalid token",
				zap.Error(err),
				zap.String("ip", ip),
				zap.String("path", r.URL.Path),
			)
			a.errors.Handle(w, r, tokenError(err))
			return
		}

		if !a.allow(w, r, a.limits.User, a.limits.UserPerMinute, claims.UserID) {
			return
		}

		a.logger.Debug("Request authenticated",
			zap.String("user_id", claims.UserID),
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
		)
		ctx := auth.WithUser(r.Context(), auth.NewUserContext(claims))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// allow writes a 429 and returns false when key is over its limit. Limiter
// errors fail open.
func (a *Authenticator) allow(w http.ResponseWriter, r *http.Request, limiter auth.RateLimiter, perMinute int, key string) bool {
	if limiter == nil {
		return true
	}
	allowed, err := limiter.Allow(r.Context(), key)
	if err != nil {
		a.logger.Error("Rate limiter error", zap.Error(err))
	}
	if !allowed {
		a.errors.Handle(w, r, pkgerrors.NewRateLimitError(perMinute, "minute").WithCode("RATE_LIMITED"))
		return false
	}
	return true
}

func tokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return pkgerrors.NewUnauthorizedError("token has expired").WithCode("TOKEN_EXPIRED")
	case errors.Is(err, auth.ErrInvalidSignature):
		return pkgerrors.NewUnauthorizedError("invalid token signature").WithCode("INVALID_TOKEN")
	default:
		return pkgerrors.NewUnauthorizedError("invalid token").WithCode("INVALID_TOKEN")
	}
}

// extractToken reads the bearer token from the Authorization header or the
// auth_token cookie
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return ""
}

// clientIP is the peer address; chi's RealIP middleware has already applied
// X-Forwarded-For and X-Real-IP
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
