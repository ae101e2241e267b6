package middleware

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"careerflow/pkg/auth"
	pkgerrors "careerflow/pkg/errors"
)

// Authenticate validates the bearer token of every request and stores the
// claims in the request context.
func Authenticate(validator *auth.JWTValidator, errs *pkgerrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError("Missing authentication token").WithCode("MISSING_TOKEN"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn("Invalid token",
					zap.Error(err),
					zap.String("path", r.URL.Path),
				)
				errs.Handle(w, r, tokenError(err))
				return
			}

			logger.Debug("Request authenticated",
				zap.String("user_id", claims.UserID),
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method),
			)
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

// extractToken reads the token from the Authorization header or the
// auth_token cookie
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return header
	}
	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return ""
}

func tokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return pkgerrors.NewUnauthorizedError("Token has expired").WithCode("TOKEN_EXPIRED").WithCause(err)
	case errors.Is(err, auth.ErrInvalidSignature):
		return pkgerrors.NewUnauthorizedError("Invalid token signature").WithCode("INVALID_SIGNATURE").WithCause(err)
	default:
		return pkgerrors.NewUnauthorizedError("Invalid token").WithCode("INVALID_TOKEN").WithCause(err)
	}
}
