package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/magnetbrain/backend/domain"
)

const sessionLookupTimeout = 2 * time.Second

// SessionStore is the revocation check consulted per request. A nil
// store disables the check and tokens are trusted until expiry.
type SessionStore interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
}

// JWTAuth verifies the bearer token, confirms its session has not been
// revoked, and forwards the verified principal to handlers via identity
// headers. Handlers never see the raw token.
func JWTAuth(secret string, sessions SessionStore, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			// Strip any client-supplied identity headers before verification.
			ctx.Request.Header.Del("X-User-ID")
			ctx.Request.Header.Del("X-User-Role")
			ctx.Request.Header.Del("X-Session-ID")

			tokenString := extractToken(ctx)
			if tokenString == "" {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				logger.Warn("invalid jwt token", zap.Error(err))
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}
			userID, _ := claims["user_id"].(string)
			if userID == "" {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			sid, _ := claims["sid"].(string)
			if !sessionAlive(sessions, sid, logger) {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			ctx.Request.Header.Set("X-User-ID", userID)
			if role, ok := claims["role"].(string); ok {
				ctx.Request.Header.Set("X-User-Role", role)
			}
			if sid != "" {
				ctx.Request.Header.Set("X-Session-ID", sid)
			}

			next(ctx)
		}
	}
}

// sessionAlive reports whether the token's session still exists. A
// missing record means the session was revoked. Storage errors do not
// lock every user out; the signed token still gates the request.
func sessionAlive(sessions SessionStore, sid string, logger *zap.Logger) bool {
	if sessions == nil || sid == "" {
		return true
	}

	lookupCtx, cancel := context.WithTimeout(context.Background(), sessionLookupTimeout)
	defer cancel()

	session, err := sessions.Get(lookupCtx, sid)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return false
		}
		logger.Warn("session lookup failed", zap.Error(err))
		return true
	}
	return !session.IsExpired(time.Now())
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
