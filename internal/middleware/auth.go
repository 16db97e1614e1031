package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tasktracker/api/transport"
	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/pkg/httpcontext"
	"github.com/fastygo/tasktracker/pkg/logger"
)

// Authenticator resolves a bearer token to a live session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Session, error)
}

// JWTAuth rejects requests without a valid bearer token and stores the
// caller's user and session IDs on the request for downstream handlers.
func JWTAuth(auth Authenticator, timeout time.Duration, log *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				unauthorized(ctx)
				return
			}

			stdCtx, cancel := context.WithTimeout(context.Background(), timeout)
			stdCtx = logger.ContextWithRequestID(stdCtx, httpcontext.RequestID(ctx))
			session, err := auth.Authenticate(stdCtx, tokenString)
			cancel()
			if err != nil {
				if domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
					logger.WithRequestID(stdCtx, log).Debug("bearer token rejected", zap.Error(err))
					unauthorized(ctx)
					return
				}
				logger.WithRequestID(stdCtx, log).Error("session lookup failed", zap.Error(err))
				writeEnvelope(ctx, fasthttp.StatusInternalServerError,
					transport.NewError(string(domain.ErrCodeInternal), "internal server error", nil))
				return
			}

			ctx.SetUserValue(httpcontext.UserIDValue, session.UserID)
			ctx.SetUserValue(httpcontext.SessionIDValue, session.ID)
			next(ctx)
		}
	}
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization)))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

func unauthorized(ctx *fasthttp.RequestCtx) {
	writeEnvelope(ctx, fasthttp.StatusUnauthorized,
		transport.NewError(string(domain.ErrCodeUnauthorized), "unauthenticated", nil))
}

func writeEnvelope(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	body, _ := json.Marshal(payload)
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
