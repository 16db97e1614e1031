package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/tasktracker/pkg/logger"
)

// Key represents a context value key exported for reuse.
type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"
)

// UserValue keys set on fasthttp.RequestCtx by the auth middleware.
const (
	UserIDValue    = "auth.user_id"
	SessionIDValue = "auth.session_id"
)

const requestIDHeader = "X-Request-ID"

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and metadata.
type Adapter struct {
	timeout time.Duration
}

func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{timeout: timeout}
}

// Attach derives a context bounded by the adapter timeout and carrying the
// request ID, the caller's user ID and connection metadata.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := RequestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	if userID, ok := UserID(ctx); ok {
		stdCtx = appLogger.ContextWithUserID(stdCtx, userID)
	}

	if remoteAddr := ctx.RemoteAddr(); remoteAddr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, remoteAddr.String())
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}

	return stdCtx, cancel
}

// RequestID returns the request's ID, generating and echoing one on first use.
func RequestID(ctx *fasthttp.RequestCtx) string {
	if existing := string(ctx.Response.Header.Peek(requestIDHeader)); existing != "" {
		return existing
	}
	id := strings.TrimSpace(string(ctx.Request.Header.Peek(requestIDHeader)))
	if id == "" {
		id = uuid.NewString()
	}
	ctx.Response.Header.Set(requestIDHeader, id)
	return id
}

// UserID returns the authenticated user stored by the auth middleware.
func UserID(ctx *fasthttp.RequestCtx) (int64, bool) {
	id, ok := ctx.UserValue(UserIDValue).(int64)
	return id, ok
}

// SessionID returns the session of the presented bearer token.
func SessionID(ctx *fasthttp.RequestCtx) (string, bool) {
	id, ok := ctx.UserValue(SessionIDValue).(string)
	return id, ok && id != ""
}
