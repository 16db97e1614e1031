package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/pkg/httpcontext"
)

type stubAuth map[string]*domain.Session

func (s stubAuth) Authenticate(_ context.Context, token string) (*domain.Session, error) {
	if token == "boom" {
		return nil, errors.New("redis: connection refused")
	}
	if session, ok := s[token]; ok {
		return session, nil
	}
	return nil, domain.ErrUnauthorized
}

func run(header string) (*fasthttp.RequestCtx, bool) {
	auth := stubAuth{"good": {ID: "sess-1", UserID: 5}}
	called := false
	handler := JWTAuth(auth, 0, nil)(func(ctx *fasthttp.RequestCtx) {
		called = true
		ctx.SetStatusCode(fasthttp.StatusOK)
	})

	ctx := &fasthttp.RequestCtx{}
	if header != "" {
		ctx.Request.Header.Set(fasthttp.HeaderAuthorization, header)
	}
	handler(ctx)
	return ctx, called
}

func TestJWTAuth_AcceptsBearerToken(t *testing.T) {
	ctx, called := run("Bearer good")
	assert.True(t, called)

	userID, ok := httpcontext.UserID(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(5), userID)

	sessionID, ok := httpcontext.SessionID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "sess-1", sessionID)
}

func TestJWTAuth_Rejects(t *testing.T) {
	for _, header := range []string{"", "Bearer bad", "Bearer "} {
		ctx, called := run(header)
		assert.False(t, called, header)
		assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode(), header)
		assert.Contains(t, string(ctx.Response.Body()), "UNAUTHORIZED")
	}
}

func TestJWTAuth_StoreFailureIs500(t *testing.T) {
	ctx, called := run("Bearer boom")
	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusInternalServerError, ctx.Response.StatusCode())
}
