package handler

import (
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tasktracker/api/transport"
	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/pkg/httpcontext"
	authUC "github.com/fastygo/tasktracker/usecase/auth"
)

type AuthHandler struct {
	baseHandler
	uc *authUC.UseCase
}

func NewAuthHandler(uc *authUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.RegisterRequest
	if !h.bind(stdCtx, ctx, &req) {
		return
	}

	grant, err := h.uc.Register(stdCtx, authUC.Registration{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeConflict) {
			err = &transport.ValidationError{Fields: []transport.FieldError{{
				Field:   "email",
				Rule:    "unique",
				Message: "the email has already been taken",
			}}}
		}
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondData(ctx, http.StatusCreated, grant)
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var req transport.LoginRequest
	if !h.bind(stdCtx, ctx, &req) {
		return
	}

	grant, err := h.uc.Login(stdCtx, req.Email, req.Password)
	if err != nil {
		var dErr *domain.Error
		if errors.As(err, &dErr) && (dErr.Code == domain.ErrCodeNotFound || dErr.Code == domain.ErrCodeUnauthorized) {
			h.respondMessage(ctx, http.StatusUnauthorized, dErr.Message)
			return
		}
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondData(ctx, http.StatusOK, grant)
}

// CurrentUser handles GET /api/user.
func (h *AuthHandler) CurrentUser(ctx *fasthttp.RequestCtx) {
	userID, ok := h.userID(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.CurrentUser(stdCtx, userID)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondData(ctx, http.StatusOK, user)
}

// Logout handles POST /api/logout by revoking the presented token.
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	sessionID, ok := httpcontext.SessionID(ctx)
	if !ok {
		h.respondError(stdCtx, ctx, domain.ErrUnauthorized)
		return
	}
	if err := h.uc.Logout(stdCtx, sessionID); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondMessage(ctx, http.StatusOK, "logged out")
}
