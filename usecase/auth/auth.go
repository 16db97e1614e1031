package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/pkg/logger"
	"github.com/fastygo/tasktracker/repository"
)

// Options configures token issuance and password hashing.
type Options struct {
	Secret     string
	Issuer     string
	TokenTTL   time.Duration
	BcryptCost int
}

// Grant is returned by Register and Login.
type Grant struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// Registration is the input of Register.
type Registration struct {
	Name     string
	Email    string
	Password string
}

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	signer   tokenSigner
	ttl      time.Duration
	cost     int
	logger   *zap.Logger
	now      func() time.Time
}

func New(users repository.UserRepository, sessions repository.SessionRepository, opts Options, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.BcryptCost < bcrypt.MinCost || opts.BcryptCost > bcrypt.MaxCost {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		signer:   tokenSigner{secret: []byte(opts.Secret), issuer: opts.Issuer},
		ttl:      opts.TokenTTL,
		cost:     opts.BcryptCost,
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates an account and signs the new user in.
func (uc *UseCase) Register(ctx context.Context, in Registration) (*Grant, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), uc.cost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    normalizeEmail(in.Email),
		Password: string(hash),
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}
	logger.WithRequestID(ctx, uc.logger).Info("user registered", zap.Int64("user_id", user.ID))
	return uc.grant(ctx, user)
}

// Login verifies the credentials and issues a fresh token.
func (uc *UseCase) Login(ctx context.Context, email, password string) (*Grant, error) {
	user, err := uc.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, domain.ErrBadPassword
		}
		return nil, err
	}
	return uc.grant(ctx, user)
}

// Authenticate resolves a bearer token to its live session.
func (uc *UseCase) Authenticate(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := uc.signer.parse(token)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, domain.ErrUnauthorized.Message, err)
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, domain.ErrUnauthorized.Message, err)
	}

	session, err := uc.sessions.Get(ctx, claims.ID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if session.UserID != userID || session.IsExpired(uc.now()) {
		return nil, domain.ErrUnauthorized
	}
	return session, nil
}

// Logout revokes the session behind the token.
func (uc *UseCase) Logout(ctx context.Context, sessionID string) error {
	return uc.sessions.Delete(ctx, sessionID)
}

// CurrentUser returns the account of an authenticated caller.
func (uc *UseCase) CurrentUser(ctx context.Context, userID int64) (*domain.User, error) {
	return uc.users.GetByID(ctx, userID)
}

func (uc *UseCase) grant(ctx context.Context, user *domain.User) (*Grant, error) {
	now := uc.now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.ttl),
	}
	token, err := uc.signer.sign(session.ID, user.ID, session.CreatedAt, session.ExpiresAt)
	if err != nil {
		return nil, err
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return &Grant{User: user, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
