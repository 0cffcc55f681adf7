package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/cytorepo-backend/internal/data/repos"
	"github.com/yungbote/cytorepo-backend/internal/domain/auth"
	"github.com/yungbote/cytorepo-backend/internal/platform/ctxutil"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

// ErrUnauthenticated is returned for missing, malformed, expired or unknown
// bearer tokens.
var ErrUnauthenticated = errors.New("unauthenticated")

type AuthConfig struct {
	SecretKey string
	Issuer    string
	AccessTTL time.Duration
}

// AuthService resolves bearer tokens to principals. Login lives upstream; the
// token only has to carry the user id as its subject.
type AuthService interface {
	Authenticate(ctx context.Context, token string) (*auth.Principal, error)
	SetContextFromToken(ctx context.Context, token string) (context.Context, error)
	IssueToken(ctx context.Context, userID uuid.UUID) (string, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	log     *logger.Logger
	users   repos.UserRepo
	workers repos.WorkerRepo
	cfg     AuthConfig
}

func NewAuthService(log *logger.Logger, users repos.UserRepo, workers repos.WorkerRepo, cfg AuthConfig) AuthService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	return &authService{
		log:     log.With("service", "AuthService"),
		users:   users,
		workers: workers,
		cfg:     cfg,
	}
}

func (as *authService) GetAccessTTL() time.Duration { return as.cfg.AccessTTL }

func (as *authService) IssueToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if strings.TrimSpace(as.cfg.SecretKey) == "" {
		return "", fmt.Errorf("jwt secret not configured")
	}
	u, err := as.users.GetByID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", fmt.Errorf("user %s not found", userID)
	}
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   u.ID.String(),
		Issuer:    as.cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(as.cfg.AccessTTL)),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(as.cfg.SecretKey))
}

func (as *authService) Authenticate(ctx context.Context, token string) (*auth.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" || strings.TrimSpace(as.cfg.SecretKey) == "" {
		return nil, ErrUnauthenticated
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if as.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(as.cfg.Issuer))
	}
	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(as.cfg.SecretKey), nil
	}, opts...); err != nil {
		as.log.Debug("token rejected", "error", err)
		return nil, ErrUnauthenticated
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	dbc := dbctx.Context{Ctx: ctx}
	u, err := as.users.GetByID(dbc, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUnauthenticated
	}
	p := &auth.Principal{UserID: u.ID, Username: u.Username, Role: auth.RoleUser}
	w, err := as.workers.GetByUserID(dbc, u.ID)
	if err != nil {
		return nil, err
	}
	switch {
	case w != nil:
		p.Role = auth.RoleWorker
		p.WorkerID = w.ID
	case u.IsSuperuser:
		p.Role = auth.RoleAdmin
	}
	return p, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, token string) (context.Context, error) {
	p, err := as.Authenticate(ctx, token)
	if err != nil {
		return ctx, err
	}
	return ctxutil.WithPrincipal(ctx, p), nil
}
