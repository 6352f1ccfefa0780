// Package auth provides issuance and verification of the signed access and
// refresh tokens carrying identity, tenant and active-workspace claims.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/workden/workden/business/domain/userbus"
	"github.com/workden/workden/foundation/logger"
)

// Token lifetimes. Externally observable, do not change casually.
const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

// Set of token kinds. A refresh token can never pass the access gate and
// vice versa.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Set of errors for authentication. Every verification failure collapses to
// ErrInvalidToken so callers leak nothing about why a token was rejected.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrUserDisabled = errors.New("user is disabled")
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	TenantID          string `json:"tenant_id"`
	Email             string `json:"email"`
	UserType          string `json:"user_type"`
	IsAdmin           bool   `json:"is_admin"`
	ActiveWorkspaceID string `json:"active_workspace_id,omitempty"`
	Kind              string `json:"kind"`
}

// UserID returns the subject as a uuid.
func (c Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// HomeTenantID returns the tenant claim as a uuid.
func (c Claims) HomeTenantID() (uuid.UUID, error) {
	return uuid.Parse(c.TenantID)
}

// ActiveWorkspace returns the active workspace claim, uuid.Nil when absent.
func (c Claims) ActiveWorkspace() uuid.UUID {
	if c.ActiveWorkspaceID == "" {
		return uuid.Nil
	}

	id, err := uuid.Parse(c.ActiveWorkspaceID)
	if err != nil {
		return uuid.Nil
	}

	return id
}

// TokenPair is the result of a successful login, refresh, or workspace
// switch.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Config represents information required to initialize auth.
type Config struct {
	Log     *logger.Logger
	UserBus *userbus.Core
	Secret  string
	Issuer  string
}

// Auth is used to authenticate clients.
type Auth struct {
	log     *logger.Logger
	userBus *userbus.Core
	secret  []byte
	method  jwt.SigningMethod
	parser  *jwt.Parser
	issuer  string
}

// New creates an Auth to support authentication/authorization.
func New(cfg Config) (*Auth, error) {
	if cfg.Secret == "" {
		return nil, errors.New("auth: secret is required")
	}

	a := Auth{
		log:     cfg.Log,
		userBus: cfg.UserBus,
		secret:  []byte(cfg.Secret),
		method:  jwt.GetSigningMethod(jwt.SigningMethodHS256.Name),
		parser:  jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name})),
		issuer:  cfg.Issuer,
	}

	return &a, nil
}

// Issuer provides the configured issuer used to authenticate tokens.
func (a *Auth) Issuer() string {
	return a.issuer
}

// GenerateTokenPair issues a fresh access and refresh token pair for the
// user. A uuid.Nil activeWorkspaceID omits the workspace claim entirely.
func (a *Auth) GenerateTokenPair(usr userbus.User, activeWorkspaceID uuid.UUID) (TokenPair, error) {
	access, _, err := a.generate(usr, activeWorkspaceID, KindAccess, AccessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("access token: %w", err)
	}

	refresh, refreshExp, err := a.generate(usr, activeWorkspaceID, KindRefresh, RefreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("refresh token: %w", err)
	}

	pair := TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}

	return pair, nil
}

func (a *Auth) generate(usr userbus.User, activeWorkspaceID uuid.UUID, kind string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   usr.ID.String(),
			Issuer:    a.issuer,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		TenantID: usr.TenantID.String(),
		Email:    usr.Email.Address,
		UserType: usr.Type.String(),
		IsAdmin:  usr.IsAdmin,
		Kind:     kind,
	}

	if activeWorkspaceID != uuid.Nil {
		claims.ActiveWorkspaceID = activeWorkspaceID.String()
	}

	token := jwt.NewWithClaims(a.method, claims)

	str, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}

	return str, exp, nil
}

// Authenticate processes a bearer token and returns the access claims it
// carries. The user behind the token must still be enabled.
func (a *Auth) Authenticate(ctx context.Context, bearerToken string) (Claims, error) {
	if !strings.HasPrefix(bearerToken, "Bearer ") {
		return Claims{}, ErrInvalidToken
	}

	claims, err := a.verify(bearerToken[7:], KindAccess)
	if err != nil {
		return Claims{}, err
	}

	if err := a.isUserEnabled(ctx, claims); err != nil {
		return Claims{}, err
	}

	return claims, nil
}

// VerifyRefresh validates a raw refresh token's signature, expiry and kind.
// The ledger check belongs to the caller.
func (a *Auth) VerifyRefresh(ctx context.Context, token string) (Claims, error) {
	claims, err := a.verify(token, KindRefresh)
	if err != nil {
		return Claims{}, err
	}

	if err := a.isUserEnabled(ctx, claims); err != nil {
		return Claims{}, err
	}

	return claims, nil
}

func (a *Auth) verify(tokenStr string, kind string) (Claims, error) {
	var claims Claims
	token, err := a.parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	if claims.Issuer != a.issuer {
		return Claims{}, ErrInvalidToken
	}

	if claims.Kind != kind {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}

func (a *Auth) isUserEnabled(ctx context.Context, claims Claims) error {
	if a.userBus == nil {
		return nil
	}

	userID, err := claims.UserID()
	if err != nil {
		return ErrInvalidToken
	}

	usr, err := a.userBus.QueryByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("query user: %w", err)
	}

	if !usr.Enabled {
		return ErrUserDisabled
	}

	return nil
}
