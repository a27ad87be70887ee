package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired = goerrors.New("token expired", goerrors.CategoryAuth).
			WithTextCode("TOKEN_EXPIRED").
			WithCode(goerrors.CodeUnauthorized)

	ErrTokenMalformed = goerrors.New("token malformed", goerrors.CategoryAuth).
				WithTextCode("TOKEN_MALFORMED").
				WithCode(goerrors.CodeUnauthorized)
)

// TokenClaims is the payload of every token we sign
type TokenClaims struct {
	jwt.RegisteredClaims
	Verification bool     `json:"verification,omitempty"`
	User         string   `json:"user,omitempty"`
	Roles        []string `json:"roles,omitempty"`
	Permissions  []string `json:"permissions,omitempty"`
}

// TokenService signs and validates HS256 tokens with a shared secret
type TokenService interface {
	// SignVerification issues the token embedded in the email verification link
	SignVerification(username string) (string, error)
	// SignAccess issues an access token for an authenticated user
	SignAccess(user *User) (string, error)
	// Verify checks signature, algorithm and expiration
	Verify(token string) (*TokenClaims, error)
}

type tokenService struct {
	signingKey             []byte
	issuer                 string
	tokenExpiration        time.Duration
	verificationExpiration time.Duration
	logger                 Logger
}

// NewTokenService creates a new TokenService instance
func NewTokenService(cfg Config, logger Logger) TokenService {
	return &tokenService{
		signingKey:             []byte(cfg.GetSigningKey()),
		issuer:                 cfg.GetIssuer(),
		tokenExpiration:        time.Duration(cfg.GetTokenExpiration()) * time.Hour,
		verificationExpiration: time.Duration(cfg.GetVerificationExpiration()) * time.Hour,
		logger:                 resolveLogger(logger),
	}
}

func (ts *tokenService) SignVerification(username string) (string, error) {
	claims := ts.registered(username, ts.verificationExpiration)
	return ts.sign(&TokenClaims{
		RegisteredClaims: claims,
		Verification:     true,
		User:             username,
	})
}

func (ts *tokenService) SignAccess(user *User) (string, error) {
	if user == nil {
		return "", goerrors.New("user is required", goerrors.CategoryBadInput)
	}

	claims := &TokenClaims{
		RegisteredClaims: ts.registered(user.ID.String(), ts.tokenExpiration),
		User:             user.Username,
	}

	for _, r := range user.Roles {
		claims.Roles = append(claims.Roles, r.Code)
	}

	for _, p := range user.Permissions {
		claims.Permissions = append(claims.Permissions, p.Code)
	}

	return ts.sign(claims)
}

func (ts *tokenService) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:       uuid.NewString(),
		Issuer:   ts.issuer,
		Subject:  subject,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return claims
}

func (ts *tokenService) sign(claims *TokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

func (ts *tokenService) Verify(tokenString string) (*TokenClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("token service encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			clone := ErrTokenExpired.Clone()
			clone.Source = err
			return nil, clone
		}
		clone := ErrTokenMalformed.Clone()
		clone.Source = err
		return nil, clone
	}

	if claims, ok := token.Claims.(*TokenClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrTokenMalformed.Clone()
}
