package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/straye-as/erp-desk/internal/config"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// SessionClaims are the claims of an ERP session token
type SessionClaims struct {
	Name      string   `json:"name,omitempty"`
	Email     string   `json:"email,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	IsAdmin   bool     `json:"is_admin,omitempty"`
	SessionID string   `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// JWTValidator validates HMAC signed session tokens issued by the ERP
type JWTValidator struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTValidator creates a new JWT validator
func NewJWTValidator(cfg *config.AuthConfig) *JWTValidator {
	return &JWTValidator{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		now:    time.Now,
	}
}

// ValidateToken validates a token and returns the user and session id
func (v *JWTValidator) ValidateToken(tokenString string) (*UserContext, string, error) {
	claims := &SessionClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, "", ErrExpiredToken
		}
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, "", ErrInvalidToken
	}

	subject, _ := claims.GetSubject()
	if subject == "" {
		return nil, "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	user := &UserContext{
		UserID:      subject,
		DisplayName: claims.Name,
		Email:       claims.Email,
		Roles:       claims.Roles,
		IsAdmin:     claims.IsAdmin,
		AccessToken: tokenString,
	}
	return user, claims.SessionID, nil
}

// IssueToken signs a session token for user. Used by tests and local tooling.
func (v *JWTValidator) IssueToken(user *UserContext, sessionID string, ttl time.Duration) (string, error) {
	now := v.now()
	claims := SessionClaims{
		Name:      user.DisplayName,
		Email:     user.Email,
		Roles:     user.Roles,
		IsAdmin:   user.IsAdmin,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
