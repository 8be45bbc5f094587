package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rentiva/rentiva-backend/pkg/config"
	pkgerrors "github.com/rentiva/rentiva-backend/pkg/errors"
)

// StaffClaims identifies a back-office operator on staff endpoints.
type StaffClaims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IssueStaffToken signs a staff access token. Used by the ops tooling and
// tests; the API only verifies.
func IssueStaffToken(cfg config.JWTConfig, userID, role string) (string, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	now := time.Now().UTC()
	claims := StaffClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
}

// ParseStaffToken verifies the signature, issuer and expiry of a staff token.
func ParseStaffToken(cfg config.JWTConfig, raw string) (*StaffClaims, error) {
	claims := &StaffClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(cfg.Secret), nil
	}, jwt.WithIssuer(cfg.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if !token.Valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token")
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "token has no subject")
	}
	return claims, nil
}
