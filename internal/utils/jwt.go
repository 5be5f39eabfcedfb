package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	RoleDriver        = "driver"
	RoleTerminalAdmin = "terminal_admin"
)

var ErrInvalidToken = errors.New("invalid session token")

// Claims carries the session. Terminal fields are only set for terminal admins.
type Claims struct {
	UserID       uint   `json:"user_id"`
	Role         string `json:"role"`
	Username     string `json:"username"`
	TerminalID   uint   `json:"terminal_id,omitempty"`
	TerminalName string `json:"terminal_name,omitempty"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

func (i *TokenIssuer) GenerateDriverToken(driverID uint, username string) (string, error) {
	return i.sign(Claims{
		UserID:   driverID,
		Role:     RoleDriver,
		Username: username,
	})
}

func (i *TokenIssuer) GenerateTerminalAdminToken(adminID uint, username string, terminalID uint, terminalName string) (string, error) {
	return i.sign(Claims{
		UserID:       adminID,
		Role:         RoleTerminalAdmin,
		Username:     username,
		TerminalID:   terminalID,
		TerminalName: terminalName,
	})
}

func (i *TokenIssuer) sign(claims Claims) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   fmt.Sprintf("%s:%d", claims.Role, claims.UserID),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

func (i *TokenIssuer) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Role != RoleDriver && claims.Role != RoleTerminalAdmin {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return claims, nil
}
