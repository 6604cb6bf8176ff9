package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token lifetimes
const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 30 * 24 * time.Hour
)

var (
	jwtSecret     []byte
	refreshSecret []byte
)

// JWTClaims represents the JWT token claims
type JWTClaims struct {
	UID string `json:"uid"`
	jwt.RegisteredClaims
}

// InitializeJWT sets the signing keys of access and refresh tokens
func InitializeJWT(secret, refresh string) {
	jwtSecret = []byte(secret)
	refreshSecret = []byte(refresh)
}

// GenerateToken creates a short-lived access token. expiresIn is in seconds.
func GenerateToken(uid string) (token string, expiresIn int, err error) {
	token, err = sign(uid, jwtSecret, AccessTokenTTL)
	if err != nil {
		return "", 0, err
	}
	return token, int(AccessTokenTTL.Seconds()), nil
}

// GenerateRefreshToken creates the long-lived token stored in the session cookie
func GenerateRefreshToken(uid string) (token string, expires time.Time, err error) {
	token, err = sign(uid, refreshSecret, RefreshTokenTTL)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, time.Now().Add(RefreshTokenTTL), nil
}

// ValidateToken validates an access token and returns the claims
func ValidateToken(tokenString string) (*JWTClaims, error) {
	return parse(tokenString, jwtSecret)
}

// ValidateRefreshToken validates a refresh token and returns the claims
func ValidateRefreshToken(tokenString string) (*JWTClaims, error) {
	return parse(tokenString, refreshSecret)
}

func sign(uid string, secret []byte, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("JWT secret not initialized")
	}

	now := time.Now()
	claims := JWTClaims{
		UID: uid,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parse(tokenString string, secret []byte) (*JWTClaims, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("JWT secret not initialized")
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
