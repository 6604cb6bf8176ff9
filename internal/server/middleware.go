package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/decisionhub/decisionhub/internal/auth"
	"github.com/decisionhub/decisionhub/internal/models"
)

const (
	bearerPrefix  = "Bearer "
	refreshCookie = "refreshToken"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidToken      = errors.New("invalid token")
	ErrUserNotFound      = errors.New("user not found")
)

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set("session", sessionData)
}

func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	session, exists := c.Get("session")
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*auth.SessionData)
	return sessionData, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

// fail writes the error envelope
func fail(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"success": false, "msg": message})
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Msg(message)
	fail(c, statusCode, message)
	c.Abort()
}

// loadSession verifies the user still exists and stores the session
func loadSession(c *gin.Context, db *gorm.DB, log zerolog.Logger, uid, method string) bool {
	var user models.User
	if err := models.FindByID(db, uid, &user); err != nil {
		log.Error().Err(err).Str("user_id", uid).Msg("User not found")
		respondWithError(c, log, http.StatusUnauthorized, ErrUserNotFound, "User not found")
		return false
	}

	setSession(c, &auth.SessionData{
		UserID:     user.ID,
		Email:      user.Email,
		IsAdmin:    user.IsAdministrator(),
		AuthMethod: method,
	})
	return true
}

// JWTAuthMiddleware validates the bearer access token
func JWTAuthMiddleware(db *gorm.DB, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			var message string
			switch err {
			case ErrMissingAuthHeader:
				message = "Token does not exist"
			case ErrInvalidAuthFormat:
				message = "Invalid authorization header format"
			case ErrEmptyToken:
				message = "Token does not exist"
			}
			respondWithError(c, log, http.StatusUnauthorized, err, message)
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			respondWithError(c, log, http.StatusUnauthorized, ErrInvalidToken, "Invalid or expired token")
			return
		}

		if !loadSession(c, db, log, claims.UID, "bearer") {
			return
		}

		c.Next()
	}
}

// RefreshCookieMiddleware validates the refresh token cookie
func RefreshCookieMiddleware(db *gorm.DB, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(refreshCookie)
		if err != nil || token == "" {
			respondWithError(c, log, http.StatusUnauthorized, ErrEmptyToken, "Token does not exist")
			return
		}

		claims, err := auth.ValidateRefreshToken(token)
		if err != nil {
			respondWithError(c, log, http.StatusUnauthorized, ErrInvalidToken, "Invalid or expired token")
			return
		}

		if !loadSession(c, db, log, claims.UID, "refresh_cookie") {
			return
		}

		c.Next()
	}
}

// AdminOnlyMiddleware ensures the authenticated user is an admin
func AdminOnlyMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, exists := GetSessionData(c)
		if !exists {
			respondWithError(c, log, http.StatusUnauthorized, errors.New("no session"), "Unauthorized")
			return
		}

		if !sessionData.IsAdmin {
			respondWithError(c, log, http.StatusForbidden, errors.New("not admin"), "Admin access required")
			return
		}

		c.Next()
	}
}
