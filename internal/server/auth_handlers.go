package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/decisionhub/decisionhub/internal/auth"
	"github.com/decisionhub/decisionhub/internal/forms"
	"github.com/decisionhub/decisionhub/internal/models"
)

const (
	accountStatusCookie     = "accountStatus"
	emailChangeStatusCookie = "emailChangeStatus"
	statusCookieMaxAge      = 30 // seconds
	accountCreationLayout   = "2006-01-02"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by login and refresh
type TokenResponse struct {
	Success   bool   `json:"success"`
	Msg       string `json:"msg,omitempty"`
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
}

// ProfileResponse is returned by the protected endpoint
type ProfileResponse struct {
	Success         bool   `json:"success"`
	Name            string `json:"name"`
	University      string `json:"university"`
	Email           string `json:"email"`
	AccountCreation string `json:"accountCreation"`
	Role            string `json:"role"`
	IsAdmin         bool   `json:"isAdmin"`
}

// UpdatePasswordRequest represents a password change
type UpdatePasswordRequest struct {
	NewPassword       string `json:"newPassword"`
	RepeatNewPassword string `json:"repeatNewPassword"`
}

func (s *Server) setRefreshCookie(c *gin.Context, token string, expires time.Time) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     refreshCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.config.Server.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) clearRefreshCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     refreshCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.config.Server.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) setStatusCookie(c *gin.Context, name, value string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   statusCookieMaxAge,
		SameSite: http.SameSiteStrictMode,
	})
}

// link builds an absolute URL on this server for a confirmation email
func link(c *gin.Context, path string) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s%s", scheme, c.Request.Host, path)
}

func (s *Server) currentUser(c *gin.Context) (*models.User, bool) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		fail(c, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}

	var user models.User
	if err := models.FindByID(s.db, sessionData.UserID, &user); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fail(c, http.StatusNotFound, "User not found")
			return nil, false
		}
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to find user")
		fail(c, http.StatusInternalServerError, "Server error")
		return nil, false
	}
	return &user, true
}

func (s *Server) signup(c *gin.Context) {
	var req forms.SignupValues
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := forms.ValidateSignup(req); !errs.Empty() {
		c.JSON(http.StatusOK, gin.H{"success": false, "errors": errs})
		return
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count users")
		c.JSON(http.StatusOK, gin.H{"success": false, "errors": gin.H{"general": "Internal server error"}})
		return
	}
	if count > 0 {
		c.JSON(http.StatusOK, gin.H{"success": false, "errors": gin.H{"email": "Email already registered"}})
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusOK, gin.H{"success": false, "errors": gin.H{"general": "Internal server error"}})
		return
	}

	user := &models.User{
		Name:         req.Name,
		University:   req.University,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         "user",
		TokenConfirm: models.NewToken(),
	}
	if err := s.db.Create(user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create user")
		c.JSON(http.StatusOK, gin.H{"success": false, "errors": gin.H{"general": "Internal server error"}})
		return
	}

	// Mail delivery is out of scope for this server; the link is logged instead
	s.logger.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Str("confirm_url", link(c, "/auth/accountConfirm/"+user.TokenConfirm)).
		Msg("User signed up")

	c.JSON(http.StatusOK, gin.H{"success": true, "msg": "Signup successful"})
}

func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := forms.ValidateLogin(forms.LoginValues{Email: req.Email, Password: req.Password}); !errs.Empty() {
		c.JSON(http.StatusOK, gin.H{"success": false, "errors": errs})
		return
	}

	// Find user by email
	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{"success": false, "errors": gin.H{"email": "User does not exist"}})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusOK, gin.H{"success": false, "errors": gin.H{"general": "Internal server error"}})
		return
	}

	if !user.AccountConfirm {
		c.JSON(http.StatusOK, gin.H{"success": false, "errors": gin.H{"email": "Email not verified"}})
		return
	}

	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "errors": gin.H{"password": "Incorrect password"}})
		return
	}

	token, expiresIn, err := auth.GenerateToken(user.ID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusOK, gin.H{"success": false, "errors": gin.H{"general": "Internal server error"}})
		return
	}

	refresh, expires, err := auth.GenerateRefreshToken(user.ID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate refresh token")
		c.JSON(http.StatusOK, gin.H{"success": false, "errors": gin.H{"general": "Internal server error"}})
		return
	}
	s.setRefreshCookie(c, refresh, expires)

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User logged in")

	c.JSON(http.StatusOK, TokenResponse{
		Success:   true,
		Msg:       "Login successful",
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

func (s *Server) logout(c *gin.Context) {
	s.clearRefreshCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true, "msg": "Logged out successfully"})
}

func (s *Server) refresh(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	token, expiresIn, err := auth.GenerateToken(sessionData.UserID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		fail(c, http.StatusInternalServerError, "Refresh token failed")
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Success: true, Token: token, ExpiresIn: expiresIn})
}

func (s *Server) protected(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{
		Success:         true,
		Name:            user.Name,
		University:      user.University,
		Email:           user.Email,
		AccountCreation: user.CreatedAt.Format(accountCreationLayout),
		Role:            user.Role,
		IsAdmin:         user.IsAdmin,
	})
}

func (s *Server) adminCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "msg": "Admin access granted"})
}

func (s *Server) deleteAccount(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expert_id = ?", user.ID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("expert_id = ?", user.ID).Delete(&models.Participation{}).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to delete account")
		fail(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	s.clearRefreshCookie(c)
	s.logger.Info().Str("user_id", user.ID).Msg("Account deleted")

	c.JSON(http.StatusOK, gin.H{"success": true, "msg": "Account deleted successfully"})
}

func (s *Server) updatePassword(c *gin.Context) {
	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if msg := forms.ValidatePassword(req.NewPassword); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "msg": msg, "errors": gin.H{"newPassword": msg}})
		return
	}
	if req.NewPassword != req.RepeatNewPassword {
		fail(c, http.StatusBadRequest, "Passwords do not match")
		return
	}

	user, ok := s.currentUser(c)
	if !ok {
		return
	}

	passwordHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		fail(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if err := s.db.Model(user).Update("password_hash", passwordHash).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update password")
		fail(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "msg": "Password updated successfully"})
}

// profileField describes a single-field profile update
type profileField struct {
	param    string
	column   string
	validate func(string) string
	msg      string
}

func (s *Server) modifyField(c *gin.Context, f profileField) {
	var body map[string]string
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	value := body[f.param]
	if msg := f.validate(value); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "msg": msg, "errors": gin.H{f.param: msg}})
		return
	}

	user, ok := s.currentUser(c)
	if !ok {
		return
	}

	if err := s.db.Model(user).Update(f.column, value).Error; err != nil {
		s.logger.Error().Err(err).Str("field", f.column).Msg("Failed to update profile")
		fail(c, http.StatusInternalServerError, "Server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "msg": f.msg})
}

func (s *Server) modifyUniversity(c *gin.Context) {
	s.modifyField(c, profileField{
		param:    "newUniversity",
		column:   "university",
		validate: forms.ValidateUniversity,
		msg:      "University updated successfully",
	})
}

func (s *Server) modifyName(c *gin.Context) {
	s.modifyField(c, profileField{
		param:    "newName",
		column:   "name",
		validate: forms.ValidateName,
		msg:      "Name updated successfully",
	})
}

func (s *Server) modifyEmail(c *gin.Context) {
	var body struct {
		NewEmail string `json:"newEmail"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if msg := forms.ValidateEmail(body.NewEmail); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "msg": msg, "errors": gin.H{"newEmail": msg}})
		return
	}

	user, ok := s.currentUser(c)
	if !ok {
		return
	}

	if body.NewEmail == user.Email {
		fail(c, http.StatusBadRequest, "New email must be different from the current one")
		return
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", body.NewEmail).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count users")
		fail(c, http.StatusInternalServerError, "Server error")
		return
	}
	if count > 0 {
		fail(c, http.StatusConflict, "Email already in use")
		return
	}

	token := models.NewToken()
	if err := s.db.Model(user).Updates(map[string]interface{}{
		"pending_email":       body.NewEmail,
		"email_token_confirm": token,
	}).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to store email change")
		fail(c, http.StatusInternalServerError, "Server error")
		return
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("new_email", body.NewEmail).
		Str("confirm_url", link(c, "/auth/confirmEmailChange/"+token)).
		Msg("Email change requested")

	c.JSON(http.StatusOK, gin.H{"success": true, "msg": "Please, check new email for confirmation"})
}

func (s *Server) accountConfirm(c *gin.Context) {
	token := c.Param("token")
	redirect := s.config.Server.AppURL + "/"

	var user models.User
	if err := s.db.Where("token_confirm = ?", token).First(&user).Error; err != nil {
		status := "verification_failed"
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error().Err(err).Msg("Failed to find user by confirmation token")
			status = "error"
		}
		s.setStatusCookie(c, accountStatusCookie, status)
		c.Redirect(http.StatusFound, redirect)
		return
	}

	if err := s.db.Model(&user).Updates(map[string]interface{}{
		"account_confirm": true,
		"token_confirm":   "",
	}).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to confirm account")
		s.setStatusCookie(c, accountStatusCookie, "error")
		c.Redirect(http.StatusFound, redirect)
		return
	}

	s.logger.Info().Str("user_id", user.ID).Msg("Account confirmed")
	s.setStatusCookie(c, accountStatusCookie, "verified")
	c.Redirect(http.StatusFound, redirect)
}

func (s *Server) confirmEmailChange(c *gin.Context) {
	token := c.Param("token")
	redirect := s.config.Server.AppURL + "/"

	var user models.User
	if err := s.db.Where("email_token_confirm = ?", token).First(&user).Error; err != nil {
		status := "verification_failed"
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error().Err(err).Msg("Failed to find user by email token")
			status = "error"
		}
		s.setStatusCookie(c, emailChangeStatusCookie, status)
		c.Redirect(http.StatusFound, redirect)
		return
	}

	if err := s.db.Model(&user).Updates(map[string]interface{}{
		"email":               user.PendingEmail,
		"pending_email":       "",
		"email_token_confirm": "",
	}).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to apply email change")
		s.setStatusCookie(c, emailChangeStatusCookie, "error")
		c.Redirect(http.StatusFound, redirect)
		return
	}

	s.logger.Info().Str("user_id", user.ID).Msg("Email changed")
	s.setStatusCookie(c, emailChangeStatusCookie, "verified")
	c.Redirect(http.StatusFound, redirect)
}
