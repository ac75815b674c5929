// Package api - Authentication handlers
package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aethra/fleetdesk/internal/auth"
	apperrors "github.com/aethra/fleetdesk/internal/errors"
)

// LoginRateLimiter throttles login attempts per client key.
type LoginRateLimiter struct {
	attempts map[string]*loginAttempt
	mu       sync.RWMutex
}

type loginAttempt struct {
	count     int
	firstTry  time.Time
	blockedAt *time.Time
}

// NewLoginRateLimiter creates a rate limiter and starts its cleanup loop.
func NewLoginRateLimiter() *LoginRateLimiter {
	rl := &LoginRateLimiter{
		attempts: make(map[string]*loginAttempt),
	}
	go rl.cleanup()
	return rl
}

// Allow checks if a login attempt is allowed. Five attempts per five-minute
// window; exceeding that blocks the key for fifteen minutes.
func (rl *LoginRateLimiter) Allow(key string) (bool, int, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	attempt, exists := rl.attempts[key]

	if !exists {
		rl.attempts[key] = &loginAttempt{count: 1, firstTry: now}
		return true, 4, 0
	}

	if attempt.blockedAt != nil {
		blockDuration := 15 * time.Minute
		if now.Sub(*attempt.blockedAt) < blockDuration {
			remaining := blockDuration - now.Sub(*attempt.blockedAt)
			return false, 0, remaining
		}
		attempt.count = 1
		attempt.firstTry = now
		attempt.blockedAt = nil
		return true, 4, 0
	}

	if now.Sub(attempt.firstTry) > 5*time.Minute {
		attempt.count = 1
		attempt.firstTry = now
		return true, 4, 0
	}

	attempt.count++
	if attempt.count > 5 {
		attempt.blockedAt = &now
		return false, 0, 15 * time.Minute
	}

	return true, 5 - attempt.count, 0
}

// Reset clears the attempts for a key on successful login.
func (rl *LoginRateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.attempts, key)
}

// cleanup removes stale entries periodically.
func (rl *LoginRateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for key, attempt := range rl.attempts {
			if now.Sub(attempt.firstTry) > 30*time.Minute {
				delete(rl.attempts, key)
			}
		}
		rl.mu.Unlock()
	}
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	db          *gorm.DB
	jwtService  *auth.JWTService
	rateLimiter *LoginRateLimiter
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(db *gorm.DB, jwtService *auth.JWTService) *AuthHandler {
	return &AuthHandler{
		db:          db,
		jwtService:  jwtService,
		rateLimiter: NewLoginRateLimiter(),
	}
}

type userRecord struct {
	ID             uuid.UUID  `gorm:"column:id"`
	OrganizationID uuid.UUID  `gorm:"column:organization_id"`
	Email          string     `gorm:"column:email"`
	PasswordHash   string     `gorm:"column:password_hash"`
	FirstName      string     `gorm:"column:first_name"`
	LastName       string     `gorm:"column:last_name"`
	IsActive       bool       `gorm:"column:is_active"`
	RoleID         *uuid.UUID `gorm:"column:role_id"`
}

func (h *AuthHandler) findUser(c *gin.Context, email string) (*userRecord, string, error) {
	var user userRecord
	err := h.db.WithContext(c.Request.Context()).
		Table("users").
		Where("email = ? AND deleted_at IS NULL", email).
		Take(&user).Error
	if err != nil {
		return nil, "", err
	}

	roleCode := ""
	if user.RoleID != nil {
		var role struct {
			Code string `gorm:"column:code"`
		}
		if err := h.db.WithContext(c.Request.Context()).
			Table("roles").Select("code").
			Where("id = ?", *user.RoleID).
			Take(&role).Error; err == nil {
			roleCode = role.Code
		}
	}
	return &user, roleCode, nil
}

// Login authenticates with email and password.
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var request struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "BAD_REQUEST", "message": "email and password are required"})
		return
	}

	limiterKey := c.ClientIP() + ":" + request.Email
	allowed, _, retryIn := h.rateLimiter.Allow(limiterKey)
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":          "RATE_LIMITED",
			"message":        "too many login attempts",
			"retry_after_ms": retryIn.Milliseconds(),
		})
		return
	}

	user, roleCode, err := h.findUser(c, request.Email)
	if err != nil || !user.IsActive || !auth.CheckPassword(request.Password, user.PasswordHash) {
		// One message for every failure mode; no account enumeration.
		respondError(c, apperrors.NewUnauthorizedError("invalid email or password"))
		return
	}

	pair, err := h.jwtService.GenerateTokenPair(user.ID, user.OrganizationID, user.Email, roleCode)
	if err != nil {
		respondError(c, err)
		return
	}
	h.rateLimiter.Reset(limiterKey)

	h.db.WithContext(c.Request.Context()).
		Table("users").Where("id = ?", user.ID).
		Update("last_login_at", time.Now().UTC())

	c.JSON(http.StatusOK, gin.H{
		"tokens": pair,
		"user": gin.H{
			"id":         user.ID,
			"email":      user.Email,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"role":       roleCode,
		},
	})
}

// RefreshToken exchanges a refresh token for a new pair.
// POST /auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var request struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "BAD_REQUEST", "message": "refresh_token is required"})
		return
	}

	claims, err := h.jwtService.ValidateToken(request.RefreshToken)
	if err != nil {
		respondError(c, apperrors.NewUnauthorizedError("invalid refresh token"))
		return
	}

	// Re-read the account so a deactivation or role change takes effect at
	// refresh time.
	var user userRecord
	dbErr := h.db.WithContext(c.Request.Context()).
		Table("users").
		Where("id = ? AND deleted_at IS NULL", claims.UserID).
		Take(&user).Error
	if dbErr != nil || !user.IsActive {
		respondError(c, apperrors.NewUnauthorizedError("account unavailable"))
		return
	}

	_, roleCode, _ := h.findUser(c, user.Email)
	pair, err := h.jwtService.RefreshAccessToken(request.RefreshToken, user.Email, roleCode)
	if err != nil {
		respondError(c, apperrors.NewUnauthorizedError("invalid refresh token"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": pair})
}

// GetMe returns the authenticated account.
// GET /auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	claims := c.MustGet("claims").(*auth.Claims)

	var user map[string]any
	err := h.db.WithContext(c.Request.Context()).
		Table("users").
		Select("id, organization_id, role_id, email, first_name, last_name, phone, is_active, last_login_at, created_at").
		Where("id = ? AND deleted_at IS NULL", claims.UserID).
		Take(&user).Error
	if err != nil {
		respondError(c, apperrors.NewNotFoundError("user"))
		return
	}
	c.JSON(http.StatusOK, user)
}

// ChangePassword updates the caller's password after verifying the current
// one.
// POST /auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	claims := c.MustGet("claims").(*auth.Claims)

	var request struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "BAD_REQUEST", "message": "current and new password (min 8 chars) are required"})
		return
	}

	var user userRecord
	err := h.db.WithContext(c.Request.Context()).
		Table("users").
		Where("id = ? AND deleted_at IS NULL", claims.UserID).
		Take(&user).Error
	if err != nil {
		respondError(c, apperrors.NewNotFoundError("user"))
		return
	}
	if !auth.CheckPassword(request.CurrentPassword, user.PasswordHash) {
		respondError(c, apperrors.NewUnauthorizedError("current password is incorrect"))
		return
	}

	hash, err := auth.HashPassword(request.NewPassword)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.db.WithContext(c.Request.Context()).
		Table("users").Where("id = ?", user.ID).
		Update("password_hash", hash).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// Logout acknowledges the client-side token discard. Tokens are stateless;
// nothing is revoked server-side.
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}
