package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/unicampus/campus-chat/internal/auth"
	"github.com/unicampus/campus-chat/internal/models"
)

// currentUserKey is where AuthMiddleware stores the resolved user for
// downstream handlers.
const currentUserKey = "current_user"

type AuthHandler struct {
	authSvc *auth.Service
}

func NewAuthHandler(authSvc *auth.Service) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     string  `json:"name"`
	Badge    *string `json:"badge"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new account and hands back the user plus a fresh token.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": __("invalid request")})
		return
	}

	user, err := h.authSvc.Register(req.Email, req.Password, req.Name, req.Badge)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": __("email, password and name are required")})
		case errors.Is(err, auth.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": __("email already registered")})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to create user")})
		}
		return
	}

	token, err := h.authSvc.GenerateToken(user.ID, *user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to generate token")})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": __("user registered successfully"),
		"user":    user,
		"token":   token,
	})
}

// Login authenticates by email and password. Unknown email and wrong
// password produce the same response on purpose.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": __("invalid request")})
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": __("email and password are required")})
		return
	}

	user, token, err := h.authSvc.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": __("invalid email or password")})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": __("internal server error")})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": __("login successful"),
		"user":    user,
		"token":   token,
	})
}

// Logout flips the presence flag to offline. The bearer token stays valid
// until it expires; there is no server-side revocation.
func (h *AuthHandler) Logout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": __("no token")})
		return
	}

	if err := h.authSvc.SetStatus(user.ID, "offline"); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to update status")})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": __("session closed successfully")})
}

// Me returns the authenticated user's record.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": __("no token")})
		return
	}

	c.JSON(http.StatusOK, user)
}

// AuthMiddleware guards a route: it expects "Authorization: Bearer <token>",
// verifies the token and resolves it to a live user record, which it injects
// into the request context. Each failure mode gets its own message so
// clients can tell an expired session from a bad one.
func (h *AuthHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": __("no token")})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": __("malformed token")})
			c.Abort()
			return
		}

		claims, err := h.authSvc.ValidateToken(parts[1])
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": __("token expired")})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": __("invalid token")})
			}
			c.Abort()
			return
		}

		user, err := h.authSvc.GetUserByID(claims.UserID)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": __("user not found")})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": __("failed to validate user")})
			}
			c.Abort()
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// currentUser pulls the identity AuthMiddleware stored for this request.
func currentUser(c *gin.Context) (models.User, bool) {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := value.(models.User)
	return user, ok
}
