package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marbelle/marbelle-backend/internal/app/model"
	"github.com/marbelle/marbelle-backend/internal/app/service"
	"github.com/marbelle/marbelle-backend/internal/middleware"
	"github.com/marbelle/marbelle-backend/internal/response"
	"github.com/marbelle/marbelle-backend/pkg/util"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type AuthResponse struct {
	User   UserResponse    `json:"user"`
	Tokens *util.TokenPair `json:"tokens"`
}

func newUserResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  string(user.Role),
	}
}

// Register creates a new account and signs the user in
// POST /api/v1/auth/register/
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid registration request", map[string]interface{}{
			"error": err.Error(),
		})
		response.ValidationFailed(c, map[string]string{"body": err.Error()})
		return
	}

	user, tokens, err := ctrl.authService.Register(req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			response.Conflict(c, response.AuthEmailAlreadyExists, "An account with this email already exists.")
			return
		}
		log.Error("Registration failed", err, map[string]interface{}{
			"email": req.Email,
		})
		response.InternalError(c, "Registration failed.")
		return
	}

	response.Created(c, "Account created successfully.", AuthResponse{
		User:   newUserResponse(user),
		Tokens: tokens,
	})
}

// Login authenticates a user and merges any guest cart into the user's
// cart before issuing tokens.
// POST /api/v1/auth/login/
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		response.ValidationFailed(c, map[string]string{"body": err.Error()})
		return
	}

	// The session middleware resolved the guest key before this handler
	// ran; it is what ties the anonymous cart to this login.
	guestSessionKey := ""
	if identity, ok := middleware.GetIdentity(c); ok && identity.IsGuest() {
		guestSessionKey = identity.SessionKey
	}

	user, tokens, err := ctrl.authService.Login(req.Email, req.Password, guestSessionKey)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.AuthInvalidCredentials, "Invalid email or password.")
			return
		}
		log.Error("Login failed", err, map[string]interface{}{
			"email": req.Email,
		})
		response.InternalError(c, "Login failed.")
		return
	}

	response.OK(c, "Logged in successfully.", AuthResponse{
		User:   newUserResponse(user),
		Tokens: tokens,
	})
}

// Logout revokes the presented access token
// POST /api/v1/auth/logout/
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	token, _ := middleware.GetBearerToken(c)
	if err := ctrl.authService.Logout(c.Request.Context(), token); err != nil {
		log.Error("Logout failed", err)
		response.InternalError(c, "Logout failed.")
		return
	}

	response.OK(c, "Logged out successfully.", nil)
}

// GetMe returns the authenticated user's profile
// GET /api/v1/auth/me/
func (ctrl *AuthController) GetMe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required.")
		return
	}

	user, err := ctrl.authService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.Unauthorized(c, "Account no longer exists.")
			return
		}
		log.Error("Failed to fetch user profile", err, map[string]interface{}{
			"user_id": userID,
		})
		response.InternalError(c, "")
		return
	}

	response.OK(c, "User profile retrieved successfully.", newUserResponse(user))
}
