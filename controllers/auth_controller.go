package controllers

import (
	"errors"
	"net/http"

	"kblog/middleware"
	"kblog/models"
	"kblog/services"
	"kblog/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AuthController struct {
	userService *services.UserService
	issuer      *utils.TokenIssuer
	log         *logrus.Logger
}

func NewAuthController(userService *services.UserService, issuer *utils.TokenIssuer, log *logrus.Logger) *AuthController {
	return &AuthController{
		userService: userService,
		issuer:      issuer,
		log:         log,
	}
}

type RegisterResponse struct {
	Message string             `json:"message"`
	User    models.UserSummary `json:"user"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

// Register godoc
// @Summary Register a user
// @Tags auth
// @Accept json
// @Produce json
// @Param body body models.CreateUserRequest true "New user"
// @Success 201 {object} RegisterResponse
// @Failure 400 {object} ErrorResponse
// @Router /register [post]
func (ac *AuthController) Register(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBindError(c, err, "Missing required fields: username, email, or password", "Invalid registration fields")
		return
	}

	user, err := ac.userService.Register(c.Request.Context(), &req)
	switch {
	case errors.Is(err, services.ErrValidation):
		abortWithError(c, http.StatusBadRequest, "Missing required fields: username, email, or password")
		return
	case errors.Is(err, services.ErrConflict):
		abortWithError(c, http.StatusBadRequest, "Username or email already exists")
		return
	case err != nil:
		internalError(c, ac.log, "Failed to create user", err)
		return
	}

	ac.log.WithField("user_id", user.ID).Info("user registered")
	c.JSON(http.StatusCreated, RegisterResponse{
		Message: "User created successfully!",
		User:    user.Summary(),
	})
}

// Login godoc
// @Summary Exchange credentials for an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param body body models.LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} ErrorResponse
// @Router /login [post]
func (ac *AuthController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithDetails(c, http.StatusBadRequest, "Invalid request body", utils.ValidationDetails(err))
		return
	}

	user, err := ac.userService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, services.ErrUserNotFound) {
		abortWithError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		internalError(c, ac.log, "Failed to log in", err)
		return
	}

	token, err := ac.issuer.Issue(user.ID)
	if err != nil {
		internalError(c, ac.log, "Failed to generate token", err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{AccessToken: token})
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]models.UserSummary
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /me [get]
func (ac *AuthController) Me(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		abortWithError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := ac.userService.FindByID(c.Request.Context(), userID)
	if errors.Is(err, services.ErrUserNotFound) {
		abortWithError(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		internalError(c, ac.log, "Failed to load user", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.Summary()})
}
