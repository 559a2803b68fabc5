package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voyagr/travelstory/internal/auth"
	"github.com/voyagr/travelstory/internal/domain/user"
	"github.com/voyagr/travelstory/internal/http/middlewares"
	"github.com/voyagr/travelstory/internal/repo/postgres"
	"github.com/voyagr/travelstory/internal/security"
)

type UserStore interface {
	Create(ctx context.Context, fullName, email, passwordHash string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type AuthHandler struct {
	users UserStore
	jwt   *auth.Manager
}

func NewAuthHandler(users UserStore, jwt *auth.Manager) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt}
}

type CreateAccountRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreateAccount registers a user and logs them straight in.
// POST /create-account
func (h *AuthHandler) CreateAccount(ctx *gin.Context) {
	var req CreateAccountRequest

	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	u, err := h.users.Create(ctx.Request.Context(), req.FullName, req.Email, hash)

	if err != nil {
		// duplicate email maps to 400, not 409, matching the client contract
		if errors.Is(err, postgres.ErrEmailAlreadyUsed) {
			RespondBadRequest(ctx, "User already exists", nil)
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	accessToken, err := h.jwt.IssueAccessToken(u.ID)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"user":        u,
		"accessToken": accessToken,
		"message":     "Registration Successful",
	})
}

// Login verifies credentials and issues a fresh access token. The not-found
// and wrong-password failures share one message so the response never leaks
// which emails exist.
// POST /login
func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	foundUser, err := h.users.GetByEmail(ctx.Request.Context(), req.Email)
	if err != nil {
		RespondBadRequest(ctx, "Invalid Credentials", nil)
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondBadRequest(ctx, "Invalid Credentials", nil)
		return
	}

	accessToken, err := h.jwt.IssueAccessToken(foundUser.ID)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user":        foundUser,
		"accessToken": accessToken,
		"message":     "Login Successful",
	})
}

// GetUser returns the requester's own account. A valid token whose user no
// longer exists is a 401, not a 404.
// GET /get-user
func (h *AuthHandler) GetUser(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	u, err := h.users.GetByID(ctx.Request.Context(), userID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondUnAuthorized(ctx, "unauthorized", "Unknown user")
			return
		}

		RespondInternal(ctx, "Could not fetch user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user":    u,
		"message": "",
	})
}
