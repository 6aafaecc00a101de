package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"lab-inventory/internal/api"
	"lab-inventory/internal/cache"
	"lab-inventory/internal/database"
	"lab-inventory/internal/middleware"
	"lab-inventory/internal/model"
	"lab-inventory/internal/service"
	"lab-inventory/internal/store"

	"github.com/labstack/echo/v4"
)

var (
	getUserByEmail      = store.GetUserByEmail
	getUserByID         = store.GetUserByID
	getUserBySetupToken = store.GetUserBySetupToken
	activateUser        = store.ActivateUser
	updateUserPassword  = store.UpdateUserPassword
	authenticateUser    = service.AuthenticateUser
	hashPassword        = service.HashPassword
	revokeToken         = cache.RevokeToken
	timeNow             = time.Now
)

const notActivated = "Invalid credentials or account not activated"

// LoginHandler 使用 Email/Password 驗證並回傳 JWT
// @Summary     登入使用者
// @Description 只有 active 狀態的帳號可以登入，回傳存取令牌與使用者資訊
// @Tags        auth
// @Accept      json
// @Accept      application/x-www-form-urlencoded
// @Produce     json
// @Param       body body     api.LoginRequest true "登入資料"
// @Success     200  {object} api.LoginResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     401  {object} api.ErrorResponse
// @Failure     500  {object} api.ErrorResponse
// @Router      /auth/login [post]
func LoginHandler(db database.DB, tokens *service.TokenManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.LoginRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "Email and password required"})
		}

		ctx := c.Request().Context()
		user, err := getUserByEmail(ctx, db, strings.ToLower(strings.TrimSpace(req.Email)))
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: notActivated})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Database error"})
		}

		authUser, err := authenticateUser(ctx, *user, req.Password)
		if err != nil {
			if user.Status != model.UserStatusActive {
				return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: notActivated})
			}
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "Invalid credentials"})
		}

		token, _, err := tokens.Issue(*authUser)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Server error"})
		}

		return c.JSON(http.StatusOK, api.LoginResponse{Token: token, User: api.NewSessionUser(*authUser)})
	}
}

// VerifyHandler 回傳 token 內的使用者資訊
// @Summary     Verify token
// @Tags        auth
// @Produce     json
// @Success     200 {object} api.VerifyResponse
// @Failure     401 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /auth/verify [get]
func VerifyHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		claims := middleware.Claims(c)
		if claims == nil {
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "access token required"})
		}
		return c.JSON(http.StatusOK, api.VerifyResponse{User: api.SessionUser{
			ID:             claims.ID,
			Email:          claims.Email,
			Role:           claims.Role,
			AuthorizedLabs: claims.AuthorizedLabs,
		}})
	}
}

// LogoutHandler 將目前 token 加入撤銷清單直到過期
// @Summary     Logout
// @Tags        auth
// @Produce     json
// @Success     200 {object} api.MessageResponse
// @Failure     401 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /auth/logout [post]
func LogoutHandler(revoked cache.Cache) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims := middleware.Claims(c)
		if claims == nil {
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "access token required"})
		}
		if claims.ExpiresAt != nil {
			ttl := claims.ExpiresAt.Time.Sub(timeNow())
			if err := revokeToken(c.Request().Context(), revoked, claims.RegisteredClaims.ID, ttl); err != nil {
				return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "failed to revoke token"})
			}
		}
		return c.JSON(http.StatusOK, api.MessageResponse{Message: "Logged out successfully"})
	}
}
