package auth

import (
	"errors"
	"net/http"

	"lab-inventory/internal/api"
	"lab-inventory/internal/database"
	"lab-inventory/internal/service"
	"lab-inventory/internal/store"

	"github.com/labstack/echo/v4"
)

const invalidSetupToken = "Invalid or expired setup token"

// SetupInfoHandler 以設定 token 查詢待開通帳號
// @Summary     Setup info
// @Description 回傳 token 對應帳號的姓名、Email、角色與實驗室
// @Tags        auth
// @Produce     json
// @Param       token query    string true "設定密碼 token"
// @Success     200   {object} api.SetupInfoResponse
// @Failure     400   {object} api.ErrorResponse
// @Failure     500   {object} api.ErrorResponse
// @Router      /auth/setup-info [get]
func SetupInfoHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.QueryParam("token")
		if token == "" {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "Setup token required"})
		}

		user, err := getUserBySetupToken(c.Request().Context(), db, token)
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: invalidSetupToken})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Database error"})
		}
		if err := service.CheckSetupToken(user, token, timeNow()); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: invalidSetupToken})
		}

		return c.JSON(http.StatusOK, api.SetupInfoResponse{
			FirstName:      user.FirstName,
			LastName:       user.LastName,
			Email:          user.Email,
			Role:           user.Role,
			AuthorizedLabs: user.AuthorizedLabs,
		})
	}
}

// SetupPasswordHandler 以一次性 token 設定密碼並啟用帳號
// @Summary     Setup password
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       body body     api.SetupPasswordRequest true "token 與新密碼"
// @Success     200  {object} api.MessageResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     500  {object} api.ErrorResponse
// @Router      /auth/setup-password [post]
func SetupPasswordHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.SetupPasswordRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: api.ValidationMessage(err, "Token and password required")})
		}

		ctx := c.Request().Context()
		user, err := getUserBySetupToken(ctx, db, req.Token)
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: invalidSetupToken})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Database error"})
		}
		now := timeNow()
		if err := service.CheckSetupToken(user, req.Token, now); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: invalidSetupToken})
		}

		hash, err := hashPassword(req.Password)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Server error"})
		}
		// 同一 token 的並行請求只有一個會更新成功
		err = activateUser(ctx, db, user.ID, req.Token, hash, now)
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: invalidSetupToken})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Database error"})
		}

		return c.JSON(http.StatusOK, api.MessageResponse{Message: "Password set successfully"})
	}
}
