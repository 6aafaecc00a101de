package users

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"lab-inventory/internal/api"
	"lab-inventory/internal/database"
	"lab-inventory/internal/middleware"
	"lab-inventory/internal/model"
	"lab-inventory/internal/service"
	"lab-inventory/internal/store"

	"github.com/labstack/echo/v4"
)

var (
	listUsers      = store.ListUsers
	getUserByID    = store.GetUserByID
	createUser     = store.CreateUser
	updateUser     = store.UpdateUser
	deleteUser     = store.DeleteUser
	setSetupToken  = store.SetSetupToken
	emailTaken     = store.EmailTaken
	pantherIDTaken = store.PantherIDTaken
	newSetupToken  = service.NewSetupToken
)

func parseID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

// ListUsersHandler 列出所有使用者
// @Summary     List users
// @Description 依建立時間由新到舊列出所有使用者
// @Tags        admin-users
// @Produce     json
// @Success     200 {array}  api.UserResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/users [get]
func ListUsersHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		users, err := listUsers(c.Request().Context(), db)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Database error"})
		}
		return c.JSON(http.StatusOK, api.NewUserList(users))
	}
}

// GetUserHandler 依 ID 取得使用者
// @Summary     Get a user by ID
// @Tags        admin-users
// @Produce     json
// @Param       id  path     int true "使用者 ID"
// @Success     200 {object} api.UserResponse
// @Failure     400 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/users/{id} [get]
func GetUserHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := parseID(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid user ID"})
		}
		user, err := getUserByID(c.Request().Context(), db, id)
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "User not found"})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Database error"})
		}
		return c.JSON(http.StatusOK, api.NewUserResponse(*user))
	}
}

// CreateUserHandler 建立待開通帳號並寄出邀請信
// @Summary     Create a new user
// @Description 建立 pending 帳號、產生設定密碼 token，並在背景寄出邀請信 (Email 會自動轉小寫)
// @Tags        admin-users
// @Accept      json
// @Produce     json
// @Param       body body     api.CreateUserRequest true "使用者資料"
// @Success     201  {object} api.CreateUserResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     500  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/users [post]
func CreateUserHandler(db database.DB, inv *Invites) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.CreateUserRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: api.ValidationMessage(err, "All required fields must be provided")})
		}

		token := newSetupToken(inv.TTL)
		user, err := createUser(c.Request().Context(), db, &model.User{
			FirstName:        strings.TrimSpace(req.FirstName),
			LastName:         strings.TrimSpace(req.LastName),
			Email:            strings.ToLower(strings.TrimSpace(req.Email)),
			PantherID:        strings.TrimSpace(req.PantherID),
			PhoneNumber:      optional(req.PhoneNumber),
			Role:             req.Role,
			AuthorizedLabs:   req.AuthorizedLabs,
			Status:           model.UserStatusPending,
			SetupToken:       &token.Value,
			SetupTokenExpiry: &token.Expiry,
		})
		if errors.Is(err, store.ErrConflict) {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "Email or Panther ID already exists"})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Database error"})
		}

		setupURL := inv.setupURL(c, token.Value)
		return c.JSON(http.StatusCreated, api.CreateUserResponse{
			Message:     "User created successfully",
			SetupURL:    setupURL,
			EmailQueued: inv.enqueue(*user, setupURL),
		})
	}
}

// UpdateUserHandler 依 ID 更新使用者
// @Summary     Update a user by ID
// @Description 更新個人資料、角色、實驗室與狀態；管理員不可變更自己的角色或狀態
// @Tags        admin-users
// @Accept      json
// @Produce     json
// @Param       id   path     int                   true "使用者 ID"
// @Param       body body     api.UpdateUserRequest true "使用者資料"
// @Success     200  {object} api.UserResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     404  {object} api.ErrorResponse
// @Failure     500  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/users/{id} [put]
func UpdateUserHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := parseID(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid user ID"})
		}

		var req api.UpdateUserRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid request body"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: api.ValidationMessage(err, "Missing required fields")})
		}

		ctx := c.Request().Context()
		existing, err := getUserByID(ctx, db, id)
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "User not found"})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Database error"})
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		if taken, err := emailTaken(ctx, db, email, id); err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Database error"})
		} else if taken {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "Email already exists"})
		}
		pantherID := strings.TrimSpace(req.PantherID)
		if taken, err := pantherIDTaken(ctx, db, pantherID, id); err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Database error"})
		} else if taken {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "Panther ID already exists"})
		}

		status := req.Status
		if status == "" {
			status = existing.Status
		}
		if claims := middleware.Claims(c); claims != nil && claims.ID == id {
			if req.Role != existing.Role {
				return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "Cannot change your own role"})
			}
			if status != existing.Status {
				return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "Cannot change your own status"})
			}
		}

		updated := *existing
		updated.FirstName = strings.TrimSpace(req.FirstName)
		updated.LastName = strings.TrimSpace(req.LastName)
		updated.Email = email
		updated.PantherID = pantherID
		updated.PhoneNumber = optional(req.PhoneNumber)
		updated.Role = req.Role
		updated.AuthorizedLabs = req.AuthorizedLabs
		updated.Status = status
		err = updateUser(ctx, db, &updated)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "User not found"})
		case errors.Is(err, store.ErrConflict):
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "Email or Panther ID already exists"})
		case err != nil:
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Database error"})
		}

		return c.JSON(http.StatusOK, api.NewUserResponse(updated))
	}
}

// DeleteUserHandler 依 ID 刪除使用者
// @Summary     Delete a user by ID
// @Description 刪除使用者帳號，不可刪除自己
// @Tags        admin-users
// @Produce     json
// @Param       id  path     int true "使用者 ID"
// @Success     200 {object} api.MessageResponse
// @Failure     400 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/users/{id} [delete]
func DeleteUserHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := parseID(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid user ID"})
		}
		if claims := middleware.Claims(c); claims != nil && claims.ID == id {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "Cannot delete your own account"})
		}
		err = deleteUser(c.Request().Context(), db, id)
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "User not found"})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Database error"})
		}
		return c.JSON(http.StatusOK, api.MessageResponse{Message: "User deleted successfully"})
	}
}

// ResetSetupHandler 重新產生設定密碼連結
// @Summary     Reissue setup link
// @Description 重新產生設定密碼 token 並再次寄出邀請信
// @Tags        admin-users
// @Produce     json
// @Param       id  path     int true "使用者 ID"
// @Success     200 {object} api.CreateUserResponse
// @Failure     400 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /admin/users/{id}/reset-setup [post]
func ResetSetupHandler(db database.DB, inv *Invites) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := parseID(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid user ID"})
		}

		ctx := c.Request().Context()
		user, err := getUserByID(ctx, db, id)
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "User not found"})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Database error"})
		}

		token := newSetupToken(inv.TTL)
		if err := setSetupToken(ctx, db, id, token.Value, token.Expiry); err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "Database error"})
		}

		setupURL := inv.setupURL(c, token.Value)
		return c.JSON(http.StatusOK, api.CreateUserResponse{
			Message:     "Setup link reissued",
			SetupURL:    setupURL,
			EmailQueued: inv.enqueue(*user, setupURL),
		})
	}
}
