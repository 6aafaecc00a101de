package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lab-inventory/internal/api"
	"lab-inventory/internal/cache"
	"lab-inventory/internal/database"
	"lab-inventory/internal/middleware"
	"lab-inventory/internal/model"
	"lab-inventory/internal/service"
	"lab-inventory/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func restore() {
	getUserByEmail = store.GetUserByEmail
	getUserByID = store.GetUserByID
	getUserBySetupToken = store.GetUserBySetupToken
	activateUser = store.ActivateUser
	updateUserPassword = store.UpdateUserPassword
	authenticateUser = service.AuthenticateUser
	hashPassword = service.HashPassword
	revokeToken = cache.RevokeToken
	timeNow = time.Now
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = api.NewValidator()
	return e
}

func newJSONCtx(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func newTokens(t *testing.T) *service.TokenManager {
	t.Helper()
	tm, err := service.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	return tm
}

func activeUser() *model.User {
	hash := "hash"
	return &model.User{
		ID:             7,
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Email:          "ada@fiu.edu",
		Role:           model.RoleFaculty,
		AuthorizedLabs: []string{"EC3625"},
		Status:         model.UserStatusActive,
		PasswordHash:   &hash,
	}
}

func TestLoginHandler(t *testing.T) {
	e := newEcho()
	tokens := newTokens(t)

	t.Run("missing fields", func(t *testing.T) {
		t.Cleanup(restore)
		ctx, rec := newJSONCtx(e, http.MethodPost, "/api/auth/login", `{"email":"a@fiu.edu"}`)
		require.NoError(t, LoginHandler(nil, tokens)(ctx))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "Email and password required")
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByEmail = func(context.Context, database.DB, string) (*model.User, error) {
			return nil, store.ErrNotFound
		}
		ctx, rec := newJSONCtx(e, http.MethodPost, "/api/auth/login", `{"email":"a@fiu.edu","password":"x"}`)
		require.NoError(t, LoginHandler(nil, tokens)(ctx))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), notActivated)
	})

	t.Run("db error", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByEmail = func(context.Context, database.DB, string) (*model.User, error) {
			return nil, errors.New("boom")
		}
		ctx, rec := newJSONCtx(e, http.MethodPost, "/api/auth/login", `{"email":"a@fiu.edu","password":"x"}`)
		require.NoError(t, LoginHandler(nil, tokens)(ctx))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("pending user", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByEmail = func(context.Context, database.DB, string) (*model.User, error) {
			u := activeUser()
			u.Status = model.UserStatusPending
			u.PasswordHash = nil
			return u, nil
		}
		ctx, rec := newJSONCtx(e, http.MethodPost, "/api/auth/login", `{"email":"ada@fiu.edu","password":"x"}`)
		require.NoError(t, LoginHandler(nil, tokens)(ctx))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), notActivated)
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByEmail = func(context.Context, database.DB, string) (*model.User, error) { return activeUser(), nil }
		authenticateUser = func(context.Context, model.User, string) (*model.User, error) {
			return nil, service.ErrInvalidCredentials
		}
		ctx, rec := newJSONCtx(e, http.MethodPost, "/api/auth/login", `{"email":"ada@fiu.edu","password":"x"}`)
		require.NoError(t, LoginHandler(nil, tokens)(ctx))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), `"Invalid credentials"`)
	})

	t.Run("success lowercases email", func(t *testing.T) {
		t.Cleanup(restore)
		var gotEmail string
		getUserByEmail = func(_ context.Context, _ database.DB, email string) (*model.User, error) {
			gotEmail = email
			return activeUser(), nil
		}
		authenticateUser = func(_ context.Context, u model.User, _ string) (*model.User, error) { return &u, nil }

		ctx, rec := newJSONCtx(e, http.MethodPost, "/api/auth/login", `{"email":"Ada@FIU.edu","password":"pw"}`)
		require.NoError(t, LoginHandler(nil, tokens)(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "ada@fiu.edu", gotEmail)

		var resp api.LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, int64(7), resp.User.ID)
		require.Equal(t, []string{"EC3625"}, resp.User.AuthorizedLabs)

		claims, err := tokens.Verify(resp.Token)
		require.NoError(t, err)
		require.Equal(t, model.RoleFaculty, claims.Role)
	})
}

func TestVerifyHandler(t *testing.T) {
	e := newEcho()

	ctx, rec := newJSONCtx(e, http.MethodGet, "/api/auth/verify", "")
	require.NoError(t, VerifyHandler()(ctx))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	ctx, rec = newJSONCtx(e, http.MethodGet, "/api/auth/verify", "")
	ctx.Set(middleware.ContextUserKey, &service.CustomClaims{ID: 3, Email: "g@fiu.edu", Role: model.RoleGrant, AuthorizedLabs: []string{}})
	require.NoError(t, VerifyHandler()(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"user":{"id":3,"email":"g@fiu.edu","role":"grant","authorizedLabs":[]}}`, rec.Body.String())
}

func TestLogoutHandler(t *testing.T) {
	e := newEcho()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("revokes until expiry", func(t *testing.T) {
		t.Cleanup(restore)
		timeNow = func() time.Time { return now }
		var gotJTI string
		var gotTTL time.Duration
		revokeToken = func(_ context.Context, _ cache.Cache, jti string, ttl time.Duration) error {
			gotJTI, gotTTL = jti, ttl
			return nil
		}
		ctx, rec := newJSONCtx(e, http.MethodPost, "/api/auth/logout", "")
		ctx.Set(middleware.ContextUserKey, &service.CustomClaims{ID: 1, RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(30 * time.Minute)),
		}})
		require.NoError(t, LogoutHandler(cache.NewMemory())(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "jti-1", gotJTI)
		require.Equal(t, 30*time.Minute, gotTTL)
	})

	t.Run("cache failure", func(t *testing.T) {
		t.Cleanup(restore)
		revokeToken = func(context.Context, cache.Cache, string, time.Duration) error { return errors.New("down") }
		ctx, rec := newJSONCtx(e, http.MethodPost, "/api/auth/logout", "")
		ctx.Set(middleware.ContextUserKey, &service.CustomClaims{RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-2",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}})
		require.NoError(t, LogoutHandler(cache.NewMemory())(ctx))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestChangePasswordHandler(t *testing.T) {
	e := newEcho()
	body := `{"oldPassword":"old-secret","newPassword":"new-secret"}`

	t.Run("short new password", func(t *testing.T) {
		t.Cleanup(restore)
		ctx, rec := newJSONCtx(e, http.MethodPut, "/api/auth/password", `{"oldPassword":"a","newPassword":"b"}`)
		require.NoError(t, ChangePasswordHandler(nil)(ctx))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "at least 6")
	})

	t.Run("no claims", func(t *testing.T) {
		t.Cleanup(restore)
		ctx, rec := newJSONCtx(e, http.MethodPut, "/api/auth/password", body)
		require.NoError(t, ChangePasswordHandler(nil)(ctx))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong current password", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByID = func(context.Context, database.DB, int64) (*model.User, error) { return activeUser(), nil }
		authenticateUser = func(context.Context, model.User, string) (*model.User, error) {
			return nil, service.ErrInvalidCredentials
		}
		ctx, rec := newJSONCtx(e, http.MethodPut, "/api/auth/password", body)
		ctx.Set(middleware.ContextUserKey, &service.CustomClaims{ID: 7})
		require.NoError(t, ChangePasswordHandler(nil)(ctx))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByID = func(context.Context, database.DB, int64) (*model.User, error) { return activeUser(), nil }
		authenticateUser = func(_ context.Context, u model.User, _ string) (*model.User, error) { return &u, nil }
		hashPassword = func(string) (string, error) { return "new-hash", nil }
		var gotHash string
		updateUserPassword = func(_ context.Context, _ database.DB, id int64, hash string) error {
			require.Equal(t, int64(7), id)
			gotHash = hash
			return nil
		}
		ctx, rec := newJSONCtx(e, http.MethodPut, "/api/auth/password", body)
		ctx.Set(middleware.ContextUserKey, &service.CustomClaims{ID: 7})
		require.NoError(t, ChangePasswordHandler(nil)(ctx))
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "new-hash", gotHash)
	})
}
