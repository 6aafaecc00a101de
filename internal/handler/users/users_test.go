package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lab-inventory/internal/api"
	"lab-inventory/internal/database"
	"lab-inventory/internal/middleware"
	"lab-inventory/internal/model"
	"lab-inventory/internal/service"
	"lab-inventory/internal/store"
	"lab-inventory/internal/worker"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func restore() {
	listUsers = store.ListUsers
	getUserByID = store.GetUserByID
	createUser = store.CreateUser
	updateUser = store.UpdateUser
	deleteUser = store.DeleteUser
	setSetupToken = store.SetSetupToken
	emailTaken = store.EmailTaken
	pantherIDTaken = store.PantherIDTaken
	newSetupToken = service.NewSetupToken
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = api.NewValidator()
	return e
}

func newCtx(e *echo.Echo, method, target, body string, id string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Host = "lab.example.edu"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != "" {
		c.SetPath("/api/admin/users/:id")
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	return c, rec
}

func asAdmin(c echo.Context, id int64) {
	c.Set(middleware.ContextUserKey, &service.CustomClaims{ID: id, Role: model.RoleAdmin})
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.NewSQLite(context.Background(), database.MemoryPath)
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func existingUser() *model.User {
	return &model.User{
		ID:             5,
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Email:          "ada@fiu.edu",
		PantherID:      "600005",
		Role:           model.RoleFaculty,
		AuthorizedLabs: []string{"EC3625"},
		Status:         model.UserStatusActive,
	}
}

const createBody = `{"firstName":"Grace","lastName":"Hopper","email":"Grace@FIU.edu","pantherId":"600009","role":"faculty","authorizedLabs":["EC3630"]}`

func TestListUsersHandler(t *testing.T) {
	e := newEcho()

	t.Run("db error", func(t *testing.T) {
		t.Cleanup(restore)
		listUsers = func(context.Context, database.DB) ([]model.User, error) { return nil, errors.New("x") }
		c, rec := newCtx(e, http.MethodGet, "/api/admin/users", "", "")
		require.NoError(t, ListUsersHandler(nil)(c))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("ok hides secrets", func(t *testing.T) {
		t.Cleanup(restore)
		listUsers = func(context.Context, database.DB) ([]model.User, error) {
			u := existingUser()
			hash, token := "secret-hash", "secret-token"
			u.PasswordHash, u.SetupToken = &hash, &token
			return []model.User{*u}, nil
		}
		c, rec := newCtx(e, http.MethodGet, "/api/admin/users", "", "")
		require.NoError(t, ListUsersHandler(nil)(c))
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotContains(t, rec.Body.String(), "secret-hash")
		require.NotContains(t, rec.Body.String(), "secret-token")
		require.Contains(t, rec.Body.String(), `"pantherId":"600005"`)
	})
}

func TestGetUserHandler(t *testing.T) {
	e := newEcho()

	t.Run("bad id", func(t *testing.T) {
		t.Cleanup(restore)
		c, rec := newCtx(e, http.MethodGet, "/", "", "abc")
		require.NoError(t, GetUserHandler(nil)(c))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByID = func(context.Context, database.DB, int64) (*model.User, error) { return nil, store.ErrNotFound }
		c, rec := newCtx(e, http.MethodGet, "/", "", "5")
		require.NoError(t, GetUserHandler(nil)(c))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("ok", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByID = func(_ context.Context, _ database.DB, id int64) (*model.User, error) {
			require.Equal(t, int64(5), id)
			return existingUser(), nil
		}
		c, rec := newCtx(e, http.MethodGet, "/", "", "5")
		require.NoError(t, GetUserHandler(nil)(c))
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestCreateUserHandler(t *testing.T) {
	e := newEcho()
	expiry := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	inv := &Invites{TTL: 24 * time.Hour}

	t.Run("missing labs", func(t *testing.T) {
		t.Cleanup(restore)
		c, rec := newCtx(e, http.MethodPost, "/", `{"firstName":"A","lastName":"B","email":"a@fiu.edu","pantherId":"1","role":"faculty","authorizedLabs":[]}`, "")
		require.NoError(t, CreateUserHandler(nil, inv)(c))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "All required fields must be provided")
	})

	t.Run("invalid role", func(t *testing.T) {
		t.Cleanup(restore)
		c, rec := newCtx(e, http.MethodPost, "/", strings.Replace(createBody, `"faculty"`, `"owner"`, 1), "")
		require.NoError(t, CreateUserHandler(nil, inv)(c))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "Invalid role")
	})

	t.Run("duplicate", func(t *testing.T) {
		t.Cleanup(restore)
		createUser = func(context.Context, database.DB, *model.User) (*model.User, error) {
			return nil, store.ErrConflict
		}
		c, rec := newCtx(e, http.MethodPost, "/", createBody, "")
		require.NoError(t, CreateUserHandler(nil, inv)(c))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "Email or Panther ID already exists")
	})

	t.Run("pending with setup token", func(t *testing.T) {
		t.Cleanup(restore)
		newSetupToken = func(ttl time.Duration) service.SetupToken {
			require.Equal(t, 24*time.Hour, ttl)
			return service.SetupToken{Value: "tok-1", Expiry: expiry}
		}
		var got *model.User
		createUser = func(_ context.Context, _ database.DB, u *model.User) (*model.User, error) {
			got = u
			u.ID = 11
			return u, nil
		}
		c, rec := newCtx(e, http.MethodPost, "/", createBody, "")
		require.NoError(t, CreateUserHandler(nil, inv)(c))
		require.Equal(t, http.StatusCreated, rec.Code)

		require.Equal(t, "grace@fiu.edu", got.Email)
		require.Equal(t, model.UserStatusPending, got.Status)
		require.Equal(t, "tok-1", *got.SetupToken)
		require.Equal(t, expiry, *got.SetupTokenExpiry)
		require.Nil(t, got.PhoneNumber)

		var resp api.CreateUserResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "http://lab.example.edu/setup-password.html?token=tok-1", resp.SetupURL)
		require.False(t, resp.EmailQueued)
	})
}

func TestCreateUserQueuesInvitation(t *testing.T) {
	t.Cleanup(restore)
	e := newEcho()
	db := newTestDB(t)

	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)
	pool := worker.NewPool(1, log)
	inv := &Invites{
		Pool:    pool,
		Mailer:  service.NewMailer(service.MailConfig{}, log),
		TTL:     time.Hour,
		BaseURL: func(string, string) string { return "https://inventory.fiu.edu/" },
		Log:     log,
	}

	c, rec := newCtx(e, http.MethodPost, "/", createBody, "")
	require.NoError(t, CreateUserHandler(db, inv)(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	pool.Stop()

	var resp api.CreateUserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.EmailQueued)
	require.True(t, strings.HasPrefix(resp.SetupURL, "https://inventory.fiu.edu/setup-password.html?token="))

	entries := logs.FilterField(zap.String("setup_url", resp.SetupURL)).All()
	require.Len(t, entries, 1)

	u, err := store.GetUserByEmail(context.Background(), db, "grace@fiu.edu")
	require.NoError(t, err)
	require.Equal(t, model.UserStatusPending, u.Status)
	require.NotNil(t, u.SetupToken)
	require.Contains(t, resp.SetupURL, *u.SetupToken)
}

func TestUpdateUserHandler(t *testing.T) {
	e := newEcho()
	body := `{"firstName":"Ada","lastName":"King","email":"ADA@fiu.edu","pantherId":"600005","role":"grant","authorizedLabs":["EC3625"],"status":"inactive"}`

	t.Run("invalid status", func(t *testing.T) {
		t.Cleanup(restore)
		c, rec := newCtx(e, http.MethodPut, "/", strings.Replace(body, "inactive", "banned", 1), "5")
		require.NoError(t, UpdateUserHandler(nil)(c))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "Invalid status")
	})

	t.Run("not found", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByID = func(context.Context, database.DB, int64) (*model.User, error) { return nil, store.ErrNotFound }
		c, rec := newCtx(e, http.MethodPut, "/", body, "5")
		require.NoError(t, UpdateUserHandler(nil)(c))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("email taken", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByID = func(context.Context, database.DB, int64) (*model.User, error) { return existingUser(), nil }
		emailTaken = func(context.Context, database.DB, string, int64) (bool, error) { return true, nil }
		c, rec := newCtx(e, http.MethodPut, "/", body, "5")
		require.NoError(t, UpdateUserHandler(nil)(c))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "Email already exists")
	})

	t.Run("panther id taken", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByID = func(context.Context, database.DB, int64) (*model.User, error) { return existingUser(), nil }
		emailTaken = func(context.Context, database.DB, string, int64) (bool, error) { return false, nil }
		pantherIDTaken = func(context.Context, database.DB, string, int64) (bool, error) { return true, nil }
		c, rec := newCtx(e, http.MethodPut, "/", body, "5")
		require.NoError(t, UpdateUserHandler(nil)(c))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "Panther ID already exists")
	})

	t.Run("own role", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByID = func(context.Context, database.DB, int64) (*model.User, error) {
			u := existingUser()
			u.Role = model.RoleAdmin
			return u, nil
		}
		emailTaken = func(context.Context, database.DB, string, int64) (bool, error) { return false, nil }
		pantherIDTaken = func(context.Context, database.DB, string, int64) (bool, error) { return false, nil }
		c, rec := newCtx(e, http.MethodPut, "/", body, "5")
		asAdmin(c, 5)
		require.NoError(t, UpdateUserHandler(nil)(c))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "Cannot change your own role")
	})

	t.Run("own status", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByID = func(context.Context, database.DB, int64) (*model.User, error) {
			u := existingUser()
			u.Role = model.RoleGrant
			return u, nil
		}
		emailTaken = func(context.Context, database.DB, string, int64) (bool, error) { return false, nil }
		pantherIDTaken = func(context.Context, database.DB, string, int64) (bool, error) { return false, nil }
		c, rec := newCtx(e, http.MethodPut, "/", body, "5")
		asAdmin(c, 5)
		require.NoError(t, UpdateUserHandler(nil)(c))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "Cannot change your own status")
	})

	t.Run("ok keeps status when omitted", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByID = func(context.Context, database.DB, int64) (*model.User, error) { return existingUser(), nil }
		emailTaken = func(context.Context, database.DB, string, int64) (bool, error) { return false, nil }
		pantherIDTaken = func(context.Context, database.DB, string, int64) (bool, error) { return false, nil }
		var got *model.User
		updateUser = func(_ context.Context, _ database.DB, u *model.User) error {
			got = u
			return nil
		}
		c, rec := newCtx(e, http.MethodPut, "/", strings.Replace(body, `,"status":"inactive"`, "", 1), "5")
		asAdmin(c, 1)
		require.NoError(t, UpdateUserHandler(nil)(c))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "ada@fiu.edu", got.Email)
		require.Equal(t, "King", got.LastName)
		require.Equal(t, model.RoleGrant, got.Role)
		require.Equal(t, model.UserStatusActive, got.Status)
	})
}

func TestDeleteUserHandler(t *testing.T) {
	e := newEcho()

	t.Run("self", func(t *testing.T) {
		t.Cleanup(restore)
		c, rec := newCtx(e, http.MethodDelete, "/", "", "1")
		asAdmin(c, 1)
		require.NoError(t, DeleteUserHandler(nil)(c))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "Cannot delete your own account")
	})

	t.Run("not found", func(t *testing.T) {
		t.Cleanup(restore)
		deleteUser = func(context.Context, database.DB, int64) error { return store.ErrNotFound }
		c, rec := newCtx(e, http.MethodDelete, "/", "", "5")
		asAdmin(c, 1)
		require.NoError(t, DeleteUserHandler(nil)(c))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("ok", func(t *testing.T) {
		t.Cleanup(restore)
		deleteUser = func(context.Context, database.DB, int64) error { return nil }
		c, rec := newCtx(e, http.MethodDelete, "/", "", "5")
		asAdmin(c, 1)
		require.NoError(t, DeleteUserHandler(nil)(c))
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestResetSetupHandler(t *testing.T) {
	e := newEcho()
	inv := &Invites{TTL: time.Hour, BaseURL: func(string, string) string { return "http://x" }}

	t.Run("not found", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByID = func(context.Context, database.DB, int64) (*model.User, error) { return nil, store.ErrNotFound }
		c, rec := newCtx(e, http.MethodPost, "/", "", "5")
		require.NoError(t, ResetSetupHandler(nil, inv)(c))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("ok", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByID = func(context.Context, database.DB, int64) (*model.User, error) { return existingUser(), nil }
		newSetupToken = func(time.Duration) service.SetupToken { return service.SetupToken{Value: "tok-2"} }
		var gotToken string
		setSetupToken = func(_ context.Context, _ database.DB, id int64, token string, _ time.Time) error {
			require.Equal(t, int64(5), id)
			gotToken = token
			return nil
		}
		c, rec := newCtx(e, http.MethodPost, "/", "", "5")
		require.NoError(t, ResetSetupHandler(nil, inv)(c))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "tok-2", gotToken)
		require.Contains(t, rec.Body.String(), "http://x/setup-password.html?token=tok-2")
	})
}
