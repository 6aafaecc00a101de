package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lab-inventory/internal/database"
	"lab-inventory/internal/model"
)

func TestUserCRUD(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	n, err := CountUsers(ctx, db)
	require.NoError(t, err)
	require.Zero(t, n)

	expiry := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	u, err := CreateUser(ctx, db, &model.User{
		FirstName:        "Grace",
		LastName:         "Hopper",
		Email:            "grace@fiu.edu",
		PantherID:        "6000001",
		PhoneNumber:      strPtr("305-555-0100"),
		Role:             model.RoleFaculty,
		AuthorizedLabs:   []string{"EC3625", "OU107"},
		Status:           model.UserStatusPending,
		SetupToken:       strPtr("tok-1"),
		SetupTokenExpiry: &expiry,
	})
	require.NoError(t, err)
	require.NotZero(t, u.ID)
	require.False(t, u.CreatedAt.IsZero())

	got, err := GetUserByEmail(ctx, db, "grace@fiu.edu")
	require.NoError(t, err)
	require.Equal(t, []string{"EC3625", "OU107"}, got.AuthorizedLabs)
	require.Equal(t, "305-555-0100", *got.PhoneNumber)
	require.Nil(t, got.PasswordHash)
	require.NotNil(t, got.SetupTokenExpiry)
	require.True(t, expiry.Equal(*got.SetupTokenExpiry))

	byToken, err := GetUserBySetupToken(ctx, db, "tok-1")
	require.NoError(t, err)
	require.Equal(t, u.ID, byToken.ID)

	// 重複 email
	_, err = CreateUser(ctx, db, &model.User{
		FirstName: "x", LastName: "y", Email: "grace@fiu.edu", PantherID: "6000002",
		Role: model.RoleGrant, Status: model.UserStatusActive,
	})
	require.ErrorIs(t, err, ErrConflict)

	taken, err := EmailTaken(ctx, db, "grace@fiu.edu", 0)
	require.NoError(t, err)
	require.True(t, taken)
	taken, err = EmailTaken(ctx, db, "grace@fiu.edu", u.ID)
	require.NoError(t, err)
	require.False(t, taken)
	taken, err = PantherIDTaken(ctx, db, "6000001", 0)
	require.NoError(t, err)
	require.True(t, taken)

	// token 不符或已過期都不會啟用
	require.ErrorIs(t, ActivateUser(ctx, db, u.ID, "tok-other", "hash", time.Now()), ErrNotFound)
	require.ErrorIs(t, ActivateUser(ctx, db, u.ID, "tok-1", "hash", expiry.Add(time.Second)), ErrNotFound)
	require.NoError(t, ActivateUser(ctx, db, u.ID, "tok-1", "hash", time.Now()))
	require.ErrorIs(t, ActivateUser(ctx, db, u.ID, "tok-1", "hash", time.Now()), ErrNotFound)
	got, err = GetUserByID(ctx, db, u.ID)
	require.NoError(t, err)
	require.Equal(t, model.UserStatusActive, got.Status)
	require.Equal(t, "hash", *got.PasswordHash)
	require.Nil(t, got.SetupToken)
	require.Nil(t, got.SetupTokenExpiry)

	_, err = GetUserBySetupToken(ctx, db, "tok-1")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, SetSetupToken(ctx, db, u.ID, "tok-2", expiry))
	_, err = GetUserBySetupToken(ctx, db, "tok-2")
	require.NoError(t, err)

	got.FirstName = "Amazing"
	got.Role = model.RoleGrant
	got.AuthorizedLabs = nil
	require.NoError(t, UpdateUser(ctx, db, got))
	got, err = GetUserByID(ctx, db, u.ID)
	require.NoError(t, err)
	require.Equal(t, "Amazing", got.FirstName)
	require.Equal(t, model.RoleGrant, got.Role)
	require.Empty(t, got.AuthorizedLabs)

	require.NoError(t, UpdateUserPassword(ctx, db, u.ID, "hash2"))

	other := mustCreateUser(t, db, "other@fiu.edu", "6000003", model.RoleAdmin)
	other.Email = "grace@fiu.edu"
	require.ErrorIs(t, UpdateUser(ctx, db, other), ErrConflict)

	users, err := ListUsers(ctx, db)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, other.ID, users[0].ID)

	require.NoError(t, DeleteUser(ctx, db, u.ID))
	require.ErrorIs(t, DeleteUser(ctx, db, u.ID), ErrNotFound)
	_, err = GetUserByID(ctx, db, u.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, UpdateUserPassword(ctx, db, u.ID, "h"), ErrNotFound)
	require.ErrorIs(t, SetSetupToken(ctx, db, u.ID, "t", expiry), ErrNotFound)
}

func TestUserStoreErrors(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, db.Close())

	_, err := ListUsers(ctx, db)
	require.Error(t, err)
	_, err = CountUsers(ctx, db)
	require.Error(t, err)
	_, err = GetUserByID(ctx, db, 1)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrNotFound))
	_, err = EmailTaken(ctx, db, "a", 0)
	require.Error(t, err)
	require.Error(t, DeleteUser(ctx, db, 1))
	require.Error(t, ActivateUser(ctx, db, 1, "t", "h", time.Now()))
}

type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestRequireAffectedWithFakeDB(t *testing.T) {
	db := &database.FakeDB{
		ExecFn: func(ctx context.Context, q string, args ...any) (sql.Result, error) {
			return fakeResult{rows: 0}, nil
		},
	}
	require.ErrorIs(t, DeleteUser(context.Background(), db, 9), ErrNotFound)

	db.ExecFn = func(ctx context.Context, q string, args ...any) (sql.Result, error) {
		return fakeResult{err: errors.New("rows")}, nil
	}
	err := DeleteUser(context.Background(), db, 9)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrNotFound))
}
