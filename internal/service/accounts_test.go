package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"lab-inventory/internal/database"
	"lab-inventory/internal/model"
	"lab-inventory/internal/store"
)

func restoreAccounts() {
	countUsers = store.CountUsers
	createUser = store.CreateUser
}

func TestEnsureAdminCreatesOnce(t *testing.T) {
	t.Cleanup(restoreAccounts)
	var created *model.User
	countUsers = func(context.Context, database.DB) (int, error) { return 0, nil }
	createUser = func(_ context.Context, _ database.DB, u *model.User) (*model.User, error) {
		u.ID = 1
		created = u
		return u, nil
	}
	core, logs := observer.New(zapcore.WarnLevel)

	ok, err := EnsureAdmin(context.Background(), &database.FakeDB{}, "admin@fiu.edu", "admin123", zap.New(core))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, model.RoleAdmin, created.Role)
	require.Equal(t, model.UserStatusActive, created.Status)
	require.Equal(t, model.Labs, created.AuthorizedLabs)
	require.NoError(t, ComparePassword(*created.PasswordHash, "admin123"))
	require.Equal(t, 1, logs.Len())

	countUsers = func(context.Context, database.DB) (int, error) { return 3, nil }
	created = nil
	ok, err = EnsureAdmin(context.Background(), &database.FakeDB{}, "admin@fiu.edu", "admin123", nil)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, created)
}

func TestEnsureAdminErrors(t *testing.T) {
	t.Cleanup(restoreAccounts)
	countUsers = func(context.Context, database.DB) (int, error) { return 0, errors.New("db down") }
	_, err := EnsureAdmin(context.Background(), &database.FakeDB{}, "a@b.c", "pw", nil)
	require.Error(t, err)

	countUsers = func(context.Context, database.DB) (int, error) { return 0, nil }
	createUser = func(context.Context, database.DB, *model.User) (*model.User, error) { return nil, store.ErrConflict }
	_, err = EnsureAdmin(context.Background(), &database.FakeDB{}, "a@b.c", "pw", nil)
	require.ErrorIs(t, err, store.ErrConflict)
}

func TestCreateActiveUserClearsSetupToken(t *testing.T) {
	t.Cleanup(restoreAccounts)
	token := "tok"
	createUser = func(_ context.Context, _ database.DB, u *model.User) (*model.User, error) { return u, nil }

	u, err := CreateActiveUser(context.Background(), &database.FakeDB{}, model.User{
		Email:      "x@fiu.edu",
		Role:       model.RoleFaculty,
		SetupToken: &token,
	}, "secret1")
	require.NoError(t, err)
	require.Nil(t, u.SetupToken)
	require.Equal(t, model.UserStatusActive, u.Status)
	require.NotNil(t, u.AuthorizedLabs)
}
