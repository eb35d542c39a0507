package service_test

import (
	"context"
	"testing"

	"github.com/prflow/approval-api/internal/auth"
	"github.com/prflow/approval-api/internal/domain"
	"github.com/prflow/approval-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createAccount(t *testing.T, f *fixture, username string, role domain.Role) *domain.AccountDTO {
	t.Helper()
	dto, err := f.accounts.Create(context.Background(), &domain.CreateAccountRequest{
		Username:    username,
		Password:    "correct-horse-battery",
		DisplayName: "Account " + username,
		Email:       username + "@example.com",
		Role:        role,
	})
	require.NoError(t, err)
	return dto
}

func authedAs(dto *domain.AccountDTO) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      dto.ID,
		Username:    dto.Username,
		DisplayName: dto.DisplayName,
		Email:       dto.Email,
		Role:        dto.Role,
	})
}

func TestAccountService_Login(t *testing.T) {
	f := newFixture(t)
	createAccount(t, f, "kari", domain.RoleUser)

	resp, err := f.accounts.Login(context.Background(), &domain.LoginRequest{
		Username: "kari",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "kari", resp.Account.Username)
	assert.NotNil(t, resp.Account.LastLoginAt)
}

func TestAccountService_Login_BadCredentials(t *testing.T) {
	f := newFixture(t)
	createAccount(t, f, "kari", domain.RoleUser)

	// Wrong password and unknown user are indistinguishable
	_, err := f.accounts.Login(context.Background(), &domain.LoginRequest{Username: "kari", Password: "wrong"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = f.accounts.Login(context.Background(), &domain.LoginRequest{Username: "nobody", Password: "wrong"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestAccountService_Login_DisabledAccount(t *testing.T) {
	f := newFixture(t)
	created := createAccount(t, f, "kari", domain.RoleUser)

	inactive := false
	_, err := f.accounts.Update(context.Background(), created.ID, &domain.UpdateAccountRequest{IsActive: &inactive})
	require.NoError(t, err)

	_, err = f.accounts.Login(context.Background(), &domain.LoginRequest{
		Username: "kari",
		Password: "correct-horse-battery",
	})
	assert.ErrorIs(t, err, service.ErrAccountDisabled)
}

func TestAccountService_Me(t *testing.T) {
	f := newFixture(t)
	created := createAccount(t, f, "kari", domain.RoleApprover)

	me, err := f.accounts.Me(authedAs(created))
	require.NoError(t, err)
	assert.Equal(t, created.ID, me.ID)
	assert.Equal(t, domain.RoleApprover, me.Role)

	_, err = f.accounts.Me(context.Background())
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestAccountService_UpdatePassword(t *testing.T) {
	f := newFixture(t)
	created := createAccount(t, f, "kari", domain.RoleUser)
	ctx := authedAs(created)

	err := f.accounts.UpdatePassword(ctx, &domain.UpdatePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "a-brand-new-password",
	})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	err = f.accounts.UpdatePassword(ctx, &domain.UpdatePasswordRequest{
		CurrentPassword: "correct-horse-battery",
		NewPassword:     "a-brand-new-password",
	})
	require.NoError(t, err)

	_, err = f.accounts.Login(context.Background(), &domain.LoginRequest{Username: "kari", Password: "a-brand-new-password"})
	assert.NoError(t, err)
}

func TestAccountService_Create_DuplicateUsername(t *testing.T) {
	f := newFixture(t)
	createAccount(t, f, "kari", domain.RoleUser)

	_, err := f.accounts.Create(context.Background(), &domain.CreateAccountRequest{
		Username:    "kari",
		Password:    "another-password",
		DisplayName: "Second Kari",
		Email:       "kari2@example.com",
		Role:        domain.RoleUser,
	})
	assert.ErrorIs(t, err, service.ErrUsernameTaken)
}

func TestAccountService_Create_InvalidRole(t *testing.T) {
	f := newFixture(t)

	_, err := f.accounts.Create(context.Background(), &domain.CreateAccountRequest{
		Username:    "kari",
		Password:    "correct-horse-battery",
		DisplayName: "Kari",
		Email:       "kari@example.com",
		Role:        domain.Role("superuser"),
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestAccountService_Update_ChangesRole(t *testing.T) {
	f := newFixture(t)
	created := createAccount(t, f, "kari", domain.RoleUser)

	updated, err := f.accounts.Update(context.Background(), created.ID, &domain.UpdateAccountRequest{
		Role: domain.RoleApprover,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleApprover, updated.Role)
}

func TestAccountService_ResetPassword(t *testing.T) {
	f := newFixture(t)
	created := createAccount(t, f, "kari", domain.RoleUser)

	err := f.accounts.ResetPassword(context.Background(), created.ID, &domain.ResetPasswordRequest{
		NewPassword: "admin-chosen-password",
	})
	require.NoError(t, err)

	_, err = f.accounts.Login(context.Background(), &domain.LoginRequest{Username: "kari", Password: "admin-chosen-password"})
	assert.NoError(t, err)
}

func TestAccountService_EnsureDefaultAdmin(t *testing.T) {
	f := newFixture(t)

	err := f.accounts.EnsureDefaultAdmin(context.Background(), "admin", "initial-password")
	require.NoError(t, err)

	resp, err := f.accounts.Login(context.Background(), &domain.LoginRequest{Username: "admin", Password: "initial-password"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, resp.Account.Role)
}

func TestAccountService_EnsureDefaultAdmin_SkipsWhenAccountsExist(t *testing.T) {
	f := newFixture(t)
	createAccount(t, f, "kari", domain.RoleUser)

	err := f.accounts.EnsureDefaultAdmin(context.Background(), "admin", "initial-password")
	require.NoError(t, err)

	_, err = f.accounts.Login(context.Background(), &domain.LoginRequest{Username: "admin", Password: "initial-password"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}
