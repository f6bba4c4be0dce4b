package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/facturacr/facturacr/internal/auth/domain"
	"github.com/facturacr/facturacr/internal/auth/repository"
	"github.com/facturacr/facturacr/internal/companyctx"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupAuthTest(t *testing.T) (domain.Service, *snowflake.Node, context.Context) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Session{}, &domain.LoginLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	repo, sessionRepo, loginLogRepo := repository.New(db)
	svc := New(Params{
		Log:          zap.NewNop(),
		Repo:         repo,
		SessionRepo:  sessionRepo,
		LoginLogRepo: loginLogRepo,
		GenID:        node,
		Config:       Config{SessionTTL: time.Hour},
	})

	ctx := companyctx.WithCompanyID(context.Background(), node.Generate())
	return svc, node, ctx
}

func createTestUser(t *testing.T, svc domain.Service, ctx context.Context, email string) *domain.User {
	t.Helper()
	user, err := svc.CreateUser(ctx, domain.CreateUserRequest{
		Name:     "Usuario Prueba",
		Email:    email,
		Password: "super-secret-1",
	})
	require.NoError(t, err)
	return user
}

func TestCreateUser(t *testing.T) {
	svc, _, ctx := setupAuthTest(t)

	user := createTestUser(t, svc, ctx, "admin@example.com")
	assert.Equal(t, "admin@example.com", user.Email)
	assert.True(t, user.Active)
	require.NotNil(t, user.PasswordHash)

	_, err := svc.CreateUser(ctx, domain.CreateUserRequest{
		Email:    "ADMIN@example.com",
		Password: "super-secret-1",
	})
	assert.ErrorIs(t, err, domain.ErrUserExists, "emails are case insensitive")

	_, err = svc.CreateUser(ctx, domain.CreateUserRequest{
		Email:    "short@example.com",
		Password: "short",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.CreateUser(ctx, domain.CreateUserRequest{
		Email:    "not an email",
		Password: "super-secret-1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginAndAuthenticate(t *testing.T) {
	svc, _, ctx := setupAuthTest(t)
	user := createTestUser(t, svc, ctx, "login@example.com")

	result, err := svc.Login(ctx, domain.LoginRequest{
		Email:    "Login@Example.com",
		Password: "super-secret-1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.RawToken)
	assert.Equal(t, user.ID, result.User.ID)
	assert.True(t, result.ExpiresAt.After(time.Now()))

	session, err := svc.Authenticate(ctx, result.RawToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)
	assert.Equal(t, user.CompanyID, session.CompanyID)

	_, err = svc.Login(ctx, domain.LoginRequest{
		Email:    "login@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, domain.LoginRequest{
		Email:    "nobody@example.com",
		Password: "super-secret-1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_InactiveUser(t *testing.T) {
	svc, _, ctx := setupAuthTest(t)
	user := createTestUser(t, svc, ctx, "inactive@example.com")

	inactive := false
	_, err := svc.UpdateUser(ctx, domain.UpdateUserRequest{ID: user.ID, Active: &inactive})
	require.NoError(t, err)

	_, err = svc.Login(ctx, domain.LoginRequest{
		Email:    "inactive@example.com",
		Password: "super-secret-1",
	})
	assert.ErrorIs(t, err, domain.ErrUserInactive)
}

func TestLogout_RevokesSession(t *testing.T) {
	svc, _, ctx := setupAuthTest(t)
	createTestUser(t, svc, ctx, "logout@example.com")

	result, err := svc.Login(ctx, domain.LoginRequest{
		Email:    "logout@example.com",
		Password: "super-secret-1",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, result.RawToken))

	_, err = svc.Authenticate(ctx, result.RawToken)
	assert.ErrorIs(t, err, domain.ErrSessionRevoked)

	err = svc.Logout(ctx, "bogus-token")
	assert.ErrorIs(t, err, domain.ErrInvalidSession)
}

func TestAuthenticate_InvalidTokens(t *testing.T) {
	svc, _, _ := setupAuthTest(t)

	_, err := svc.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidSession)

	_, err = svc.Authenticate(context.Background(), "unknown-token")
	assert.ErrorIs(t, err, domain.ErrInvalidSession)
}

func TestChangePassword(t *testing.T) {
	svc, _, ctx := setupAuthTest(t)
	user := createTestUser(t, svc, ctx, "change@example.com")

	err := svc.ChangePassword(ctx, user.ID, "wrong-current", "another-secret-1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	err = svc.ChangePassword(ctx, user.ID, "super-secret-1", "short")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "super-secret-1", "another-secret-1"))

	_, err = svc.Login(ctx, domain.LoginRequest{
		Email:    "change@example.com",
		Password: "super-secret-1",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, domain.LoginRequest{
		Email:    "change@example.com",
		Password: "another-secret-1",
	})
	assert.NoError(t, err)
}

func TestLoginLogs(t *testing.T) {
	svc, _, ctx := setupAuthTest(t)
	user := createTestUser(t, svc, ctx, "logs@example.com")

	_, err := svc.Login(ctx, domain.LoginRequest{Email: "logs@example.com", Password: "super-secret-1"})
	require.NoError(t, err)
	_, err = svc.Login(ctx, domain.LoginRequest{Email: "logs@example.com", Password: "nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	logs, err := svc.ListLoginLogs(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	successes := 0
	for _, entry := range logs {
		if entry.Success {
			successes++
		}
	}
	assert.Equal(t, 1, successes)
}
