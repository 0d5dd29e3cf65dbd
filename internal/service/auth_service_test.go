package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/stemsi/compass-backend/internal/config"
	"github.com/stemsi/compass-backend/internal/model"
)

type fakeUsers struct {
	byEmail map[string]*model.HRUser
}

func (f *fakeUsers) GetByID(_ context.Context, id int) (*model.HRUser, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.HRUser, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func newAuthFixture(t *testing.T) (*AuthService, *fakeKV) {
	t.Helper()
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour, BcryptCost: bcrypt.MinCost}
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	users := &fakeUsers{byEmail: map[string]*model.HRUser{
		"hr@example.com": {ID: 7, Email: "hr@example.com", PasswordHash: string(hash), Role: model.HRRoleAdmin},
	}}
	kv := newFakeKV()
	return NewAuthService(cfg, kv, users), kv
}

func TestAuthService_Login(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	resp, err := svc.Login(ctx, model.HRLoginRequest{Email: "hr@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Contains(t, resp.Permissions, string(model.PermissionDashboardRead))

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeHR, claims.TokenType)
	assert.Equal(t, 7, claims.UserID)
	assert.NoError(t, svc.ValidateHRSession(ctx, 7, claims.ID))
}

func TestAuthService_LoginRejects(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, model.HRLoginRequest{Email: "hr@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, model.HRLoginRequest{Email: "nobody@example.com", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_NewLoginInvalidatesOld(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()
	req := model.HRLoginRequest{Email: "hr@example.com", Password: "s3cret-pass"}

	first, err := svc.Login(ctx, req)
	require.NoError(t, err)
	second, err := svc.Login(ctx, req)
	require.NoError(t, err)

	c1, err := svc.ValidateToken(first.Token)
	require.NoError(t, err)
	c2, err := svc.ValidateToken(second.Token)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ValidateHRSession(ctx, 7, c1.ID), ErrSessionInvalidated)
	assert.NoError(t, svc.ValidateHRSession(ctx, 7, c2.ID))

	require.NoError(t, svc.Logout(ctx, 7))
	assert.ErrorIs(t, svc.ValidateHRSession(ctx, 7, c2.ID), ErrSessionInvalidated)
}

func TestAuthService_CandidateToken(t *testing.T) {
	svc, _ := newAuthFixture(t)
	sid := uuid.New()

	token, err := svc.GenerateCandidateToken(sid)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeCandidate, claims.TokenType)
	assert.Equal(t, sid.String(), claims.SessionID)
	assert.Zero(t, claims.UserID)
}

func TestAuthService_ValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.ValidateToken("not.a.token")
	assert.Error(t, err)

	other := NewAuthService(&config.Config{JWTSecret: "other"}, newFakeKV(), &fakeUsers{})
	token, err := other.GenerateCandidateToken(uuid.New())
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestAuthService_Me(t *testing.T) {
	svc, _ := newAuthFixture(t)

	u, err := svc.Me(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "hr@example.com", u.Email)

	_, err = svc.Me(context.Background(), 99)
	assert.ErrorIs(t, err, ErrSessionInvalidated)
}
