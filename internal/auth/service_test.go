package auth_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/airalert/airalert/internal/auth"
	"github.com/airalert/airalert/internal/kvstore"
	"github.com/airalert/airalert/internal/notification"
	"github.com/airalert/airalert/internal/user"
	"github.com/airalert/airalert/internal/validation"
)

type fixture struct {
	svc           *auth.Service
	users         *user.InMemoryRepository
	notifications *notification.Service
	now           *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := kvstore.NewMemoryStore().WithClock(clock)
	logger := zerolog.New(io.Discard)

	users := user.NewInMemoryRepository()
	notifications := notification.NewService(notification.ServiceConfig{Store: store, Logger: logger, Now: clock})

	svc := auth.NewService(auth.ServiceConfig{
		JWTService:    newJWT("test-key", testIssuer, testAudience, clock),
		Users:         users,
		Notifications: notifications,
		Revocations:   auth.NewRevocationList(store, clock),
		Logger:        logger,
		BcryptCost:    bcrypt.MinCost,
		Now:           clock,
		NewID:         func() string { return "user-1" },
	})
	return &fixture{svc: svc, users: users, notifications: notifications, now: &now}
}

func patient() auth.RegisterRequest {
	return auth.RegisterRequest{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "secret1",
		Region:   "Europe",
		City:     "Paris",
		UserType: user.TypePatient,
		Age:      35,
		Gender:   "female",
		Weight:   60,
	}
}

func TestService_Register(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.svc.Register(ctx, patient())
	require.NoError(t, err)
	assert.Equal(t, "user-1", u.ID)
	assert.True(t, u.NotificationsEnabled)
	assert.Equal(t, 35, u.Age)
	assert.NotEqual(t, "secret1", u.PasswordHash)

	prefs, err := f.notifications.GetPreferences(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, notification.DefaultPreferences(true), prefs)

	list, err := f.notifications.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Contains(t, list[0].Message, "Europe")
	assert.Equal(t, 1, notification.CountUnread(list))
}

func TestService_Register_NotificationsDisabled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	disabled := false

	req := patient()
	req.NotificationsEnabled = &disabled
	u, err := f.svc.Register(ctx, req)
	require.NoError(t, err)
	assert.False(t, u.NotificationsEnabled)

	prefs, err := f.notifications.GetPreferences(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, prefs.Enabled)
}

func TestService_Register_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*auth.RegisterRequest)
		field  string
	}{
		{"short password", func(r *auth.RegisterRequest) { r.Password = "abc" }, "password"},
		{"bad email", func(r *auth.RegisterRequest) { r.Email = "nope" }, "email"},
		{"missing region", func(r *auth.RegisterRequest) { r.Region = "  " }, "region"},
		{"bad user type", func(r *auth.RegisterRequest) { r.UserType = "doctor" }, "userType"},
		{"patient without age", func(r *auth.RegisterRequest) { r.Age = 0 }, "age"},
		{"patient without gender", func(r *auth.RegisterRequest) { r.Gender = "" }, "gender"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := patient()
			tt.mutate(&req)

			_, err := f.svc.Register(context.Background(), req)
			require.ErrorIs(t, err, validation.ErrInvalid)

			verr, ok := err.(*validation.Error)
			require.True(t, ok)
			fields := make([]string, 0, len(verr.Fields))
			for _, fe := range verr.Fields {
				fields = append(fields, fe.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestService_Register_PlannerNeedsNoPatientFields(t *testing.T) {
	f := newFixture(t)

	u, err := f.svc.Register(context.Background(), auth.RegisterRequest{
		Name:     "Pat",
		Email:    "pat@example.com",
		Password: "secret1",
		Region:   "Asia",
		UserType: user.TypePlanner,
		Age:      50,
	})
	require.NoError(t, err)
	assert.Equal(t, user.TypePlanner, u.UserType)
	assert.Zero(t, u.Age)
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, patient())
	require.NoError(t, err)

	req := patient()
	req.Email = "ADA@example.com"
	_, err = f.svc.Register(ctx, req)
	assert.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestService_LoginAndLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, patient())
	require.NoError(t, err)

	session, err := f.svc.Login(ctx, auth.LoginRequest{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "user-1", session.User.ID)

	userID, err := f.svc.ValidateAccessToken(ctx, session.AccessToken.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	require.NoError(t, f.svc.Logout(ctx, session.AccessToken.Token))

	_, err = f.svc.ValidateAccessToken(ctx, session.AccessToken.Token)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)

	// a fresh login still works
	again, err := f.svc.Login(ctx, auth.LoginRequest{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = f.svc.ValidateAccessToken(ctx, again.AccessToken.Token)
	assert.NoError(t, err)
}

func TestService_Login_InvalidCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, patient())
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, auth.LoginRequest{Email: "ada@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, auth.LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestService_Logout_IgnoresBadTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.NoError(t, f.svc.Logout(ctx, ""))
	assert.NoError(t, f.svc.Logout(ctx, "garbage"))
}

func TestRevocationList_ExpiresWithToken(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	list := auth.NewRevocationList(kvstore.NewMemoryStore().WithClock(clock), clock)
	ctx := context.Background()

	require.NoError(t, list.Revoke(ctx, "jti-1", now.Add(time.Minute)))
	require.NoError(t, list.Revoke(ctx, "jti-2", now.Add(-time.Minute)))

	revoked, err := list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = list.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, err = list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}
