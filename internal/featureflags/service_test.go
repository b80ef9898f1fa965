package featureflags_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airalert/airalert/internal/featureflags"
	"github.com/airalert/airalert/internal/kvstore"
)

func newService(repo featureflags.Repository, ttl time.Duration) *featureflags.Service {
	return featureflags.NewService(featureflags.ServiceConfig{
		Repository: repo,
		Logger:     zerolog.Nop(),
		CacheTTL:   ttl,
	})
}

func TestService_GetFlag_Defaults(t *testing.T) {
	service := newService(featureflags.NewInMemoryRepository(), time.Minute)
	ctx := context.Background()

	flag := service.GetFlag(ctx, featureflags.FlagDisableAlertsSending)
	require.NotNil(t, flag)
	assert.Equal(t, featureflags.FlagDisableAlertsSending, flag.Key)
	assert.False(t, flag.BoolValue(true))

	assert.False(t, service.IsAlertsSendingDisabled(ctx))
	assert.False(t, service.IsChatbotDisabled(ctx))
	assert.False(t, service.IsWorkerSweepDisabled(ctx))
	assert.True(t, service.IsFacilityPlanningEnabled(ctx))
	assert.Equal(t, featureflags.DefaultChatDailyLimit, service.ChatDailyLimit(ctx))
}

func TestService_NilService(t *testing.T) {
	var service *featureflags.Service
	ctx := context.Background()

	assert.False(t, service.IsAlertsSendingDisabled(ctx))
	assert.True(t, service.IsFacilityPlanningEnabled(ctx))
	assert.Equal(t, 5, service.ChatDailyLimit(ctx))
}

func TestService_SetFlag(t *testing.T) {
	service := newService(featureflags.NewInMemoryRepository(), time.Minute)
	ctx := context.Background()

	err := service.SetFlag(ctx, &featureflags.Flag{Key: featureflags.FlagDisableAlertsSending, Value: true})
	require.NoError(t, err)

	assert.True(t, service.IsAlertsSendingDisabled(ctx))
}

func TestService_SetFlags(t *testing.T) {
	service := newService(featureflags.NewInMemoryRepository(), time.Minute)
	ctx := context.Background()

	err := service.SetFlags(ctx, []*featureflags.Flag{
		{Key: featureflags.FlagDisableChatbot, Value: true},
		{Key: featureflags.FlagChatDailyLimit, Value: float64(10)},
	})
	require.NoError(t, err)

	assert.True(t, service.IsChatbotDisabled(ctx))
	assert.Equal(t, 10, service.ChatDailyLimit(ctx))
}

func TestService_ChatDailyLimit_Negative(t *testing.T) {
	repo := featureflags.NewInMemoryRepositoryWithFlags(map[string]*featureflags.Flag{
		featureflags.FlagChatDailyLimit: {Key: featureflags.FlagChatDailyLimit, Value: float64(-3)},
	})
	service := newService(repo, time.Minute)

	assert.Equal(t, featureflags.DefaultChatDailyLimit, service.ChatDailyLimit(context.Background()))
}

func TestService_GetAllFlags(t *testing.T) {
	repo := featureflags.NewInMemoryRepositoryWithFlags(map[string]*featureflags.Flag{
		"custom_flag": {Key: "custom_flag", Value: "on"},
	})
	service := newService(repo, time.Minute)

	flags := service.GetAllFlags(context.Background())

	for key := range featureflags.DefaultFlags() {
		assert.Contains(t, flags, key)
	}
	require.Contains(t, flags, "custom_flag")
	assert.Equal(t, "on", flags["custom_flag"].StringValue(""))
}

func TestService_InvalidateCache(t *testing.T) {
	repo := featureflags.NewInMemoryRepository()
	service := newService(repo, time.Hour)
	ctx := context.Background()

	assert.False(t, service.IsChatbotDisabled(ctx))

	require.NoError(t, repo.SetFlag(ctx, &featureflags.Flag{Key: featureflags.FlagDisableChatbot, Value: true}))
	assert.False(t, service.IsChatbotDisabled(ctx), "cached value served until invalidated")

	service.InvalidateCache()
	assert.True(t, service.IsChatbotDisabled(ctx))
}

func TestService_FallbackToDefaults(t *testing.T) {
	repo := featureflags.NewInMemoryRepositoryWithFlags(nil)
	service := newService(repo, time.Minute)

	flag := service.GetFlag(context.Background(), featureflags.FlagEnableFacilityPlanning)
	require.NotNil(t, flag)
	assert.True(t, flag.BoolValue(false))

	assert.Nil(t, service.GetFlag(context.Background(), "unknown"))
}

func TestFlag_ValueHelpers(t *testing.T) {
	tests := []struct {
		name       string
		value      interface{}
		wantBool   bool
		wantString string
		wantInt    int
		wantFloat  float64
	}{
		{name: "boolean true", value: true, wantBool: true, wantString: "default", wantInt: 42, wantFloat: 3.14},
		{name: "string value", value: "hello", wantBool: false, wantString: "hello", wantInt: 42, wantFloat: 3.14},
		{name: "float64 value", value: 42.5, wantBool: true, wantString: "default", wantInt: 42, wantFloat: 42.5},
		{name: "zero number", value: float64(0), wantBool: false, wantString: "default", wantInt: 0, wantFloat: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := &featureflags.Flag{Key: "test", Value: tt.value, UpdatedAt: time.Now()}

			assert.Equal(t, tt.wantBool, flag.BoolValue(false))
			assert.Equal(t, tt.wantString, flag.StringValue("default"))
			assert.Equal(t, tt.wantInt, flag.IntValue(42))
			assert.InDelta(t, tt.wantFloat, flag.Float64Value(3.14), 1e-9)
		})
	}
}

func TestFlag_NilFlag(t *testing.T) {
	var flag *featureflags.Flag

	assert.True(t, flag.BoolValue(true))
	assert.Equal(t, "default", flag.StringValue("default"))
	assert.Equal(t, 42, flag.IntValue(42))
	assert.Equal(t, 3.14, flag.Float64Value(3.14))
	assert.NoError(t, flag.JSONValue(&struct{}{}))
}

func TestInMemoryRepository_DeleteFlag(t *testing.T) {
	repo := featureflags.NewInMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.DeleteFlag(ctx, featureflags.FlagDisableChatbot))

	_, err := repo.GetFlag(ctx, featureflags.FlagDisableChatbot)
	assert.ErrorIs(t, err, featureflags.ErrFlagNotFound)

	err = repo.DeleteFlag(ctx, "nonexistent")
	assert.ErrorIs(t, err, featureflags.ErrFlagNotFound)
}

func TestStoreRepository(t *testing.T) {
	repo := featureflags.NewStoreRepository(kvstore.NewMemoryStore())
	ctx := context.Background()

	_, err := repo.GetFlag(ctx, featureflags.FlagDisableAlertsSending)
	assert.True(t, errors.Is(err, featureflags.ErrFlagNotFound))

	require.NoError(t, repo.SetFlags(ctx, []*featureflags.Flag{
		{Key: featureflags.FlagDisableAlertsSending, Value: true},
		{Key: featureflags.FlagChatDailyLimit, Value: 8},
	}))

	flag, err := repo.GetFlag(ctx, featureflags.FlagDisableAlertsSending)
	require.NoError(t, err)
	assert.True(t, flag.BoolValue(false))
	assert.False(t, flag.UpdatedAt.IsZero())

	all, err := repo.GetAllFlags(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	// values round-trip through JSON, so numbers come back as float64
	assert.Equal(t, 8, all[featureflags.FlagChatDailyLimit].IntValue(0))

	require.NoError(t, repo.DeleteFlag(ctx, featureflags.FlagChatDailyLimit))
	assert.ErrorIs(t, repo.DeleteFlag(ctx, featureflags.FlagChatDailyLimit), featureflags.ErrFlagNotFound)

	service := newService(repo, time.Minute)
	assert.True(t, service.IsAlertsSendingDisabled(ctx))
	assert.Equal(t, featureflags.DefaultChatDailyLimit, service.ChatDailyLimit(ctx))
}
