package notification_test

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airalert/airalert/internal/kvstore"
	"github.com/airalert/airalert/internal/notification"
	"github.com/airalert/airalert/internal/validation"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) *notification.Service {
	t.Helper()
	seq := 0
	return notification.NewService(notification.ServiceConfig{
		Store:  kvstore.NewMemoryStore(),
		Logger: zerolog.New(io.Discard),
		Now:    func() time.Time { return testNow },
		NewID: func() string {
			seq++
			return fmt.Sprintf("n-%d", seq)
		},
	})
}

func TestService_List_Empty(t *testing.T) {
	svc := newTestService(t)

	list, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestService_Append_PrependsAndFillsFields(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Append(ctx, "user-1", notification.Notification{Message: "first", Type: notification.TypeInfo})
	require.NoError(t, err)
	assert.Equal(t, "n-1", first.ID)
	assert.Equal(t, testNow, first.Timestamp)

	_, err = svc.Append(ctx, "user-1", notification.Notification{Message: "second", Type: notification.TypeAlert})
	require.NoError(t, err)

	list, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Message)
	assert.Equal(t, "first", list[1].Message)
}

func TestService_Append_Validates(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Append(context.Background(), "user-1", notification.Notification{Message: "x", Type: "urgent"})
	assert.ErrorIs(t, err, validation.ErrInvalid)

	_, err = svc.Append(context.Background(), "", notification.Notification{Message: "x", Type: notification.TypeInfo})
	assert.ErrorIs(t, err, notification.ErrUserIDRequired)
}

func TestService_Append_Capped(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		_, err := svc.Append(ctx, "user-1", notification.Notification{
			Message: fmt.Sprintf("msg %d", i),
			Type:    notification.TypeWarning,
		})
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, notification.DefaultCap)
	assert.Equal(t, "msg 59", list[0].Message)
	assert.Equal(t, "msg 10", list[len(list)-1].Message)
}

func TestService_MarkRead(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	n, err := svc.Append(ctx, "user-1", notification.Notification{Message: "hello", Type: notification.TypeInfo})
	require.NoError(t, err)

	list, _ := svc.List(ctx, "user-1")
	assert.Equal(t, 1, notification.CountUnread(list))

	require.NoError(t, svc.MarkRead(ctx, "user-1", n.ID))
	require.NoError(t, svc.MarkRead(ctx, "user-1", n.ID))

	list, err = svc.List(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, list[0].Read)
	assert.Equal(t, 0, notification.CountUnread(list))

	err = svc.MarkRead(ctx, "user-1", "missing")
	assert.ErrorIs(t, err, notification.ErrNotificationNotFound)
}

func TestService_Seed_Welcome(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Seed(ctx, "user-1", notification.Welcome("Europe", testNow)))

	list, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Contains(t, list[0].Message, "monitoring air quality for Europe")
	assert.False(t, list[0].Read)
	assert.True(t, list[1].Read)
	assert.Equal(t, testNow.Add(-time.Hour), list[1].Timestamp)
	assert.NotEqual(t, list[0].ID, list[1].ID)
	assert.Equal(t, 1, notification.CountUnread(list))
}

func TestService_Preferences(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	prefs, err := svc.GetPreferences(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, notification.DefaultPreferences(true), prefs)

	require.NoError(t, svc.CreateDefaults(ctx, "user-1", false))
	prefs, err = svc.GetPreferences(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, prefs.Enabled)
	assert.Equal(t, 100, prefs.AQIThreshold)
	assert.Equal(t, 35.0, prefs.PM25Threshold)
	assert.Equal(t, 150.0, prefs.PM10Threshold)
	assert.Equal(t, "22:00", prefs.QuietHours.Start)
	assert.Equal(t, notification.FrequencyImmediate, prefs.Frequency)

	updated := notification.Preferences{
		Enabled:       true,
		AQIThreshold:  75,
		PM25Threshold: 20,
		PM10Threshold: 90,
		QuietHours:    notification.QuietHours{Enabled: true, Start: "23:30", End: "06:15"},
		Frequency:     notification.FrequencyHourly,
	}
	require.NoError(t, svc.PutPreferences(ctx, "user-1", updated))

	prefs, err = svc.GetPreferences(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, updated, prefs)
}

func TestService_PutPreferences_Invalid(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name   string
		mutate func(*notification.Preferences)
	}{
		{"negative aqi", func(p *notification.Preferences) { p.AQIThreshold = -1 }},
		{"aqi above scale", func(p *notification.Preferences) { p.AQIThreshold = 501 }},
		{"bad frequency", func(p *notification.Preferences) { p.Frequency = "weekly" }},
		{"bad quiet hours", func(p *notification.Preferences) { p.QuietHours.Start = "7pm" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefs := notification.DefaultPreferences(true)
			tt.mutate(&prefs)
			err := svc.PutPreferences(context.Background(), "user-1", prefs)
			assert.ErrorIs(t, err, validation.ErrInvalid)
		})
	}
}
