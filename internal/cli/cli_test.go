package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airalert/airalert/internal/alert"
	"github.com/airalert/airalert/internal/app"
	"github.com/airalert/airalert/internal/cli"
	"github.com/airalert/airalert/internal/config"
	"github.com/airalert/airalert/internal/kvstore"
	"github.com/airalert/airalert/internal/pollution"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// run executes airctl with args over store and returns stdout.
func run(t *testing.T, store kvstore.Store, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := cli.NewRootCommand(cli.Options{
		Out:    &out,
		ErrOut: &errOut,
		Now:    func() time.Time { return fixedNow },
		OpenBackend: func(context.Context, zerolog.Logger) (*app.Backend, *config.Config, error) {
			cfg := config.Default()
			cfg.Worker.Regions = []string{pollution.RegionEurope}
			return &app.Backend{Store: store}, &cfg, nil
		},
	})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRegions(t *testing.T) {
	out, err := run(t, kvstore.NewMemoryStore(), "regions")
	require.NoError(t, err)

	assert.Contains(t, out, "REGION")
	for _, region := range pollution.Regions() {
		assert.Contains(t, out, region)
	}
	assert.Contains(t, out, "1.5")
}

func TestGenerate_SeedIsDeterministic(t *testing.T) {
	first, err := run(t, kvstore.NewMemoryStore(), "generate", "--region", "Asia", "--seed", "42", "--count", "3")
	require.NoError(t, err)
	second, err := run(t, kvstore.NewMemoryStore(), "generate", "--region", "Asia", "--seed", "42", "--count", "3")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var readings []pollution.Reading
	require.NoError(t, json.Unmarshal([]byte(first), &readings))
	require.Len(t, readings, 3)
	for _, r := range readings {
		assert.Equal(t, "Asia", r.Region)
		assert.Equal(t, pollution.StatusFor(r.AQI), r.Status)
	}
}

func TestGenerate_AllRegionsByDefault(t *testing.T) {
	out, err := run(t, kvstore.NewMemoryStore(), "generate", "--seed", "1")
	require.NoError(t, err)

	var readings []pollution.Reading
	require.NoError(t, json.Unmarshal([]byte(out), &readings))
	assert.Len(t, readings, len(pollution.Regions()))
}

func TestGenerate_RejectsZeroCount(t *testing.T) {
	_, err := run(t, kvstore.NewMemoryStore(), "generate", "--count", "0")
	assert.Error(t, err)
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want alert.Decision
	}{
		{"clean air", []string{"--aqi", "30", "--pm25", "5"}, alert.DecisionWithinLimits},
		{"moderate AQI", []string{"--aqi", "80", "--pm25", "50"}, alert.DecisionAQIAcceptable},
		{"alert", []string{"--aqi", "120", "--pm25", "50"}, alert.DecisionAlert},
		{"recent alert", []string{"--aqi", "120", "--pm25", "50", "--last-alert", "5m"}, alert.DecisionThrottled},
		{"old alert", []string{"--aqi", "120", "--pm25", "50", "--last-alert", "2h"}, alert.DecisionAlert},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, kvstore.NewMemoryStore(), append([]string{"evaluate"}, tt.args...)...)
			require.NoError(t, err)

			var got struct {
				Result  alert.Result `json:"result"`
				Summary struct {
					Message string `json:"message"`
				} `json:"summary"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &got))
			assert.Equal(t, tt.want, got.Result.Decision)
			assert.Contains(t, got.Summary.Message, "AQI")
		})
	}
}

func TestFlags_SetAndList(t *testing.T) {
	store := kvstore.NewMemoryStore()

	out, err := run(t, store, "flags", "set", "disable_chatbot=true", "chat_daily_limit=10", "--reason", "test")
	require.NoError(t, err)
	assert.Contains(t, out, "disable_chatbot")

	out, err = run(t, store, "flags", "list")
	require.NoError(t, err)
	assert.Regexp(t, `disable_chatbot\s+true`, out)
	assert.Regexp(t, `chat_daily_limit\s+10`, out)
	assert.Regexp(t, `enable_facility_planning\s+true`, out)
}

func TestFlags_SetRejectsMalformedArgs(t *testing.T) {
	_, err := run(t, kvstore.NewMemoryStore(), "flags", "set", "disable_chatbot")
	assert.Error(t, err)
}

func TestRefresh_Region(t *testing.T) {
	store := kvstore.NewMemoryStore()

	out, err := run(t, store, "refresh", "--region", "Europe")
	require.NoError(t, err)

	var result struct {
		TotalRegions int
		Successful   int
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 1, result.TotalRegions)
	assert.Equal(t, 1, result.Successful)

	var reading pollution.Reading
	require.NoError(t, store.Get(context.Background(), "pollution:Europe", &reading))
	assert.Equal(t, "Europe", reading.Region)
}
