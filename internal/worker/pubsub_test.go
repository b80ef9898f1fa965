package worker_test

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/airalert/airalert/internal/worker"
)

func TestJobRunner_Handle(t *testing.T) {
	tests := []struct {
		name    string
		failing map[string]bool
		data    string
		wantAck bool
		calls   map[string]int
	}{
		{
			name:    "refresh all regions",
			data:    `{"job_type":"pollution_refresh"}`,
			wantAck: true,
			calls:   map[string]int{"Europe": 1, "Asia": 1},
		},
		{
			name:    "refresh one region",
			data:    `{"job_type":"pollution_refresh","region":"Asia"}`,
			wantAck: true,
			calls:   map[string]int{"Asia": 1},
		},
		{
			name:    "refresh mostly failing",
			failing: map[string]bool{"Europe": true, "Asia": true},
			data:    `{"job_type":"pollution_refresh"}`,
			wantAck: false,
			calls:   map[string]int{"Europe": 1, "Asia": 1},
		},
		{
			name:    "health check",
			data:    `{"job_type":"health_check"}`,
			wantAck: true,
			calls:   map[string]int{"Europe": 1},
		},
		{
			name:    "health check failing",
			failing: map[string]bool{"Europe": true},
			data:    `{"job_type":"health_check"}`,
			wantAck: false,
			calls:   map[string]int{"Europe": 1},
		},
		{
			name:    "unknown job is dropped",
			data:    `{"job_type":"reindex"}`,
			wantAck: true,
			calls:   map[string]int{},
		},
		{
			name:    "malformed message is retried",
			data:    `{not json`,
			wantAck: false,
			calls:   map[string]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			readings := &stubReadings{failing: tt.failing, calls: map[string]int{}}
			logger := zerolog.New(io.Discard)
			job := worker.NewRefreshJob(worker.RefreshJobConfig{
				Config:   worker.RefreshConfig{Regions: []string{"Europe", "Asia"}},
				Logger:   logger,
				Readings: readings,
			})

			ack := worker.NewJobRunner(job, logger).Handle(context.Background(), []byte(tt.data))
			assert.Equal(t, tt.wantAck, ack)
			assert.Equal(t, tt.calls, readings.calls)
		})
	}
}
