package automation

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runnerFunc func(ctx context.Context) (Report, error)

func (f runnerFunc) RunAll(ctx context.Context) (Report, error) { return f(ctx) }

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	_, err := NewScheduler(runnerFunc(nil), "every tuesday", nil)
	assert.ErrorContains(t, err, "invalid automation schedule")
}

func TestSchedulerTickLogsOutcome(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "completed", want: "scheduled automation completed"},
		{name: "skipped", err: ErrAlreadyRunning, want: "run already in progress"},
		{name: "failed", err: errors.New("Storage: read leaders"), want: "scheduled automation failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			calls := 0
			s, err := NewScheduler(runnerFunc(func(context.Context) (Report, error) {
				calls++
				return Report{BrokenLinks: 2}, tt.err
			}), "@every 1h", slog.New(slog.NewTextHandler(&buf, nil)))
			require.NoError(t, err)

			s.tick()
			assert.Equal(t, 1, calls)
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}
