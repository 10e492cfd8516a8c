package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/regcheck/internal/domain"
	"github.com/jonesrussell/regcheck/internal/logger"
	"github.com/jonesrussell/regcheck/internal/metrics"
)

const detailsPageText = `Car Details
FORD FOCUS
TAX
Expires: 01 December 2026
123 days left
MOT
Expires: 15 March 2026
45 days left
Description
FOCUS ZETEC TDCI
Primary Colour
Blue
Fuel Type
Diesel
Transmission
Manual
Total Keepers
3
`

const notFoundPageText = `Car Details
No Vehicle Found
Please Try Again
`

const blockedPageText = `Access Denied
You have been blocked from accessing this page.
`

const shellPageText = `Enter a registration to begin.
`

func newTestExtractor(t *testing.T, run sessionFunc) (*Extractor, *metrics.Metrics) {
	t.Helper()

	met := metrics.NewMetrics()
	e := NewExtractor(Config{
		BaseURL:            "https://example.test/",
		UserAgent:          "test-agent",
		Headless:           true,
		PageLoadTimeout:    time.Second,
		ElementWaitTimeout: time.Second,
		PollInterval:       10 * time.Millisecond,
	}, logger.NewNoOp(), met)
	e.runSession = run

	return e, met
}

func TestExtract_Success(t *testing.T) {
	t.Parallel()

	e, met := newTestExtractor(t, func(_ context.Context, _ string) (string, error) {
		return detailsPageText, nil
	})

	record, err := e.Extract(context.Background(), "AB12CDE", 3)
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, "AB12CDE", record.Registration)
	assert.Equal(t, "FORD", record.Make)
	assert.Equal(t, "FOCUS", record.Model)
	assert.Equal(t, domain.SourceVNCAutomation, record.Source)
	assert.False(t, record.ScrapedAt.IsZero())

	require.NotNil(t, record.MOTDaysLeft)
	assert.Equal(t, 45, *record.MOTDaysLeft)

	assert.Equal(t, int64(1), met.Snapshot().AutomationAttempts)
}

func TestExtract_NotFoundStopsRetrying(t *testing.T) {
	t.Parallel()

	var calls int
	e, met := newTestExtractor(t, func(_ context.Context, _ string) (string, error) {
		calls++
		return notFoundPageText, nil
	})

	record, err := e.Extract(context.Background(), "ZZ99ZZZ", 3)
	require.ErrorIs(t, err, domain.ErrVehicleNotFound)
	assert.Nil(t, record)
	assert.Equal(t, 1, calls)
	assert.Equal(t, int64(1), met.Snapshot().AutomationAttempts)
}

func TestExtract_BlockedThenSuccess(t *testing.T) {
	t.Parallel()

	var calls int
	e, met := newTestExtractor(t, func(_ context.Context, _ string) (string, error) {
		calls++
		if calls == 1 {
			return blockedPageText, nil
		}
		return detailsPageText, nil
	})

	record, err := e.Extract(context.Background(), "AB12CDE", 3)
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(2), met.Snapshot().AutomationAttempts)
}

func TestExtract_AllAttemptsBlocked(t *testing.T) {
	t.Parallel()

	var calls int
	e, met := newTestExtractor(t, func(_ context.Context, _ string) (string, error) {
		calls++
		return blockedPageText, nil
	})

	record, err := e.Extract(context.Background(), "AB12CDE", 3)
	require.ErrorIs(t, err, domain.ErrBlocked)
	assert.Nil(t, record)
	assert.Equal(t, 3, calls)
	assert.Equal(t, int64(3), met.Snapshot().AutomationAttempts)
}

func TestExtract_ShellPageRetriesAsBlocked(t *testing.T) {
	t.Parallel()

	var calls int
	e, _ := newTestExtractor(t, func(_ context.Context, _ string) (string, error) {
		calls++
		return shellPageText, nil
	})

	_, err := e.Extract(context.Background(), "AB12CDE", 2)
	require.ErrorIs(t, err, domain.ErrBlocked)
	assert.Equal(t, 2, calls)
}

func TestExtract_DominantFailureKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		failures []error
		want     error
	}{
		{
			name:     "timeouts dominate",
			failures: []error{errPageNotReady, errInputNotFound, errPageNotReady},
			want:     domain.ErrTimeout,
		},
		{
			name:     "blocks dominate",
			failures: []error{errInputNotFound, errPageNotReady, errInputNotFound},
			want:     domain.ErrBlocked,
		},
		{
			name:     "tie goes to the last failure",
			failures: []error{errInputNotFound, errPageNotReady},
			want:     domain.ErrTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls int
			e, _ := newTestExtractor(t, func(_ context.Context, _ string) (string, error) {
				err := tt.failures[calls]
				calls++
				return "", err
			})

			_, err := e.Extract(context.Background(), "AB12CDE", len(tt.failures))
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, len(tt.failures), calls)
		})
	}
}

func TestExtract_CancelledContextSkipsSessions(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int
	e, met := newTestExtractor(t, func(_ context.Context, _ string) (string, error) {
		calls++
		return detailsPageText, nil
	})

	_, err := e.Extract(ctx, "AB12CDE", 3)
	require.ErrorIs(t, err, domain.ErrTimeout)
	assert.Zero(t, calls)
	assert.Zero(t, met.Snapshot().AutomationAttempts)
}

func TestClassifySessionError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "page not ready", err: errPageNotReady, want: domain.ErrTimeout},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: domain.ErrTimeout},
		{name: "input not found", err: errInputNotFound, want: domain.ErrBlocked},
		{name: "browser failure", err: errors.New("chrome exited unexpectedly"), want: domain.ErrBlocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.ErrorIs(t, classifySessionError(tt.err), tt.want)
		})
	}
}
