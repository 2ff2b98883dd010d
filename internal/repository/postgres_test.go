package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry(t *testing.T) {
	delays := []time.Duration{time.Millisecond, time.Millisecond}

	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		{
			name:      "success first try",
			errs:      []error{nil},
			wantCalls: 1,
		},
		{
			name:      "serialization failure then success",
			errs:      []error{&pgconn.PgError{Code: pgerrcode.SerializationFailure}, nil},
			wantCalls: 2,
		},
		{
			name:      "connection refused exhausts retries",
			errs:      []error{errors.New("dial tcp: connection refused")},
			wantCalls: 3,
			wantErr:   true,
		},
		{
			name:      "unique violation is not retried",
			errs:      []error{&pgconn.PgError{Code: pgerrcode.UniqueViolation}},
			wantCalls: 1,
			wantErr:   true,
		},
		{
			name:      "context error is not retried",
			errs:      []error{context.Canceled},
			wantCalls: 1,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := withRetry(context.Background(), delays, func() error {
				e := tt.errs[min(calls, len(tt.errs)-1)]
				calls++
				return e
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestWithRetry_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := withRetry(ctx, []time.Duration{time.Hour}, func() error {
		calls++
		return errors.New("broken pipe")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsConnectionError(t *testing.T) {
	assert.True(t, isConnectionError(errors.New("read: connection reset by peer")))
	assert.True(t, isConnectionError(errors.New("write: broken pipe")))
	assert.False(t, isConnectionError(errors.New("syntax error at or near")))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "00001_create_bookings.sql", entries[0].Name())
}
