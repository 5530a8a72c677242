package logging

import (
	"bytes"
	"database/sql"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errorCloser struct {
	err error
}

func (e *errorCloser) Close() error {
	return e.err
}

type mockTransaction struct {
	rollbackErr error
}

func (m *mockTransaction) Rollback() error {
	return m.rollbackErr
}

func TestSafeClose(t *testing.T) {
	t.Run("successful close logs nothing", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)

		SafeCloseWithLogging(&errorCloser{}, logger, "close_rows")
		SafeCloseWithLogging(nil, logger, "close_nil")

		assert.Empty(t, buf.String())
	})

	t.Run("logs error when close fails", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)

		SafeCloseWithLogging(&errorCloser{err: assert.AnError}, logger, "close_upload")

		output := buf.String()
		assert.Contains(t, output, `"level":"ERROR"`)
		assert.Contains(t, output, `"msg":"failed to close resource"`)
		assert.Contains(t, output, `"operation":"close_upload"`)
	})
}

func TestSafeRollback(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		logged bool
	}{
		{name: "rollback failure is logged", err: assert.AnError, logged: true},
		{name: "already committed is ignored", err: sql.ErrTxDone},
		{name: "wrapped tx done is ignored", err: fmt.Errorf("docstore: %w", sql.ErrTxDone)},
		{name: "successful rollback is silent", err: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewStructuredLogger(&buf, slog.LevelInfo)

			SafeRollbackWithLogging(&mockTransaction{rollbackErr: tt.err}, logger, "docstore_update")

			if tt.logged {
				assert.Contains(t, buf.String(), `"msg":"failed to rollback transaction"`)
				assert.Contains(t, buf.String(), `"operation":"docstore_update"`)
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestHandleDeferredError(t *testing.T) {
	t.Run("deferred failure becomes the returned error", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewStructuredLogger(&buf, slog.LevelInfo)

		run := func() (err error) {
			defer HandleDeferredError(&err, func() error { return assert.AnError }, logger, "close_rows")
			return nil
		}

		err := run()
		require.Error(t, err)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "close_rows failed")
		assert.Contains(t, buf.String(), `"msg":"deferred operation failed"`)
	})

	t.Run("original error wins", func(t *testing.T) {
		original := fmt.Errorf("query failed")

		run := func() (err error) {
			defer HandleDeferredError(&err, func() error { return assert.AnError }, nil, "close_rows")
			return original
		}

		assert.Equal(t, original, run())
	})

	t.Run("nil cleanup is a no-op", func(t *testing.T) {
		run := func() (err error) {
			defer HandleDeferredError(&err, nil, nil, "noop")
			return nil
		}
		assert.NoError(t, run())
	})
}
