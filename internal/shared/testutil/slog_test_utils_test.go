package testutil

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/Adolanium/SWLic/internal/errors"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("test message", slog.String("key", "value"))
		logger.Error("error message", slog.Int("code", 500))

		assert.Len(t, handler.GetRecords(), 2)
		assert.True(t, handler.ContainsMessage("test message"))
		assert.True(t, handler.ContainsAttr("key", "value"))
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Warn("warn msg")
		logger.Error("error msg")

		assert.Len(t, handler.GetRecordsByLevel(slog.LevelDebug), 1)
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelInfo), 1)
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
	})

	t.Run("keeps attributes of derived loggers", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With(slog.String("service", "license")).Info("derived")
		logger.WithGroup("req").Info("grouped", slog.String("id", "abc"))

		assert.True(t, handler.ContainsAttr("service", "license"))
		assert.True(t, handler.ContainsAttr("req.id", "abc"))
		assert.Equal(t, 2, handler.Count())
	})

	t.Run("clear", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("message 1")
		logger.Info("message 2")
		require.Equal(t, 2, handler.Count())

		handler.Clear()
		assert.Zero(t, handler.Count())
	})

	t.Run("assertion helpers", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("important message", slog.String("component", "test"))
		logger.Warn("masked", slog.String("serial", "9000 **** 1234"))

		AssertLogContains(t, handler, slog.LevelInfo, "important")
		AssertLogAttr(t, handler, "component", "test")
		AssertNotLogged(t, handler, "9000 0000 1234")
		AssertNoErrors(t, handler)
		assert.True(t, handler.ContainsText("1234"))
	})

	t.Run("thread safety", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				logger.With(slog.Int("worker", n)).Info("concurrent log")
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 10, handler.Count())
	})
}

func TestStubScraper(t *testing.T) {
	s := NewStubScraper(SampleRecord())
	ctx := context.Background()

	rec, err := s.Lookup(ctx, SampleSerial)
	require.NoError(t, err)
	assert.Equal(t, "2021 SP5", rec.Version)

	// Callers get a copy
	rec.Activations[0].MachineName = "changed"
	again, err := s.Lookup(ctx, SampleSerial)
	require.NoError(t, err)
	assert.Equal(t, "OLD-PC", again.Activations[0].MachineName)

	_, err = s.Lookup(ctx, "0000")
	assert.ErrorIs(t, err, apierrors.ErrSerialNotFound)

	s.Err = errors.New("boom")
	_, err = s.Lookup(ctx, SampleSerial)
	assert.EqualError(t, err, "boom")

	assert.Equal(t, 4, s.Calls())
}

func TestServicePackTable(t *testing.T) {
	table := ServicePackTable()

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"2021"}, table.Years())
}
