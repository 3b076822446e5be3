package logger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/get-eventually/eventcore/logger"
)

func TestHelpers_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		logger.Debug(nil, "debug")
		logger.Info(nil, "info")
		logger.Warn(nil, "warn")
		logger.Error(nil, "error")
	})
}

func TestRecorder(t *testing.T) {
	recorder := new(logger.Recorder)
	err := errors.New("failed")

	logger.Debug(recorder, "debug", logger.With("key", 1))
	logger.Info(recorder, "info")
	logger.Warn(recorder, "warn")
	logger.Error(recorder, "error", logger.Err(err))

	assert.Equal(t, []string{"debug", "info", "warn", "error"}, recorder.Levels())
	assert.Equal(t, logger.Entry{
		Level:   "error",
		Message: "error",
		Fields:  []logger.Field{{Key: "error", Value: err}},
	}, recorder.Entries()[3])
}

func TestTest(t *testing.T) {
	l := logger.NewTest(t)

	l.Debug("debug", logger.With("key", "value"))
	l.Info("info")
	l.Warn("warn")
	l.Error("error")
}
