package infrastructure_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Raikerian/go-lumina-kitchen/internal/config"
	"github.com/Raikerian/go-lumina-kitchen/internal/infrastructure"
)

func TestBuildLogger_Levels(t *testing.T) {
	tests := map[string]struct {
		level    string
		expected zapcore.Level
	}{
		"debug":   {level: "debug", expected: zapcore.DebugLevel},
		"info":    {level: "info", expected: zapcore.InfoLevel},
		"warn":    {level: "warn", expected: zapcore.WarnLevel},
		"error":   {level: "error", expected: zapcore.ErrorLevel},
		"unknown": {level: "chatty", expected: zapcore.InfoLevel},
		"empty":   {level: "", expected: zapcore.InfoLevel},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			logger, err := infrastructure.BuildLogger(tt.level, filepath.Join(t.TempDir(), "app.log"))
			require.NoError(t, err)

			assert.True(t, logger.Core().Enabled(tt.expected))
			if tt.expected > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.expected-1))
			}
		})
	}
}

func TestBuildLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lumina.log")

	logger, err := infrastructure.BuildLogger("info", path)
	require.NoError(t, err)

	logger.Info("kitchen open")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "kitchen open")
}

func TestLoggerModule(t *testing.T) {
	cfg := &config.Config{LogLevel: "debug", LogFile: filepath.Join(t.TempDir(), "fx.log")}

	var logger *zap.Logger
	app := fxtest.New(t,
		fx.Supply(cfg),
		infrastructure.LoggerModule,
		fx.Populate(&logger),
	)
	app.RequireStart()
	require.NotNil(t, logger)
	app.RequireStop()
}
