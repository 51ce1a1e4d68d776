package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{name: "console debug", level: "debug", format: FormatConsole},
		{name: "json info", level: "info", format: FormatJSON},
		{name: "blank format defaults to console", level: "warn", format: ""},
		{name: "unknown level", level: "loud", format: FormatJSON, wantErr: true},
		{name: "unknown format", level: "info", format: "xml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger, err := New(tt.level, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
		})
	}
}

func TestNew_Level(t *testing.T) {
	t.Parallel()

	logger, err := New("warn", FormatJSON)
	require.NoError(t, err)

	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))
}
