package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.NotNil(t, config)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 5000, config.Server.Port)
	assert.Equal(t, "downloads", config.Download.Dir)
	assert.Equal(t, 0, config.Download.ConcurrentLimit)
	assert.False(t, config.Download.RejectDuplicateIDs)
	assert.Equal(t, "yt-dlp", config.YTDLP.Binary)
	assert.Equal(t, "%(title)s.%(ext)s", config.YTDLP.OutputTemplate)
	assert.Equal(t, time.Duration(0), config.Progress.Retention)
	assert.Equal(t, time.Minute, config.Progress.SweepInterval)
	assert.False(t, config.Notification.Enabled)
	assert.Equal(t, "info", config.Logging.Level)
}
