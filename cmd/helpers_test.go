package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"procsync/pkg/models"
)

func TestParseTimeout(t *testing.T) {
	assert.Equal(t, 10*time.Second, parseTimeout("10s", 30*time.Second))
	assert.Equal(t, 30*time.Second, parseTimeout("garbage", 30*time.Second))
	assert.Equal(t, 30*time.Second, parseTimeout("", 30*time.Second))
	assert.Equal(t, 30*time.Second, parseTimeout("-5s", 30*time.Second))
}

func TestNewServicesFromConfig(t *testing.T) {
	cfg := models.Defaults()
	cfg.Databases.OperationalPath = "/tmp/op.db"
	cfg.Databases.AnalyticsPath = "/tmp/an.db"

	assert.NotNil(t, newSourceReader(cfg))
	assert.NotNil(t, newWarehouseService(cfg))
}

func TestRootCommandHasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"run", "bootstrap", "verify", "status", "schedule", "setup", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}
