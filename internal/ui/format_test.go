package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		want     string
	}{
		{500 * time.Millisecond, "500ms"},
		{3 * time.Second, "3.0s"},
		{90 * time.Second, "1m30s"},
		{5 * time.Minute, "5m0s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.duration))
	}
}

func TestGetSuggestion(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"unreachable database", "Operational database unreachable",
			"Verify the database paths in ~/.procsync/config.yaml"},
		{"held run lock", "Another ETL run holds the run lock",
			"A sync is already in progress; wait for it to finish"},
		{"missing calendar", "Time dimension does not cover the run date",
			"Run 'procsync bootstrap' before the first sync"},
		{"missing schema", "no such table: fact_spend_analytics",
			"Run 'procsync bootstrap' to create the analytics schema"},
		{"unknown error", "something else entirely", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getSuggestion(tt.message))
		})
	}
}

func TestShowHeaderLongTitle(t *testing.T) {
	// Titles wider than the box must degrade gracefully, not panic on a
	// negative repeat count.
	assert.NotPanics(t, func() {
		ShowHeader(strings.Repeat("procurement analytics sync ", 4))
	})
}

func TestShortRunID(t *testing.T) {
	assert.Equal(t, "8f14e45f", shortRunID("8f14e45f-ceea-467f-9575-4d7b3cbb4b1f"))
	assert.Equal(t, "run-1", shortRunID("run-1"))
}
