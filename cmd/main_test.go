package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/community-manager/internal/auth"
	"github.com/yourusername/community-manager/internal/config"
	"github.com/yourusername/community-manager/internal/failure"
	"github.com/yourusername/community-manager/internal/records"
	"github.com/yourusername/community-manager/internal/storage"
)

func parseFlags(t *testing.T, args ...string) (*runOptions, *config.Config) {
	t.Helper()

	var opts runOptions
	cmd := newRootCmd(&opts)
	require.NoError(t, cmd.ParseFlags(args))

	cfg, err := config.Parse([]byte(`
batch:
  input_path: comunidades.xlsx
  limit: all
browser:
  headless: true
`))
	require.NoError(t, err)

	opts.apply(cfg, cmd.Flags())
	return &opts, cfg
}

func TestUnsetFlagsKeepFileValues(t *testing.T) {
	_, cfg := parseFlags(t)

	assert.Equal(t, "comunidades.xlsx", cfg.Batch.InputPath)
	assert.Equal(t, records.Unlimited, cfg.RecordLimit())
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, auth.ReuseAuto, cfg.Session.Reuse)
}

func TestFlagsOverrideFileValues(t *testing.T) {
	_, cfg := parseFlags(t, "--input", "otra.csv", "--limit", "sample", "--headless=false", "--fresh")

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "otra.csv", cfg.Batch.InputPath)
	assert.Equal(t, records.First(records.SampleSize), cfg.RecordLimit())
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, auth.ReuseFresh, cfg.Session.Reuse)
}

func TestInvalidLimitFlagFailsValidation(t *testing.T) {
	_, cfg := parseFlags(t, "--limit", "0")
	assert.Error(t, cfg.Validate())
}

func TestRunStatus(t *testing.T) {
	loginInterrupted := failure.Session(fmt.Errorf("client never reached the chat list: %w",
		failure.Interrupted("chat-search", []string{"data-tab"}, context.Canceled)))

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"completed", nil, storage.StatusCompleted},
		{"interrupted between records", fmt.Errorf("batch interrupted: %w", context.Canceled), storage.StatusInterrupted},
		{"interrupted during login wait", loginInterrupted, storage.StatusInterrupted},
		{"session never ready", failure.Session(errors.New("qr not scanned")), storage.StatusAborted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, runStatus(tt.err))
		})
	}
}

func TestBannerRowsAreAligned(t *testing.T) {
	var widths []int
	for _, line := range strings.Split(banner, "\n") {
		if strings.HasPrefix(line, "║") || strings.HasPrefix(line, "╔") || strings.HasPrefix(line, "╚") {
			widths = append(widths, utf8.RuneCountInString(line))
		}
	}

	require.NotEmpty(t, widths)
	for i, w := range widths {
		assert.Equal(t, widths[0], w, "banner row %d", i)
	}
}
