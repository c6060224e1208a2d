package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/community-manager/internal/records"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("batch:\n  input_path: comunidades.xlsx\n"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "57", cfg.WhatsApp.CountryCode)
	assert.Equal(t, 10, cfg.WhatsApp.NationalDigits)
	assert.Equal(t, "auto", cfg.Session.Reuse)
	assert.Equal(t, 5*time.Second, cfg.GetMinContactDelay())
	assert.Equal(t, 10*time.Second, cfg.GetMaxContactDelay())
	assert.Equal(t, 15*time.Second, cfg.GetPhaseDelay())
	assert.Equal(t, 90*time.Second, cfg.GetLoginTimeout())
	assert.Equal(t, 250*time.Millisecond, cfg.GetPollInterval())
	assert.Equal(t, records.Unlimited, cfg.RecordLimit())
	assert.Equal(t, records.DefaultPhoneRule, cfg.PhoneRule())
}

func TestParseExpandsEnv(t *testing.T) {
	t.Setenv("CM_INPUT", "/data/contactos.csv")

	cfg, err := Parse([]byte(`
batch:
  input_path: ${CM_INPUT}
  limit: ${CM_LIMIT:sample}
whatsapp:
  country_code: "${CM_CC:52}"
`))
	require.NoError(t, err)

	assert.Equal(t, "/data/contactos.csv", cfg.Batch.InputPath)
	assert.Equal(t, "sample", cfg.Batch.Limit)
	assert.Equal(t, records.First(records.SampleSize), cfg.RecordLimit())
	assert.Equal(t, "52", cfg.WhatsApp.CountryCode)
}

func TestExplicitZeroPacingIsKept(t *testing.T) {
	cfg, err := Parse([]byte(`
batch:
  input_path: in.csv
pacing:
  min_contact_seconds: 0
  max_contact_seconds: 0
  phase_seconds: 0
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Zero(t, cfg.GetMinContactDelay())
	assert.Zero(t, cfg.GetMaxContactDelay())
	assert.Zero(t, cfg.GetPhaseDelay())
}

func TestPartialPacingKeepsOtherDefaults(t *testing.T) {
	cfg, err := Parse([]byte("batch:\n  input_path: in.csv\npacing:\n  phase_seconds: 0\n"))
	require.NoError(t, err)

	assert.Zero(t, cfg.GetPhaseDelay())
	assert.Equal(t, 5*time.Second, cfg.GetMinContactDelay())
	assert.Equal(t, 10*time.Second, cfg.GetMaxContactDelay())
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing input", func(c *Config) { c.Batch.InputPath = "" }},
		{"bad limit", func(c *Config) { c.Batch.Limit = "lots" }},
		{"bad country code", func(c *Config) { c.WhatsApp.CountryCode = "+57" }},
		{"bad reuse", func(c *Config) { c.Session.Reuse = "maybe" }},
		{"reversed pacing", func(c *Config) { c.Pacing.MinContactSeconds, c.Pacing.MaxContactSeconds = 10, 5 }},
		{"negative phase", func(c *Config) { c.Pacing.PhaseSeconds = -1 }},
		{"zero timeout", func(c *Config) { c.Timeouts.StepSeconds = 0 }},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte("batch:\n  input_path: in.csv\n"))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
batch:
  input_path: in.xlsx
  limit: "25"
pacing:
  min_contact_seconds: 2
  max_contact_seconds: 4
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, records.First(25), cfg.RecordLimit())
	assert.Equal(t, 2*time.Second, cfg.GetMinContactDelay())
	assert.Equal(t, 4*time.Second, cfg.GetMaxContactDelay())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
