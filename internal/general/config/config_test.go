package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFileFullConfig(t *testing.T) {
	path := writeConfig(t, `
# dispatch service settings
server:
  port: 8080

jwt:
  secret_key: "super-secret"
  access_ttl_minutes: 60

simulation:
  tick_ms: 500
  step_km: 0.5
  arrival_threshold_deg: 0.001
  jitter_deg: 0.01

rabbitmq:
  enabled: true
  host: "mq.internal"
  port: 5673
  user: guest
  password: 'guest-pass'

database:
  enabled: true
  host: db.internal
  port: 5433
  user: rides
  password: rides-pass
  database: ride_dispatch
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "super-secret", cfg.JWT.SecretKey)
	assert.Equal(t, 60, cfg.JWT.AccessTTLMinutes)
	assert.Equal(t, 500, cfg.Simulation.TickMS)
	assert.Equal(t, 0.5, cfg.Simulation.StepKM)
	assert.Equal(t, 0.001, cfg.Simulation.ArrivalThresholdDeg)
	assert.Equal(t, 0.01, cfg.Simulation.JitterDeg)

	assert.True(t, cfg.RabbitMQ.Enabled)
	assert.Equal(t, "mq.internal", cfg.RabbitMQ.Host)
	assert.Equal(t, 5673, cfg.RabbitMQ.Port)
	assert.Equal(t, "guest", cfg.RabbitMQ.User)
	assert.Equal(t, "guest-pass", cfg.RabbitMQ.Password)

	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "ride_dispatch", cfg.Database.Name)
}

func TestLoadFromFileMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "dev-secret", cfg.JWT.SecretKey)
	assert.Equal(t, 720, cfg.JWT.AccessTTLMinutes)
	assert.Equal(t, 1500, cfg.Simulation.TickMS)
	assert.Equal(t, 0.2, cfg.Simulation.StepKM)
	assert.Equal(t, 0.0005, cfg.Simulation.ArrivalThresholdDeg)
	assert.Equal(t, 0.005, cfg.Simulation.JitterDeg)
	assert.False(t, cfg.RabbitMQ.Enabled)
	assert.False(t, cfg.Database.Enabled)
}

func TestLoadFromFilePartialConfigKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "dev-secret", cfg.JWT.SecretKey)
	assert.Equal(t, 1500, cfg.Simulation.TickMS)
}

func TestLoadFromFileEnabledBackendNeedsCredentials(t *testing.T) {
	path := writeConfig(t, `
database:
  enabled: true
`)

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.user is required")
	assert.Contains(t, err.Error(), "database.password is required")
	assert.Contains(t, err.Error(), "database.database is required")
}

func TestParseYAMLUnknownTopLevelKey(t *testing.T) {
	var cfg Config
	err := parseYAML(strings.NewReader("storage:\n  port: 1\n"), &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown top-level key "storage"`)
}

func TestParseYAMLUnknownSectionKey(t *testing.T) {
	var cfg Config
	err := parseYAML(strings.NewReader("server:\n  host: nope\n"), &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown key in server")
}

func TestParseYAMLDuplicateSection(t *testing.T) {
	var cfg Config
	err := parseYAML(strings.NewReader("server:\n  port: 1\nserver:\n  port: 2\n"), &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate 'server' section")
}

func TestParseYAMLKeyWithoutSection(t *testing.T) {
	var cfg Config
	err := parseYAML(strings.NewReader("  port: 1\n"), &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key without a section")
}

func TestParseYAMLBadValueTypes(t *testing.T) {
	var cfg Config
	err := parseYAML(strings.NewReader("server:\n  port: eighty\n"), &cfg)
	assert.Error(t, err)

	err = parseYAML(strings.NewReader("simulation:\n  step_km: fast\n"), &cfg)
	assert.Error(t, err)

	err = parseYAML(strings.NewReader("rabbitmq:\n  enabled: maybe\n"), &cfg)
	assert.Error(t, err)
}

func TestResolveScalarQuoting(t *testing.T) {
	assert.Equal(t, "localhost", resolveScalar(`"localhost"`))
	assert.Equal(t, "password123", resolveScalar(`'password123'`))
	assert.Equal(t, "plain", resolveScalar("  plain  "))
	assert.Equal(t, `"mismatched'`, resolveScalar(`"mismatched'`))
}

func TestValidateRejectsBadRanges(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 70000
`)

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be in 1..65535")
}
