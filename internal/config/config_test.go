package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/postmuse/internal/reminder"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GITHUB_OUTPUT", "")
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "data/users.db", cfg.Database.Path)
	assert.Equal(t, 12*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 10, cfg.Usage.UserLimit)
	assert.Equal(t, []string{"twitter", "linkedin", "instagram"}, cfg.PlatformSet().Tags())
	assert.Equal(t, ".github/emails/reminder_body.md", cfg.Reminder.TemplatePath)
	assert.Equal(t, "email_bodies.txt", cfg.Reminder.BodiesPath)
	assert.Equal(t, "output.txt", cfg.Reminder.OutputFile)
	assert.Empty(t, cfg.Reminder.Cron)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())

	zone, err := cfg.Zone()
	require.NoError(t, err)
	assert.Equal(t, "IST", zone.Location().String())

	rc, err := cfg.ReminderConfig()
	require.NoError(t, err)
	assert.Equal(t, reminder.MarkFirst, rc.Order)
}

func TestLoad_Environment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("POSTMUSE_SERVER_PORT", "9090")
	t.Setenv("POSTMUSE_DATABASE_PATH", "/tmp/p.db")
	t.Setenv("POSTMUSE_JWT_TTL", "30m")
	t.Setenv("POSTMUSE_USAGE_USER_LIMIT", "3")
	t.Setenv("POSTMUSE_PLATFORMS", "mastodon,bluesky")
	t.Setenv("POSTMUSE_REMINDER_ORDER", "emit-first")
	t.Setenv("POSTMUSE_LOG_LEVEL", "debug")
	t.Setenv("GITHUB_OUTPUT", "/tmp/gh_output")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/p.db", cfg.Database.Path)
	assert.Equal(t, 30*time.Minute, cfg.JWT.TTL)
	assert.Equal(t, 3, cfg.Usage.UserLimit)
	assert.Equal(t, []string{"mastodon", "bluesky"}, cfg.PlatformSet().Tags())
	assert.Equal(t, "/tmp/gh_output", cfg.Reminder.OutputFile)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())

	rc, err := cfg.ReminderConfig()
	require.NoError(t, err)
	assert.Equal(t, reminder.EmitFirst, rc.Order)
}

func TestLoad_PrefixedOutputBeatsGitHubOutput(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("GITHUB_OUTPUT", "/tmp/gh_output")
	t.Setenv("POSTMUSE_REMINDER_OUTPUT_FILE", "/tmp/mine")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/mine", cfg.Reminder.OutputFile)
}

func TestLoad_ConfigFileAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("GITHUB_OUTPUT", "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
timezone:
  name: UTC
  offset: "+00:00"
reminder:
  cron: "@every 15m"
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("POSTMUSE_ADMIN_EMAIL=root@example.com\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("POSTMUSE_ADMIN_EMAIL") })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "UTC", cfg.Timezone.Name)
	assert.Equal(t, "@every 15m", cfg.Reminder.Cron)
	assert.Equal(t, "root@example.com", cfg.Admin.Email)
}

func TestLoad_MalformedDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("POSTMUSE_JWT_SECRET=\"unterminated\n"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".env")
}

func TestReminderConfig_BadOrder(t *testing.T) {
	var cfg Config
	cfg.Reminder.Order = "sometimes"

	_, err := cfg.ReminderConfig()
	assert.Error(t, err)
}

func TestPlatformSet_EmptyFallsBack(t *testing.T) {
	cfg := Config{Platforms: []string{" ", ""}}
	assert.Equal(t, []string{"twitter", "linkedin", "instagram"}, cfg.PlatformSet().Tags())
}
