package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := loadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, applyEnv(cfg, envOf(nil)))

	assert.Equal(t, 120, cfg.DNS.TTL)
	assert.False(t, cfg.DNS.Proxied)
	assert.Equal(t, 587, cfg.Notify.Email.Port)
	assert.Equal(t, EmailAuthPlain, cfg.Notify.Email.Auth)
	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "prod", cfg.Log.Env)
	assert.Equal(t, "cloudflare_ddns", cfg.Metrics.Job)
	assert.False(t, cfg.DryRun)
}

func TestApplyEnv(t *testing.T) {
	cfg := defaults()
	err := applyEnv(cfg, envOf(map[string]string{
		"AUTH_EMAIL":      "ops@example.com",
		"AUTH_METHOD":     "global",
		"AUTH_KEY":        "secret",
		"ZONE_IDENTIFIER": "zone123",
		"RECORD_NAME":     "home.example.com",
		"TTL":             "300",
		"PROXY":           "True",
		"SITENAME":        "Home",
		"SLACKCHANNEL":    "#ops",
		"SLACKURI":        "https://hooks.slack.test/x",
		"DISCORDURI":      "https://discord.test/api/webhooks/x",
		"EMAIL_HOST":      "smtp.example.com",
		"EMAIL_PORT":      "2525",
		"EMAIL_AUTH":      "LOGIN",
		"EMAIL_FROM":      "ddns@example.com",
		"EMAIL_TO":        "ops@example.com",
		"DRY_RUN":         "TRUE",
		"HTTP_TIMEOUT":    "5s",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.DNS.GlobalKeyAuth())
	assert.Equal(t, "secret", cfg.DNS.AuthKey)
	assert.Equal(t, "zone123", cfg.DNS.ZoneID)
	assert.Equal(t, "home.example.com", cfg.DNS.RecordName)
	assert.Equal(t, 300, cfg.DNS.TTL)
	assert.True(t, cfg.DNS.Proxied)
	assert.Equal(t, "Home", cfg.SiteName)
	assert.Equal(t, "#ops", cfg.Notify.Slack.Channel)
	assert.Equal(t, 2525, cfg.Notify.Email.Port)
	assert.Equal(t, "LOGIN", cfg.Notify.Email.Auth)
	assert.True(t, cfg.Notify.Email.Enabled())
	assert.True(t, cfg.DryRun)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestProxyNonTrueIsFalse(t *testing.T) {
	for _, v := range []string{"false", "yes", "1", "on"} {
		cfg := defaults()
		cfg.DNS.Proxied = true
		require.NoError(t, applyEnv(cfg, envOf(map[string]string{"PROXY": v})))
		assert.False(t, cfg.DNS.Proxied, "PROXY=%q", v)
	}
}

func TestApplyEnvParseErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "ttl", env: map[string]string{"TTL": "two minutes"}},
		{name: "email port", env: map[string]string{"EMAIL_PORT": "smtp"}},
		{name: "timeout", env: map[string]string{"HTTP_TIMEOUT": "10"}},
		{name: "dry run", env: map[string]string{"DRY_RUN": "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, applyEnv(defaults(), envOf(tt.env)))
		})
	}
}

func TestLoadFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `siteName: Cabin
dns:
  authKey: file-key
  zoneId: file-zone
  recordName: cabin.example.com
  ttl: 60
notify:
  discord:
    url: https://discord.test/hook
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := loadFile(path)
	require.NoError(t, err)
	require.NoError(t, applyEnv(cfg, envOf(map[string]string{"RECORD_NAME": "env.example.com"})))

	assert.Equal(t, "Cabin", cfg.SiteName)
	assert.Equal(t, "file-key", cfg.DNS.AuthKey)
	assert.Equal(t, 60, cfg.DNS.TTL)
	assert.Equal(t, "env.example.com", cfg.DNS.RecordName)
	assert.Equal(t, "https://discord.test/hook", cfg.Notify.Discord.URL)
	assert.Equal(t, 587, cfg.Notify.Email.Port)
}

func TestLoadFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	cfg, err := loadFile(path)
	require.NoError(t, err)
	assert.Equal(t, defaults(), cfg)
}

func TestLoadFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dns: [unclosed"), 0o600))

	_, err := loadFile(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaults()
		cfg.DNS.AuthKey = "token"
		cfg.DNS.ZoneID = "zone"
		cfg.DNS.RecordName = "home.example.com"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "bearer without email", mutate: func(c *Config) {}},
		{name: "missing key", mutate: func(c *Config) { c.DNS.AuthKey = "" }, wantErr: true},
		{name: "missing zone", mutate: func(c *Config) { c.DNS.ZoneID = "" }, wantErr: true},
		{name: "missing record", mutate: func(c *Config) { c.DNS.RecordName = "" }, wantErr: true},
		{name: "global without email", mutate: func(c *Config) { c.DNS.AuthMethod = "global" }, wantErr: true},
		{name: "global with email", mutate: func(c *Config) {
			c.DNS.AuthMethod = "global"
			c.DNS.AuthEmail = "ops@example.com"
		}},
		{name: "zero ttl", mutate: func(c *Config) { c.DNS.TTL = 0 }, wantErr: true},
		{name: "email port out of range", mutate: func(c *Config) {
			c.Notify.Email = Email{Host: "smtp", From: "a@b", To: "c@d", Port: 70000}
		}, wantErr: true},
		{name: "partial email ignores port", mutate: func(c *Config) {
			c.Notify.Email = Email{Host: "smtp", Port: 0}
		}},
		{name: "email auth login", mutate: func(c *Config) {
			c.Notify.Email = Email{Host: "smtp", From: "a@b", To: "c@d", Port: 587, Auth: "LOGIN"}
		}},
		{name: "email auth unknown", mutate: func(c *Config) {
			c.Notify.Email = Email{Host: "smtp", From: "a@b", To: "c@d", Port: 587, Auth: "xoauth2"}
		}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEmailEnabled(t *testing.T) {
	assert.False(t, Email{Host: "smtp", From: "a@b"}.Enabled())
	assert.False(t, Email{From: "a@b", To: "c@d"}.Enabled())
	assert.True(t, Email{Host: "smtp", From: "a@b", To: "c@d"}.Enabled())
}
