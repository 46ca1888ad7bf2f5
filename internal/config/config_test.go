package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "reconciliation-service", cfg.App.Name)
	assert.Equal(t, "America/Sao_Paulo", cfg.App.Timezone)
	assert.Equal(t, "8084", cfg.HTTP.Port)
	assert.True(t, cfg.MySQL.AutoMigrate)
	assert.Equal(t, 5*time.Minute, cfg.MySQL.ConnMaxLifetime)
	assert.Equal(t, "", cfg.Redis.Addr)
	assert.Equal(t, 2*time.Minute, cfg.Redis.LockTTL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 30, cfg.Reconciliation.DashboardCutoffDays)
	assert.Equal(t, 10, cfg.Reconciliation.TopLimit)
	assert.Equal(t, "collected_at", cfg.Reconciliation.AgeAnchor)
	assert.Equal(t, 2, cfg.Import.HeaderRow)
	assert.Equal(t, 250, cfg.Import.SampleRows)
	assert.Equal(t, 50, cfg.Import.SkippedNumbersLimit)
	assert.Equal(t, "utf-8", cfg.Export.CSVCharset)

	assert.EqualError(t, cfg.Validate(), "mysql.dsn é obrigatório")
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
app:
  log_level: debug
http:
  port: "9000"
mysql:
  dsn: "user:pass@tcp(localhost:3306)/recon?parseTime=true"
  conn_max_lifetime: 1m
redis:
  addr: "localhost:6379"
auth:
  jwt_secret: "do-arquivo"
  token_ttl: 2h
reconciliation:
  report_cutoff_days: 90
`)
	t.Setenv("RECON_AUTH_JWT_SECRET", "do-ambiente")
	t.Setenv("RECON_IMPORT_SKIPPED_NUMBERS_LIMIT", "5")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "9000", cfg.HTTP.Port)
	assert.Equal(t, time.Minute, cfg.MySQL.ConnMaxLifetime)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "do-ambiente", cfg.Auth.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 90, cfg.Reconciliation.ReportCutoffDays)
	assert.Equal(t, 30, cfg.Reconciliation.DashboardCutoffDays)
	assert.Equal(t, 5, cfg.Import.SkippedNumbersLimit)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nao-existe.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		cfg.MySQL.DSN = "dsn"
		cfg.Auth.JWTSecret = "segredo"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = " " }, "auth.jwt_secret é obrigatório"},
		{"bad timezone", func(c *Config) { c.App.Timezone = "Terra/Media" }, "app.timezone inválido"},
		{"zero ttl", func(c *Config) { c.Auth.TokenTTL = 0 }, "auth.token_ttl deve ser positivo"},
		{"header row", func(c *Config) { c.Import.HeaderRow = 0 }, "import.header_row"},
		{"negative cutoff", func(c *Config) { c.Reconciliation.ReportCutoffDays = -1 }, "não podem ser negativos"},
		{"top limit", func(c *Config) { c.Reconciliation.TopLimit = 0 }, "reconciliation.top_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
