// Package config carrega a configuração do serviço a partir de YAML e de
// variáveis de ambiente com prefixo RECON_ (ex.: RECON_MYSQL_DSN).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "RECON"

// Config is the whole service configuration.
type Config struct {
	App            AppConfig            `mapstructure:"app"`
	HTTP           HTTPConfig           `mapstructure:"http"`
	MySQL          MySQLConfig          `mapstructure:"mysql"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Auth           AuthConfig           `mapstructure:"auth"`
	Reconciliation ReconciliationConfig `mapstructure:"reconciliation"`
	Import         ImportConfig         `mapstructure:"import"`
	Export         ExportConfig         `mapstructure:"export"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	Timezone string `mapstructure:"timezone"`
}

type HTTPConfig struct {
	Port string `mapstructure:"port"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig fica desabilitado quando Addr está vazio.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Channel  string        `mapstructure:"channel"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type ReconciliationConfig struct {
	DashboardCutoffDays int    `mapstructure:"dashboard_cutoff_days"`
	ReportCutoffDays    int    `mapstructure:"report_cutoff_days"`
	TopLimit            int    `mapstructure:"top_limit"`
	AgeAnchor           string `mapstructure:"age_anchor"`
}

type ImportConfig struct {
	HeaderRow           int `mapstructure:"header_row"`
	SampleRows          int `mapstructure:"sample_rows"`
	SkippedNumbersLimit int `mapstructure:"skipped_numbers_limit"`
}

type ExportConfig struct {
	CSVCharset string `mapstructure:"csv_charset"`
}

var defaults = map[string]any{
	"app.name":      "reconciliation-service",
	"app.log_level": "info",
	"app.timezone":  "America/Sao_Paulo",

	"http.port": "8084",

	"mysql.dsn":               "",
	"mysql.auto_migrate":      true,
	"mysql.max_open_conns":    25,
	"mysql.max_idle_conns":    5,
	"mysql.conn_max_lifetime": 5 * time.Minute,

	"redis.addr":     "",
	"redis.password": "",
	"redis.db":       0,
	"redis.channel":  "reconciliation.events",
	"redis.lock_ttl": 2 * time.Minute,

	"auth.jwt_secret": "",
	"auth.token_ttl":  24 * time.Hour,

	"reconciliation.dashboard_cutoff_days": 30,
	"reconciliation.report_cutoff_days":    30,
	"reconciliation.top_limit":             10,
	"reconciliation.age_anchor":            "collected_at",

	"import.header_row":            2,
	"import.sample_rows":           250,
	"import.skipped_numbers_limit": 50,

	"export.csv_charset": "utf-8",
}

// Load lê o arquivo em configPath (opcional) e aplica as variáveis de ambiente.
// Sem arquivo, valem os defaults e o ambiente.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("falha ao ler a configuração: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("falha ao interpretar a configuração: %w", err)
	}
	return &cfg, nil
}

// Validate confere os campos obrigatórios.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.MySQL.DSN) == "" {
		return errors.New("mysql.dsn é obrigatório")
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth.jwt_secret é obrigatório")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl deve ser positivo")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Import.HeaderRow < 1 {
		return errors.New("import.header_row deve ser maior que zero")
	}
	if c.Reconciliation.DashboardCutoffDays < 0 || c.Reconciliation.ReportCutoffDays < 0 {
		return errors.New("os cortes de dias não podem ser negativos")
	}
	if c.Reconciliation.TopLimit < 1 {
		return errors.New("reconciliation.top_limit deve ser maior que zero")
	}
	return nil
}

// Location carrega o fuso de negócio (app.timezone).
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("app.timezone inválido %q: %w", c.App.Timezone, err)
	}
	return loc, nil
}
