package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Booking  BookingConfig  `yaml:"booking"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig は PostgreSQL 接続に関する設定です。
// StatementTimeout は全接続のステートメントタイムアウトで、予約経路の
// 再試行判定(SQLSTATE 57014)の前提になります。
type DatabaseConfig struct {
	Host                string        `yaml:"host"`
	Port                int           `yaml:"port"`
	User                string        `yaml:"user"`
	Password            string        `yaml:"password"`
	Name                string        `yaml:"name"`
	SSLMode             string        `yaml:"ssl_mode"`
	MaxOpenConns        int           `yaml:"max_open_conns"`
	MaxIdleConns        int           `yaml:"max_idle_conns"`
	ConnMaxLifetime     time.Duration `yaml:"-"`
	ConnMaxIdleTime     time.Duration `yaml:"-"`
	StatementTimeout    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw  string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw  string        `yaml:"conn_max_idle_time"`
	StatementTimeoutRaw string        `yaml:"statement_timeout"`
}

// BookingConfig は休暇予約トランザクションの再試行に関する設定です。
type BookingConfig struct {
	RetryMaxAttempts int           `yaml:"retry_max_attempts"`
	RetryBackoff     time.Duration `yaml:"-"`
	RetryBackoffRaw  string        `yaml:"retry_backoff"`
}

// LoggingConfig は構造化ログに関する設定です。
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

const (
	defaultRetryMaxAttempts = 3
	defaultRetryBackoff     = 25 * time.Millisecond
	defaultLogLevel         = "info"
	defaultServiceName      = "workforce-core"
)

// Load は指定されたパスから設定ファイルを読み込みます。
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validateAndNormalize() error {
	if err := c.Database.validateAndNormalize(); err != nil {
		return err
	}

	if err := c.Booking.validateAndNormalize(); err != nil {
		return err
	}

	c.Logging.normalize()

	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	statementTimeout, err := parseDurationAllowEmpty(d.StatementTimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: database.statement_timeout: %w", err)
	}
	if statementTimeout < 0 {
		return fmt.Errorf("config: database.statement_timeout must not be negative")
	}
	d.StatementTimeout = statementTimeout

	return nil
}

func (b *BookingConfig) validateAndNormalize() error {
	if b.RetryMaxAttempts < 0 {
		return fmt.Errorf("config: booking.retry_max_attempts must not be negative")
	}
	if b.RetryMaxAttempts == 0 {
		b.RetryMaxAttempts = defaultRetryMaxAttempts
	}

	backoff, err := parseDurationAllowEmpty(b.RetryBackoffRaw)
	if err != nil {
		return fmt.Errorf("config: booking.retry_backoff: %w", err)
	}
	if backoff < 0 {
		return fmt.Errorf("config: booking.retry_backoff must not be negative")
	}
	if backoff == 0 {
		backoff = defaultRetryBackoff
	}
	b.RetryBackoff = backoff

	return nil
}

func (l *LoggingConfig) normalize() {
	if l.Level == "" {
		l.Level = defaultLogLevel
	}
	if l.Service == "" {
		l.Service = defaultServiceName
	}
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// DSN は pgx 用の接続文字列を返します。認証情報は URL エスケープされます。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}
