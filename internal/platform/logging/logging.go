package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ogurasousui/workforce-core/internal/platform/config"
)

// New は設定に従った zerolog.Logger を生成します。
// レベルが解釈できない場合は info にフォールバックします。
func New(cfg config.LoggingConfig) zerolog.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter は出力先を指定して zerolog.Logger を生成します。
func NewWithWriter(cfg config.LoggingConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(w).Level(level).With().Timestamp()
	if cfg.Service != "" {
		logger = logger.Str("service", cfg.Service)
	}

	return logger.Logger()
}
