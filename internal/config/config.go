package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/phrase-matcher/internal/matcher"
	"github.com/sells-group/phrase-matcher/internal/model"
	"github.com/sells-group/phrase-matcher/internal/report"
	"github.com/sells-group/phrase-matcher/internal/similarity"
)

// ErrInvalid is returned when a configuration value is out of range.
var ErrInvalid = eris.New("config: invalid")

// Ranges accepted for the match settings.
const (
	MinLenLow        = 2
	MinLenHigh       = 4
	MaxLenHigh       = 6
	ThresholdLowPct  = 50
	ThresholdHighPct = 100
)

// Config holds the full application configuration.
type Config struct {
	Match  MatchConfig  `yaml:"match" mapstructure:"match"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// MatchConfig configures phrase extraction and fuzzy matching.
type MatchConfig struct {
	MinLen           int    `yaml:"min_len" mapstructure:"min_len"`
	MaxLen           int    `yaml:"max_len" mapstructure:"max_len"`
	ThresholdPercent int    `yaml:"threshold_percent" mapstructure:"threshold_percent"`
	CompareMode      string `yaml:"compare_mode" mapstructure:"compare_mode"`
	Workers          int    `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig configures where the CLI writes its results.
type OutputConfig struct {
	File   string `yaml:"file" mapstructure:"file"`
	Format string `yaml:"format" mapstructure:"format"`
}

// FetchConfig configures downloads of workbooks given as http(s) URLs.
type FetchConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	MaxMB       int    `yaml:"max_mb" mapstructure:"max_mb"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	MaxUploadMB    int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	RateLimit      float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PHRASEMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("match.min_len", 3)
	v.SetDefault("match.max_len", 4)
	v.SetDefault("match.threshold_percent", 85)
	v.SetDefault("match.compare_mode", string(model.CompareCrossOnly))
	v.SetDefault("match.workers", 1)
	v.SetDefault("output.file", "highlighted_matches.xlsx")
	v.SetDefault("output.format", string(report.FormatTable))
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.max_mb", 50)
	v.SetDefault("fetch.user_agent", "phrase-matcher/1.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_mb", 20)
	v.SetDefault("server.rate_limit", 2.0)
	v.SetDefault("server.rate_burst", 4)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks every setting against its accepted range.
func (c *Config) Validate() error {
	if err := c.Match.Validate(); err != nil {
		return err
	}
	if _, err := report.ParseFormat(c.Output.Format); err != nil {
		return eris.Wrapf(ErrInvalid, "output.format %q", c.Output.Format)
	}
	if c.Fetch.TimeoutSecs < 1 || c.Fetch.MaxRetries < 1 || c.Fetch.MaxMB < 1 {
		return eris.Wrapf(ErrInvalid, "fetch timeout %ds retries %d max %dMB must be positive",
			c.Fetch.TimeoutSecs, c.Fetch.MaxRetries, c.Fetch.MaxMB)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return eris.Wrapf(ErrInvalid, "server.port %d out of range", c.Server.Port)
	}
	if c.Server.MaxUploadMB < 1 {
		return eris.Wrapf(ErrInvalid, "server.max_upload_mb %d must be positive", c.Server.MaxUploadMB)
	}
	if c.Server.RateLimit <= 0 || c.Server.RateBurst < 1 {
		return eris.Wrapf(ErrInvalid, "server rate limit %.2f/s burst %d must be positive",
			c.Server.RateLimit, c.Server.RateBurst)
	}
	return nil
}

// Validate checks the match settings against the ranges exposed to users:
// min_len 2..4, max_len min_len..6, threshold 50..100 percent.
func (m MatchConfig) Validate() error {
	if m.MinLen < MinLenLow || m.MinLen > MinLenHigh {
		return eris.Wrapf(ErrInvalid, "match.min_len %d must be in [%d, %d]", m.MinLen, MinLenLow, MinLenHigh)
	}
	if m.MaxLen < m.MinLen || m.MaxLen > MaxLenHigh {
		return eris.Wrapf(ErrInvalid, "match.max_len %d must be in [%d, %d]", m.MaxLen, m.MinLen, MaxLenHigh)
	}
	if m.ThresholdPercent < ThresholdLowPct || m.ThresholdPercent > ThresholdHighPct {
		return eris.Wrapf(ErrInvalid, "match.threshold_percent %d must be in [%d, %d]",
			m.ThresholdPercent, ThresholdLowPct, ThresholdHighPct)
	}
	if !model.CompareMode(m.CompareMode).Valid() {
		return eris.Wrapf(ErrInvalid, "match.compare_mode %q", m.CompareMode)
	}
	if m.Workers < 0 {
		return eris.Wrapf(ErrInvalid, "match.workers %d must not be negative", m.Workers)
	}
	return nil
}

// Params validates the settings and converts them to matcher params. The
// threshold percentage becomes a ratio.
func (m MatchConfig) Params() (matcher.Params, error) {
	if err := m.Validate(); err != nil {
		return matcher.Params{}, err
	}
	return matcher.Params{
		MinLen:    m.MinLen,
		MaxLen:    m.MaxLen,
		Threshold: similarity.ThresholdFromPercent(m.ThresholdPercent),
		Mode:      model.CompareMode(m.CompareMode),
		Workers:   m.Workers,
	}, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
