package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every setting of a migration run. Required values have no
// defaults; Load fails fast when they are absent.
type Config struct {
	ExportFile string `validate:"required"`

	Paperless PaperlessConfig
	Ledger    LedgerConfig
	Poll      PollConfig
	Markers   MarkerConfig
	Log       LogConfig
}

// PaperlessConfig addresses the destination server.
type PaperlessConfig struct {
	URL   string `validate:"required,url"`
	Token string `validate:"required"`
}

// LedgerConfig locates the idempotency ledger file.
type LedgerConfig struct {
	Path string `validate:"required"`
}

// PollConfig bounds the consumption-task polling loop.
type PollConfig struct {
	Interval    time.Duration `validate:"min=1s"`
	MaxAttempts int           `validate:"min=1"`
}

// MarkerConfig names the fixed tags attached to every migrated document.
type MarkerConfig struct {
	SourceTag string `validate:"required"`
	TaxTag    string `validate:"required"`
}

type LogConfig struct {
	Level  string
	Format string
}

// envName maps validated struct fields back to the environment variable a
// user has to set, for actionable failure messages.
var envName = map[string]string{
	"Config.ExportFile":        "ECODMS_EXPORT_FILE",
	"Config.Paperless.URL":     "PAPERLESS_API_URL",
	"Config.Paperless.Token":   "PAPERLESS_API_TOKEN",
	"Config.Ledger.Path":       "LEDGER_FILE",
	"Config.Poll.Interval":     "POLL_INTERVAL",
	"Config.Poll.MaxAttempts":  "POLL_MAX_ATTEMPTS",
	"Config.Markers.SourceTag": "SOURCE_TAG",
	"Config.Markers.TaxTag":    "TAX_TAG",
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.ExportFile = v.GetString("ECODMS_EXPORT_FILE")

	cfg.Paperless = PaperlessConfig{
		URL:   strings.TrimRight(v.GetString("PAPERLESS_API_URL"), "/"),
		Token: v.GetString("PAPERLESS_API_TOKEN"),
	}

	cfg.Ledger = LedgerConfig{Path: v.GetString("LEDGER_FILE")}

	cfg.Poll = PollConfig{
		Interval:    parseDuration(v.GetString("POLL_INTERVAL"), 10*time.Second),
		MaxAttempts: v.GetInt("POLL_MAX_ATTEMPTS"),
	}

	cfg.Markers = MarkerConfig{
		SourceTag: v.GetString("SOURCE_TAG"),
		TaxTag:    v.GetString("TAX_TAG"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := envName[fe.StructNamespace()]
		if name == "" {
			name = fe.StructNamespace()
		}
		if fe.Tag() == "required" {
			missing = append(missing, fmt.Sprintf("%s is required", name))
		} else {
			missing = append(missing, fmt.Sprintf("%s is invalid (%s)", name, fe.Tag()))
		}
	}
	return fmt.Errorf("configuration: %s", strings.Join(missing, "; "))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ECODMS_EXPORT_FILE", "")
	v.SetDefault("PAPERLESS_API_URL", "")
	v.SetDefault("PAPERLESS_API_TOKEN", "")

	v.SetDefault("LEDGER_FILE", "migrated.json")
	v.SetDefault("POLL_INTERVAL", "10s")
	v.SetDefault("POLL_MAX_ATTEMPTS", 60)

	v.SetDefault("SOURCE_TAG", "EcoDMS")
	v.SetDefault("TAX_TAG", "Steuerrelevant")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}
