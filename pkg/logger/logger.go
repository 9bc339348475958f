package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pweiler/ecodms2paperless/pkg/config"
)

// New builds the process logger from config. Console encoding is the default
// because the tool is run interactively; json is available for captured runs.
func New(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()

	switch cfg.Log.Format {
	case "json":
		zapCfg = zap.NewProductionConfig()
		zapCfg.Encoding = "json"
	default:
		zapCfg.Encoding = "console"
	}

	if cfg.Log.Level != "" {
		if err := zapCfg.Level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
	}

	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapCfg.Build()
}
