package logger

import (
	"io"
	"log/slog"
	"os"
)

var def *slog.Logger

// Init builds the process logger from cfg, installs it as the slog default and returns it.
func Init(cfg Config) *slog.Logger {
	return InitWriter(os.Stdout, cfg)
}

// InitWriter is Init with an explicit sink.
func InitWriter(w io.Writer, cfg Config) *slog.Logger {
	if cfg.Env == "" {
		cfg.Env = DetectEnv()
	}
	if cfg.Service == "" {
		cfg.Service = "room-signup"
	}
	cfg.InstanceID = ensureInstanceID(cfg.InstanceID)

	if cfg.Backend == "" {
		if cfg.Env == EnvDev {
			cfg.Backend = BackendStd
		} else {
			cfg.Backend = BackendZap
		}
	}

	var h slog.Handler
	switch cfg.Backend {
	case BackendZap:
		h = newZapHandler(w, cfg)
	default:
		h = newStdHandler(w, cfg)
	}

	base := slog.New(h.WithAttrs(commonAttr(cfg)))
	slog.SetDefault(base)
	def = base
	return base
}

func L() *slog.Logger {
	if def != nil {
		return def
	}
	return Init(Config{})
}
