package sl

import (
	"log/slog"
	"os"
)

// SetupLogger создаёт текстовый логгер в stdout: уровень debug для local и dev, info для остальных окружений.
func SetupLogger(env string) *slog.Logger {
	level := slog.LevelInfo
	if env == "local" || env == "dev" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
