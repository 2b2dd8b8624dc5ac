package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

var logger *slog.Logger

// relay.url -> PHOTOCORE_RELAY_URL, output-dir -> PHOTOCORE_OUTPUT_DIR
var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

func initLogging() {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}
