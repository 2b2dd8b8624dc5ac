package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "photocore",
	Short: "Pixel-processing core of a photo editor",
	Long: `photocore removes backgrounds, corrects colors, sharpens and upscales
photos, applies filter presets and renders text and sticker overlays.

Every operation is available as a command and over HTTP (photocore serve).`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().String("output-dir", "./out", "Output directory for batch results")
	rootCmd.PersistentFlags().String("relay-url", "", "Background removal relay base URL (empty: local heuristic only)")
	rootCmd.PersistentFlags().Duration("relay-timeout", 0, "Timeout per relay request (default 60s)")
	rootCmd.PersistentFlags().String("stats-db", "", "SQLite database for usage counters (empty: in-memory)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose logging")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("output-dir", "output-dir")
	mustBind("relay.url", "relay-url")
	mustBind("relay.timeout", "relay-timeout")
	mustBind("stats.db", "stats-db")
	mustBind("verbose", "verbose")
}

func initConfig() {
	// .env only fills variables that are not already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Failed to load .env:", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("PHOTOCORE")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
