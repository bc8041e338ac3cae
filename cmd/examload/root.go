package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dfarias/examload/internal/config"
)

var cfg config.Config
var configFile string

var rootCmd = &cobra.Command{
	Use:   "examload",
	Short: "Medical exam volume xlsx → Postgres billing loader",
	Long:  "Stages monthly exam volume spreadsheets, applies the ordered normalization rules, and commits billing fact rows to Postgres with per-batch rollback.",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("DATABASE_URL"), "Postgres connection string (or set DATABASE_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&configFile, "config", "", "Optional YAML config file (chunk_size, validation_threshold)")
}

func loadConfigFile() error {
	if configFile == "" {
		return nil
	}
	return cfg.LoadFromFile(configFile)
}
