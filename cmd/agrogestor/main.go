package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/erazemk/agrogestor/internal/config"
	"github.com/erazemk/agrogestor/internal/logging"
)

var flags struct {
	config   string
	db       string
	addr     string
	log      string
	logLevel string
}

var rootCmd = &cobra.Command{
	Use:   "agrogestor",
	Short: "Farm management server for inventory, herd and work orders",
	Long: `AgroGestor keeps the whole farm state in one document: inventory items
and their movements, animals and their weighings, and work orders.

Running without a subcommand is the same as "agrogestor serve". On first
run the database is created together with an admin account whose password
is printed once.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "agrogestor.toml", "TOML configuration file (optional)")
	pf.StringVarP(&flags.db, "db", "d", "", "SQLite database path (overrides config)")
	pf.StringVarP(&flags.addr, "addr", "a", "", "listen address (overrides config)")
	pf.StringVarP(&flags.log, "log", "l", "", "log file path (overrides config)")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(flags.config, config.Default())
	if err != nil {
		return config.Config{}, err
	}

	f := cmd.Flags()
	if f.Changed("db") {
		cfg.Database.Path = flags.db
	}
	if f.Changed("addr") {
		cfg.Server.Addr = flags.addr
	}
	if f.Changed("log") {
		cfg.Log.Path = flags.log
	}
	if f.Changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// setup loads the configuration and installs the default logger.
func setup(cmd *cobra.Command) (config.Config, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return config.Config{}, nil, err
	}
	closeLog, err := logging.Setup(cfg.Log.Level, cfg.Log.Path)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, closeLog, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
