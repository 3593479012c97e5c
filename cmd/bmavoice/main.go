package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ZyrusXD/BMA-Voice/internal/config"
	"github.com/ZyrusXD/BMA-Voice/internal/database"
	"github.com/ZyrusXD/BMA-Voice/internal/logging"
	"github.com/ZyrusXD/BMA-Voice/internal/server"
)

var (
	cfgFile string
	v       = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "bmavoice",
	Short: "BMA Voice civic engagement gamification service",
	Long: `bmavoice serves the BMA Voice gamification engine: district routing for
citizen reports, the points ledger with its daily cap, daily missions and
the weekly trend poll.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (default ./bmavoice.yaml if present)")
	pf.String("db", "", "SQLite database path")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text, json")
	_ = v.BindPFlag("database.path", pf.Lookup("db"))
	_ = v.BindPFlag("logging.level", pf.Lookup("log-level"))
	_ = v.BindPFlag("logging.format", pf.Lookup("log-format"))

	rootCmd.AddCommand(serveCmd, missionsCmd, pollsCmd, postsCmd, leaderboardCmd, districtsCmd)
}

func initConfig() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("bmavoice")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	}
	// Running on defaults and environment alone is fine.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "warning: read config:", err)
		}
	}
}

// app is the assembled service shared by every subcommand.
type app struct {
	cfg    *config.Config
	db     *sql.DB
	srv    *server.Server
	logger *slog.Logger
}

func openApp() (*app, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	srv, err := server.New(db, cfg, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &app{cfg: cfg, db: db, srv: srv, logger: logger}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
