package caltrack

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/saadjs/caltrack/internal/config"
	"github.com/saadjs/caltrack/internal/logger"
)

var (
	dbPath   string
	jsonOut  bool
	logLevel string
	envFile  string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "caltrack",
	Short: "caltrack computes nutrition targets and tracks what you eat",
	Long: "caltrack is a local-first nutrition tracker. It derives daily calorie and macro targets " +
		"from your profile, logs meals by hand, barcode, search, photo or recipe, and reports trends.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := logLevel
		if level == "" {
			level = os.Getenv("CALTRACK_LOG_LEVEL")
		}
		if err := logger.Init(level); err != nil {
			return err
		}
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		loaded, err := config.Load(logger.L(), files...)
		if err != nil {
			return err
		}
		cfg = loaded
		logger.L().Debug("config loaded", zap.String("db", cfg.DBPath), zap.Bool("edamam", cfg.EdamamConfigured()))
		return nil
	},
}

func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database (default $CALTRACK_DB or the user config dir)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Print machine-readable JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error or dev")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment from this file instead of .env")
}
