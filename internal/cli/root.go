package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"bpi-tracker/internal/app"
	"bpi-tracker/internal/config"
	"bpi-tracker/internal/logging"
)

var (
	cfgFile   string
	logLevel  string
	appHandle *app.App
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:           "bpitracker",
	Short:         "Sample the Bitcoin Price Index for an hour and report the maximum",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if appHandle != nil || cmd == versionCmd {
			return nil
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		// 只有采集会话才重新开始日志文件
		if cmd != runCmd {
			cfg.Logging.File.FreshPerRun = false
		}

		logger, closer := logging.NewLogger(cfg.Logging)
		logCloser = closer
		appHandle = app.NewApp(cfg, logger)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser == nil {
			return nil
		}
		return logCloser.Close()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level defined in config")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(versionCmd)
}

func getApp() *app.App {
	if appHandle == nil {
		panic("application not initialized; PersistentPreRunE not executed")
	}
	return appHandle
}
