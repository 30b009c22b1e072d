// Package commands implements the slitcut command line.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/piwi3910/SlitCut/internal/model"
	"github.com/piwi3910/SlitCut/internal/project"
	"github.com/piwi3910/SlitCut/internal/telemetry"
)

// Version is set at build time with -ldflags "-X .../commands.Version=...".
var Version = "dev"

var (
	cfgFile   string
	verbose   bool
	appConfig model.AppConfig
	logger    = slog.Default()
	shutdown  telemetry.ShutdownFunc
)

var rootCmd = &cobra.Command{
	Use:   "slitcut",
	Short: "Coil slitting optimizer",
	Long: `SlitCut chooses raw coil widths and slitting patterns that meet strip
length demand at minimum material cost.`,
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdown == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return shutdown(ctx)
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		stop()
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ~/.slitcut/config.yaml)")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("otlp-url", "", "OTLP/HTTP endpoint for traces")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(solveCmd, compareCmd, serveCmd, backupCmd)
}

// setup loads the config, installs the logger and starts tracing.
func setup(cmd *cobra.Command, args []string) error {
	v := project.NewViper()
	path := cfgFile
	if path == "" {
		path = project.DefaultConfigPath()
	}
	if err := project.ReadConfigFile(v, path); err != nil {
		return err
	}
	if err := bindFlags(v, cmd); err != nil {
		return err
	}
	cfg, err := project.DecodeAppConfig(v)
	if err != nil {
		return err
	}
	appConfig = cfg

	logger = newLogger(cmd.ErrOrStderr(), appConfig.LogFormat, verbose)
	slog.SetDefault(logger)

	shutdown, err = telemetry.Init(cmd.Context(), Version, appConfig.OTLPURL)
	return err
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for key, flag := range map[string]string{
		"log_format": "log-format",
		"otlp_url":   "otlp-url",
	} {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", flag, err)
		}
	}
	return nil
}

func newLogger(w io.Writer, format string, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
