package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Gabri/internxt-sync/internal/config"
	"github.com/Gabri/internxt-sync/internal/remote"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:     "internxt-sync",
	Short:   "Reconcile a local directory tree with an Internxt drive folder",
	Version: fmt.Sprintf("%s (commit: %s, built at: %s)", version, commit, date),
	Long: `internxt-sync compares a local directory with a remote Internxt folder
and applies the minimal set of directory creations, uploads, and deletions
that makes the remote converge on the local tree.

The remote is reached either through the internxt CLI (subprocess) or
through the local WebDAV endpoint the CLI serves.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()
		return loadConfig(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default $HOME/.config/internxt-sync/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().String("transport", config.TransportWebDAV, "remote transport: webdav or cli")
	rootCmd.PersistentFlags().String("webdav-url", remote.DefaultWebDAVURL, "WebDAV endpoint URL")
	rootCmd.PersistentFlags().String("cli-bin", remote.DefaultCLIBin, "internxt CLI binary")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(getCmd)
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})
	slog.SetDefault(slog.New(handler))
}

func loadConfig(cmd *cobra.Command) error {
	v := viper.New()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home + "/.config/internxt-sync")
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("INTERNXT_SYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	bind := func(key, flag string) {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			v.Set(key, f.Value.String())
		}
	}
	bind("transport", "transport")
	bind("webdav_url", "webdav-url")
	bind("cli_bin", "cli-bin")

	loaded, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg = loaded
	return nil
}

// cfg is the materialized configuration for the current invocation.
var cfg *config.Config

// newStore is the single place that selects the transport. No other code
// branches on the transport mode.
func newStore() *remote.Store {
	var transport remote.Transport
	switch cfg.Transport {
	case config.TransportCLI:
		transport = remote.NewCLITransport(cfg.CLIBin)
	default:
		transport = remote.NewWebDAVTransport(cfg.WebDAVURL)
	}
	return remote.NewStore(transport)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
