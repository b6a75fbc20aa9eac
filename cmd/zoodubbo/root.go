package main

import (
	"context"
	"fmt"
	"os"

	"github.com/534591395/zoodubbo/config"
	"github.com/534591395/zoodubbo/logging"
	"github.com/534591395/zoodubbo/registry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	logLevel   string

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "zoodubbo",
	Short:         "Dubbo protocol client and demo provider",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = loadConfig(configPath, logLevel); err != nil {
			return err
		}
		logger, err = logging.New(cfg.Log)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML config file (defaults apply when omitted)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug|info|warn|error)")

	rootCmd.AddCommand(invokeCmd)
	rootCmd.AddCommand(provideCmd)
}

// loadConfig layers defaults, the config file, ZOODUBBO_LOG_LEVEL and finally --log-level.
func loadConfig(path, level string) (config.Config, error) {
	c := config.Default()
	if path != "" {
		var err error
		if c, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}
	c.Log.ApplyEnv()
	if level != "" {
		c.Log.Level = level
	}
	return c, nil
}

func newRegistry() (*registry.EtcdRegistry, error) {
	return registry.NewEtcdRegistry(registry.EtcdConfig{
		Endpoints:   cfg.Registry.Endpoints,
		Root:        cfg.Registry.Root,
		DialTimeout: cfg.Registry.DialTimeout,
		Logger:      logger.Named("registry"),
	})
}

func newCache(ctx context.Context) (*registry.Cache, error) {
	return registry.NewCache(ctx, cfg.Registry.CacheTTL)
}
