package main

import (
	"fmt"
	"os"

	"github.com/danmuck/tunframe/internal/config"
	"github.com/danmuck/tunframe/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	mode       string
	readSize   int
}

func main() {
	logging.ConfigureRuntime()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "framectl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "framectl",
		Short:         "Encode, decode, split and merge tunnel frame streams",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "TOML config path")
	root.PersistentFlags().StringVar(&opts.mode, "mode", "", "framing mode: packet|chunk (overrides config)")
	root.PersistentFlags().IntVar(&opts.readSize, "read-size", 0, "bytes per read (overrides config)")

	root.AddCommand(newDecodeCmd(opts))
	root.AddCommand(newEncodeCmd(opts))
	root.AddCommand(newSplitCmd(opts))
	root.AddCommand(newMergeCmd(opts))
	root.AddCommand(newConfigCmd())
	return root
}

// resolve loads the config file, if any, and applies flag overrides.
func (o *rootOptions) resolve() (config.Config, error) {
	cfg := config.DefaultConfig()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if o.mode != "" {
		cfg.Mode = o.mode
	}
	if o.readSize != 0 {
		cfg.ReadSize = o.readSize
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	if lvl, ok := logging.ParseLevel(cfg.LogLevel); ok && os.Getenv(logging.EnvLogLevel) == "" {
		zerolog.SetGlobalLevel(lvl)
	}
	return cfg, nil
}
