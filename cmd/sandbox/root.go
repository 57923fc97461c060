package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Carmen-Shannon/prism/engine/config"
	"github.com/Carmen-Shannon/prism/engine/logger"
)

// flags holds the command line overrides of the config file.
type flags struct {
	configPath string
	assetsDir  string
	scale      float32
	watch      bool
	profile    bool
	logLevel   string
}

func newRootCommand() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "sandbox",
		Short:         "Render a textured model through the main pass",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}
			logger.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: logger.ParseLevel(cfg.LogLevel),
			})))
			if err := run(cmd.Context(), cfg); err != nil {
				logger.Logger().Error("sandbox failed", "error", err)
				return err
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "prism.toml", "TOML config file; defaults apply when it does not exist")
	pf.StringVar(&f.assetsDir, "assets", "", "asset root directory")
	pf.Float32Var(&f.scale, "scale", 0, "offscreen render scale in (0, 1]")
	pf.BoolVar(&f.watch, "watch", false, "rebuild when asset files change")
	pf.BoolVar(&f.profile, "profile", false, "write a CPU profile and log frame statistics")
	pf.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})
	return root
}

// load reads the config file and applies the flags that were set explicitly.
func (f *flags) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return config.Config{}, err
	}
	fs := cmd.Flags()
	if fs.Changed("assets") {
		cfg.AssetsDir = f.assetsDir
	}
	if fs.Changed("scale") {
		cfg.Render.Scale = f.scale
	}
	if fs.Changed("watch") {
		cfg.Watch = f.watch
	}
	if fs.Changed("profile") {
		cfg.Profile = f.profile
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}
