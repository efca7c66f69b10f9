// main.go bootstraps dockhand: it builds the root Cobra command, wires the
// viper environment bridge, and executes with a signal-aware context.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/example/dockhand/internal/engine"
	"github.com/example/dockhand/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rootCmd := newRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	handleError(err)
	os.Exit(exitCodeFor(err))
}

func newRootCommand() *cobra.Command {
	opts := newGlobalOptions()
	cmd := &cobra.Command{
		Use:           "dockhand",
		Short:         "Local-first service orchestration for Docker and Podman",
		Long:          "dockhand turns a declarative service description into running containers on whichever container engine is available, avoiding host port collisions and keeping repeated runs idempotent and explainable.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(opts.logLevel)
			if err != nil {
				return exitWith(exitUsage, "%s", err)
			}
			opts.logger = logger
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.engineID, "engine", "", "Container engine to prefer (docker, podman)")
	cmd.PersistentFlags().StringVar(&opts.profileRaw, "profile", "local", "Deployment profile (local, ci, staging, prod)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level for dockhand output (debug, info, warn, error)")
	cmd.PersistentFlags().StringSliceVar(&opts.engineOrder, "engine-order", nil, "Preference order for engine selection (comma-separated)")
	cmd.PersistentFlags().IntVar(&opts.guardLimit, "port-probe-limit", 0, "Max candidate ports probed per mapping during auto-avoidance")

	exportCmd := newExportCommand(opts)
	doctorCmd := newDoctorCommand(opts)
	upCmd := newUpCommand(opts)
	downCmd := newDownCommand(opts)
	statusCmd := newStatusCommand(opts)
	logsCmd := newLogsCommand(opts)
	inspectCmd := newInspectCommand(opts)
	cmd.AddCommand(exportCmd, doctorCmd, upCmd, downCmd, statusCmd, logsCmd, inspectCmd, newVersionCommand())

	cmd.Example = `  # Render the compose artifact without touching an engine
  dockhand export

  # Start everything locally, dodging occupied host ports
  dockhand up --timeout 90s

  # Explain what dockhand sees in this project
  dockhand inspect`

	bindViper(cmd, exportCmd, doctorCmd, upCmd, downCmd, statusCmd, logsCmd, inspectCmd)
	return cmd
}

// bindViper backfills unset flags from DOCKHAND_* environment variables and
// an optional config file, mirroring flag names with dashes replaced.
func bindViper(commands ...*cobra.Command) {
	if len(commands) == 0 {
		return
	}
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix("DOCKHAND")
	v.AutomaticEnv()
	configFile := os.Getenv("DOCKHAND_CONFIG")
	configureConfigFile(v, configFile)

	cobra.OnInitialize(func() {
		for _, cmd := range commands {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				cobra.CheckErr(err)
			}
			if err := v.BindPFlags(cmd.PersistentFlags()); err != nil {
				cobra.CheckErr(err)
			}
		}
		if err := readConfigFile(v, configFile != ""); err != nil {
			cobra.CheckErr(err)
		}
		for _, cmd := range commands {
			flagSets := []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags()}
			for _, fs := range flagSets {
				fs.VisitAll(func(f *pflag.Flag) {
					if f.Changed {
						return
					}
					if !v.IsSet(f.Name) {
						return
					}
					val := fmt.Sprintf("%v", v.Get(f.Name))
					if val != "" {
						_ = f.Value.Set(val)
					}
				})
			}
		}
	})
}

func configureConfigFile(v *viper.Viper, explicitPath string) {
	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
		return
	}
	v.SetConfigName("config")
	for _, dir := range configSearchDirs() {
		v.AddConfigPath(dir)
	}
}

func readConfigFile(v *viper.Viper, strict bool) error {
	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if errors.As(err, &cfgErr) && !strict {
			return nil
		}
		return err
	}
	return nil
}

func configSearchDirs() []string {
	added := make(map[string]struct{})
	var dirs []string
	add := func(path string) {
		if path == "" {
			return
		}
		if _, ok := added[path]; ok {
			return
		}
		added[path] = struct{}{}
		dirs = append(dirs, path)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		add(filepath.Join(xdg, "dockhand"))
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		add(filepath.Join(home, ".config", "dockhand"))
		add(filepath.Join(home, ".dockhand"))
	}
	return dirs
}

func handleError(err error) {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return
	}
	message := err.Error()
	switch {
	case errors.Is(err, engine.ErrReadinessTimeout):
		message = fmt.Sprintf("%s\nHint: raise --timeout or check service health with 'dockhand status'.", err)
	case exitCodeFor(err) == exitEngineUnavailable:
		message = fmt.Sprintf("%s\nHint: run 'dockhand doctor' to diagnose engine availability.", err)
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", message)
}
