package main

import (
	"fmt"

	"github.com/chazu/klass/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app holds the state shared by every subcommand of one invocation.
type app struct {
	configFile string
	v          *viper.Viper
	logger     *zap.Logger
	store      *store.Store
	root       *cobra.Command
}

func newApp() *app {
	a := &app{v: viper.New(), logger: zap.NewNop()}
	a.root = a.newRootCmd()
	return a
}

// execute runs the command line and releases the store and logger whether
// or not the command succeeded.
func (a *app) execute() error {
	defer a.close()
	return a.root.Execute()
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "klass",
		Short: "Inspect type hierarchies and answer subtype queries",
		Long: `klass builds a type registry from a hierarchy.toml manifest, a SQLite
definition store or a CBOR snapshot, then answers subtype queries against it.

Types in the manifest are resolved by an application loader whose parent is
a bootstrap loader over the store, so stored definitions take precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(cmd); err != nil {
				return err
			}
			return a.initLogger()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: ./klass.yaml)")
	flags.String("manifest", "", "hierarchy.toml to load (default: search upward from the working directory)")
	flags.String("snapshot", "", "restore the registry from a CBOR snapshot instead of loading types")
	flags.String("db", "", "SQLite definition store used by the bootstrap loader")
	flags.Int("primary-limit", 0, "primary supers capacity (default: manifest value or 8)")
	flags.BoolP("verbose", "v", false, "debug logging")

	root.AddCommand(
		newCheckCmd(a),
		newShowCmd(a),
		newListCmd(a),
		newSnapshotCmd(a),
		newImportCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) initLogger() error {
	config := zap.NewProductionConfig()
	if a.v.GetBool(cfgVerbose) {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	return nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("closing store", zap.Error(err))
		}
		a.store = nil
	}
	_ = a.logger.Sync()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the klass version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "klass", version)
		},
	}
}
