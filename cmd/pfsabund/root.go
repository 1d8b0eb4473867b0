package main

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	_ "modernc.org/sqlite"

	"github.com/cwbudde/algo-abund/grid"
	"github.com/cwbudde/algo-abund/internal/logging"
	"github.com/cwbudde/algo-abund/stellar"
)

const envPrefix = "PFSABUND"

// app holds the state shared by the subcommands.
type app struct {
	v      *viper.Viper
	logger logr.Logger
	sync   func()
}

func newRootCmd() *cobra.Command { return newApp().rootCmd() }

func newApp() *app {
	return &app{v: viper.New(), logger: logr.Discard(), sync: func() {}}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pfsabund",
		Short:         "Stellar parameters from PFS spectra",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) { a.sync() },
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default ./pfsabund.yaml)")
	pf.String("mode", string(stellar.ModeMedium), "spectral mode: lr or mr")
	pf.String("root", "./", "directory holding the mask definitions")
	pf.String("log-level", "info", "log level: error, info, debug or trace")
	pf.Bool("log-json", false, "log JSON lines instead of console text")
	a.bind(pf, map[string]string{
		"config":    "config",
		"mode":      "mode",
		"root":      "root",
		"log.level": "log-level",
		"log.json":  "log-json",
	})

	root.AddCommand(newFitCmd(a), newGridCmd(a), newMasksCmd(a))
	return root
}

// bind registers flags under their configuration keys.
func (a *app) bind(fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := a.v.BindPFlag(key, fs.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind %s: %v", key, err))
		}
	}
}

func (a *app) init(cmd *cobra.Command) error {
	v := a.v
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("pfsabund")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("config: %w", err)
		}
	}

	logger, sync, err := logging.New(v.GetString("log.level"), v.GetBool("log.json"))
	if err != nil {
		return err
	}
	a.logger = logger.WithName(cmd.Name())
	a.sync = sync
	if used := v.ConfigFileUsed(); used != "" {
		a.logger.V(logging.DEBUG).Info("config loaded", "file", used)
	}
	return nil
}

func (a *app) mode() (stellar.Mode, error) {
	return stellar.ParseMode(a.v.GetString("mode"))
}

// openGrid opens the SQLite grid database at path.
func openGrid(path string) (*grid.Store, func() error, error) {
	if path == "" {
		return nil, nil, errors.New("no grid database given (--db)")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("open grid: %w", err)
	}
	store, err := grid.NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store, db.Close, nil
}
