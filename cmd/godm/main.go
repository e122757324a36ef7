// Command godm runs queries and commands against a database configured the
// same way applications configure it.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/vinicius-lino-figueiredo/godm"
	"github.com/vinicius-lino-figueiredo/godm/adapter/connection"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Stdout, os.Stderr, os.Args[1:])
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// globalFlags are shared by every command.
type globalFlags struct {
	config   string
	driver   string
	server   string
	database string
	datafile string
	debug    bool
}

func run(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	var flags globalFlags
	rootCmd := &cobra.Command{
		Use:   "godm",
		Short: "Query and manage a document database",
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cmd.SilenceUsage = true
		},
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "", "YAML config file")
	pf.StringVar(&flags.driver, "driver", "", `driver: "mongo" or "memory"`)
	pf.StringVar(&flags.server, "server", "", "server URI")
	pf.StringVarP(&flags.database, "database", "d", "", "database name")
	pf.StringVar(&flags.datafile, "datafile", "", "datafile of the memory driver")
	pf.BoolVar(&flags.debug, "debug", false, "log debug messages to stderr")

	env := &environment{flags: &flags, stdout: stdout, stderr: stderr}
	registerPingCmd(ctx, env, rootCmd)
	registerCountCmd(ctx, env, rootCmd)
	registerFindCmd(ctx, env, rootCmd)
	registerInsertCmd(ctx, env, rootCmd)
	registerRemoveCmd(ctx, env, rootCmd)
	registerCommandCmd(ctx, env, rootCmd)

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.Execute()
}

// environment is the state commands run with.
type environment struct {
	flags  *globalFlags
	stdout io.Writer
	stderr io.Writer
}

func (e *environment) logger() (*zap.Logger, error) {
	if !e.flags.debug {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// config reads the config file, if any, and applies the flags over it.
func (e *environment) config() (godm.Config, error) {
	raw := map[string]any{}
	if e.flags.config != "" {
		cfg, err := godm.LoadConfig(e.flags.config)
		if err != nil {
			return godm.Config{}, err
		}
		raw = map[string]any{
			"driver":             cfg.Driver,
			"server":             cfg.Server,
			"database":           cfg.Database,
			"w":                  cfg.W,
			"j":                  cfg.J,
			"readPreference":     cfg.ReadPreference,
			"readPreferenceTags": cfg.ReadPreferenceTags,
			"datafile":           cfg.Datafile,
			"options":            cfg.Options,
		}
	}
	for k, v := range map[string]string{
		"driver":   e.flags.driver,
		"server":   e.flags.server,
		"database": e.flags.database,
		"datafile": e.flags.datafile,
	} {
		if v != "" {
			raw[k] = v
		}
	}
	return connection.ConfigFromMap(raw)
}

// open connects with the resolved config. The caller closes the returned
// database.
func (e *environment) open(ctx context.Context) (*godm.DB, error) {
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	logger, err := e.logger()
	if err != nil {
		return nil, err
	}
	return godm.Open(ctx, cfg, godm.WithLogger(logger))
}
