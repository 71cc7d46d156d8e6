package main

import (
	"fmt"
	"io"
	"net"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/example/outreach-tracker/internal/config"
	"github.com/example/outreach-tracker/internal/seed"
)

// newRootCommand builds the CLI. Running it without a subcommand serves the API.
func newRootCommand(v *viper.Viper) *cobra.Command {
	var opts runtimeOptions

	root := &cobra.Command{
		Use:           "outreach",
		Short:         "Outreach tracker API",
		Long:          "Tracks companies, contacts and email attempts and serves them over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.ConfigFile, "config", "", "YAML config file (default ./config.yaml when present)")
	flags.StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flags.Int("port", 8080, "HTTP listen port")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("snapshot-path", "", "SQLite file used to persist the store between runs")
	flags.Duration("snapshot-interval", 0, "how often to persist the store while serving (0 saves only on shutdown)")
	flags.String("redis-addr", "", "Redis address for the shared analytics cache")
	flags.String("seed-file", "", "YAML seed applied on start when the store is empty")
	flags.Int("max-attempts", 3, "maximum email attempts per person")

	for key, flag := range map[string]string{
		config.KeyHTTPPort:         "port",
		config.KeyLogLevel:         "log-level",
		config.KeySnapshotPath:     "snapshot-path",
		config.KeySnapshotInterval: "snapshot-interval",
		config.KeyRedisAddr:        "redis-addr",
		config.KeySeedFile:         "seed-file",
		config.KeyMaxAttempts:      "max-attempts",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.LogOutput = cmd.ErrOrStderr()
			rt, err := newRuntime(cmd.Context(), v, opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			listener, err := net.Listen("tcp", fmt.Sprintf(":%d", rt.cfg.HTTPPort))
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			return rt.serve(cmd.Context(), listener)
		},
	}
	root.RunE = serve.RunE

	root.AddCommand(serve, newSeedCommand(v, &opts), newSnapshotCommand(v, &opts))
	return root
}

func newSeedCommand(v *viper.Viper, opts *runtimeOptions) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a YAML seed file into an empty snapshot store",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.LogOutput = cmd.ErrOrStderr()
			rt, err := newRuntime(cmd.Context(), v, *opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			if rt.snapshots == nil {
				return fmt.Errorf("seed requires --snapshot-path or %s", config.EnvName(config.KeySnapshotPath))
			}
			if !rt.empty(cmd.Context()) {
				return fmt.Errorf("snapshot store %s already contains data; seed only loads into an empty store", rt.cfg.SnapshotPath)
			}
			result, err := rt.applySeed(cmd.Context(), path)
			if err != nil {
				return err
			}
			if err := rt.saveSnapshot(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d companies, %d people, %d email attempts\n",
				result.Companies, result.People, result.EmailAttempts)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "seed file to load")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newSnapshotCommand(v *viper.Viper, opts *runtimeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect the snapshot store",
	}

	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write the stored data as a seed file",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.LogOutput = cmd.ErrOrStderr()
			rt, err := newRuntime(cmd.Context(), v, *opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			if rt.snapshots == nil {
				return fmt.Errorf("snapshot export requires --snapshot-path or %s", config.EnvName(config.KeySnapshotPath))
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return seed.Write(w, seed.FromSnapshot(rt.store.ExportSnapshot(cmd.Context())))
		},
	}
	export.Flags().StringVar(&out, "out", "-", "output path, or - for stdout")

	cmd.AddCommand(export)
	return cmd
}
