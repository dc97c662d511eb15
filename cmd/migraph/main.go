package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/denismitr/migraph/internal/cli"
	"github.com/logrusorgru/aurora/v3"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, aurora.Red("migraph: "), err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		flags   cli.Config
	)

	defaults := cli.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "migraph",
		Short: "Render schema migration dependencies as a mermaid diagram",
		Long: `migraph scans a project for migration files (one migrations folder per app),
reads the dependencies each migration declares and writes the whole set
as a mermaid flowchart with one subgraph per app.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, cfgFile, flags)
			if err != nil {
				return err
			}

			app, closer, err := cli.New(cfg, log.New(cmd.ErrOrStderr(), "", 0), cmd.OutOrStdout())
			if err != nil {
				return err
			}

			written, runErr := app.Run(context.Background())
			if closeErr := closer(); closeErr != nil && runErr == nil {
				runErr = closeErr
			}

			if runErr != nil {
				return runErr
			}

			if !written {
				fmt.Fprintln(cmd.ErrOrStderr(), aurora.Green("migraph: "), "no migrations found, nothing to render")
			}

			return nil
		},
	}

	f := rootCmd.Flags()
	f.StringVarP(&cfgFile, "config", "c", "", "config file (default: ./"+cli.DefaultConfigFile+" when present)")
	f.StringVarP(&flags.Root, "root", "r", defaults.Root, "project folder to scan")
	f.StringVarP(&flags.Output, "output", "o", defaults.Output, "diagram file, - for stdout")
	f.StringVarP(&flags.Direction, "direction", "d", defaults.Direction, "diagram direction: TB, LR, BT or RL")
	f.StringVar(&flags.Extension, "extension", defaults.Extension, "migration file extension")
	f.StringVar(&flags.Initializer, "initializer", defaults.Initializer, "package initializer file stem to skip")
	f.StringVar(&flags.MigrationsDir, "migrations-dir", defaults.MigrationsDir, "name of the folders holding migrations")
	f.StringVar(&flags.DatabaseURL, "db", "", "also export the graph to sqlite://path or mysql://dsn")
	f.BoolVar(&flags.Debug, "debug", false, "print debug output")
	f.BoolVar(&flags.NoColor, "no-color", false, "disable colored output")

	_ = rootCmd.RegisterFlagCompletionFunc("direction", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"TB", "LR", "BT", "RL"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newInitCmd())

	return rootCmd
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Create a configuration file stub",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cli.DefaultConfigFile
			if len(args) == 1 {
				path = args[0]
			}

			if err := cli.InitCfg(path); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), aurora.Green("migraph: "), "created", path)
			return nil
		},
	}
}

// loadConfig starts from the config file, if any, and lets explicitly
// passed flags override it
func loadConfig(cmd *cobra.Command, cfgFile string, flags cli.Config) (cli.Config, error) {
	if cfgFile == "" && cli.FileExists(cli.DefaultConfigFile) {
		cfgFile = cli.DefaultConfigFile
	}

	if cfgFile == "" {
		return flags, nil
	}

	cfg, err := cli.LoadYaml(cfgFile)
	if err != nil {
		return cfg, err
	}

	changed := cmd.Flags().Changed
	if changed("root") {
		cfg.Root = flags.Root
	}
	if changed("output") {
		cfg.Output = flags.Output
	}
	if changed("direction") {
		cfg.Direction = flags.Direction
	}
	if changed("extension") {
		cfg.Extension = flags.Extension
	}
	if changed("initializer") {
		cfg.Initializer = flags.Initializer
	}
	if changed("migrations-dir") {
		cfg.MigrationsDir = flags.MigrationsDir
	}
	if changed("db") {
		cfg.DatabaseURL = flags.DatabaseURL
	}
	cfg.Debug = flags.Debug
	cfg.NoColor = flags.NoColor

	return cfg, nil
}
