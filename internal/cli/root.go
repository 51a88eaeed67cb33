// Package cli implements the eflash command line client.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/eflash24/eflash-store/pkg/sdk"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Offline bool
	DataDir string

	// NewClient builds the SDK client; tests replace it.
	NewClient func(sdk.Config) (*sdk.Client, error)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the eflash CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{NewClient: sdk.New}

	cmd := &cobra.Command{
		Use:   "eflash",
		Short: "eflash - store client",
		Long: `Work with the eflash store collections, accounts and local features.

Every command talks to the configured gateway (EFLASH_* variables) and falls
back to the local store in --data-dir when the gateway is unreachable.`,
		SilenceUsage:  true,
		SilenceErrors: true, // reported by Run in the selected format
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			// Values already in the environment win over .env.
			_ = godotenv.Load()

			level := slog.LevelWarn
			if opts.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVar(&opts.Offline, "offline", false, "skip the gateway and use only the local store")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "local store directory (default $EFLASH_DATA_DIR)")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewPushCommand(opts))
	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewDeleteUserCommand(opts))
	cmd.AddCommand(NewTrackCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewNotifyCommand(opts))
	cmd.AddCommand(NewInboxCommand(opts))

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := Run(NewRootCommand()); err != nil {
		return GetExitCode(err)
	}
	return ExitSuccess
}

// Run executes cmd and reports a failure in the selected format: a JSON
// error envelope on stdout with --format json, "Error: ..." on stderr
// otherwise. The error is returned unchanged for the exit code.
func Run(cmd *cobra.Command) error {
	err := cmd.Execute()
	if err == nil {
		return nil
	}
	format := "text"
	if f := cmd.PersistentFlags().Lookup("format"); f != nil {
		format = f.Value.String()
	}
	if format == "json" {
		if perr := newPrinter(&RootOptions{Format: format}, cmd.OutOrStdout()).Error(err); perr == nil {
			return err
		}
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	return err
}

// withClient opens the SDK client for one command and closes it afterwards so
// local writes reach disk before the process exits.
func withClient(opts *RootOptions, fn func(*sdk.Client) error) error {
	cfg, err := sdk.ConfigFromEnv()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if opts.Offline {
		cfg.Offline = true
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}

	client, err := opts.NewClient(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "warning: close local store: %v\n", cerr)
		}
	}()
	return fn(client)
}
