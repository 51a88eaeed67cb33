package cli

import (
	"fmt"

	"github.com/eflash24/eflash-store/internal/engine"
	"github.com/eflash24/eflash-store/pkg/sdk"
	"github.com/spf13/cobra"
)

func collectionFor(c *sdk.Client, name string) (*sdk.Collection, error) {
	col, err := c.Collection(name)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid collection", err)
	}
	return col, nil
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var limit, skip int
	cmd := &cobra.Command{
		Use:   "list <collection>",
		Short: "List a collection, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(rootOpts, func(c *sdk.Client) error {
				col, err := collectionFor(c, args[0])
				if err != nil {
					return err
				}
				records := col.List(cmd.Context(), engine.ListOptions{Limit: limit, Skip: skip})
				return newPrinter(rootOpts, cmd.OutOrStdout()).Records(records)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum records to return (0 = all)")
	cmd.Flags().IntVar(&skip, "skip", 0, "records to skip")
	return cmd
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <collection> <id>",
		Short: "Print one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(rootOpts, func(c *sdk.Client) error {
				col, err := collectionFor(c, args[0])
				if err != nil {
					return err
				}
				rec, ok := col.GetByID(cmd.Context(), args[1])
				if !ok {
					return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("no record %s in %s", args[1], args[0])}
				}
				return newPrinter(rootOpts, cmd.OutOrStdout()).Data(rec)
			})
		},
	}
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <collection> <json>",
		Short: "Add a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := parseRecord(args[1])
			if err != nil {
				return err
			}
			return withClient(rootOpts, func(c *sdk.Client) error {
				col, err := collectionFor(c, args[0])
				if err != nil {
					return err
				}
				created, err := col.Add(cmd.Context(), rec)
				if err != nil {
					return WrapExitError(ExitFailure, "add failed", err)
				}
				return newPrinter(rootOpts, cmd.OutOrStdout()).Data(created)
			})
		},
	}
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update <collection> <id> <json>",
		Short: "Merge fields into a record",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := parseRecord(args[2])
			if err != nil {
				return err
			}
			return withClient(rootOpts, func(c *sdk.Client) error {
				col, err := collectionFor(c, args[0])
				if err != nil {
					return err
				}
				updated, err := col.Update(cmd.Context(), args[1], patch)
				if err != nil {
					return WrapExitError(ExitFailure, "update failed", err)
				}
				return newPrinter(rootOpts, cmd.OutOrStdout()).Data(updated)
			})
		},
	}
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <collection> <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(rootOpts, func(c *sdk.Client) error {
				col, err := collectionFor(c, args[0])
				if err != nil {
					return err
				}
				if err := col.Delete(cmd.Context(), args[1]); err != nil {
					return WrapExitError(ExitFailure, "delete failed", err)
				}
				return newPrinter(rootOpts, cmd.OutOrStdout()).Data(fmt.Sprintf("record %s deleted from %s", args[1], args[0]))
			})
		},
	}
}

// NewPushCommand creates the push command.
func NewPushCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Copy local records to the gateway",
		Long: `Copy local records to the gateway as new records.

Records already pushed from this data directory are skipped, so running push
again only sends what was added since. Local edits to a pushed record are not
sent again. Credentials and local features (session, analytics,
notifications) stay local.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(rootOpts, func(c *sdk.Client) error {
				n, err := c.Push(cmd.Context())
				if err != nil {
					return WrapExitError(ExitFailure, fmt.Sprintf("push stopped after %d records", n), err)
				}
				return newPrinter(rootOpts, cmd.OutOrStdout()).Data(fmt.Sprintf("pushed %d records", n))
			})
		},
	}
}
