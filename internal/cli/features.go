package cli

import (
	"fmt"

	"github.com/eflash24/eflash-store/pkg/sdk"
	"github.com/spf13/cobra"
)

// NewTrackCommand creates the track command.
func NewTrackCommand(rootOpts *RootOptions) *cobra.Command {
	var event bool
	cmd := &cobra.Command{
		Use:   "track <path>",
		Short: "Count a page view (or a named event with --event)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(rootOpts, func(c *sdk.Client) error {
				track := c.Analytics().TrackPageView
				if event {
					track = c.Analytics().TrackEvent
				}
				if err := track(args[0]); err != nil {
					return WrapExitError(ExitFailure, "track failed", err)
				}
				return newPrinter(rootOpts, cmd.OutOrStdout()).Data("tracked " + args[0])
			})
		},
	}
	cmd.Flags().BoolVar(&event, "event", false, "treat the argument as an event name")
	return cmd
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the analytics summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(rootOpts, func(c *sdk.Client) error {
				if reset {
					c.Analytics().Reset()
				}
				summary, err := c.Analytics().Summary()
				if err != nil {
					return WrapExitError(ExitFailure, "read analytics", err)
				}
				return newPrinter(rootOpts, cmd.OutOrStdout()).Data(summary)
			})
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "clear the counters first")
	return cmd
}

// NewNotifyCommand creates the notify command.
func NewNotifyCommand(rootOpts *RootOptions) *cobra.Command {
	var body, kind string
	cmd := &cobra.Command{
		Use:   "notify <title>",
		Short: "Add a notification to the local inbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(rootOpts, func(c *sdk.Client) error {
				note, err := c.Notifications().Push(args[0], body, kind)
				if err != nil {
					return WrapExitError(ExitFailure, "notify failed", err)
				}
				return newPrinter(rootOpts, cmd.OutOrStdout()).Data(note)
			})
		},
	}
	cmd.Flags().StringVar(&body, "body", "", "notification text")
	cmd.Flags().StringVar(&kind, "kind", "info", "notification kind")
	return cmd
}

// NewInboxCommand creates the inbox command.
func NewInboxCommand(rootOpts *RootOptions) *cobra.Command {
	var markRead string
	var clearAll bool
	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "List notifications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(rootOpts, func(c *sdk.Client) error {
				n := c.Notifications()
				switch {
				case clearAll:
					n.Clear()
				case markRead != "":
					if err := n.MarkRead(markRead); err != nil {
						return WrapExitError(ExitFailure, fmt.Sprintf("mark %s read", markRead), err)
					}
				}
				list, err := n.List()
				if err != nil {
					return WrapExitError(ExitFailure, "read inbox", err)
				}
				return newPrinter(rootOpts, cmd.OutOrStdout()).Data(list)
			})
		},
	}
	cmd.Flags().StringVar(&markRead, "read", "", "mark the notification with this id as read")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "empty the inbox")
	return cmd
}
