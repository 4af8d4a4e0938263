package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aaronromeo/mailroom/internal/mailroom"
	"github.com/aaronromeo/mailroom/internal/matchers"
	"github.com/aaronromeo/mailroom/internal/message"
	"github.com/aaronromeo/mailroom/internal/render"
	"github.com/aaronromeo/mailroom/internal/watchrunner"
)

func newWatchCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <account>",
		Short: "Poll a folder and print messages as they arrive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder, _ := cmd.Flags().GetString("folder")
			interval, _ := cmd.Flags().GetDuration("interval")
			query, _ := cmd.Flags().GetString("filter")

			out := cmd.OutOrStdout()
			deps := watchrunner.Deps{
				Fetcher:   env.svc,
				AccountID: args[0],
				Folder:    folder,
				Limit:     env.cfg.Fetch.Limit,
				Filter:    &matchers.Filter{Query: query},
				Log:       env.log.WithField("account", args[0]),
				Announce: func(s message.Summary) {
					fmt.Fprintf(out, "%s %d %s %s (%s)\n",
						color.CyanString("new"), s.UID, render.DisplayName(s.From), s.Subject, humanize.Time(s.Date))
				},
			}
			return watchrunner.Run(cmd.Context(), deps, interval)
		},
	}
	cmd.Flags().String("folder", mailroom.DefaultFolder, "Folder to watch")
	cmd.Flags().Duration("interval", watchrunner.DefaultInterval, "Time between polls")
	cmd.Flags().String("filter", "", "Only report messages whose subject or sender contains this text")
	return cmd
}
