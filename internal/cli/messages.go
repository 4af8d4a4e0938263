package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/aaronromeo/mailroom/internal/mailroom"
	"github.com/aaronromeo/mailroom/internal/matchers"
	"github.com/aaronromeo/mailroom/internal/message"
	"github.com/aaronromeo/mailroom/internal/render"
)

const subjectWidth = 60

func newFetchCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <account>",
		Short: "List the most recent messages in a folder, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder, _ := cmd.Flags().GetString("folder")
			limit, _ := cmd.Flags().GetInt("limit")
			query, _ := cmd.Flags().GetString("filter")
			asJSON, _ := cmd.Flags().GetBool("json")

			summaries, err := env.svc.FetchRecent(cmd.Context(), args[0], folder, limit)
			if err != nil {
				return err
			}
			summaries, err = matchers.Apply(&matchers.Filter{Query: query}, summaries)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summaries)
			}
			if len(summaries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No messages.")
				return nil
			}
			writeSummaryTable(cmd, summaries)
			return nil
		},
	}
	cmd.Flags().String("folder", mailroom.DefaultFolder, "Folder to read")
	cmd.Flags().Int("limit", 0, "Number of messages (1-50, default from config)")
	cmd.Flags().String("filter", "", "Only show messages whose subject or sender contains this text")
	cmd.Flags().Bool("json", false, "Print messages as JSON")
	return cmd
}

func writeSummaryTable(cmd *cobra.Command, summaries []message.Summary) {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"UID", "Received", "From", "Subject"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	for _, s := range summaries {
		table.Append([]string{
			fmt.Sprint(s.UID),
			humanize.Time(s.Date),
			render.DisplayName(s.From),
			truncate(s.Subject, subjectWidth),
		})
	}
	table.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func newShowCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <account> <uid>",
		Short: "Print one message from the recent window of a folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder, _ := cmd.Flags().GetString("folder")
			limit, _ := cmd.Flags().GetInt("limit")

			summary, err := env.svc.FindMessage(cmd.Context(), args[0], folder, args[1], limit)
			if err != nil {
				return err
			}

			label := color.New(color.Bold).SprintFunc()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", label("From:"), summary.From)
			fmt.Fprintf(out, "%s %s\n", label("Subject:"), summary.Subject)
			fmt.Fprintf(out, "%s %s (%s)\n", label("Date:"), summary.Date.Format("Mon, 02 Jan 2006 15:04:05 -0700"), humanize.Time(summary.Date))
			fmt.Fprintln(out, strings.Repeat("-", 40))
			fmt.Fprintln(out, render.Text(summary))
			return nil
		},
	}
	cmd.Flags().String("folder", mailroom.DefaultFolder, "Folder to read")
	cmd.Flags().Int("limit", 0, "Size of the recent window to search")
	return cmd
}

func newDeleteCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <account> <uid>",
		Short: "Permanently delete one message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder, _ := cmd.Flags().GetString("folder")
			if err := env.svc.DeleteMessage(cmd.Context(), args[0], folder, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s message %s from %s\n", color.RedString("Deleted"), args[1], folder)
			return nil
		},
	}
	cmd.Flags().String("folder", mailroom.DefaultFolder, "Folder holding the message")
	return cmd
}
