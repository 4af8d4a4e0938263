package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aaronromeo/mailroom/internal/smtpsender"
)

func newSendCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <account>",
		Short: "Send a message through the account's SMTP server",
		Long:  "Send a message through the account's SMTP server. Without --body the body is read from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			msg := smtpsender.Outbound{}
			msg.To, _ = flags.GetString("to")
			msg.Subject, _ = flags.GetString("subject")
			msg.Body, _ = flags.GetString("body")
			msg.HTML, _ = flags.GetBool("html")

			if len(smtpsender.Recipients(msg.To)) == 0 {
				return errors.New("at least one recipient is required via --to")
			}
			if !flags.Changed("body") {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				msg.Body = string(data)
			}

			if err := env.svc.SendMessage(cmd.Context(), args[0], msg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s to %s\n", color.GreenString("Sent"), msg.To)
			return nil
		},
	}
	cmd.Flags().String("to", "", "Comma separated recipients")
	cmd.Flags().String("subject", "", "Subject line")
	cmd.Flags().String("body", "", "Message body (default: read stdin)")
	cmd.Flags().Bool("html", false, "Send the body as text/html")
	return cmd
}
