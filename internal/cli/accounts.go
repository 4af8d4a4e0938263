package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aaronromeo/mailroom/internal/accounts"
)

func newAccountsCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage configured mail accounts",
	}
	cmd.AddCommand(newAccountsListCmd(env), newAccountsAddCmd(env), newAccountsRemoveCmd(env))
	return cmd
}

func newAccountsListCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := env.svc.ListAccounts(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No accounts configured.")
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"ID", "Name", "Email", "IMAP", "SMTP"})
			table.SetBorder(false)
			table.SetAutoWrapText(false)
			for _, account := range list {
				table.Append([]string{
					account.ID,
					account.Name,
					account.Email,
					endpointLabel(account.Inbound, accounts.DefaultInboundPort),
					endpointLabel(account.Outbound, accounts.DefaultOutboundPort),
				})
			}
			table.Render()
			return nil
		},
	}
}

func endpointLabel(ep accounts.Endpoint, defaultPort int) string {
	return fmt.Sprintf("%s (%s)", ep.Addr(defaultPort), ep.Security(defaultPort))
}

func newAccountsAddCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or replace an account",
		Long: "Add an account, or replace the account with the same --id. Passwords not given as flags " +
			"are prompted for when stdin is a terminal.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			account := accounts.Account{}
			account.ID, _ = flags.GetString("id")
			account.Name, _ = flags.GetString("name")
			account.Email, _ = flags.GetString("email")

			inbound, err := endpointFromFlags(cmd, "imap")
			if err != nil {
				return err
			}
			outbound, err := endpointFromFlags(cmd, "smtp")
			if err != nil {
				return err
			}
			account.Inbound = inbound
			account.Outbound = outbound

			id, err := env.svc.UpsertAccount(cmd.Context(), account)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved account %s\n", id)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("id", "", "Account id; a new one is generated when empty")
	flags.String("name", "", "Display name used in the From header")
	flags.String("email", "", "Sender address")
	for _, proto := range []string{"imap", "smtp"} {
		flags.String(proto+"-host", "", strings.ToUpper(proto)+" server host")
		flags.Int(proto+"-port", 0, strings.ToUpper(proto)+" server port (default by protocol)")
		flags.String(proto+"-user", "", strings.ToUpper(proto)+" username (defaults to --email)")
		flags.String(proto+"-pass", "", strings.ToUpper(proto)+" password")
		flags.Bool(proto+"-tls", true, "Use TLS for "+strings.ToUpper(proto))
	}
	return cmd
}

func endpointFromFlags(cmd *cobra.Command, proto string) (accounts.Endpoint, error) {
	flags := cmd.Flags()
	ep := accounts.Endpoint{}
	ep.Host, _ = flags.GetString(proto + "-host")
	ep.Port, _ = flags.GetInt(proto + "-port")
	ep.Username, _ = flags.GetString(proto + "-user")
	if ep.Username == "" {
		ep.Username, _ = flags.GetString("email")
	}
	if flags.Changed(proto + "-tls") {
		useTLS, _ := flags.GetBool(proto + "-tls")
		ep.TLS = accounts.Bool(useTLS)
	}

	ep.Password, _ = flags.GetString(proto + "-pass")
	if ep.Password == "" {
		password, err := promptPassword(cmd, strings.ToUpper(proto)+" password: ")
		if err != nil {
			return accounts.Endpoint{}, err
		}
		ep.Password = password
	}
	return ep, nil
}

// promptPassword reads a password without echo when stdin is a terminal.
// Otherwise no prompt is shown and the password stays empty.
func promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	if cmd.InOrStdin() != os.Stdin {
		return "", nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", err
	}
	return string(password), nil
}

func newAccountsRemoveCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an account and its stored passwords",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := env.svc.RemoveAccount(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if removed {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed account %s\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "No account %s\n", args[0])
			}
			return nil
		},
	}
}
