package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFoldersCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folders <account>",
		Short: "List an account's folders in the saved order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folders, err := env.svc.OrderedFolders(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, folder := range folders {
				fmt.Fprintln(cmd.OutOrStdout(), folder)
			}
			return nil
		},
	}
	cmd.AddCommand(newFolderOrderCmd(env))
	return cmd
}

func newFolderOrderCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "order <account> <folder>...",
		Short: "Save the display order of an account's folders",
		Long:  "Save the display order of an account's folders. Folders not named keep server order after the named ones.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.svc.SaveFolderOrder(cmd.Context(), args[0], args[1:]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved order of %d folders\n", len(args)-1)
			return nil
		},
	}
}
