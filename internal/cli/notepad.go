package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"casa/internal/storage"
)

func newNotepadCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{Use: "notepad", Short: "Read or replace the notepad shown on the summary"}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the notepad",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := InitSQLite(env.logger, env.cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			text, err := repo.GetNotepad(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <text>",
		Short: "Replace the notepad; the text is rendered as HTML",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := InitSQLite(env.logger, env.cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			return repo.SetValue(cmd.Context(), storage.NotepadKey, strings.Join(args, " "))
		},
	})
	return cmd
}
