package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"casa/internal/storage"
)

func newImportLegacyCmd(env *environment) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "import-legacy",
		Short: "Import the legacy bbolt history once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == "" {
				from = env.cfg.LegacyDBPath
			}
			if from == "" {
				return errors.New("no legacy history given: use --from or LEGACY_DB_PATH")
			}

			repo, err := InitSQLite(env.logger, env.cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			n, err := ImportLegacy(cmd.Context(), env.logger, repo, from)
			if errors.Is(err, storage.ErrAlreadyImported) {
				fmt.Fprintln(cmd.OutOrStdout(), "Legacy history was already imported")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records from %s\n", n, from)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Path to the legacy bbolt history file")
	return cmd
}
