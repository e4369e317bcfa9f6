package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"casa/internal/config"
	"casa/internal/log"
)

// environment is what every command gets after the root pre-run.
type environment struct {
	cfg    *config.Config
	logger *log.Logger
}

// NewRootCmd builds the casa command tree. Running casa without a
// subcommand starts the web server.
func NewRootCmd(version, buildDate string) *cobra.Command {
	env := &environment{}

	root := &cobra.Command{
		Use:           "casa",
		Short:         "Casa personal finance ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			LoadEnvFile()
			cfg, err := LoadAndValidateConfig()
			if err != nil {
				// No configured logger yet; report on stderr in text form.
				log.New(log.Config{
					Level:     slog.LevelError,
					Format:    "text",
					Component: log.ComponentCLI,
					Output:    cmd.ErrOrStderr(),
				}).Error("Invalid configuration",
					log.FieldError, err.Error(),
					log.FieldErrorType, log.ErrorTypeConfiguration,
					log.FieldOperation, log.OpValidate)
				return err
			}
			env.cfg = cfg
			env.logger = SetupLogger(cfg, cmd.ErrOrStderr())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, env)
		},
	}

	root.AddCommand(newServeCmd(env))
	root.AddCommand(newNotepadCmd(env))
	root.AddCommand(newImportLegacyCmd(env))
	root.AddCommand(newVersionCmd(version, buildDate))
	return root
}
