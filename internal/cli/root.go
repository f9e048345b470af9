// Package cli implements the growthrec command line.
package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ws1993/Baby-Growth-Record/internal/config"
	"github.com/ws1993/Baby-Growth-Record/internal/logging"
)

// RootOptions holds global flags and the state they resolve to.
type RootOptions struct {
	ConfigFile string
	DBPath     string
	Format     string // "json" | "text"
	LogLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "growthrec",
		Short: "Baby growth record",
		Long: `Track height and weight measurements for family members, derive BMI
and growth changes, and back the data up to WebDAV or S3 with end-to-end
encryption.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			cfg, err := config.Load(opts.ConfigFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				cfg.Storage.Path = opts.DBPath
			}
			level := cfg.Server.LogLevel
			if opts.LogLevel != "" {
				level = opts.LogLevel
			}
			opts.cfg = cfg
			opts.logger = logging.Setup(cmd.ErrOrStderr(), level, cfg.Server.LogFormat)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "config file (default ./growthrec.yaml)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "database file, overrides storage.path (empty keeps data in memory)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level, overrides server.log_level")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMembersCommand(opts))
	cmd.AddCommand(NewRecordsCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewSettingsCommand(opts))

	return cmd
}
