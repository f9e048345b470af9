package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ws1993/Baby-Growth-Record/internal/backup"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		output     string
		passphrase string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all members and records to a file",
		Long: `Write all members and records to a versioned JSON file. With --passphrase
the file is encrypted. Use --output - to write to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := rootOpts.openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			now := time.Now()
			data, _, err := backup.ExportSnapshot(e.store, e.cipher, passphrase, now)
			if err != nil {
				return err
			}
			if output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if output == "" {
				output = backup.ExportFilename(now)
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			rootOpts.logger.Info("export written", "file", output, "bytes", len(data), "encrypted", passphrase != "")
			rootOpts.printer(cmd.OutOrStdout()).Linef("%s", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default growth-data-<date>.json)")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "encrypt the file with this passphrase")
	return cmd
}
