package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ws1993/Baby-Growth-Record/internal/backup"
	"github.com/ws1993/Baby-Growth-Record/internal/model"
)

type importResult struct {
	Report model.ValidationReport `json:"report"`
	Merge  model.MergeResult      `json:"merge"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	var passphrase string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Merge an exported file into local data",
		Long: `Validate an exported file and merge it into local data. Entities that
exist on both sides keep whichever copy was updated last. Nothing is merged
when the file has any validation error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read import: %w", err)
			}
			e, err := rootOpts.openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			report, merge, err := backup.ImportSnapshot(e.store, e.cipher, data, passphrase)
			p := rootOpts.printer(cmd.OutOrStdout())
			if err != nil {
				if !p.isJSON() {
					for _, problem := range report.Errors {
						p.Linef("error: %s", problem)
					}
				}
				return err
			}
			if p.isJSON() {
				return p.JSON(importResult{Report: report, Merge: merge})
			}
			for _, w := range report.Warnings {
				p.Linef("warning: %s", w)
			}
			p.Linef("members: %d added, %d replaced, %d kept", merge.MembersAdded, merge.MembersReplaced, merge.MembersKept)
			p.Linef("records: %d added, %d replaced, %d kept", merge.RecordsAdded, merge.RecordsReplaced, merge.RecordsKept)
			return nil
		},
	}

	cmd.Flags().StringVar(&passphrase, "passphrase", "", "passphrase of an encrypted file")
	return cmd
}
