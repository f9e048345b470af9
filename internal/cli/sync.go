package cli

import (
	"github.com/spf13/cobra"

	"github.com/ws1993/Baby-Growth-Record/internal/backup"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync <upload|download|test>",
		Short: "Sync with the configured remote",
		Long: `Upload the encrypted data file to the configured WebDAV or S3 remote,
download and merge it, or test that the remote answers. Configure the
remote and the passphrase first with "settings remote" and
"settings passphrase".`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"upload", "download", "test"},
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := rootOpts.openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			mgr := backup.NewManager(rootOpts.syncConfig(), e.store, e.cipher, rootOpts.logger.With("component", "sync"))
			p := rootOpts.printer(cmd.OutOrStdout())

			if args[0] == "test" {
				if err := mgr.TestConnection(cmd.Context()); err != nil {
					return err
				}
				p.Linef("remote ok")
				return nil
			}

			d, err := backup.ParseDirection(args[0])
			if err != nil {
				return err
			}
			res, err := mgr.Sync(cmd.Context(), d)
			if err != nil {
				return err
			}
			if p.isJSON() {
				return p.JSON(res)
			}
			switch {
			case res.Empty:
				p.Linef("remote file does not exist yet, nothing downloaded")
			case res.Merge != nil:
				p.Linef("downloaded %d bytes: %d members and %d records added, %d replaced",
					res.Bytes, res.Merge.MembersAdded, res.Merge.RecordsAdded,
					res.Merge.MembersReplaced+res.Merge.RecordsReplaced)
			default:
				p.Linef("uploaded %d bytes", res.Bytes)
			}
			return nil
		},
	}

	return cmd
}
