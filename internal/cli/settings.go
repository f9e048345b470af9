package cli

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ws1993/Baby-Growth-Record/internal/model"
)

type settingsView struct {
	model.PublicSettings
	PendingChanges int  `json:"pendingChanges"`
	CanSync        bool `json:"canSync"`
}

// NewSettingsCommand creates the settings command with its remote and
// passphrase subcommands.
func NewSettingsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show settings with credentials masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := rootOpts.openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			st := e.store.Settings()
			view := settingsView{PublicSettings: st.Sanitize(), PendingChanges: e.store.PendingChanges(), CanSync: st.CanSync()}
			p := rootOpts.printer(cmd.OutOrStdout())
			if p.isJSON() {
				return p.JSON(view)
			}
			last := "-"
			if view.LastSyncTime != nil {
				last = view.LastSyncTime.Format("2006-01-02 15:04:05")
			}
			return p.Table([]string{"KEY", "VALUE"}, [][]string{
				{"remote.driver", string(view.Remote.Driver)},
				{"remote.url", view.Remote.URL},
				{"remote.username", view.Remote.Username},
				{"remote.password", view.Remote.Password},
				{"remote.bucket", view.Remote.Bucket},
				{"remote.region", view.Remote.Region},
				{"theme", view.Theme},
				{"language", view.Language},
				{"auto_sync", strconv.FormatBool(view.AutoSync)},
				{"last_sync", last},
				{"pending_changes", strconv.Itoa(view.PendingChanges)},
				{"can_sync", strconv.FormatBool(view.CanSync)},
			})
		},
	}

	cmd.AddCommand(newSettingsRemoteCommand(rootOpts))
	cmd.AddCommand(newSettingsPassphraseCommand(rootOpts))
	return cmd
}

func newSettingsRemoteCommand(rootOpts *RootOptions) *cobra.Command {
	var cfg model.RemoteConfig
	var driver string

	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Configure the WebDAV or S3 sync remote",
		Long: `Set the remote used by sync. Flags left out keep their stored value, so
the password only needs to be given once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := rootOpts.openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			cur := e.store.Settings().Remote
			flags := cmd.Flags()
			if flags.Changed("driver") {
				cur.Driver = model.RemoteDriver(driver)
			}
			if flags.Changed("url") {
				cur.URL = cfg.URL
			}
			if flags.Changed("username") {
				cur.Username = cfg.Username
			}
			if flags.Changed("password") {
				cur.Password = cfg.Password
			}
			if flags.Changed("bucket") {
				cur.Bucket = cfg.Bucket
			}
			if flags.Changed("region") {
				cur.Region = cfg.Region
			}
			if err := e.store.UpdateRemote(cur); err != nil {
				return err
			}

			st := e.store.Settings()
			p := rootOpts.printer(cmd.OutOrStdout())
			if p.isJSON() {
				return p.JSON(st.Sanitize().Remote)
			}
			state := "incomplete"
			if st.Remote.Configured() {
				state = "configured"
			}
			p.Linef("%s remote %s", st.Remote.Driver, state)
			return nil
		},
	}

	cmd.Flags().StringVar(&driver, "driver", "", "webdav or s3")
	cmd.Flags().StringVar(&cfg.URL, "url", "", "WebDAV folder URL or S3 endpoint")
	cmd.Flags().StringVar(&cfg.Username, "username", "", "WebDAV user or S3 access key")
	cmd.Flags().StringVar(&cfg.Password, "password", "", "WebDAV password or S3 secret key")
	cmd.Flags().StringVar(&cfg.Bucket, "bucket", "", "S3 bucket")
	cmd.Flags().StringVar(&cfg.Region, "region", "", "S3 region")
	return cmd
}

func newSettingsPassphraseCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "passphrase [passphrase]",
		Short: "Set the sync encryption passphrase",
		Long: `Set the passphrase sync files are encrypted with. Without an argument the
passphrase is read from the first line of standard input.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pass string
			if len(args) == 1 {
				pass = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if line == "" && err != nil {
					return fmt.Errorf("read passphrase: %w", err)
				}
				pass = strings.TrimRight(line, "\r\n")
			}
			if pass == "" {
				return fmt.Errorf("%w: passphrase must not be empty", model.ErrValidation)
			}

			e, err := rootOpts.openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.store.SetPassphrase(pass); err != nil {
				return err
			}
			rootOpts.printer(cmd.OutOrStdout()).Linef("passphrase set")
			return nil
		},
	}
}
