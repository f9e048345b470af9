package cli

import (
	"github.com/spf13/cobra"

	"github.com/ws1993/Baby-Growth-Record/internal/growth"
	"github.com/ws1993/Baby-Growth-Record/internal/model"
)

// memberSummary is one row of the members listing.
type memberSummary struct {
	model.Member
	Records int           `json:"records"`
	Latest  *model.Record `json:"latest,omitempty"`
}

// NewMembersCommand creates the members command and its add subcommand.
func NewMembersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "List family members with their latest measurement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := rootOpts.openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			var out []memberSummary
			for _, m := range e.store.ListMembers() {
				records, err := e.store.RecordsForMember(m.ID)
				if err != nil {
					return err
				}
				sum := memberSummary{Member: m, Records: len(records)}
				if len(records) > 0 {
					sum.Latest = &records[0]
				}
				out = append(out, sum)
			}

			p := rootOpts.printer(cmd.OutOrStdout())
			if p.isJSON() {
				if out == nil {
					out = []memberSummary{}
				}
				return p.JSON(out)
			}
			rows := make([][]string, 0, len(out))
			for _, s := range out {
				age, height, weight := "-", "-", "-"
				if s.Latest != nil {
					age = growth.FormatAge(s.Latest.AgeMonths)
					height = formatFloat(s.Latest.Height)
					weight = formatFloat(s.Latest.Weight)
				}
				rows = append(rows, []string{s.ID, s.Name, string(s.Gender), s.BirthDate, age, height, weight})
			}
			return p.Table([]string{"ID", "NAME", "GENDER", "BORN", "AGE", "HEIGHT", "WEIGHT"}, rows)
		},
	}

	cmd.AddCommand(newMembersAddCommand(rootOpts))
	return cmd
}

func newMembersAddCommand(rootOpts *RootOptions) *cobra.Command {
	var in model.MemberInput
	var gender string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a family member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := rootOpts.openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			in.Gender = model.Gender(gender)
			m, err := e.store.CreateMember(in)
			if err != nil {
				return err
			}
			p := rootOpts.printer(cmd.OutOrStdout())
			if p.isJSON() {
				return p.JSON(m)
			}
			p.Linef("%s", m.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "member name")
	cmd.Flags().StringVar(&gender, "gender", "", "male or female")
	cmd.Flags().StringVar(&in.BirthDate, "birth", "", "birth date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.Avatar, "avatar", "", "avatar URL or data URI")
	return cmd
}
