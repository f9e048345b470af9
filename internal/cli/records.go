package cli

import (
	"github.com/spf13/cobra"

	"github.com/ws1993/Baby-Growth-Record/internal/growth"
	"github.com/ws1993/Baby-Growth-Record/internal/model"
)

// NewRecordsCommand creates the records command and its add subcommand.
func NewRecordsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records <member-id>",
		Short: "List a member's measurements, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := rootOpts.openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			records, err := e.store.RecordsForMember(args[0])
			if err != nil {
				return err
			}
			p := rootOpts.printer(cmd.OutOrStdout())
			if p.isJSON() {
				return p.JSON(records)
			}
			rows := make([][]string, 0, len(records))
			for _, r := range records {
				rows = append(rows, []string{
					r.Date, growth.FormatAge(r.AgeMonths),
					formatFloat(r.Height), formatChange(r.HeightChange),
					formatFloat(r.Weight), formatChange(r.WeightChange),
					formatFloat(r.BMI), string(growth.Classify(r.BMI)),
				})
			}
			return p.Table([]string{"DATE", "AGE", "HEIGHT", "+/-", "WEIGHT", "+/-", "BMI", "CATEGORY"}, rows)
		},
	}

	cmd.AddCommand(newRecordsAddCommand(rootOpts))
	return cmd
}

func newRecordsAddCommand(rootOpts *RootOptions) *cobra.Command {
	var in model.RecordInput

	cmd := &cobra.Command{
		Use:   "add <member-id>",
		Short: "Add a measurement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := rootOpts.openEnv()
			if err != nil {
				return err
			}
			defer e.Close()

			in.MemberID = args[0]
			rec, err := e.store.CreateRecord(in)
			if err != nil {
				return err
			}
			p := rootOpts.printer(cmd.OutOrStdout())
			if p.isJSON() {
				return p.JSON(rec)
			}
			p.Linef("%s  bmi %s  change %s cm / %s kg", rec.ID, formatFloat(rec.BMI),
				formatChange(rec.HeightChange), formatChange(rec.WeightChange))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Date, "date", "", "measurement date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&in.Height, "height", 0, "height in cm")
	cmd.Flags().Float64Var(&in.Weight, "weight", 0, "weight in kg")
	return cmd
}
