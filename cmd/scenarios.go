package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "Scenario related commands",
}

var scenariosLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List configured scenarios",
	RunE:  runScenariosLs,
}

func init() {
	scenariosCmd.AddCommand(scenariosLsCmd)
	rootCmd.AddCommand(scenariosCmd)
}

func runScenariosLs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "NAME\tSIZE\tCHARGERS\tkW\tWL\tDU\tEX_B\tEX_C"); err != nil {
		return err
	}
	for _, s := range cfg.Scenarios {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%d\t%.0f\t%d\t%d\t%d\t%d\n",
			s.Name, s.Size, s.Chargers, s.ChargingPowerKW,
			s.WheelLoaders, s.Dumpers, s.ExcavatorsBattery, s.ExcavatorsCable); err != nil {
			return err
		}
	}
	return tw.Flush()
}
