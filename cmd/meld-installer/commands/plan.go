package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meldworks/meld-installer/pkg/plan"
	"github.com/meldworks/meld-installer/pkg/planner"
	"github.com/meldworks/meld-installer/pkg/settings"
)

func newPlanCommand() *cobra.Command {
	var (
		plannerTag string
		outFile    string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what an installation would do, without executing it",
		Long: `Assemble the installation plan for this host and print every step it
would perform. Nothing is executed and nothing is written to the system,
which makes this safe to run for review on any host.`,
		Example: `  # Explain the stock Linux installation
  meld-installer plan

  # Write the bootc plan as JSON for inspection
  meld-installer plan --planner bootc --out plan.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := settings.Load(settingsPath)
			if err != nil {
				return err
			}
			pl, err := planner.New(plannerTag, s)
			if err != nil {
				return err
			}

			if err := pl.PlatformCheck(ctx); err != nil {
				return err
			}

			actions, err := pl.Plan(ctx)
			if err != nil {
				return fmt.Errorf("failed to plan installation: %w", err)
			}
			snapshot, err := pl.Settings()
			if err != nil {
				return err
			}
			p := plan.New(pl.Tag(), snapshot, actions)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Plan %s (planner %s):\n", p.ID, p.Planner)
			printDescriptions(out, p.ExecuteDescriptions())

			if outFile != "" {
				data, err := json.MarshalIndent(p, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal plan: %w", err)
				}
				if err := os.WriteFile(outFile, data, 0o644); err != nil {
					return fmt.Errorf("failed to write plan to %s: %w", outFile, err)
				}
				fmt.Fprintf(out, "\nPlan written to %s\n", outFile)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&plannerTag, "planner", "p", planner.LinuxTag,
		fmt.Sprintf("planner to use (available: %v)", planner.Tags()))
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "also write the plan as JSON to this file")

	return cmd
}
