package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meldworks/meld-installer/pkg/plan"
	"github.com/meldworks/meld-installer/pkg/planner"
	"github.com/meldworks/meld-installer/pkg/settings"
)

func newUninstallCommand() *cobra.Command {
	var (
		noConfirm bool
		explain   bool
	)

	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Revert a Meld installation from its receipt",
		Long: `Load the install receipt and revert every completed action in the
reverse of installation order. Reversion is best-effort: a failing action
does not stop the others, and everything that could not be undone is
reported for manual remediation. The receipt is deleted only after a
fully successful revert.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			logger, tracer, err := newTelemetry(buildVersion)
			if err != nil {
				return err
			}
			defer tracer.Shutdown(context.Background())

			store := plan.NewReceiptStore(receiptPath)
			p, err := store.Load()
			if err != nil {
				return err
			}
			log := logger.WithPlanner(p.Planner).WithPlanID(p.ID)

			// The planner that produced the plan still owns the environment
			// checks for removal.
			s, err := settings.Load(settingsPath)
			if err != nil {
				return err
			}
			pl, err := planner.New(p.Planner, s)
			if err != nil {
				return fmt.Errorf("receipt was produced by an unknown planner: %w", err)
			}
			if err := pl.PreUninstallCheck(ctx); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Uninstalling will perform the following steps:")
			printDescriptions(out, p.RevertDescriptions())
			if explain {
				return nil
			}

			if !noConfirm {
				ok, err := confirm("Proceed with uninstallation?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "Uninstallation cancelled.")
					return nil
				}
			}

			executor := plan.NewExecutor(store, log.Zerolog()).WithTracer(tracer)
			if j := openJournal(ctx, logger); j != nil {
				defer j.Close()
				executor = executor.WithRecorder(j)
			}

			if err := executor.Uninstall(ctx, p); err != nil {
				return err
			}

			log.Info("Uninstallation complete")
			fmt.Fprintln(out, "\nMeld has been removed.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&noConfirm, "no-confirm", false, "skip the confirmation prompt")
	cmd.Flags().BoolVar(&explain, "explain", false, "show the steps without executing them")

	return cmd
}
