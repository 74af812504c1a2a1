package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meldworks/meld-installer/pkg/plan"
	"github.com/meldworks/meld-installer/pkg/planner"
	"github.com/meldworks/meld-installer/pkg/settings"
)

func newInstallCommand() *cobra.Command {
	var (
		plannerTag string
		noConfirm  bool
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Plan and execute a Meld installation",
		Long: `Assemble an installation plan for this host, show it for review, and
execute it. Every action transition is persisted to the receipt, so an
interrupted or failed install can be reverted. If any action fails, the
already-completed actions are reverted automatically in reverse order.`,
		Example: `  # Install with the stock Linux planner
  meld-installer install

  # Install into a bootc/ostree image build without prompting
  meld-installer install --planner bootc --no-confirm`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			logger, tracer, err := newTelemetry(buildVersion)
			if err != nil {
				return err
			}
			defer tracer.Shutdown(context.Background())

			s, err := settings.Load(settingsPath)
			if err != nil {
				return err
			}
			pl, err := planner.New(plannerTag, s)
			if err != nil {
				return err
			}
			log := logger.WithPlanner(pl.Tag())

			if err := pl.PlatformCheck(ctx); err != nil {
				return err
			}
			if err := pl.PreInstallCheck(ctx); err != nil {
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

			configured, err := pl.ConfiguredSettings()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(configured) > 0 {
				fmt.Fprintln(out, "Settings differing from defaults:")
				for key, value := range configured {
					fmt.Fprintf(out, "  %s: %v\n", key, value)
				}
				fmt.Fprintln(out)
			}
			fmt.Fprintln(out, "This installation will perform the following steps:")
			printDescriptions(out, p.ExecuteDescriptions())

			if !noConfirm {
				ok, err := confirm("Proceed with installation?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "Installation cancelled.")
					return nil
				}
			}

			store := plan.NewReceiptStore(receiptPath)
			executor := plan.NewExecutor(store, log.WithPlanID(p.ID).Zerolog()).WithTracer(tracer)
			if j := openJournal(ctx, logger); j != nil {
				defer j.Close()
				executor = executor.WithRecorder(j)
			}

			if err := executor.Install(ctx, p); err != nil {
				return err
			}

			log.WithPlanID(p.ID).Info("Installation complete")
			fmt.Fprintf(out, "\nMeld is installed. Receipt written to %s\n", store.Path())
			return nil
		},
	}

	cmd.Flags().StringVarP(&plannerTag, "planner", "p", planner.LinuxTag,
		fmt.Sprintf("planner to use (available: %v)", planner.Tags()))
	cmd.Flags().BoolVar(&noConfirm, "no-confirm", false, "skip the confirmation prompt")

	return cmd
}
