package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meldworks/meld-installer/pkg/action"
	"github.com/meldworks/meld-installer/pkg/journal"
	"github.com/meldworks/meld-installer/pkg/plan"
)

func newStatusCommand() *cobra.Command {
	var showJournal bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of the current installation",
		Long: `Read the install receipt and summarize it: which planner produced it,
when, and how many actions are completed, pending, or stuck in progress.
An action stuck in progress means a previous run was interrupted
mid-mutation and needs operator attention.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			store := plan.NewReceiptStore(receiptPath)
			exists, err := store.Exists()
			if err != nil {
				return err
			}
			if !exists {
				fmt.Fprintf(out, "No receipt at %s; Meld does not appear to be installed.\n", store.Path())
				return nil
			}

			p, err := store.Load()
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Plan:     %s\n", p.ID)
			fmt.Fprintf(out, "Planner:  %s\n", p.Planner)
			fmt.Fprintf(out, "Created:  %s\n", p.CreatedAt.Format("2006-01-02 15:04:05 MST"))
			fmt.Fprintf(out, "Receipt:  %s\n", store.Path())

			counts := p.StateCounts()
			fmt.Fprintf(out, "Actions:  %d completed, %d pending, %d in progress (of %d)\n",
				counts[action.StateCompleted],
				counts[action.StateUncompleted],
				counts[action.StateProgress],
				len(p.Actions))

			if p.InProgress() {
				fmt.Fprintln(out, "\nWarning: an action is stuck in progress; a previous run was interrupted mid-mutation.")
				fmt.Fprintln(out, "Inspect the system, then run `meld-installer uninstall` to revert the completed actions.")
			}

			if showJournal && journalPath != "" {
				j, err := journal.Open(cmd.Context(), journalPath)
				if err != nil {
					return fmt.Errorf("failed to open transition journal: %w", err)
				}
				defer j.Close()

				entries, err := j.Entries(cmd.Context(), p.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\nTransition journal (%d entries):\n", len(entries))
				for _, entry := range entries {
					line := fmt.Sprintf("  %s  %-12s %s", entry.RecordedAt.Format("2006-01-02 15:04:05"), entry.State, entry.Synopsis)
					if entry.Error != nil {
						line += fmt.Sprintf("  [error: %s]", *entry.Error)
					}
					fmt.Fprintln(out, line)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showJournal, "show-journal", false, "include the recorded transition history")

	return cmd
}
