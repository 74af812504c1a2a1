package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meldworks/meld-installer/pkg/action"
	"github.com/meldworks/meld-installer/pkg/journal"
	"github.com/meldworks/meld-installer/pkg/plan"
	"github.com/meldworks/meld-installer/pkg/telemetry"
)

var (
	// Global flags
	logLevel      string
	logFormat     string
	receiptPath   string
	settingsPath  string
	journalPath   string
	traceEndpoint string
)

// buildVersion is the binary version, used to stamp telemetry.
var buildVersion = "dev"

// Execute runs the root command.
func Execute(ctx context.Context, version, commit, buildDate string) error {
	buildVersion = version
	rootCmd := newRootCommand(version, commit, buildDate)
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		reportError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "meld-installer",
		Short: "Meld Installer - plan, apply and revert Meld installations",
		Long: `The Meld installer assembles an ordered plan of idempotent, revertible
actions for the target environment, shows it for review, executes it, and
records every step in a durable receipt. A failed install reverts itself;
a completed install can be uninstalled from the receipt alone.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().StringVar(&receiptPath, "receipt", plan.DefaultReceiptPath, "install receipt path")
	rootCmd.PersistentFlags().StringVarP(&settingsPath, "settings", "s", "", "settings file path (YAML)")
	rootCmd.PersistentFlags().StringVar(&journalPath, "journal", journal.DefaultPath, "transition journal database path (empty disables)")
	rootCmd.PersistentFlags().StringVar(&traceEndpoint, "trace-endpoint", "", "OTLP collector endpoint (enables tracing)")

	rootCmd.AddCommand(newInstallCommand())
	rootCmd.AddCommand(newUninstallCommand())
	rootCmd.AddCommand(newPlanCommand())
	rootCmd.AddCommand(newStatusCommand())

	return rootCmd
}

// newTelemetry builds the logger and tracer from the global flags.
func newTelemetry(version string) (*telemetry.Logger, *telemetry.Tracer, error) {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = version
	cfg.Logging.Level = logLevel
	cfg.Logging.Format = logFormat
	if traceEndpoint != "" {
		cfg.Tracing.Enabled = true
		cfg.Tracing.Exporter = "otlp"
		cfg.Tracing.Endpoint = traceEndpoint
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := telemetry.NewLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	tracer, err := telemetry.NewTracer(cfg.Tracing, cfg.ServiceName, cfg.ServiceVersion)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up tracing: %w", err)
	}
	return logger, tracer, nil
}

// openJournal opens the transition journal, or returns nil when journaling
// is disabled or unavailable. The journal is diagnostic only, so failure to
// open it is a warning rather than an error.
func openJournal(ctx context.Context, logger *telemetry.Logger) *journal.Journal {
	if journalPath == "" {
		return nil
	}
	j, err := journal.Open(ctx, journalPath)
	if err != nil {
		logger.Warnf("Transition journal unavailable, continuing without it: %v", err)
		return nil
	}
	return j
}

// confirm prompts on stderr and reads a yes/no answer from stdin.
func confirm(prompt string) (bool, error) {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

// printDescriptions renders explain output as an indented list.
func printDescriptions(w io.Writer, descriptions []action.Description) {
	for _, d := range descriptions {
		fmt.Fprintf(w, "* %s\n", d.Headline)
		for _, reason := range d.Reasons {
			fmt.Fprintf(w, "    %s\n", reason)
		}
	}
}

// reportError prints expected errors with their operator guidance and
// everything else verbatim.
func reportError(w io.Writer, err error) {
	if guidance, ok := action.Expected(err); ok {
		fmt.Fprintf(w, "Error: %v\n\n%s\n", err, guidance)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
