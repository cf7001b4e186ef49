package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/refyne-backend/internal/app"
	types "github.com/yungbote/refyne-backend/internal/domain"
)

var pollInterval time.Duration

var processCmd = &cobra.Command{
	Use:   "process <projectID>",
	Short: "Run AI processing for a project and wait for it to finish",
	Args:  cobra.ExactArgs(1),
	RunE:  runProcess,
}

func init() {
	processCmd.Flags().DurationVar(&pollInterval, "interval", 2*time.Second, "status poll interval")
}

func runProcess(cmd *cobra.Command, args []string) error {
	projectID, err := uuid.Parse(strings.TrimSpace(args[0]))
	if err != nil {
		return fmt.Errorf("invalid project id %q: %w", args[0], err)
	}

	ctx, stop := signalContext()
	defer stop()

	log, err := app.NewLogger()
	if err != nil {
		return err
	}
	application, err := app.New(ctx, log)
	if err != nil {
		log.Error("Init failed", "error", err)
		log.Sync()
		return err
	}
	defer application.Close()

	processing := application.Services.Processing
	total, err := processing.StartRun(ctx, projectID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "processing %d document(s) for project %s\n", total, projectID)

	run, err := waitForRun(ctx, pollInterval, func() types.ProcessingRun {
		return processing.GetRunStatus(projectID)
	}, func(run types.ProcessingRun) {
		fmt.Fprintln(out, formatRunProgress(run))
	})
	if err != nil {
		return fmt.Errorf("interrupted: %w", err)
	}
	return reportRun(out, run)
}

// waitForRun polls status until the run is done, calling onChange whenever
// the completed count or current document moves.
func waitForRun(ctx context.Context, interval time.Duration, status func() types.ProcessingRun, onChange func(types.ProcessingRun)) (types.ProcessingRun, error) {
	if interval <= 0 {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	last := ""
	for {
		run := status()
		if line := formatRunProgress(run); line != last {
			last = line
			onChange(run)
		}
		if run.Status != types.RunStatusProcessing {
			return run, nil
		}
		select {
		case <-ctx.Done():
			return run, ctx.Err()
		case <-t.C:
		}
	}
}

func formatRunProgress(run types.ProcessingRun) string {
	line := fmt.Sprintf("[%s] %d/%d", run.Status, run.Completed, run.Total)
	if run.CurrentDocument != nil {
		line += " " + *run.CurrentDocument
	}
	return line
}

func reportRun(out io.Writer, run types.ProcessingRun) error {
	for _, e := range run.Errors {
		name := "run"
		if e.Filename != nil {
			name = *e.Filename
		}
		fmt.Fprintf(out, "  failed: %s: %s\n", name, e.Error)
	}
	if n := len(run.Errors); n > 0 {
		return fmt.Errorf("%d of %d document(s) failed", n, run.Total)
	}
	fmt.Fprintf(out, "done: %d document(s) processed\n", run.Completed)
	return nil
}
